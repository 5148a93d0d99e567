// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config 是所有服务共享的配置结构。
// 配置从 YAML 文件加载，个别字段允许被环境变量覆盖。
type Config struct {
	App   AppConfig   `yaml:"app"`
	Infra InfraConfig `yaml:"infra"`
}

type AppConfig struct {
	// CheckoutTimeout 是单次下单提交流程的超时上限
	CheckoutTimeout time.Duration `yaml:"checkout_timeout"`
	// PublicBaseURL 是对外可达的服务地址，支付网关回跳时使用
	PublicBaseURL string       `yaml:"public_base_url"`
	FeatureFlags  FeatureFlags `yaml:"feature_flags"`
}

type FeatureFlags struct {
	// EnableCouponRedeemGuard 控制是否启用 Redis 侧的单次券核销护栏
	EnableCouponRedeemGuard bool `yaml:"enable_coupon_redeem_guard"`
}

type InfraConfig struct {
	Mysql struct {
		DSN string `yaml:"dsn"`
	} `yaml:"mysql"`
	Redis struct {
		Addrs string `yaml:"addrs"`
	} `yaml:"redis"`
	Kafka struct {
		Brokers           string `yaml:"brokers"`
		NotificationTopic string `yaml:"notification_topic"`
	} `yaml:"kafka"`
	Jaeger struct {
		Endpoint string `yaml:"endpoint"`
	} `yaml:"jaeger"`
	Zookeeper struct {
		Servers string `yaml:"servers"`
	} `yaml:"zookeeper"`
	PaymentGateway struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"payment_gateway"`
	Nacos struct {
		ServerAddrs string `yaml:"server_addrs"`
		Namespace   string `yaml:"namespace"`
		Group       string `yaml:"group"`
	} `yaml:"nacos"`
}

var (
	currentConfig Config
	configLock    sync.RWMutex
)

// GetCurrentConfig 返回当前生效的配置快照。
func GetCurrentConfig() Config {
	configLock.RLock()
	defer configLock.RUnlock()
	return currentConfig
}

// LoadConfig 从 CONFIG_PATH 指向的 YAML 文件加载配置。
// 文件不存在时退回到纯环境变量/默认值，方便本地开发。
func LoadConfig() (Config, error) {
	cfg := defaultConfig()

	if path := getEnv("CONFIG_PATH", ""); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrapf(err, "read config file %s", path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parse config file %s", path)
		}
	}

	applyEnvOverrides(&cfg)

	configLock.Lock()
	currentConfig = cfg
	configLock.Unlock()
	return cfg, nil
}

func defaultConfig() Config {
	var cfg Config
	cfg.App.CheckoutTimeout = 30 * time.Second
	cfg.App.PublicBaseURL = "http://localhost:8080"
	cfg.App.FeatureFlags.EnableCouponRedeemGuard = true
	cfg.Infra.Mysql.DSN = "root:root@tcp(localhost:3306)/bazaar?charset=utf8mb4&parseTime=True&loc=Local"
	cfg.Infra.Redis.Addrs = "localhost:6379"
	cfg.Infra.Kafka.Brokers = "localhost:9092"
	cfg.Infra.Kafka.NotificationTopic = "order-notifications"
	cfg.Infra.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	cfg.Infra.Zookeeper.Servers = "localhost:2181"
	cfg.Infra.PaymentGateway.BaseURL = "https://sandbox.zarinpal.com/pg/rest/WebGate"
	cfg.Infra.Nacos.ServerAddrs = "localhost:8848"
	cfg.Infra.Nacos.Group = "DEFAULT_GROUP"
	return cfg
}

// applyEnvOverrides 让部署环境可以不改文件直接覆盖关键项。
func applyEnvOverrides(cfg *Config) {
	cfg.App.PublicBaseURL = getEnv("PUBLIC_BASE_URL", cfg.App.PublicBaseURL)
	cfg.Infra.Mysql.DSN = getEnv("MYSQL_DSN", cfg.Infra.Mysql.DSN)
	cfg.Infra.Redis.Addrs = getEnv("REDIS_ADDRS", cfg.Infra.Redis.Addrs)
	cfg.Infra.Kafka.Brokers = getEnv("KAFKA_BROKERS", cfg.Infra.Kafka.Brokers)
	cfg.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", cfg.Infra.Jaeger.Endpoint)
	cfg.Infra.Zookeeper.Servers = getEnv("ZK_SERVERS", cfg.Infra.Zookeeper.Servers)
	cfg.Infra.PaymentGateway.BaseURL = getEnv("PAYMENT_GATEWAY_URL", cfg.Infra.PaymentGateway.BaseURL)
	cfg.Infra.Nacos.ServerAddrs = getEnv("NACOS_SERVER_ADDRS", cfg.Infra.Nacos.ServerAddrs)
	cfg.Infra.Nacos.Namespace = getEnv("NACOS_NAMESPACE", cfg.Infra.Nacos.Namespace)
	cfg.Infra.Nacos.Group = getEnv("NACOS_GROUP", cfg.Infra.Nacos.Group)
}

// getEnv 是一个内部辅助函数，从环境变量中读取配置。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
