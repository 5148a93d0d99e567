// cmd/storefront-service/main.go
package main

import (
	"strings"

	"go.opentelemetry.io/otel"

	"bazaar/internal/pkg/bootstrap"
	"bazaar/internal/pkg/db"
	"bazaar/internal/pkg/httpclient"
	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/mq"
	"bazaar/internal/pkg/redisx"
	cartapp "bazaar/internal/service/cart/application"
	cartinfra "bazaar/internal/service/cart/infrastructure"
	cartiface "bazaar/internal/service/cart/interfaces"
	cataloginfra "bazaar/internal/service/catalog/infrastructure"
	checkoutapp "bazaar/internal/service/checkout/application"
	checkoutinfra "bazaar/internal/service/checkout/infrastructure"
	checkoutadapter "bazaar/internal/service/checkout/infrastructure/adapter"
	checkoutiface "bazaar/internal/service/checkout/interfaces"
	promoapp "bazaar/internal/service/promotion/application"
	promoinfra "bazaar/internal/service/promotion/infrastructure"
	promoadapter "bazaar/internal/service/promotion/infrastructure/adapter"
	"bazaar/internal/service/promotion/infrastructure/rule"
	"bazaar/internal/zookeeper"
)

const (
	serviceName = "storefront-service"
	servicePort = 8080
)

// main 是应用的组装根：创建并组装所有依赖项，然后交给 bootstrap 启动。
func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        servicePort,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			cfg := bootstrap.GetCurrentConfig()
			tracer := otel.Tracer(serviceName)

			// 1. 基础设施连接
			gormDB, err := db.Open(cfg.Infra.Mysql.DSN)
			if err != nil {
				logger.Logger.Fatal().Err(err).Msg("failed to open mysql connection")
			}

			redisClient, err := redisx.NewClient(cfg.Infra.Redis.Addrs)
			if err != nil {
				logger.Logger.Fatal().Err(err).Msg("failed to initialize redis client")
			}

			zkConn, err := zookeeper.Connect(cfg.Infra.Zookeeper.Servers)
			if err != nil {
				logger.Logger.Fatal().Err(err).Msg("failed to connect to zookeeper")
			}

			kafkaWriter := mq.NewKafkaWriter(
				strings.Split(cfg.Infra.Kafka.Brokers, ","),
				cfg.Infra.Kafka.NotificationTopic,
			)

			httpClient := httpclient.NewClient(tracer)

			// 2. 仓储与适配器
			catalogRepo := cataloginfra.NewGormCatalogRepository(gormDB)
			cartRepo := cartinfra.NewGormItemRepository(gormDB)
			promoRepo := promoinfra.NewGormPromotionRepository(gormDB)
			sessionRepo := checkoutinfra.NewGormSessionRepository(gormDB)
			orderRepo := checkoutinfra.NewGormOrderRepository(gormDB)
			paymentRepo := checkoutinfra.NewGormPaymentRepository(gormDB)
			addressDir := checkoutinfra.NewGormAddressDirectory(gormDB)
			deliveryDir := checkoutinfra.NewGormDeliveryDirectory(gormDB)
			commitStore := checkoutinfra.NewGormCommitStore(gormDB)

			ruleEngine, err := rule.NewCELRuleEngine()
			if err != nil {
				logger.Logger.Fatal().Err(err).Msg("failed to build rule engine")
			}

			redeemGuard, err := promoadapter.NewRedeemRedisAdapter(redisClient)
			if err != nil {
				logger.Logger.Fatal().Err(err).Msg("failed to initialize coupon redeem guard")
			}

			gateway := checkoutadapter.NewGatewayHTTPAdapter(httpClient, cfg.Infra.PaymentGateway.BaseURL)
			notifier := checkoutadapter.NewNotificationKafkaAdapter(kafkaWriter)
			locker := checkoutadapter.NewZkLockAdapter(zkConn)

			// 3. 应用服务
			cartService := cartapp.NewCartService(cartRepo, catalogRepo, tracer)
			promoService := promoapp.NewPromotionService(promoRepo, ruleEngine, tracer)
			checkoutService := checkoutapp.NewCheckoutService(checkoutapp.CheckoutServiceDeps{
				SessionRepo:     sessionRepo,
				OrderRepo:       orderRepo,
				PaymentRepo:     paymentRepo,
				AddressDir:      addressDir,
				DeliveryDir:     deliveryDir,
				Cart:            cartService,
				Promo:           promoService,
				Gateway:         gateway,
				CommitStore:     commitStore,
				Notifier:        notifier,
				Locker:          locker,
				RedeemGuard:     redeemGuard,
				CheckoutTimeout: cfg.App.CheckoutTimeout,
				CallbackURL:     cfg.App.PublicBaseURL + "/payment/callback",
				RedeemGuardOn:   cfg.App.FeatureFlags.EnableCouponRedeemGuard,
				Tracer:          tracer,
			})

			// 4. HTTP 接口
			cartiface.NewCartHandler(cartService).RegisterRoutes(appCtx.Mux)
			checkoutiface.NewCheckoutHandler(checkoutService).RegisterRoutes(appCtx.Mux)
		},
	})
}
