// internal/pkg/redisx/client.go
package redisx

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Client 在 go-redis 之上加了一层 Lua 脚本注册表。
// 业务侧按名字运行脚本，脚本内容只在初始化时加载一次。
type Client struct {
	rdb     redis.UniversalClient
	scripts map[string]*redis.Script
	lock    sync.RWMutex
}

// NewClient 根据地址列表创建客户端。
// addrs 为 "host1:port1,host2:port2"，单地址时走普通客户端，多地址走集群。
func NewClient(addrs string) (*Client, error) {
	list := strings.Split(addrs, ",")
	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: list,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "failed to ping redis")
	}

	return &Client{
		rdb:     rdb,
		scripts: make(map[string]*redis.Script),
	}, nil
}

// LoadScriptFromContent 注册一个命名脚本。
func (c *Client) LoadScriptFromContent(name, content string) error {
	if content == "" {
		return errors.Errorf("script %s has empty content", name)
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	c.scripts[name] = redis.NewScript(content)
	return nil
}

// RunScript 按名字执行已注册的脚本。
// redis.Script 内部使用 EVALSHA，未命中时自动退回 EVAL。
func (c *Client) RunScript(ctx context.Context, name string, keys []string, args ...interface{}) (interface{}, error) {
	c.lock.RLock()
	script, ok := c.scripts[name]
	c.lock.RUnlock()
	if !ok {
		return nil, errors.Errorf("script %s is not loaded", name)
	}
	return script.Run(ctx, c.rdb, keys, args...).Result()
}

// GetClient 暴露底层客户端，供需要 pipeline 等原生能力的调用方使用。
func (c *Client) GetClient() redis.UniversalClient {
	return c.rdb
}

// Close 关闭底层连接。
func (c *Client) Close() error {
	return c.rdb.Close()
}
