// internal/service/promotion/infrastructure/adapter/redeem_redis_adapter.go
package adapter

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"bazaar/internal/pkg/redisx"
)

const (
	redeemScriptName = "coupon_redeem"
	redeemTTLSeconds = 300 // 护栏保留 5 分钟，足够覆盖一次结算事务
)

// RedeemRedisAdapter 是 domain.RedeemGuard 的 Redis 实现。
// 数据库事务只能在同一连接内保证原子性，两个并发请求可以同时读到
// 同一张 active 状态的单次券；这里用 Lua 脚本在事务之前抢占券码，
// 失败的一方直接拒绝，不进入事务。
type RedeemRedisAdapter struct {
	redisClient *redisx.Client
}

// NewRedeemRedisAdapter 创建核销护栏适配器，初始化时加载 Lua 脚本。
func NewRedeemRedisAdapter(redisClient *redisx.Client) (*RedeemRedisAdapter, error) {
	if err := redisClient.LoadScriptFromContent(redeemScriptName, redeemScript); err != nil {
		return nil, errors.Wrap(err, "failed to load coupon redeem script")
	}
	return &RedeemRedisAdapter{redisClient: redisClient}, nil
}

// Acquire 尝试占住券码。返回 false 表示已被其他会话占用。
func (a *RedeemRedisAdapter) Acquire(ctx context.Context, code, sessionRef string) (bool, error) {
	key := fmt.Sprintf("coupon:redeem:{%s}", code)

	result, err := a.redisClient.RunScript(ctx, redeemScriptName, []string{key}, sessionRef, redeemTTLSeconds)
	if err != nil {
		return false, errors.Wrap(err, "redeem guard failed to run script")
	}

	outcome, ok := result.(int64)
	if !ok {
		return false, errors.Errorf("unexpected result type from Lua script: %T", result)
	}
	return outcome == 1, nil
}

// Release 释放占用，用于事务回滚后的补偿。
func (a *RedeemRedisAdapter) Release(ctx context.Context, code string) error {
	key := fmt.Sprintf("coupon:redeem:{%s}", code)
	return a.redisClient.GetClient().Del(ctx, key).Err()
}

var redeemScript = `
-- KEYS[1]: 券码护栏 key, 例如: coupon:redeem:{SUMMER50}
-- ARGV[1]: 当前结算会话标识
-- ARGV[2]: 护栏过期秒数

-- 已被占用则直接失败
if redis.call('exists', KEYS[1]) == 1 then
    return 0
end

redis.call('set', KEYS[1], ARGV[1], 'EX', tonumber(ARGV[2]))
return 1
`
