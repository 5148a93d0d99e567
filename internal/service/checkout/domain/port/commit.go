package port

import (
	"context"

	"bazaar/internal/service/checkout/domain"
)

// Commit 是提交时刻需要原子落库的全部内容。
// 单次券在应用阶段就已核销，不在这里处理。
type Commit struct {
	Order   *domain.Order
	Payment *domain.Payment

	// 提交成功后清空购物车并关闭会话
	SessionID   string
	CartItemIDs []int64
}

// CommitStore 是订单提交的出站端口。
// 实现方必须把整个 Commit 放进同一个数据库事务：
// 订单、订单行、支付记录、清空购物车、会话关闭，全有或全无。
type CommitStore interface {
	CommitOrder(ctx context.Context, commit *Commit) error
}
