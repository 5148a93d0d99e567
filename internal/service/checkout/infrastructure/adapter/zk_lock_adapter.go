package adapter

import (
	"fmt"

	"github.com/pkg/errors"

	"bazaar/internal/pkg/logger"
	"bazaar/internal/zookeeper"
)

// ZkLockAdapter 实现了 port.CommitLocker 接口。
// 用 ZooKeeper 临时顺序节点做用户级互斥：多实例部署下
// 同一用户的提交也只会有一个在跑。
type ZkLockAdapter struct {
	conn *zookeeper.Conn
}

func NewZkLockAdapter(conn *zookeeper.Conn) *ZkLockAdapter {
	return &ZkLockAdapter{conn: conn}
}

func (a *ZkLockAdapter) AcquireCommitLock(userID int64) (func(), error) {
	lock, err := zookeeper.NewDistributedLock(a.conn, fmt.Sprintf("checkout-user-%d", userID))
	if err != nil {
		return nil, errors.Wrap(err, "prepare commit lock")
	}
	if err := lock.Lock(); err != nil {
		return nil, errors.Wrap(err, "acquire commit lock")
	}

	release := func() {
		if err := lock.Unlock(); err != nil {
			logger.Logger.Warn().Err(err).Int64("user_id", userID).Msg("failed to release commit lock")
		}
	}
	return release, nil
}
