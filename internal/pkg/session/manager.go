// internal/pkg/session/manager.go
package session

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"bazaar/internal/pkg/redisx"
)

const (
	keyPrefix  = "push:session:"
	sessionTTL = 12 * time.Hour
)

// Manager 维护用户到推送网关节点的映射。
// 网关多实例部署时，路由方靠它找到用户连在哪个节点上。
type Manager struct {
	client *redisx.Client
}

func NewManager(client *redisx.Client) *Manager {
	return &Manager{client: client}
}

// SetUserGateway 记录用户连接到了哪个网关节点。
func (m *Manager) SetUserGateway(ctx context.Context, userID, nodeID string) error {
	err := m.client.GetClient().Set(ctx, keyPrefix+userID, nodeID, sessionTTL).Err()
	return errors.Wrap(err, "set user gateway session")
}

// GetUserGateway 返回用户所在的网关节点，离线时返回空串。
func (m *Manager) GetUserGateway(ctx context.Context, userID string) (string, error) {
	nodeID, err := m.client.GetClient().Get(ctx, keyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "get user gateway session")
	}
	return nodeID, nil
}

// ClearUserGateway 在连接断开时清除映射。
func (m *Manager) ClearUserGateway(ctx context.Context, userID string) error {
	err := m.client.GetClient().Del(ctx, keyPrefix+userID).Err()
	return errors.Wrap(err, "clear user gateway session")
}
