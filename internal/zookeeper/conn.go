// internal/zookeeper/conn.go
package zookeeper

import (
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/pkg/errors"
)

// Conn 是对 zk.Conn 的薄封装，统一连接创建与关闭。
type Conn struct {
	*zk.Conn
}

// Connect 建立到 ZooKeeper 集群的连接。
// servers 格式为 "host1:2181,host2:2181"。
func Connect(servers string) (*Conn, error) {
	conn, _, err := zk.Connect(strings.Split(servers, ","), 10*time.Second)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to zookeeper")
	}
	return &Conn{Conn: conn}, nil
}

// EnsurePath 确保指定的持久节点存在。
func (c *Conn) EnsurePath(path string) error {
	exists, _, err := c.Exists(path)
	if err != nil {
		return errors.Wrapf(err, "failed to check node %s", path)
	}
	if exists {
		return nil
	}
	_, err = c.Create(path, []byte(""), 0, zk.WorldACL(zk.PermAll))
	if err != nil && err != zk.ErrNodeExists {
		return errors.Wrapf(err, "failed to create node %s", path)
	}
	return nil
}
