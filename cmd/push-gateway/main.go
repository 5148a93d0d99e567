// cmd/push-gateway/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"

	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/mq"
	"bazaar/internal/pkg/redisx"
	"bazaar/internal/pkg/session"
)

const (
	serviceName = "push-gateway"

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var (
	redisAddrs        = getEnv("REDIS_ADDRS", "localhost:6379")
	kafkaBrokers      = getEnv("KAFKA_BROKERS", "localhost:9092")
	notificationTopic = getEnv("NOTIFICATION_TOPIC", "order-notifications")
	listenAddr        = getEnv("LISTEN_ADDR", ":8088")

	nodeID     = serviceName + "-" + uuid.New().String()[:8]
	sessionMgr *session.Manager

	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
)

// Hub 维护本节点上所有活跃的连接。
type Hub struct {
	clients    map[string]*Client // key 是 userID
	register   chan *Client
	unregister chan *Client
	lock       sync.RWMutex
}

func newHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.lock.Lock()
			// 同一用户重连时顶掉旧连接
			if old, ok := h.clients[client.userID]; ok {
				close(old.send)
			}
			h.clients[client.userID] = client
			h.lock.Unlock()
			logger.Logger.Info().Str("user_id", client.userID).Str("node", nodeID).Msg("client registered")
		case client := <-h.unregister:
			h.lock.Lock()
			if current, ok := h.clients[client.userID]; ok && current == client {
				delete(h.clients, client.userID)
				close(client.send)
			}
			h.lock.Unlock()

			if err := sessionMgr.ClearUserGateway(context.Background(), client.userID); err != nil {
				logger.Logger.Warn().Err(err).Str("user_id", client.userID).Msg("failed to clear session")
			}
			logger.Logger.Info().Str("user_id", client.userID).Msg("client unregistered")
		}
	}
}

// push 把消息投给指定用户，不在线返回 false。
func (h *Hub) push(userID string, message []byte) bool {
	h.lock.RLock()
	client, ok := h.clients[userID]
	h.lock.RUnlock()
	if !ok {
		return false
	}
	select {
	case client.send <- message:
		return true
	default:
		// 发送缓冲已满，视为连接不健康，交给 unregister 清理
		h.unregister <- client
		return false
	}
}

// Client 是一个 WebSocket 连接的代表。
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
}

// writePump 把 send channel 中的消息写入连接，并定期发送心跳。
// 每个连接只有一个写 goroutine，保证写操作串行。
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub 关闭了 channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 消费客户端上行消息（只有心跳），连接断开时触发注销。
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Logger.Debug().Err(err).Str("user_id", c.userID).Msg("websocket closed unexpectedly")
			}
			return
		}
	}
}

func serveWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 256), userID: userID}
	client.hub.register <- client

	// 在 Redis 里登记用户挂在本节点，路由方据此分发
	if err := sessionMgr.SetUserGateway(context.Background(), userID, nodeID); err != nil {
		logger.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to set session")
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// consumeNotifications 订阅订单事件并推送给本节点上在线的用户。
// 不在本节点的用户由其所在节点的同一消费组实例处理。
func consumeNotifications(hub *Hub) {
	reader := mq.NewKafkaReader(
		strings.Split(kafkaBrokers, ","),
		notificationTopic,
		"push-gateway-"+nodeID,
	)
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(context.Background())
		if err != nil {
			logger.Logger.Error().Err(err).Msg("could not read notification, retrying")
			time.Sleep(5 * time.Second)
			continue
		}
		routeNotification(hub, msg)
	}
}

func routeNotification(hub *Hub, msg kafka.Message) {
	userID := string(msg.Key)
	if userID == "" {
		return
	}

	gatewayNode, err := sessionMgr.GetUserGateway(context.Background(), userID)
	if err != nil {
		logger.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to look up user session")
		return
	}
	if gatewayNode != nodeID {
		// 用户离线或挂在别的节点上
		return
	}

	if hub.push(userID, msg.Value) {
		logger.Logger.Debug().Str("user_id", userID).Msg("notification pushed")
	}
}

func main() {
	logger.Init(serviceName)

	redisClient, err := redisx.NewClient(redisAddrs)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to initialize redis client")
	}
	sessionMgr = session.NewManager(redisClient)

	hub := newHub()
	go hub.run()
	go consumeNotifications(hub)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, w, r)
	})

	logger.Logger.Info().Str("node", nodeID).Str("addr", listenAddr).Msg("push gateway listening")
	if err := http.ListenAndServe(listenAddr, mux); err != nil {
		logger.Logger.Fatal().Err(err).Msg("push gateway failed")
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

