package websocket

import (
	"sync"

	"go.uber.org/zap"
)

// Hub 维护所有打开的订阅连接
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	log     *zap.Logger
}

// NewHub 创建新的Hub
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		log:     log.Named("ws"),
	}
}

// Register 注册客户端
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Debug("client registered", zap.String("remote", client.remote), zap.Int("clients", n))
}

// Unregister 注销客户端，未注册的客户端忽略
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		h.log.Debug("client unregistered", zap.String("remote", client.remote), zap.Int("clients", n))
	}
}

// Count 返回当前连接数
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll 以 going-away 关闭所有连接
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		c.closeWith(closeGoingAway, "server shutting down")
	}
	if len(clients) > 0 {
		h.log.Info("closed subscription connections", zap.Int("clients", len(clients)))
	}
}
