// Package websocket 基于 graphql-transport-ws 协议提供 GraphQL 订阅
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/graph-gophers/graphql-go"
	gqlerrors "github.com/graph-gophers/graphql-go/errors"
	"go.uber.org/zap"
)

// Subprotocol WebSocket 子协议名
const Subprotocol = "graphql-transport-ws"

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时
	pongWait = 60 * time.Second

	// 发送ping间隔时间，必须小于pongWait
	pingPeriod = (pongWait * 9) / 10

	// 最大消息大小
	maxMessageSize = 64 << 10

	defaultInitTimeout = 10 * time.Second
)

// 消息类型
const (
	typeConnectionInit = "connection_init"
	typeConnectionAck  = "connection_ack"
	typePing           = "ping"
	typePong           = "pong"
	typeSubscribe      = "subscribe"
	typeNext           = "next"
	typeError          = "error"
	typeComplete       = "complete"
)

// 关闭码
const (
	closeGoingAway         = websocket.CloseGoingAway
	closeBadRequest        = 4400
	closeUnauthorized      = 4401
	closeInitTimeout       = 4408
	closeSubscriberExists  = 4409
	closeTooManyInitialise = 4429
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	Subprotocols:    []string{Subprotocol},
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type message struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type subscribePayload struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// Client 代表一个订阅连接
type Client struct {
	conn   *websocket.Conn
	remote string
	send   chan []byte

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	acked     atomic.Bool
	initTimer *time.Timer

	mu   sync.Mutex
	subs map[string]*operation
}

// operation 是一个正在运行的订阅
type operation struct {
	cancel context.CancelFunc
}

// Handler WebSocket订阅处理器
type Handler struct {
	// InitTimeout 是等待 connection_init 的最长时间，超时以 4408 关闭连接
	InitTimeout time.Duration

	schema *graphql.Schema
	hub    *Hub
	log    *zap.Logger
}

// NewHandler 创建WebSocket订阅处理器
func NewHandler(schema *graphql.Schema, hub *Hub, log *zap.Logger) *Handler {
	return &Handler{
		InitTimeout: defaultInitTimeout,
		schema:      schema,
		hub:         hub,
		log:         log.Named("ws"),
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(router gin.IRoutes, path string) {
	router.GET(path, h.ServeWS)
}

// ServeWS 升级HTTP连接为WebSocket并启动读写goroutine
func (h *Handler) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		conn:   conn,
		remote: c.ClientIP(),
		send:   make(chan []byte, 256),
		ctx:    ctx,
		cancel: cancel,
		subs:   make(map[string]*operation),
	}
	client.initTimer = time.AfterFunc(h.InitTimeout, func() {
		if !client.acked.Load() {
			client.closeWith(closeInitTimeout, "Connection initialisation timeout")
		}
	})
	h.hub.Register(client)

	go h.writePump(client)
	go h.readPump(client)
}

// readPump 从WebSocket连接读取消息
func (h *Handler) readPump(client *Client) {
	defer func() {
		client.initTimer.Stop()
		h.hub.Unregister(client)
		client.closeWith(websocket.CloseNormalClosure, "")
	}()

	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.log.Warn("websocket read failed", zap.Error(err))
			}
			return
		}
		client.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			client.closeWith(closeBadRequest, "Invalid message received")
			return
		}
		if !h.dispatch(client, msg) {
			return
		}
	}
}

// dispatch 处理一条客户端消息，返回连接是否继续保持
func (h *Handler) dispatch(client *Client, msg message) bool {
	switch msg.Type {
	case typeConnectionInit:
		if client.acked.Swap(true) {
			client.closeWith(closeTooManyInitialise, "Too many initialisation requests")
			return false
		}
		client.initTimer.Stop()
		client.enqueue(message{Type: typeConnectionAck})
	case typePing:
		client.enqueue(message{Type: typePong, Payload: msg.Payload})
	case typePong:
	case typeSubscribe:
		if !client.acked.Load() {
			client.closeWith(closeUnauthorized, "Unauthorized")
			return false
		}
		return h.subscribe(client, msg)
	case typeComplete:
		client.finish(msg.ID)
	default:
		client.closeWith(closeBadRequest, "Invalid message received")
		return false
	}
	return true
}

func (h *Handler) subscribe(client *Client, msg message) bool {
	var payload subscribePayload
	if msg.ID == "" || json.Unmarshal(msg.Payload, &payload) != nil || payload.Query == "" {
		client.closeWith(closeBadRequest, "Invalid message received")
		return false
	}

	client.mu.Lock()
	if _, exists := client.subs[msg.ID]; exists {
		client.mu.Unlock()
		client.closeWith(closeSubscriberExists, "Subscriber for "+msg.ID+" already exists")
		return false
	}
	ctx, cancel := context.WithCancel(client.ctx)
	op := &operation{cancel: cancel}
	client.subs[msg.ID] = op
	client.mu.Unlock()

	events, err := h.schema.Subscribe(ctx, payload.Query, payload.OperationName, payload.Variables)
	if err != nil {
		client.release(msg.ID, op)
		h.log.Debug("subscribe rejected", zap.String("id", msg.ID), zap.Error(err))
		errs, _ := json.Marshal([]*gqlerrors.QueryError{gqlerrors.Errorf("%s", err)})
		client.enqueue(message{ID: msg.ID, Type: typeError, Payload: errs})
		return true
	}

	go func() {
		defer client.release(msg.ID, op)
		for event := range events {
			// 只有错误没有数据的响应以 error 帧结束该操作，不再发送 complete
			if resp, ok := event.(*graphql.Response); ok && len(resp.Errors) > 0 && len(resp.Data) == 0 {
				payload, _ := json.Marshal(resp.Errors)
				client.enqueue(message{ID: msg.ID, Type: typeError, Payload: payload})
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				h.log.Error("encode subscription event", zap.String("id", msg.ID), zap.Error(err))
				continue
			}
			client.enqueue(message{ID: msg.ID, Type: typeNext, Payload: payload})
		}
		if ctx.Err() == nil {
			client.enqueue(message{ID: msg.ID, Type: typeComplete})
		}
	}()
	return true
}

// writePump 向WebSocket连接发送消息
func (h *Handler) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				client.closeWith(websocket.CloseAbnormalClosure, "")
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				client.closeWith(websocket.CloseAbnormalClosure, "")
				return
			}
		case <-client.ctx.Done():
			return
		}
	}
}

// enqueue 将消息放入发送队列，连接关闭后丢弃
func (c *Client) enqueue(msg message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	case <-c.ctx.Done():
	}
}

// finish 取消指定 id 的操作
func (c *Client) finish(id string) {
	c.mu.Lock()
	op, ok := c.subs[id]
	delete(c.subs, id)
	c.mu.Unlock()
	if ok {
		op.cancel()
	}
}

// release 取消 op 并释放其 id；id 已被新操作占用时保留新操作
func (c *Client) release(id string, op *operation) {
	c.mu.Lock()
	if c.subs[id] == op {
		delete(c.subs, id)
	}
	c.mu.Unlock()
	op.cancel()
}

// closeWith 发送关闭帧并关闭连接，只有第一次调用生效
func (c *Client) closeWith(code int, reason string) {
	c.closeOnce.Do(func() {
		if code != websocket.CloseAbnormalClosure {
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		}
		c.cancel()
		_ = c.conn.Close()
	})
}
