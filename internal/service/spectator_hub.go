package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"birthday_quest_backend/pkg/logger"
	"birthday_quest_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	eventChannel = "quest_events"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// GameEvent 推送给围观端的对局事件
type GameEvent struct {
	Type      string      `json:"type"` // session_started / answer / phase / victory / restarted
	SessionID string      `json:"sessionId"`
	Data      interface{} `json:"data,omitempty"`
}

// Spectator 单个围观连接，只收不发（上行仅用于保活）
type Spectator struct {
	Hub       *SpectatorHub
	Conn      *websocket.Conn
	Send      chan []byte
	SessionID string
	Limiter   *rate.Limiter
}

func (c *Spectator) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Error("WebSocket unexpected close", zap.Error(err), zap.String("sessionId", c.SessionID))
			}
			break
		}
		// 围观端无上行业务消息，限流兜底后直接丢弃
		if !c.Limiter.Allow() {
			continue
		}
	}
}

func (c *Spectator) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if n := len(c.Send); n > 0 {
				for i := 0; i < n; i++ {
					w.Write(<-c.Send)
				}
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SpectatorHub 按对局分组管理围观连接。事件经 Redis Pub/Sub 中转，
// 多实例部署时各实例只推送本地连接。Redis 缺席时退化为本地直推。
type SpectatorHub struct {
	mu         sync.RWMutex
	spectators map[string]map[*Spectator]bool // sessionID -> connections

	register   chan *Spectator
	unregister chan *Spectator
	Redis      *redis.Client
	ctx        context.Context
}

func NewSpectatorHub(rdb *redis.Client) *SpectatorHub {
	return &SpectatorHub{
		spectators: make(map[string]map[*Spectator]bool),
		register:   make(chan *Spectator),
		unregister: make(chan *Spectator),
		Redis:      rdb,
		ctx:        context.Background(),
	}
}

func (h *SpectatorHub) Run() {
	if h.Redis != nil {
		pubsub := h.Redis.Subscribe(h.ctx, eventChannel)
		go func() {
			ch := pubsub.Channel()
			for msg := range ch {
				var event GameEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					logger.Log.Error("PubSub unmarshal error", zap.Error(err))
					continue
				}
				h.pushLocal(event.SessionID, []byte(msg.Payload))
			}
		}()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.spectators[client.SessionID] == nil {
				h.spectators[client.SessionID] = make(map[*Spectator]bool)
			}
			h.spectators[client.SessionID][client] = true
			h.mu.Unlock()
			monitoring.SpectatorGauge.Inc()

		case client := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.spectators[client.SessionID]; ok {
				if _, ok := conns[client]; ok {
					delete(conns, client)
					close(client.Send)
					monitoring.SpectatorGauge.Dec()
				}
				if len(conns) == 0 {
					delete(h.spectators, client.SessionID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast 向某对局的所有围观者推送事件
func (h *SpectatorHub) Broadcast(event GameEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Log.Error("事件序列化失败", zap.Error(err))
		return
	}
	if h.Redis != nil {
		if err := h.Redis.Publish(h.ctx, eventChannel, payload).Err(); err == nil {
			return
		}
	}
	h.pushLocal(event.SessionID, payload)
}

func (h *SpectatorHub) pushLocal(sessionID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.spectators[sessionID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

// Stop 关闭所有围观连接
func (h *SpectatorHub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	closed := 0
	for sessionID, conns := range h.spectators {
		for client := range conns {
			close(client.Send)
			closed++
		}
		delete(h.spectators, sessionID)
	}
	monitoring.SpectatorGauge.Set(0)
	logger.Log.Info("SpectatorHub stopped", zap.Int("closedConnections", closed))
}

// ServeSpectator 升级 HTTP 连接为围观 WebSocket
func ServeSpectator(hub *SpectatorHub, w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.Error(err), zap.String("sessionId", sessionID))
		return
	}
	client := &Spectator{
		Hub:       hub,
		Conn:      conn,
		Send:      make(chan []byte, 256),
		SessionID: sessionID,
		Limiter:   rate.NewLimiter(rate.Limit(5), 10),
	}
	client.Hub.register <- client

	go client.writePump()
	go client.readPump()
}
