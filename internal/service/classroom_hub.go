package service

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"classroom_backend/internal/model"
	"classroom_backend/pkg/logger"
	"classroom_backend/pkg/monitoring"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Room 连接分组。一条连接同一时刻最多属于一个组。
type Room string

const (
	RoomTeacher  Room = "teacher-room"
	RoomStudents Room = "students-room"
)

// EventHandler 解耦hub和业务：readPump收到一条消息后同步调用，
// 同一连接的下一条消息要等当前这条处理完（含落库和广播）。
type EventHandler interface {
	HandleEvent(c *Client, event string, data json.RawMessage)
}

type Client struct {
	Hub     *ClassroomHub
	Conn    *websocket.Conn
	Send    chan []byte
	ID      string
	Limiter *rate.Limiter
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Error("WebSocket unexpected close", zap.Error(err), zap.String("connId", c.ID))
			}
			break
		}

		// 限流校验 (每秒最多 30 条消息，允许突发 50 条)
		if !c.Limiter.Allow() {
			continue
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			logger.Log.Debug("Malformed message dropped", zap.String("connId", c.ID))
			continue
		}

		monitoring.WSMessageCounter.WithLabelValues(env.Event, "in").Inc()

		if handler := c.Hub.handler; handler != nil {
			handler.HandleEvent(c, env.Event, env.Data)
		}
	}
}

func (c *Client) writePump() {
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

// ClassroomHub 连接登记与分房路由。投递是尽力而为：
// 谁的发送缓冲满了就丢谁的消息，绝不阻塞课堂主路径。
type ClassroomHub struct {
	mu           sync.RWMutex
	clients      map[string]*Client
	rooms        map[Room]map[string]*Client
	participants map[string]*model.Participant
	handler      EventHandler
}

func NewClassroomHub() *ClassroomHub {
	return &ClassroomHub{
		clients: make(map[string]*Client),
		rooms: map[Room]map[string]*Client{
			RoomTeacher:  make(map[string]*Client),
			RoomStudents: make(map[string]*Client),
		},
		participants: make(map[string]*model.Participant),
	}
}

func (h *ClassroomHub) SetHandler(handler EventHandler) {
	h.handler = handler
}

func (h *ClassroomHub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
}

// Unregister 断开清理。学生离开时顺带给老师端推一条人数更新。
func (h *ClassroomHub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.ID)
	for _, members := range h.rooms {
		delete(members, c.ID)
	}
	participant := h.participants[c.ID]
	delete(h.participants, c.ID)
	total := len(h.participants)
	close(c.Send)
	h.mu.Unlock()

	if participant != nil {
		monitoring.StudentsOnline.Set(float64(total))
		h.BroadcastToRoom(RoomTeacher, EventStudentDisconnect, map[string]interface{}{
			"student_id":     participant.StudentID,
			"total_students": total,
		})
		logger.Log.Info("Student disconnected",
			zap.String("studentId", participant.StudentID),
			zap.Int("totalStudents", total))
	}
}

// Join 幂等；一条连接只属于一个组，重复加入会先从别的组摘掉
func (h *ClassroomHub) Join(c *Client, room Room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, members := range h.rooms {
		delete(members, c.ID)
	}
	h.rooms[room][c.ID] = c
}

func (h *ClassroomHub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, members := range h.rooms {
		delete(members, c.ID)
	}
}

func (h *ClassroomHub) RegisterParticipant(c *Client, p *model.Participant) int {
	h.mu.Lock()
	p.ConnID = c.ID
	h.participants[c.ID] = p
	total := len(h.participants)
	h.mu.Unlock()

	monitoring.StudentsOnline.Set(float64(total))
	return total
}

func (h *ClassroomHub) ParticipantFor(connID string) (*model.Participant, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.participants[connID]
	return p, ok
}

func (h *ClassroomHub) StudentCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.participants)
}

// ClearParticipants 下课时清空全部学生登记
func (h *ClassroomHub) ClearParticipants() {
	h.mu.Lock()
	h.participants = make(map[string]*model.Participant)
	h.mu.Unlock()
	monitoring.StudentsOnline.Set(0)
}

func marshalMessage(event string, data interface{}) []byte {
	raw, err := json.Marshal(map[string]interface{}{
		"event": event,
		"data":  data,
	})
	if err != nil {
		logger.Log.Error("Message marshal failed", zap.String("event", event), zap.Error(err))
		return nil
	}
	return raw
}

func (h *ClassroomHub) deliver(c *Client, payload []byte) {
	select {
	case c.Send <- payload:
	default:
		// 发送缓冲已满，丢弃
	}
}

func (h *ClassroomHub) Unicast(c *Client, event string, data interface{}) {
	payload := marshalMessage(event, data)
	if payload == nil {
		return
	}
	monitoring.WSMessageCounter.WithLabelValues(event, "out").Inc()
	h.deliver(c, payload)
}

func (h *ClassroomHub) BroadcastToRoom(room Room, event string, data interface{}) {
	payload := marshalMessage(event, data)
	if payload == nil {
		return
	}
	monitoring.WSMessageCounter.WithLabelValues(event, "out").Inc()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[room] {
		h.deliver(c, payload)
	}
}

func (h *ClassroomHub) BroadcastAll(event string, data interface{}) {
	payload := marshalMessage(event, data)
	if payload == nil {
		return
	}
	monitoring.WSMessageCounter.WithLabelValues(event, "out").Inc()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		h.deliver(c, payload)
	}
}

// Stop 停机前尽力广播一条下线通知，然后关闭所有连接
func (h *ClassroomHub) Stop() {
	h.BroadcastAll(EventServerShutdown, map[string]interface{}{
		"message": "Server shutting down",
	})

	h.mu.Lock()
	closed := len(h.clients)
	for id, c := range h.clients {
		close(c.Send)
		delete(h.clients, id)
	}
	for _, members := range h.rooms {
		for id := range members {
			delete(members, id)
		}
	}
	h.participants = make(map[string]*model.Participant)
	h.mu.Unlock()

	monitoring.StudentsOnline.Set(0)
	logger.Log.Info("Classroom hub stopped", zap.Int("closedConnections", closed))
}

// ServeWS 升级连接并启动读写泵
func ServeWS(hub *ClassroomHub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}
	client := &Client{
		Hub:     hub,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		ID:      uuid.New().String(),
		Limiter: rate.NewLimiter(rate.Limit(30), 50),
	}
	hub.Register(client)
	logger.Log.Info("New connection", zap.String("connId", client.ID))

	go client.writePump()
	go client.readPump()
}
