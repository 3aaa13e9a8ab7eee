package service

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"
	"marcel.works/pointing/app/model"
)

const (
	WebSocketPrefix = "ws"

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub owns the live WebSocket connections. Inbound frames become commands on
// the dispatcher; outbound events are queued per connection.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*wsClient
	dispatcher Dispatcher
	logger     *zap.Logger
}

func NewHub(dispatcher Dispatcher, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*wsClient),
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade to websocket", zap.Error(err))
		return
	}

	client := &wsClient{
		id:   WebSocketPrefix + ":" + uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	h.register(client)

	go h.writePump(client)
	go h.readPump(client)
}

// Send encodes broadcast immediately and queues it for connID. A connection
// whose queue is full is dropped.
func (h *Hub) Send(connID string, broadcast model.Broadcast) {
	payload, err := json.Marshal(broadcast)
	if err != nil {
		h.logger.Error("could not encode event", zap.String("type", broadcast.Type), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[connID]
	if !ok {
		return
	}
	select {
	case client.send <- payload:
	default:
		h.logger.Warn("send queue full, dropping connection", zap.String("conn", connID))
		h.removeLocked(client)
	}
}

// Len reports the number of open connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.id] = client
	h.logger.Info("client connected", zap.String("conn", client.id))
}

func (h *Hub) remove(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *wsClient) {
	if current, ok := h.clients[client.id]; !ok || current != client {
		return
	}
	delete(h.clients, client.id)
	close(client.send)
}

func (h *Hub) readPump(client *wsClient) {
	defer func() {
		h.remove(client)
		_ = client.conn.Close()
		h.dispatcher.Dispatch(model.Command{Cmd: model.CmdDisconnect, ConnID: client.id})
		h.logger.Info("client disconnected", zap.String("conn", client.id))
	}()

	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed", zap.String("conn", client.id), zap.Error(err))
			}
			return
		}

		var command model.Command
		if err := json.Unmarshal(message, &command); err != nil {
			h.logger.Warn("malformed command", zap.String("conn", client.id), zap.Error(err))
			continue
		}
		// the connection, not the frame, decides who is speaking
		command.ConnID = client.id
		if command.Cmd == model.CmdDisconnect {
			return
		}
		if command.Ack != 0 {
			command.Reply = h.replier(client.id, command.Ack)
		}
		h.dispatcher.Dispatch(command)
	}
}

func (h *Hub) writePump(client *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) replier(connID string, ack uint64) func(model.Ack) {
	return func(a model.Ack) {
		h.Send(connID, model.Broadcast{
			Type:      model.EventAck,
			Ack:       ack,
			Data:      a,
			Timestamp: time.Now(),
		})
	}
}
