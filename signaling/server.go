// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package signaling

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/bureau-foundation/rtcrelay/lib/netutil"
)

const (
	// RoomCapacity is the number of peers a room admits.
	RoomCapacity = 2

	// maxMessageSize bounds one inbound message. An SDP offer with a
	// handful of media sections is a few kilobytes.
	maxMessageSize = 64 << 10

	memberQueueSize = 64
	writeTimeout    = 10 * time.Second
	pongTimeout     = 60 * time.Second
	pingInterval    = pongTimeout * 9 / 10
)

// WebSocketServer relays Messages between the members of a room. Each
// websocket request joins the room named by its "room" query
// parameter. Rooms are created on first join and removed when empty.
type WebSocketServer struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu     sync.Mutex
	rooms  map[string]map[string]*member
	closed bool
}

// member is one connected peer. Only its writer goroutine writes to
// conn.
type member struct {
	id    string
	room  string
	conn  *websocket.Conn
	queue chan Message
	done  chan struct{}
	once  sync.Once
}

func (m *member) stop() {
	m.once.Do(func() { close(m.done) })
}

// NewWebSocketServer creates a server with no rooms.
func NewWebSocketServer(logger *slog.Logger) *WebSocketServer {
	return &WebSocketServer{
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		rooms: make(map[string]map[string]*member),
	}
}

// ServeHTTP upgrades the request and joins the requested room. A
// missing room parameter is rejected with 400 and a full room with 409,
// both before the upgrade.
func (s *WebSocketServer) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	roomName := request.URL.Query().Get("room")
	if roomName == "" {
		http.Error(writer, "missing room parameter", http.StatusBadRequest)
		return
	}

	joined := &member{
		id:    uuid.NewString(),
		room:  roomName,
		queue: make(chan Message, memberQueueSize),
		done:  make(chan struct{}),
	}
	present, err := s.reserve(joined)
	if err != nil {
		status := http.StatusConflict
		if errors.Is(err, ErrClosed) {
			status = http.StatusServiceUnavailable
		}
		s.logger.Warn("rejecting signaling client", "room", roomName, "error", err)
		http.Error(writer, err.Error(), status)
		return
	}

	conn, err := s.upgrader.Upgrade(writer, request, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		s.logger.Warn("websocket upgrade failed", "room", roomName, "error", err)
		s.leave(joined, false)
		return
	}
	joined.conn = conn

	joined.queue <- Message{Type: TypeHello, To: joined.id}
	for _, other := range present {
		joined.queue <- Message{Type: TypeHello, From: other.id, To: joined.id}
		s.deliver(other, Message{Type: TypeHello, From: joined.id, To: other.id})
	}
	s.logger.Info("signaling client joined", "room", roomName, "peer", joined.id, "members", len(present)+1)

	go s.writeLoop(joined)
	s.readLoop(joined)
}

// reserve adds m to its room and returns the members already present.
func (s *WebSocketServer) reserve(m *member) ([]*member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	room := s.rooms[m.room]
	if room == nil {
		room = make(map[string]*member)
		s.rooms[m.room] = room
	}
	if len(room) >= RoomCapacity {
		return nil, ErrRoomFull
	}
	present := make([]*member, 0, len(room))
	for _, other := range room {
		present = append(present, other)
	}
	room[m.id] = m
	return present, nil
}

// leave removes m from its room and, when announce is set, sends bye
// to the remaining members.
func (s *WebSocketServer) leave(m *member, announce bool) {
	s.mu.Lock()
	room := s.rooms[m.room]
	delete(room, m.id)
	if len(room) == 0 {
		delete(s.rooms, m.room)
	}
	remaining := make([]*member, 0, len(room))
	for _, other := range room {
		remaining = append(remaining, other)
	}
	s.mu.Unlock()

	m.stop()
	if !announce {
		return
	}
	for _, other := range remaining {
		s.deliver(other, Message{Type: TypeBye, From: m.id, To: other.id})
	}
	s.logger.Info("signaling client left", "room", m.room, "peer", m.id)
}

// deliver queues message for m. A member whose queue is full is
// disconnected rather than allowed to stall the sender.
func (s *WebSocketServer) deliver(m *member, message Message) {
	select {
	case m.queue <- message:
	case <-m.done:
	default:
		s.logger.Warn("signaling client too slow, disconnecting", "room", m.room, "peer", m.id)
		m.stop()
	}
}

// relay forwards message from sender to the other members of the room,
// or to message.To alone when set.
func (s *WebSocketServer) relay(sender *member, message Message) {
	message.From = sender.id

	s.mu.Lock()
	var targets []*member
	for id, other := range s.rooms[sender.room] {
		if id == sender.id || (message.To != "" && id != message.To) {
			continue
		}
		targets = append(targets, other)
	}
	s.mu.Unlock()

	for _, target := range targets {
		s.deliver(target, message)
	}
}

func (s *WebSocketServer) readLoop(m *member) {
	defer func() {
		s.leave(m, true)
		m.conn.Close()
	}()

	m.conn.SetReadLimit(maxMessageSize)
	m.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	m.conn.SetPongHandler(func(string) error {
		return m.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		var message Message
		if err := m.conn.ReadJSON(&message); err != nil {
			if !netutil.IsExpectedCloseError(err) {
				s.logger.Debug("signaling read failed", "peer", m.id, "error", err)
			}
			return
		}
		if err := message.Validate(); err != nil {
			s.logger.Warn("dropping invalid signaling message", "peer", m.id, "error", err)
			continue
		}
		if message.Type == TypeHello || message.Type == TypeBye {
			continue
		}
		s.relay(m, message)
	}
}

func (s *WebSocketServer) writeLoop(m *member) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		m.conn.Close()
	}()

	for {
		select {
		case message := <-m.queue:
			m.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := m.conn.WriteJSON(message); err != nil {
				s.logger.Debug("signaling write failed", "peer", m.id, "error", err)
				return
			}
		case <-ticker.C:
			m.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := m.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-m.done:
			m.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeTimeout))
			return
		}
	}
}

// Rooms returns the number of rooms with at least one member.
func (s *WebSocketServer) Rooms() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// Close disconnects every member and rejects further joins. http.Server
// Shutdown does not track hijacked websocket connections, so callers
// shut down the HTTP server and then call Close.
func (s *WebSocketServer) Close() error {
	s.mu.Lock()
	s.closed = true
	var members []*member
	for _, room := range s.rooms {
		for _, m := range room {
			members = append(members, m)
		}
	}
	s.mu.Unlock()

	for _, m := range members {
		m.stop()
	}
	return nil
}
