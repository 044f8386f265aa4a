// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package signaling

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bureau-foundation/rtcrelay/lib/netutil"
)

// Compile-time interface check.
var _ Signaler = (*WebSocketSignaler)(nil)

// WebSocketSignaler is a Signaler connected to a WebSocketServer room.
type WebSocketSignaler struct {
	conn   *websocket.Conn
	logger *slog.Logger

	writeMu sync.Mutex

	incoming chan Message
	readDone chan struct{}
	readErr  error

	done      chan struct{}
	closeOnce sync.Once
}

// DialWebSocket connects to a signaling room, for example
// "ws://host:8089/ws?room=lobby". header is sent with the upgrade
// request and may be nil. A full room fails with ErrRoomFull.
func DialWebSocket(ctx context.Context, url string, header http.Header, logger *slog.Logger) (*WebSocketSignaler, error) {
	conn, response, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if response == nil {
			return nil, fmt.Errorf("dialing %s: %w", url, err)
		}
		if response.StatusCode == http.StatusConflict {
			return nil, fmt.Errorf("dialing %s: %w", url, ErrRoomFull)
		}
		return nil, fmt.Errorf("dialing %s: %w (%d %s)", url, err,
			response.StatusCode, netutil.ErrorBody(response.Body))
	}
	conn.SetReadLimit(maxMessageSize)

	signaler := &WebSocketSignaler{
		conn:     conn,
		logger:   logger,
		incoming: make(chan Message, memberQueueSize),
		readDone: make(chan struct{}),
		done:     make(chan struct{}),
	}
	go signaler.readLoop()
	logger.Debug("signaling connected", "url", url)
	return signaler, nil
}

func (s *WebSocketSignaler) readLoop() {
	defer close(s.readDone)
	for {
		var message Message
		if err := s.conn.ReadJSON(&message); err != nil {
			if !netutil.IsExpectedCloseError(err) {
				s.logger.Warn("signaling connection lost", "error", err)
			}
			s.readErr = err
			return
		}
		select {
		case s.incoming <- message:
		case <-s.done:
			s.readErr = ErrClosed
			return
		}
	}
}

func (s *WebSocketSignaler) Send(ctx context.Context, message Message) error {
	if err := message.Validate(); err != nil {
		return err
	}
	select {
	case <-s.done:
		return ErrClosed
	default:
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(writeTimeout)
	}
	s.conn.SetWriteDeadline(deadline)
	if err := s.conn.WriteJSON(message); err != nil {
		return fmt.Errorf("writing %s message: %w", message.Type, err)
	}
	return nil
}

// Receive returns messages already read before reporting a closed
// connection.
func (s *WebSocketSignaler) Receive(ctx context.Context) (Message, error) {
	select {
	case message := <-s.incoming:
		return message, nil
	case <-s.done:
		return Message{}, ErrClosed
	case <-s.readDone:
		select {
		case message := <-s.incoming:
			return message, nil
		default:
			return Message{}, fmt.Errorf("%w: %v", ErrClosed, s.readErr)
		}
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Close sends a close frame and closes the connection. Close is
// idempotent.
func (s *WebSocketSignaler) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.writeMu.Lock()
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeTimeout))
		s.writeMu.Unlock()
		err = s.conn.Close()
		s.logger.Debug("signaling closed")
	})
	return err
}
