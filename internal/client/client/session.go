package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrijs2005/seedpipe/internal/session"
)

// Event is one message received from the server. Payload stays raw; use
// the typed accessors to decode it.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Session is an open websocket channel to the server. Reads and writes may
// happen from different goroutines.
type Session struct {
	conn *websocket.Conn
	wmu  sync.Mutex
}

func (s *Session) send(ctx context.Context, typ string, payload any) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	if dl, ok := ctx.Deadline(); ok {
		s.conn.SetWriteDeadline(dl)
		defer s.conn.SetWriteDeadline(time.Time{})
	}
	return s.conn.WriteJSON(session.Message{Type: typ, Payload: payload})
}

// Next blocks until the next event arrives or ctx ends.
func (s *Session) Next(ctx context.Context) (Event, error) {
	stop := context.AfterFunc(ctx, func() {
		s.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	var ev Event
	if err := s.conn.ReadJSON(&ev); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Event{}, ctxErr
		}
		return Event{}, err
	}
	return ev, nil
}

// Authenticate sends credential and waits for the auth result. Other
// events received meanwhile are discarded.
func (s *Session) Authenticate(ctx context.Context, credential string) (bool, error) {
	if err := s.send(ctx, session.MsgAuth, credential); err != nil {
		return false, err
	}
	for {
		ev, err := s.Next(ctx)
		if err != nil {
			return false, err
		}
		if ev.Type != session.MsgAuthResult {
			continue
		}
		var res session.AuthResult
		if err := json.Unmarshal(ev.Payload, &res); err != nil {
			return false, err
		}
		return res.Success, nil
	}
}

// StartTransfer asks the server to run magnet. Progress arrives through Next.
func (s *Session) StartTransfer(ctx context.Context, magnet string) error {
	return s.send(ctx, session.MsgStartTransfer, magnet)
}

// Close sends a close frame and closes the connection.
func (s *Session) Close() error {
	s.wmu.Lock()
	err := s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	s.wmu.Unlock()

	if cerr := s.conn.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	return err
}
