package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrijs2005/seedpipe/internal/transfer"
)

const sendBuffer = 100

// Connection is one websocket client. Everything sent to it goes through
// SendCh and is written by a single write pump.
type Connection struct {
	ID        string
	Conn      *websocket.Conn
	CreatedAt time.Time
	SendCh    chan Message

	authenticated atomic.Bool
	done          chan struct{}
	closeOnce     sync.Once
	runs          sync.WaitGroup
}

func NewConnection(id string, conn *websocket.Conn) *Connection {
	return &Connection{
		ID:        id,
		Conn:      conn,
		CreatedAt: time.Now(),
		SendCh:    make(chan Message, sendBuffer),
		done:      make(chan struct{}),
	}
}

// Send queues msg for the write pump. It blocks while the buffer is full and
// gives up once the connection is closed.
func (c *Connection) Send(msg Message) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.SendCh <- msg:
		return true
	case <-c.done:
		return false
	}
}

// Emit forwards a transfer event to the client.
func (c *Connection) Emit(e transfer.Event) {
	c.Send(Message{Type: string(e.Type), Payload: e.Payload})
}

func (c *Connection) Authenticated() bool { return c.authenticated.Load() }

// Done is closed when the connection shuts down.
func (c *Connection) Done() <-chan struct{} { return c.done }

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.Conn.Close()
	})
}

// startRun runs fn in the background and tracks it until it returns.
func (c *Connection) startRun(ctx context.Context, fn func(ctx context.Context)) {
	c.runs.Add(1)
	go func() {
		defer c.runs.Done()
		fn(ctx)
	}()
}
