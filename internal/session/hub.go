// Package session serves the websocket channel the web UI and the CLI talk
// to: password authentication, transfer triggers and the ordered stream of
// transfer events back to the client.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/seedpipe/internal/logging"
	"github.com/dmitrijs2005/seedpipe/internal/transfer"
)

// ErrClosed is returned by Serve once Shutdown has been called.
var ErrClosed = errors.New("session hub is shut down")

// Runner executes one transfer and reports to em.
type Runner interface {
	Run(ctx context.Context, magnet string, em transfer.Emitter) transfer.Result
}

// Authenticator decides whether an auth credential unlocks a connection.
type Authenticator interface {
	Authenticate(credential string) bool
}

type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Connection

	runner Runner
	auth   Authenticator
	logger logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewHub(runner Runner, auth Authenticator, logger logging.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		conns:  make(map[string]*Connection),
		runner: runner,
		auth:   auth,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Serve runs conn until the client disconnects, ctx ends or the hub shuts
// down. Transfers started on the connection are cancelled with it, and
// Serve returns only after they have stopped.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn) error {
	c := NewConnection(uuid.NewString(), conn)
	if !h.register(c) {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		conn.Close()
		return ErrClosed
	}
	defer h.wg.Done()
	defer h.unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(h.ctx, cancel)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return h.readPump(gctx, c)
	})
	g.Go(func() error {
		defer c.close()
		return h.writePump(gctx, c)
	})

	err := g.Wait()
	c.runs.Wait()
	return err
}

// register adds c and counts it in wg, unless Shutdown has started.
func (h *Hub) register(c *Connection) bool {
	h.mu.Lock()
	if h.ctx.Err() != nil {
		h.mu.Unlock()
		h.logger.Info(h.ctx, "client refused, shutting down", "conn_id", c.ID)
		return false
	}
	h.wg.Add(1)
	h.conns[c.ID] = c
	n := len(h.conns)
	h.mu.Unlock()
	h.logger.Info(h.ctx, "client connected", "conn_id", c.ID, "connections", n)
	return true
}

func (h *Hub) unregister(c *Connection) {
	h.mu.Lock()
	delete(h.conns, c.ID)
	n := len(h.conns)
	h.mu.Unlock()
	h.logger.Info(h.ctx, "client disconnected", "conn_id", c.ID, "connections", n)
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Shutdown cancels every connection and its transfers, then waits for them
// to finish or for ctx to end.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.cancel()
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) dispatch(ctx context.Context, c *Connection, msg inbound) {
	switch msg.Type {
	case MsgAuth:
		ok := h.auth.Authenticate(stringPayload(msg.Payload))
		if ok {
			c.authenticated.Store(true)
		}
		h.logger.Info(ctx, "auth attempt", "conn_id", c.ID, "success", ok)
		c.Send(Message{Type: MsgAuthResult, Payload: AuthResult{Success: ok}})

	case MsgStartTransfer:
		if !c.Authenticated() {
			c.Send(Message{Type: MsgError, Payload: notAuthenticated})
			return
		}
		magnet := strings.TrimSpace(stringPayload(msg.Payload))
		if magnet == "" {
			c.Send(Message{Type: MsgError, Payload: "Please provide a magnet link."})
			return
		}
		c.startRun(ctx, func(ctx context.Context) {
			h.runner.Run(ctx, magnet, c)
		})

	default:
		h.logger.Warn(ctx, "unknown message type", "conn_id", c.ID, "type", msg.Type)
	}
}
