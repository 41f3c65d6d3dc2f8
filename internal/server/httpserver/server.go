// Package httpserver exposes seedpipe over HTTP: the password gate, the
// websocket session endpoint, a health probe and the static web UI.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrijs2005/seedpipe/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// PasswordGate checks the application password and issues session tokens.
type PasswordGate interface {
	CheckPassword(password string) bool
	Issue() (string, error)
}

// SessionHub serves upgraded websocket connections.
type SessionHub interface {
	Serve(ctx context.Context, conn *websocket.Conn) error
	Count() int
	Shutdown(ctx context.Context) error
}

type HTTPServer struct {
	address   string
	logger    logging.Logger
	gate      PasswordGate
	hub       SessionHub
	publicDir string
	started   time.Time
	upgrader  websocket.Upgrader
}

func NewHTTPServer(addr string, l logging.Logger, gate PasswordGate, hub SessionHub, publicDir string) *HTTPServer {
	return &HTTPServer{
		address:   addr,
		logger:    l.With("module", "http_server"),
		gate:      gate,
		hub:       hub,
		publicDir: publicDir,
		started:   time.Now(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Run serves until ctx is cancelled, then stops accepting requests and
// closes the open sessions.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(ctx, "http shutdown", "error", err)
		}
		if err := s.hub.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(ctx, "session shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-stopped
	return nil
}
