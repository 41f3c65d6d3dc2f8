package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/seedpipe/internal/client/client"
	"github.com/dmitrijs2005/seedpipe/internal/client/config"
	"github.com/dmitrijs2005/seedpipe/internal/common"
)

// Session is an open channel to the server.
type Session interface {
	Authenticate(ctx context.Context, credential string) (bool, error)
	StartTransfer(ctx context.Context, magnet string) error
	Next(ctx context.Context) (client.Event, error)
	Close() error
}

// Server is the part of the seedpipe server the CLI uses.
type Server interface {
	VerifyPassword(ctx context.Context, password string) (string, error)
	Connect(ctx context.Context) (Session, error)
}

type remote struct {
	*client.HTTPClient
}

func (r remote) Connect(ctx context.Context) (Session, error) {
	s, err := r.HTTPClient.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// getPassword is an indirection used to facilitate testing.
var getPassword = GetPassword

type App struct {
	config *config.Config
	server Server
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	hc, err := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return &App{config: c, server: remote{hc}, reader: bufio.NewReader(os.Stdin), out: os.Stdout}, nil
}

// Run transfers magnet, prompting for it when empty, and returns the exit
// code.
func (a *App) Run(ctx context.Context, magnet string) int {
	if err := a.run(ctx, magnet); err != nil {
		errColor.Fprintf(a.out, "✖ %s\n", describe(err))
		return 1
	}
	return 0
}

var errTransferFailed = errors.New("transfer failed")

func (a *App) run(ctx context.Context, magnet string) error {
	magnet = strings.TrimSpace(magnet)
	if magnet == "" {
		m, err := GetSimpleText(a.reader, "Enter magnet link", a.out)
		if err != nil {
			return err
		}
		magnet = m
	}
	if magnet == "" {
		return errors.New("no magnet link given")
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.unlock(ctx, string(password))
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.StartTransfer(ctx, magnet); err != nil {
		return fmt.Errorf("start transfer: %w", err)
	}

	r := &renderer{w: a.out}
	for {
		ev, err := s.Next(ctx)
		if err != nil {
			r.finishLine()
			return fmt.Errorf("connection lost: %w", err)
		}
		if done, ok := r.render(ev); done {
			if !ok {
				return errTransferFailed
			}
			return nil
		}
	}
}

// unlock exchanges the password for a session token and authenticates a
// new session with it.
func (a *App) unlock(ctx context.Context, password string) (Session, error) {
	rctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()

	token, err := a.server.VerifyPassword(rctx, password)
	if err != nil {
		return nil, err
	}

	s, err := a.server.Connect(rctx)
	if err != nil {
		return nil, err
	}

	ok, err := s.Authenticate(rctx, token)
	if err != nil || !ok {
		s.Close()
		if err == nil {
			err = client.ErrUnauthorized
		}
		return nil, err
	}
	return s, nil
}

func describe(err error) string {
	switch {
	case errors.Is(err, errTransferFailed):
		return "Transfer did not complete."
	case errors.Is(err, client.ErrUnauthorized):
		return "Wrong password"
	case errors.Is(err, client.ErrUnavailable):
		return "Server unavailable: " + err.Error()
	case errors.Is(err, context.Canceled):
		return "Interrupted"
	}
	return err.Error()
}
