// Package server wires the seedpipe server together: logging, the seedbox
// and storage clients, the transfer orchestrator, the session hub and the
// HTTP server, and runs it until a shutdown signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/seedpipe/internal/common"
	"github.com/dmitrijs2005/seedpipe/internal/logging"
	"github.com/dmitrijs2005/seedpipe/internal/seedbox"
	"github.com/dmitrijs2005/seedpipe/internal/server/auth"
	"github.com/dmitrijs2005/seedpipe/internal/server/config"
	"github.com/dmitrijs2005/seedpipe/internal/server/httpserver"
	"github.com/dmitrijs2005/seedpipe/internal/session"
	"github.com/dmitrijs2005/seedpipe/internal/storage"
	"github.com/dmitrijs2005/seedpipe/internal/transfer"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	httpServer *httpserver.HTTPServer
}

func NewApp(c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger := logging.New(logging.Options{File: c.LogFile, Level: c.LogLevel})

	secret := c.SecretKey
	if secret == "" {
		s, err := common.MakeRandHexString(32)
		if err != nil {
			return nil, fmt.Errorf("session secret: %w", err)
		}
		secret = s
		logger.Warn(context.Background(), "no secret key configured, session tokens will not survive a restart")
	}

	sb := seedbox.New(c.SeedboxBaseURL, c.SeedboxEmail, c.SeedboxPassword,
		seedbox.WithLogger(logger.With("module", "seedbox")))

	st := storage.New(storage.Config{
		AccessKey:     c.StorageAccessKey,
		SecretKey:     c.StorageSecretKey,
		Region:        c.StorageRegion,
		Bucket:        c.StorageBucket,
		Endpoint:      c.StorageEndpoint,
		PublicBaseURL: c.StoragePublicBaseURL,
		PartSize:      c.StoragePartSize,
	}, logger.With("module", "storage"))

	orchestrator := transfer.New(sb, st, logger.With("module", "transfer"), transfer.Options{
		InitialPollDelay: c.InitialPollDelay,
		PollInterval:     c.PollInterval,
	})

	gate := auth.NewGate(c.AppPassword, secret, c.SessionTokenTTL)
	hub := session.NewHub(orchestrator, gate, logger.With("module", "session"))
	hs := httpserver.NewHTTPServer(c.HTTPAddr, logger, gate, hub, c.PublicDir)

	return &App{config: c, logger: logger, httpServer: hs}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"seedbox_email", app.config.SeedboxEmail,
		"storage_bucket", app.config.StorageBucket,
		"address", app.config.HTTPAddr)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.logger.Info(ctx, "App stopped")
}
