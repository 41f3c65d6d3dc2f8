package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/seedpipe/internal/buildinfo"
	"github.com/dmitrijs2005/seedpipe/internal/client/cli"
	"github.com/dmitrijs2005/seedpipe/internal/client/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
	}

	code := app.Run(ctx, config.MagnetArg(os.Args[1:]))
	stop()
	os.Exit(code)

}
