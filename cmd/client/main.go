package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/keepsync/internal/client/cli"
	"github.com/dmitrijs2005/keepsync/internal/client/config"
	"github.com/dmitrijs2005/keepsync/internal/filex"
	"github.com/dmitrijs2005/keepsync/internal/logging"
)

func main() {
	cfg := config.LoadConfig(os.Args[1:])
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	for _, path := range []string{cfg.DatabasePath, cfg.LogFile} {
		if err := filex.EnsureParentDir(path); err != nil {
			log.Fatalf("%v", err)
		}
	}

	logger, closer := logging.New(logging.Options{File: cfg.LogFile, MaxSizeMB: 10, MaxBackups: 3})
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
