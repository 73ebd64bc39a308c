package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/pharmalink/internal/buildinfo"
	"github.com/dmitrijs2005/pharmalink/internal/logging"
	"github.com/dmitrijs2005/pharmalink/internal/mockserver"
	"github.com/dmitrijs2005/pharmalink/internal/mockserver/config"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger, err := logging.New(os.Stdout, logging.Format(cfg.LogFormat), cfg.LogLevel)
	if err != nil {
		log.Fatalf("%v", err)
	}

	srv, err := mockserver.New(cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	if err := srv.Run(ctx); err != nil {
		logger.Error(ctx, "mock backend stopped", "err", err)
		os.Exit(1)
	}
}
