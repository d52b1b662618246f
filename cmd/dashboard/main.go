package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"boardgame/internal/api"
	"boardgame/internal/config"
	"boardgame/internal/logging"
	"boardgame/internal/refresh"
	"boardgame/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	must(cfg.Require("MATCHES_SOURCE", cfg.MatchesSource))

	logger := logging.New(cfg.LogLevel)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	svc := refresh.NewService(db, cfg, logger)
	server := api.NewServer(cfg, svc, db, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.Run(ctx) })
	g.Go(func() error { return server.Run(ctx) })
	must(g.Wait())
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
