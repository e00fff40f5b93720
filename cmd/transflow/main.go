package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/transflow/transflow/cmd/transflow/cli"
	"github.com/transflow/transflow/internal/api"
	"github.com/transflow/transflow/internal/app"
	"github.com/transflow/transflow/internal/lookup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "transflow:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := app.NewLogger(cfg, os.Stderr)

	client, err := api.NewClient(api.Options{
		BaseURL: cfg.APIBaseURL,
		Token:   cfg.APIToken,
		Timeout: cfg.APITimeout,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	store := lookup.NewMemoryStore()
	if cfg.RedisAddr != "" {
		store = lookup.NewRedisStore(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), cfg.CacheTTL)
	}
	cache := lookup.NewCache(client, store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := cli.NewApp(cfg, logger, client, cache, os.Stdout, os.Stdin)
	return a.Run(ctx, os.Args[1:])
}
