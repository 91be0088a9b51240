package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"MedLegalChat/internal/config"
	"MedLegalChat/internal/session"
	"MedLegalChat/internal/web"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web interface",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Flags())
		if err != nil {
			return err
		}
		return runServe(cmd.Context(), cfg)
	},
}

// redisPinger adapts a redis client to the health check interface
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func runServe(ctx context.Context, cfg config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	var opts []session.StoreOption
	var client *redis.Client
	if cfg.Store == config.StoreRedis {
		client = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		opts = append(opts, session.WithRedisClient(client), session.WithTTL(cfg.SessionTTL), session.WithLogger(a.logger))
	}

	store, err := session.NewStore(session.StoreType(cfg.Store), opts...)
	if err != nil {
		if client != nil {
			client.Close()
		}
		return fmt.Errorf("failed to create session store: %w", err)
	}
	defer store.Close()

	srv := web.NewServer(a.bot, store, a.logger, cfg.RatePerMinute, cfg.RateBurst)
	if a.audit != nil {
		srv.AddHealthCheck("audit", a.audit)
	}
	if client != nil {
		srv.AddHealthCheck("redis", redisPinger{client})
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("web server listening", "addr", cfg.Addr, "store", cfg.Store)
		fmt.Printf("Medical-Legal Assistant listening on http://localhost%s\n", cfg.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down web server: %w", err)
	}
	return nil
}
