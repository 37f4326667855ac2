package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"screencast/backend/internal/api/handler"
	"screencast/backend/internal/api/middleware"
	"screencast/backend/internal/config"
	"screencast/backend/internal/service"
	"screencast/backend/internal/signalhub"
	"screencast/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the signaling server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.SetupLogging(); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	logrus.Info("Starting screencast signaling server...")
	gin.SetMode(cfg.GinMode)

	store := storage.NewMemoryStore()
	hub := signalhub.NewManagerService(store)
	rooms := service.NewRoomService(store, hub)

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go service.NewJanitor(store, hub, cfg.RoomIdleTTL, cfg.ReapInterval).Run(janitorCtx)

	limiter, closeRedis := rateLimiter(ctx, cfg)
	defer closeRedis()

	h := handler.NewHandler(hub, rooms, handler.Options{
		ICEServers:     handler.BuildICEServers(cfg.ICEServers, cfg.ICEUsername, cfg.ICECredential),
		AllowedOrigins: cfg.AllowedOrigins,
		SendQueueSize:  cfg.SendQueueSize,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.NewRouter(h, limiter),
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logrus.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Hijacked websocket connections are not tracked by Shutdown.
	hub.CloseAll()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// rateLimiter connects to redis when configured. A redis that is down at
// startup only produces a warning; the middleware fails open.
func rateLimiter(ctx context.Context, cfg *config.Config) (gin.HandlerFunc, func()) {
	if cfg.RedisAddr == "" {
		logrus.Info("REDIS_ADDR not set, rate limiting disabled")
		return nil, func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logrus.WithField("addr", cfg.RedisAddr).WithError(err).Warn("Redis unreachable, rate limiter will fail open")
	} else {
		logrus.WithField("addr", cfg.RedisAddr).Info("Redis connected, rate limiting enabled")
	}

	limiter := middleware.RateLimit(middleware.RedisCounter{Client: rdb}, cfg.RateLimitRequests, cfg.RateLimitWindow)
	return limiter, func() { rdb.Close() }
}
