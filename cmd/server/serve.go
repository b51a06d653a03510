package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"project-board-api/internal/auth"
	"project-board-api/internal/cache"
	"project-board-api/internal/config"
	"project-board-api/internal/database"
	"project-board-api/internal/handlers"
	"project-board-api/internal/logging"
	"project-board-api/internal/realtime"
	"project-board-api/internal/routes"
	"project-board-api/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(gin.ReleaseMode)

	db, err := database.Open(cfg.DatabasePath, cfg.SQLLog)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	relay := realtime.NewRelay(realtime.NewHub(), logger)
	if rc := connectRedis(ctx, cfg, logger); rc != nil {
		defer rc.Close()
		backbone := realtime.NewRedisBackbone(rc, cfg.RelayChannel, logger)
		relay.SetBackbone(backbone)
		go backbone.Run(ctx, relay.Deliver)
		go relay.Forward(ctx)
	}

	visitors := cache.NewSimpleCache[string, *rate.Limiter]()
	go visitors.RunJanitor(ctx, time.Minute)

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL)
	h := handlers.New(handlers.Deps{
		Store:      store.New(db),
		Relay:      relay,
		Tokens:     tokens,
		Logger:     logger,
		SendBuffer: cfg.WSSendBuffer,
	})
	router := routes.SetupRoutes(h, routes.Options{
		Logger:      logger,
		Tokens:      tokens,
		CORSOrigins: cfg.CORSOrigins,
		Visitors:    visitors,
		RateLimit:   rate.Limit(cfg.RateLimitRPS),
		RateBurst:   cfg.RateLimitBurst,
		IdleTTL:     cfg.RateLimitIdleTTL,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(log.Fields{"addr": cfg.Addr, "db": cfg.DatabasePath}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// connectRedis returns nil when no backbone is configured or reachable; the
// relay then serves this instance only.
func connectRedis(ctx context.Context, cfg config.Config, logger *log.Logger) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.WithError(err).Warn("relay.backbone: invalid REDIS_URL, running single-instance")
		return nil
	}
	// Bound each backbone command by its context deadline, not ReadTimeout.
	opts.ContextTimeoutEnabled = true
	rc := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx).Err(); err != nil {
		logger.WithError(err).Warn("relay.backbone: redis unreachable, running single-instance")
		_ = rc.Close()
		return nil
	}
	logger.WithField("channel", cfg.RelayChannel).Info("relay.backbone: redis connected")
	return rc
}
