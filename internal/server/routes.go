package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/FranksOps/rigscout/internal/metrics"
)

// Config configures the router and listener.
type Config struct {
	Addr            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg Config, handler *Handler) *gin.Engine {
	router := gin.New()

	router.Use(RecoveryMiddleware(handler.logger))
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(handler.logger))

	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(TimeoutMiddleware(cfg.RequestTimeout))
	{
		v1.POST("/recommendations", handler.Recommend)
	}

	return router
}

// Run serves router on cfg.Addr until ctx is canceled, then drains
// in-flight requests for up to cfg.ShutdownTimeout.
func Run(ctx context.Context, cfg Config, router http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	logger.Info("server shutting down", "timeout", timeout)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
