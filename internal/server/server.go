// Package server wires the gin engine: middleware, health endpoints,
// metrics, and module route registration.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/graetzmedia/vaultkeeper-sub001/internal/config"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/database"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/events"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/logger"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/metrics"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/modules/modulemanager"

	// Import all modules to trigger their registration
	_ "github.com/graetzmedia/vaultkeeper-sub001/internal/modules/archivemodule"
	_ "github.com/graetzmedia/vaultkeeper-sub001/internal/modules/drivemodule"
	_ "github.com/graetzmedia/vaultkeeper-sub001/internal/modules/locationmodule"
	_ "github.com/graetzmedia/vaultkeeper-sub001/internal/modules/projectmodule"
	_ "github.com/graetzmedia/vaultkeeper-sub001/internal/modules/scannermodule"
)

// SetupRouter configures and returns the main router
func SetupRouter() (*gin.Engine, error) {
	cfg := config.Get()

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestMetrics())

	if cfg.Server.EnableCORS {
		r.Use(corsMiddleware())
	}

	if err := events.GetGlobalBus().Start(context.Background()); err != nil {
		logger.Warn("Event bus failed to start: %v", err)
	}

	if err := modulemanager.LoadAll(database.GetDB()); err != nil {
		return nil, fmt.Errorf("module initialization failed: %w", err)
	}

	registerCoreRoutes(r, cfg)
	modulemanager.RegisterRoutes(r)

	return r, nil
}

// Run starts the HTTP server with the configured timeouts and blocks until
// ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, router *gin.Engine) error {
	cfg := config.Get()

	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("VaultKeeper API listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	_ = events.GetGlobalBus().Stop(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}

func registerCoreRoutes(r *gin.Engine, cfg *config.Config) {
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})

	r.GET("/api/db-status", func(c *gin.Context) {
		latency, err := database.HealthCheck()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"type":       cfg.Database.Type,
			"latency_ms": latency.Milliseconds(),
		})
	})

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, metrics.Handler())
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestMetrics counts requests by method, route template, and status
func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
	}
}
