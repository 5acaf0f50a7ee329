package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/user/halrest/internal/config"
	"github.com/user/halrest/internal/database"
	"github.com/user/halrest/internal/handler"
	"github.com/user/halrest/internal/middleware"
	"github.com/user/halrest/internal/models"
	"github.com/user/halrest/internal/repository"
	"github.com/user/halrest/internal/service"
	"github.com/user/halrest/pkg/hal"
)

var (
	flagPort  string
	flagStore string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if flagPort != "" {
			cfg.Server.Port = flagPort
		}
		if flagStore != "" {
			cfg.Store.Driver = flagStore
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagPort, "port", "", "port to listen on (default: $PORT or 8080)")
	serveCmd.Flags().StringVar(&flagStore, "store", "", "store driver: postgres or sqlite (default: $STORE_DRIVER or sqlite)")
}

// serve wires every dependency and runs the server until SIGINT/SIGTERM.
//
// DESIGN PRINCIPLE: "Fail Fast at Startup"
// If any critical dependency fails, return immediately.
// Better to fail during deployment than serve broken requests.
func serve(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("starting halrest", "version", Version, "port", cfg.Server.Port, "store", cfg.Store.Driver)

	// If we can't connect within 30 seconds, something is wrong.
	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// ===========================================
	// Step 1: Store
	// ===========================================
	checks := map[string]handler.Checker{}

	store, closeStore, err := openStore(startCtx, cfg, checks)
	if err != nil {
		return err
	}
	defer closeStore()

	// ===========================================
	// Step 2: Redis (optional)
	// ===========================================
	// Without Redis: no rate limiting and no page-count cache.
	var (
		cache   service.PageCache
		counter middleware.Counter
	)
	if cfg.Redis.Enabled {
		redis, err := database.NewRedisDB(startCtx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer redis.Close()

		cache, counter = redis, redis
		checks["redis"] = redis
		logger.Info("redis connected")
	}

	// ===========================================
	// Step 3: Rendering metadata
	// ===========================================
	metadata := hal.NewMetadataMap()
	hydrators := hal.NewHydrators()
	if err := models.RegisterMetadata(metadata, hydrators); err != nil {
		return err
	}
	loaded, err := config.LoadMetadata(cfg.HAL.MetadataFile, metadata, hydrators)
	if err != nil {
		return fmt.Errorf("failed to load metadata map: %w", err)
	}
	if loaded > 0 {
		logger.Info("metadata map loaded", "file", cfg.HAL.MetadataFile, "entries", loaded)
	}

	routes, err := handler.NewRouteTable()
	if err != nil {
		return err
	}

	responder := handler.NewResponder(handler.ResponderConfig{
		Routes:            routes,
		Metadata:          metadata,
		Hydrators:         hydrators,
		Hooks:             hal.NewHooks(),
		Logger:            logger,
		DisplayExceptions: cfg.HAL.DisplayExceptions,
	})

	// ===========================================
	// Step 4: Router
	// ===========================================
	// In production, set GIN_MODE=release for better performance.
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New() // Use New() instead of Default() for full control

	// Order matters! Middleware runs in order of addition.
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Recovery(logger, cfg.HAL.DisplayExceptions))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	rateLimiter := middleware.NewRateLimiter(counter, cfg.RateLimit.RequestsPerMinute, logger)

	err = handler.RegisterRoutes(router, handler.API{
		Responder:     responder,
		Contacts:      service.NewContactService(store, cache),
		Organizations: service.NewOrganizationService(store, cache),
		Health:        handler.NewHealthHandler(responder, checks, Version),
		HAL:           cfg.HAL,
		Version:       Version,
		Middleware:    []gin.HandlerFunc{rateLimiter.Middleware()},
	})
	if err != nil {
		return fmt.Errorf("failed to register routes: %w", err)
	}

	// ===========================================
	// Step 5: Serve until signalled
	// ===========================================
	// Using http.Server gives us control over timeouts.
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", "http://localhost:"+cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Graceful shutdown ensures in-flight requests complete.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	logger.Info("shutting down server")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited cleanly")
	return nil
}

// openStore connects the configured store, applies its schema and
// registers its health check.
func openStore(ctx context.Context, cfg *config.Config, checks map[string]handler.Checker) (repository.Store, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pg, err := database.NewPostgresDB(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		checks["postgres"] = pg
		slog.Info("postgres connected", "max_conns", pg.Stats().MaxConns())
		return repository.NewPostgresStore(pg.Pool), pg.Close, nil

	case config.DriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		checks["sqlite"] = db
		slog.Info("sqlite opened", "path", cfg.Store.SQLitePath)
		return repository.NewSQLiteStore(db.DB), func() { _ = db.Close() }, nil
	}

	return nil, nil, fmt.Errorf("unknown store driver %q (want %q or %q)",
		cfg.Store.Driver, config.DriverPostgres, config.DriverSQLite)
}
