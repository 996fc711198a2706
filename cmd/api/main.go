package main

import (
	"context"
	stdhttp "net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"url-shortener/pkg/cache"
	"url-shortener/pkg/config"
	"url-shortener/pkg/http"
	"url-shortener/pkg/logging"
	"url-shortener/pkg/middleware"
	"url-shortener/pkg/shortener"
	"url-shortener/pkg/storage"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/handlers"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	logger := logging.NewLogger(logging.LogLevel(cfg.LogLevel))
	ctx := context.Background()

	// Storage: Postgres when configured, in-memory otherwise.
	var store storage.MappingStore
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error(ctx, "postgres connect failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pg := storage.NewPostgresMappingStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			logger.Error(ctx, "migration failed", "error", err)
			os.Exit(1)
		}
		store = pg
		logger.Info(ctx, "using postgres store")
	} else {
		store = storage.NewMemoryStore()
		logger.Warn(ctx, "DATABASE_URL not set, using in-memory store")
	}

	// Redis cache is optional; a failed ping just disables it.
	var mappingCache cache.MappingCache
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error(ctx, "invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn(ctx, "redis ping failed, running without cache", "error", err)
			_ = client.Close()
		} else {
			mappingCache = cache.NewRedisMappingCache(client)
			defer client.Close()
			logger.Info(ctx, "redis cache enabled")
		}
	}

	gen := shortener.NewGenerator(cfg.CodeLength)
	service := shortener.NewService(store, mappingCache, gen, logger)
	handler := http.NewHandler(service, logger)

	r := chi.NewRouter()
	r.Use(middleware.CorrelationID)
	r.Use(middleware.RequestLogger(logger))
	http.SetupRoutes(r, handler)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.AllowedMethods([]string{"GET", "POST", "DELETE", "OPTIONS"}),
	)

	srv := &stdhttp.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      cors(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info(ctx, "server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			logger.Error(ctx, "listen failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info(ctx, "server stopped")
}
