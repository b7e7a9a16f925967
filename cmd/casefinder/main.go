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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/casefinder/internal/config"
	"github.com/kailas-cloud/casefinder/internal/db/driver"
	logpkg "github.com/kailas-cloud/casefinder/internal/logger"
	"github.com/kailas-cloud/casefinder/internal/metrics"
	"github.com/kailas-cloud/casefinder/internal/repository/casecache"
	chiTransport "github.com/kailas-cloud/casefinder/internal/transport/chi"
	"github.com/kailas-cloud/casefinder/internal/transport/kanoon"
	healthuc "github.com/kailas-cloud/casefinder/internal/usecase/health"
	searchuc "github.com/kailas-cloud/casefinder/internal/usecase/search"
	"github.com/kailas-cloud/casefinder/internal/usecase/sweeper"
	"github.com/kailas-cloud/casefinder/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting casefinder API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.String("remote", cfg.Remote.BaseURL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := driver.Open(ctx, driver.Options{
		Driver:           cfg.Cache.Driver,
		Dir:              cfg.Cache.Dir,
		Addrs:            cfg.Cache.Addrs,
		Password:         cfg.Cache.Password,
		ReadinessTimeout: time.Duration(cfg.Cache.ReadinessTimeout) * time.Second,
		Logger:           logger,
	})
	if err != nil {
		logger.Fatal("Cache store not available", zap.Error(err))
	}
	defer store.Close()
	logger.Info("Connected to cache store")

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	cache := casecache.New(store, cfg.Cache.TTL(),
		metrics.CacheLookupsTotal, metrics.CacheSweepRemovedTotal, logger)

	remote, err := kanoon.NewClient(&kanoon.Config{
		BaseURL:     cfg.Remote.BaseURL,
		SearchPath:  cfg.Remote.SearchPath,
		UserAgent:   cfg.Remote.UserAgent,
		Timeout:     time.Duration(cfg.Remote.TimeoutSec) * time.Second,
		RetryDelay:  time.Duration(cfg.Remote.RetryDelaySec) * time.Second,
		MaxAttempts: cfg.Remote.MaxAttempts,
		MaxResults:  cfg.Remote.MaxResults,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal("Failed to create search client", zap.Error(err))
	}

	searchSvc := searchuc.New(cache, remote, logger)
	healthSvc := healthuc.New(store, 2*time.Second)
	sweep := sweeper.New(cache, cfg.Cache.SweepInterval(), logger)

	server := chiTransport.NewServer(searchSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Mount(r, chiTransport.RateLimits{
		SearchPerMinute: cfg.RateLimit.SearchPerMinute,
		RootPerMinute:   cfg.RateLimit.RootPerMinute,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sweep.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return
	}
	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					chiTransport.WriteError(w, http.StatusInternalServerError,
						chiTransport.CodeInternalError, "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}

