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

	"todo-service/middleware/ratelimit"
	"todo-service/middleware/requestlog"
	"todo-service/todo"
	"todo-service/todo/application"
	"todo-service/todo/domain"
	"todo-service/todo/infra"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// todoStore é o que main precisa de qualquer backend.
type todoStore interface {
	domain.TodoStore
	EnsureSchema(ctx context.Context, seed infra.Seeder) error
	Close() error
}

func run(args []string) error {
	cfg, err := readConfig(args)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := openStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := initStore(ctx, cfg, store, logger); err != nil {
		return err
	}

	var (
		stats requestlog.StatsStore
		mem   *requestlog.MemoryStatsStore
	)
	mux := todo.NewHandler(application.Service{Store: store}, logger)
	switch cfg.statsBackend {
	case statsMemory:
		mem = requestlog.NewMemoryStatsStore()
		mux.Handle("GET /stats", mem.Handler())
		stats = mem
	case statsRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.statsRedisAddr,
			Password: cfg.statsRedisPassword,
			DB:       cfg.statsRedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancelPing := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancelPing()
		if err != nil {
			return fmt.Errorf("redis stats ping: %w", err)
		}
		stats = requestlog.NewRedisStatsStore(rdb,
			requestlog.WithStatsPrefix(cfg.statsPrefix),
			requestlog.WithStatsTTL(cfg.statsTTL),
		)
	}

	h := http.Handler(mux)
	h = ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
		Max:            cfg.concurrencyMax,
		RejectStatus:   http.StatusServiceUnavailable,
		AcquireTimeout: cfg.concurrencyTimeout,
	})(h)
	if cfg.rateEnabled {
		buckets := ratelimit.NewBuckets(cfg.rateRPS, cfg.rateBurst, cfg.rateIdleTTL)
		if mem != nil {
			mem.Gauge("rate_buckets", buckets.Len)
		}
		h = ratelimit.Middleware(ratelimit.Options{
			Buckets:             buckets,
			KeyHeader:           cfg.rateKeyHeader,
			TrustXForwardedFor:  cfg.trustXFF,
			Route:               routeOf(mux),
			Methods:             cfg.rateMethods,
			AddRateLimitHeaders: cfg.addHeaders,
			Logger:              logger,
		})(h)
	}
	h = requestlog.Middleware(requestlog.Options{Logger: logger, Stats: stats})(h)

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	// O pool só fecha depois que as requisições em andamento terminarem.
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	logger.Info("todo server listening",
		"addr", cfg.listenAddr,
		"driver", cfg.storeDriver,
		"store", cfg.storePath,
		"pool_size", cfg.poolMax,
	)
	logger.Info("rate limit",
		"enabled", cfg.rateEnabled,
		"rps", cfg.rateRPS,
		"burst", cfg.rateBurst,
		"methods", cfg.rateMethods,
		"idle_ttl", cfg.rateIdleTTL,
		"key_header", cfg.rateKeyHeader,
		"trust_xff", cfg.trustXFF,
	)
	logger.Info("concurrency", "max", cfg.concurrencyMax, "acquire_timeout", cfg.concurrencyTimeout)
	logger.Info("stats", "backend", cfg.statsBackend, "redis_addr", cfg.statsRedisAddr, "ttl", cfg.statsTTL)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	<-drained
	logger.Info("server stopped")
	return nil
}

func newLogger(cfg config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.logLevel}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.logFormat == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(requestlog.NewContextHandler(h))
}

func openStore(cfg config, logger *slog.Logger) (todoStore, error) {
	pc := cfg.poolConfig(logger)
	if cfg.storeDriver == driverSQL {
		s, err := infra.OpenSQLStore(pc)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, err := infra.OpenStore(pc)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// initStore roda antes do servidor aceitar tráfego. Qualquer falha aborta o
// processo, dizendo qual etapa falhou. O seed file só é lido se a tabela
// estiver vazia.
func initStore(ctx context.Context, cfg config, store todoStore, logger *slog.Logger) error {
	var seed infra.Seeder
	if cfg.seedFile != "" {
		seed = infra.SeedFromFile(cfg.seedFile, time.Now())
	}

	err := store.EnsureSchema(ctx, seed)
	var initErr *infra.InitError
	if errors.As(err, &initErr) {
		logger.Error("store initialization failed", "step", string(initErr.Step), "error", initErr.Err)
	}
	return err
}

// routeOf nomeia o bucket de rate limit pelo padrão que o mux escolheria,
// para /todo/1 e /todo/2 dividirem o mesmo bucket.
func routeOf(mux *http.ServeMux) func(*http.Request) string {
	return func(r *http.Request) string {
		_, pattern := mux.Handler(r)
		return pattern
	}
}
