package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"todo-service/middleware/ratelimit"
	"todo-service/todo/infra"

	"github.com/spf13/pflag"
)

const (
	driverSQLite = "sqlitex"
	driverSQL    = "sql"

	statsNone   = "none"
	statsMemory = "memory"
	statsRedis  = "redis"
)

type config struct {
	listenAddr         string
	storePath          string
	storeDriver        string
	poolMax            int
	poolIdleTimeout    time.Duration
	poolAcquireTimeout time.Duration
	seedFile           string
	logLevel           slog.Level
	logFormat          string

	rateEnabled        bool
	rateRPS            float64
	rateBurst          int
	rateIdleTTL        time.Duration
	rateKeyHeader      string
	rateMethods        []string
	trustXFF           bool
	addHeaders         bool
	concurrencyMax     int
	concurrencyTimeout time.Duration

	statsBackend       string
	statsRedisAddr     string
	statsRedisPassword string
	statsRedisDB       int
	statsPrefix        string
	statsTTL           time.Duration
}

// readConfig lê as variáveis de ambiente e depois aplica as flags de args,
// que têm precedência.
func readConfig(args []string) (config, error) {
	env := &envReader{}
	cfg := config{}
	cfg.listenAddr = env.str("LISTEN_ADDR", "127.0.0.1:8080")
	cfg.storePath = env.str("STORE_PATH", "./todo.sqlite3")
	cfg.storeDriver = env.str("STORE_DRIVER", driverSQLite)
	cfg.poolMax = env.integer("POOL_MAX_CONNECTIONS", infra.DefaultMaxConnections)
	cfg.poolIdleTimeout = env.duration("POOL_IDLE_TIMEOUT", infra.DefaultIdleTimeout)
	cfg.poolAcquireTimeout = env.duration("POOL_ACQUIRE_TIMEOUT", infra.DefaultAcquireTimeout)
	cfg.seedFile = env.str("SEED_FILE", "")
	cfg.logFormat = env.str("LOG_FORMAT", "text")
	logLevel := env.str("LOG_LEVEL", "info")

	cfg.rateEnabled = env.boolean("RATE_ENABLED", false)
	cfg.rateRPS = env.float("RATE_RPS", 10)
	cfg.rateBurst = env.integer("RATE_BURST", 20)
	cfg.rateIdleTTL = env.duration("RATE_IDLE_TTL", ratelimit.DefaultIdleTTL)
	cfg.rateKeyHeader = env.str("RATE_KEY_HEADER", "")
	cfg.rateMethods = env.list("RATE_METHODS", []string{"POST"})
	cfg.trustXFF = env.boolean("TRUST_XFF", false)
	cfg.addHeaders = env.boolean("ADD_RATELIMIT_HEADERS", false)
	cfg.concurrencyMax = env.integer("CONCURRENCY_MAX", 100)
	cfg.concurrencyTimeout = env.duration("CONCURRENCY_TIMEOUT", 0)

	cfg.statsBackend = env.str("STATS_BACKEND", statsNone)
	cfg.statsRedisAddr = env.str("STATS_REDIS_ADDR", "")
	cfg.statsRedisPassword = env.str("STATS_REDIS_PASSWORD", "")
	cfg.statsRedisDB = env.integer("STATS_REDIS_DB", 0)
	cfg.statsPrefix = env.str("STATS_PREFIX", "todo:stats")
	cfg.statsTTL = env.duration("STATS_TTL", 24*time.Hour)
	if env.err != nil {
		return config{}, env.err
	}

	flagSet := pflag.NewFlagSet("todo-server", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.listenAddr, "listen", cfg.listenAddr, "address to listen on (LISTEN_ADDR)")
	flagSet.StringVar(&cfg.storePath, "db", cfg.storePath, `SQLite database file, or ":memory:" (STORE_PATH)`)
	flagSet.StringVar(&cfg.storeDriver, "driver", cfg.storeDriver, "store driver: sqlitex or sql (STORE_DRIVER)")
	flagSet.IntVar(&cfg.poolMax, "pool-size", cfg.poolMax, "maximum pooled connections (POOL_MAX_CONNECTIONS)")
	flagSet.StringVar(&cfg.seedFile, "seed-file", cfg.seedFile, "YAML file with sample todos for an empty store (SEED_FILE)")
	flagSet.StringVar(&logLevel, "log-level", logLevel, "debug, info, warn or error (LOG_LEVEL)")
	if err := flagSet.Parse(args); err != nil {
		return config{}, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return config{}, fmt.Errorf("unexpected argument: %s", rest[0])
	}

	if err := cfg.logLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if cfg.logFormat != "text" && cfg.logFormat != "json" {
		return config{}, errors.New("LOG_FORMAT must be text or json")
	}
	if strings.TrimSpace(cfg.storePath) == "" {
		return config{}, errors.New("STORE_PATH is required")
	}
	if cfg.storeDriver != driverSQLite && cfg.storeDriver != driverSQL {
		return config{}, fmt.Errorf("STORE_DRIVER must be %q or %q", driverSQLite, driverSQL)
	}
	if cfg.poolMax <= 0 {
		return config{}, errors.New("POOL_MAX_CONNECTIONS must be > 0")
	}
	if cfg.rateEnabled && cfg.rateRPS <= 0 {
		return config{}, errors.New("RATE_RPS must be > 0")
	}
	if cfg.rateEnabled && cfg.rateBurst <= 0 {
		return config{}, errors.New("RATE_BURST must be > 0")
	}
	if cfg.concurrencyMax < 0 {
		return config{}, errors.New("CONCURRENCY_MAX must be >= 0")
	}
	switch cfg.statsBackend {
	case statsNone, statsMemory:
	case statsRedis:
		if strings.TrimSpace(cfg.statsRedisAddr) == "" {
			return config{}, errors.New("STATS_REDIS_ADDR is required when STATS_BACKEND=redis")
		}
	default:
		return config{}, fmt.Errorf("STATS_BACKEND must be %q, %q or %q", statsNone, statsMemory, statsRedis)
	}
	return cfg, nil
}

func (c config) poolConfig(logger *slog.Logger) infra.PoolConfig {
	return infra.PoolConfig{
		Path:           c.storePath,
		MaxConnections: c.poolMax,
		IdleTimeout:    c.poolIdleTimeout,
		AcquireTimeout: c.poolAcquireTimeout,
		Logger:         logger,
	}
}

// envReader lê variáveis com default. Valor presente mas inválido não cai no
// default: o primeiro erro fica em err, com o nome da variável.
type envReader struct {
	err error
}

func (e *envReader) fail(k, v string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("%s=%q: %w", k, v, err)
	}
}

func (e *envReader) str(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func (e *envReader) integer(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		e.fail(k, v, err)
		return def
	}
	return i
}

func (e *envReader) float(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(k, v, err)
		return def
	}
	return f
}

func (e *envReader) boolean(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(k, v, err)
		return def
	}
	return b
}

func (e *envReader) duration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(k, v, err)
		return def
	}
	return d
}

// list lê uma lista separada por vírgula.
func (e *envReader) list(k string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
