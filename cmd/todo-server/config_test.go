package main

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestReadConfig_Defaults(t *testing.T) {
	cfg, err := readConfig(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.listenAddr != "127.0.0.1:8080" {
		t.Fatalf("expected default listen addr, got %q", cfg.listenAddr)
	}
	if cfg.storePath != "./todo.sqlite3" {
		t.Fatalf("expected default store path, got %q", cfg.storePath)
	}
	if cfg.storeDriver != driverSQLite {
		t.Fatalf("expected driver %q, got %q", driverSQLite, cfg.storeDriver)
	}
	if cfg.poolMax != 4 {
		t.Fatalf("expected pool size 4, got %d", cfg.poolMax)
	}
	if cfg.poolAcquireTimeout != 5*time.Second {
		t.Fatalf("expected acquire timeout 5s, got %v", cfg.poolAcquireTimeout)
	}
	if cfg.logLevel != slog.LevelInfo {
		t.Fatalf("expected info level, got %v", cfg.logLevel)
	}
	if cfg.rateEnabled {
		t.Fatalf("expected rate limit disabled by default")
	}
	if cfg.rateIdleTTL != 15*time.Minute {
		t.Fatalf("expected rate idle ttl 15m, got %v", cfg.rateIdleTTL)
	}
	if !reflect.DeepEqual(cfg.rateMethods, []string{"POST"}) {
		t.Fatalf("expected rate methods [POST], got %v", cfg.rateMethods)
	}
	if cfg.statsBackend != statsNone {
		t.Fatalf("expected stats backend none, got %q", cfg.statsBackend)
	}
}

func TestReadConfig_Env(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("STORE_PATH", ":memory:")
	t.Setenv("STORE_DRIVER", "sql")
	t.Setenv("POOL_MAX_CONNECTIONS", "8")
	t.Setenv("POOL_IDLE_TIMEOUT", "30s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("RATE_ENABLED", "true")
	t.Setenv("RATE_METHODS", "POST, GET ,")
	t.Setenv("STATS_BACKEND", "redis")
	t.Setenv("STATS_REDIS_ADDR", "localhost:6379")

	cfg, err := readConfig(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.listenAddr != ":9090" || cfg.storePath != ":memory:" || cfg.storeDriver != driverSQL {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.poolMax != 8 || cfg.poolIdleTimeout != 30*time.Second {
		t.Fatalf("expected pool 8/30s, got %d/%v", cfg.poolMax, cfg.poolIdleTimeout)
	}
	if cfg.logLevel != slog.LevelDebug || cfg.logFormat != "json" {
		t.Fatalf("expected debug/json, got %v/%s", cfg.logLevel, cfg.logFormat)
	}
	if !reflect.DeepEqual(cfg.rateMethods, []string{"POST", "GET"}) {
		t.Fatalf("expected [POST GET], got %v", cfg.rateMethods)
	}
	pc := cfg.poolConfig(nil)
	if pc.Path != ":memory:" || pc.MaxConnections != 8 {
		t.Fatalf("unexpected pool config: %+v", pc)
	}
}

func TestReadConfig_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("POOL_MAX_CONNECTIONS", "8")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := readConfig([]string{"--listen", ":7070", "--pool-size=2", "--db", "/tmp/x.db", "--log-level", "warn", "--seed-file", "seed.yaml"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.listenAddr != ":7070" {
		t.Fatalf("expected flag listen addr, got %q", cfg.listenAddr)
	}
	if cfg.poolMax != 2 {
		t.Fatalf("expected flag pool size 2, got %d", cfg.poolMax)
	}
	if cfg.storePath != "/tmp/x.db" || cfg.seedFile != "seed.yaml" {
		t.Fatalf("expected flag paths, got %q %q", cfg.storePath, cfg.seedFile)
	}
	if cfg.logLevel != slog.LevelWarn {
		t.Fatalf("expected warn, got %v", cfg.logLevel)
	}
}

func TestReadConfig_MalformedEnvNamesVariable(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"POOL_MAX_CONNECTIONS", "lots"},
		{"POOL_ACQUIRE_TIMEOUT", "soon"},
		{"RATE_RPS", "fast"},
		{"RATE_ENABLED", "talvez"},
		{"RATE_IDLE_TTL", "1 hora"},
		{"STATS_REDIS_DB", "zero"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := readConfig(nil)
			if err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Fatalf("expected error to name %s, got %v", tt.key, err)
			}
		})
	}
}

func TestReadConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{name: "driver", env: map[string]string{"STORE_DRIVER": "postgres"}},
		{name: "pool size", args: []string{"--pool-size", "0"}},
		{name: "empty path", args: []string{"--db", " "}},
		{name: "log level", env: map[string]string{"LOG_LEVEL": "loud"}},
		{name: "log format", env: map[string]string{"LOG_FORMAT": "xml"}},
		{name: "rate rps", env: map[string]string{"RATE_ENABLED": "true", "RATE_RPS": "0"}},
		{name: "rate burst", env: map[string]string{"RATE_ENABLED": "true", "RATE_BURST": "-1"}},
		{name: "concurrency", env: map[string]string{"CONCURRENCY_MAX": "-1"}},
		{name: "stats backend", env: map[string]string{"STATS_BACKEND": "kafka"}},
		{name: "redis addr", env: map[string]string{"STATS_BACKEND": "redis"}},
		{name: "positional arg", args: []string{"extra"}},
		{name: "unknown flag", args: []string{"--nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := readConfig(tt.args); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestReadConfig_Help(t *testing.T) {
	_, err := readConfig([]string{"--help"})
	if !errors.Is(err, pflag.ErrHelp) {
		t.Fatalf("expected pflag.ErrHelp, got %v", err)
	}
}
