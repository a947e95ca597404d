package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/voidshard/foreman/internal/config"
	"github.com/voidshard/foreman/internal/observability"
)

type optsGeneral struct {
	Config string `long:"config" env:"FOREMAN_CONFIG" description:"Path to a YAML config file"`
	Debug  bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

type optsDatabase struct {
	DatabaseURL string `long:"database-url" env:"DATABASE_URL" description:"Database connection string, memory:// for an in process database"`
}

type optsRedis struct {
	RedisURL string `long:"redis-url" env:"REDIS_URL" description:"Redis connection string (redis://). Enables the cross replica relay, monitor publishing & the asynq notifier"`
}

// setup loads config & installs the global logger. The returned func flushes logs.
func (o *optsGeneral) setup() (*config.Config, func(), error) {
	cfg, err := config.Load(o.Config)
	if err != nil {
		return nil, nil, err
	}
	if o.Debug {
		cfg.Log.Level = "debug"
	}
	logger, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, func() { logger.Sync() }, nil
}

func (o *optsDatabase) url() string {
	if o.DatabaseURL == "" {
		return defaultDatabaseURL
	}
	return o.DatabaseURL
}

// signalContext is cancelled on SIGINT / SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// waitFor waits for a goroutine to finish, but not forever
func waitFor(done <-chan struct{}, name string, timeout time.Duration) {
	select {
	case <-done:
	case <-time.After(timeout):
		zap.L().Warn("gave up waiting for shutdown", zap.String("component", name))
	}
}
