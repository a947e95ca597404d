package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/voidshard/foreman/internal/utils"
	"github.com/voidshard/foreman/pkg/api/http/server"
	"github.com/voidshard/foreman/pkg/coordinator"
	"github.com/voidshard/foreman/pkg/database"
	"github.com/voidshard/foreman/pkg/queue"
)

const (
	notifierGo    = "go"
	notifierAsynq = "asynq"
)

type optsCoordinator struct {
	optsGeneral
	optsDatabase
	optsRedis

	Addr    string `long:"addr" env:"ADDR" description:"Address to bind to" default:"localhost:8100"`
	TLSCert string `long:"cert" env:"CERT" description:"Path to TLS certificate"`
	TLSKey  string `long:"key" env:"KEY" description:"Path to TLS key"`

	Migrate  bool   `long:"migrate" env:"MIGRATE" description:"Apply database migrations before starting"`
	Machine  string `long:"machine" env:"MACHINE" description:"Machine name recorded on registration events, defaults to the hostname"`
	Notifier string `long:"notifier" env:"NOTIFIER" description:"How finalize callbacks are sent" choice:"go" choice:"asynq" default:"go"`

	LeaseTimeout    time.Duration `long:"lease-timeout" env:"LEASE_TIMEOUT" description:"Time after which an unrenewed task may be reclaimed" default:"30s"`
	SweepPeriod     time.Duration `long:"sweep-period" env:"SWEEP_PERIOD" description:"How often to look for dead tasks" default:"60s"`
	HistoryWindow   time.Duration `long:"history-window" env:"HISTORY_WINDOW" description:"How far back unfinished task queries look" default:"24h"`
	PingTimeout     time.Duration `long:"ping-timeout" env:"PING_TIMEOUT" description:"Timeout of the application ping made before a finalize callback" default:"10s"`
	CallbackTimeout time.Duration `long:"callback-timeout" env:"CALLBACK_TIMEOUT" description:"Timeout of a finalize callback" default:"60s"`
}

func (c *optsCoordinator) Execute(args []string) error {
	_, flush, err := c.setup()
	if err != nil {
		return err
	}
	defer flush()

	tlsCfg, err := utils.ServerTLSConfig(c.TLSCert, c.TLSKey)
	if err != nil {
		return err
	}

	dbOpts := &database.Options{URL: c.url()}
	if c.Migrate && dbOpts.URL != database.MemoryURL {
		err = database.Migrate(dbOpts)
		if err != nil {
			return err
		}
	}
	db, err := database.New(dbOpts)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := signalContext()
	defer cancel()

	hub := coordinator.NewHub()
	svc := coordinator.NewService(db, hub, &coordinator.Options{
		Machine:         c.Machine,
		LeaseTimeout:    c.LeaseTimeout,
		SweepPeriod:     c.SweepPeriod,
		HistoryWindow:   c.HistoryWindow,
		PingTimeout:     c.PingTimeout,
		CallbackTimeout: c.CallbackTimeout,
	})

	relayDone := make(chan struct{})
	close(relayDone)
	if c.RedisURL != "" {
		ropts, err := redis.ParseURL(c.RedisURL)
		if err != nil {
			return fmt.Errorf("bad redis url: %w", err)
		}
		rclient := redis.NewClient(ropts)
		defer rclient.Close()

		relay := coordinator.NewRedisRelay(rclient, hub)
		svc.WithBroadcaster(relay).WithMonitor(coordinator.NewMonitor(rclient))

		relayDone = make(chan struct{})
		go func() {
			defer close(relayDone)
			err := relay.Run(ctx)
			if err != nil {
				zap.L().Error("redis relay stopped", zap.Error(err))
			}
		}()

		if c.Notifier == notifierAsynq {
			q, err := queue.NewAsynqQueue(&queue.Options{
				URL:             ropts.Addr,
				Password:        ropts.Password,
				DB:              ropts.DB,
				TLSConfig:       ropts.TLSConfig,
				CallbackTimeout: c.CallbackTimeout,
			})
			if err != nil {
				return err
			}
			err = q.Start()
			if err != nil {
				return err
			}
			defer q.Close()
			svc.WithNotifier(q)
		}
	} else if c.Notifier == notifierAsynq {
		return fmt.Errorf("the asynq notifier requires --redis-url")
	}
	if c.Notifier == notifierGo {
		svc.WithNotifier(coordinator.NewGoNotifier(&http.Client{}, c.CallbackTimeout))
	}

	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		svc.Run(ctx)
	}()

	s := server.NewServer(c.Addr, c.Debug, tlsCfg)
	go func() {
		<-ctx.Done()
		s.Close()
	}()
	err = s.ServeForever(svc)

	cancel()
	waitFor(sweepDone, "sweeper", 5*time.Second)
	waitFor(relayDone, "relay", 5*time.Second)
	return err
}

