package coordinator

import (
	"os"
	"time"
)

const (
	defLeaseTimeout    = 30 * time.Second
	defSweepPeriod     = 60 * time.Second
	defSweepDelay      = 5 * time.Second
	defHistoryWindow   = 24 * time.Hour
	defPingTimeout     = 10 * time.Second
	defCallbackTimeout = 60 * time.Second
)

// Options for the coordinator Service.
type Options struct {
	// Machine name recorded on events the coordinator writes itself (registrations).
	Machine string

	// LeaseTimeout after which an unrenewed task may be claimed by another agent.
	LeaseTimeout time.Duration

	// SweepPeriod is how often we check for dead tasks, the first check is
	// made SweepDelay after start.
	SweepPeriod time.Duration
	SweepDelay  time.Duration

	// HistoryWindow bounds how far back UnfinishedEvents looks.
	HistoryWindow time.Duration

	// PingTimeout bounds the reachability check made before a finalize callback.
	PingTimeout time.Duration

	// CallbackTimeout bounds a single finalize callback.
	CallbackTimeout time.Duration
}

func (o *Options) SetDefaults() {
	if o.Machine == "" {
		o.Machine, _ = os.Hostname()
	}
	if o.LeaseTimeout <= 0 {
		o.LeaseTimeout = defLeaseTimeout
	}
	if o.SweepPeriod <= 0 {
		o.SweepPeriod = defSweepPeriod
	}
	if o.SweepDelay <= 0 {
		o.SweepDelay = defSweepDelay
	}
	if o.HistoryWindow <= 0 {
		o.HistoryWindow = defHistoryWindow
	}
	if o.PingTimeout <= 0 {
		o.PingTimeout = defPingTimeout
	}
	if o.CallbackTimeout <= 0 {
		o.CallbackTimeout = defCallbackTimeout
	}
}

func (o *Options) leaseSeconds() int64 {
	return int64(o.LeaseTimeout / time.Second)
}
