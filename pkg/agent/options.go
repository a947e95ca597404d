package agent

import (
	"fmt"
	"os"
	"time"
)

const (
	defaultUpdateLockPeriod    = 15 * time.Second
	defaultHeartbeatPeriod     = 30 * time.Second
	defaultReconnectMaxBackoff = 5 * time.Second
	defaultRetryDelay          = 10 * time.Second
)

// Options for an agent Session
type Options struct {
	// Machine is the name of this host, defaults to the hostname
	Machine string

	// Name of this agent, defaults to "<machine>-Agent#<pid>"
	Name string

	// UpdateLockPeriod is how often the lease on the current task is renewed.
	// Must be well under the coordinator's lease timeout.
	UpdateLockPeriod time.Duration

	// HeartbeatPeriod is how often health records are sent
	HeartbeatPeriod time.Duration

	// ReconnectMaxBackoff is the upper bound of the random wait before
	// reconnecting after the connection closes.
	ReconnectMaxBackoff time.Duration

	// RetryDelay is the wait between failed connection attempts
	RetryDelay time.Duration

	// ExtraCapabilities are advertised in addition to those of the runner
	ExtraCapabilities []string
}

func (o *Options) SetDefaults() {
	if o.Machine == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "localhost"
		}
		o.Machine = host
	}
	if o.Name == "" {
		o.Name = fmt.Sprintf("%s-Agent#%d", o.Machine, os.Getpid())
	}
	if o.UpdateLockPeriod <= 0 {
		o.UpdateLockPeriod = defaultUpdateLockPeriod
	}
	if o.HeartbeatPeriod <= 0 {
		o.HeartbeatPeriod = defaultHeartbeatPeriod
	}
	if o.ReconnectMaxBackoff <= 0 {
		o.ReconnectMaxBackoff = defaultReconnectMaxBackoff
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = defaultRetryDelay
	}
}
