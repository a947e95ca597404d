package executor

import (
	"time"
)

const (
	// TestExecutorType runs in process and does nothing but wait a while
	TestExecutorType = "DoNotRunAnyExecutor"

	defaultDirectory  = "TaskExecutors"
	defaultTimeout    = 60 * time.Second
	defaultTestDelay  = 10 * time.Second
	defaultTestJitter = 5 * time.Second

	// how long we wait for output to drain after an executor exits
	defaultWaitDelay = 2 * time.Second
)

// Credentials are handed to executors on their command line
type Credentials struct {
	Username string
	Password string
	APIKey   string
}

// Options for a Supervisor
type Options struct {
	// Directory holds one sub directory per executor.
	// Default "TaskExecutors"
	Directory string

	// Timeout is how long an executor may go without writing to stdout before
	// it's killed. Also the period of the watchdog.
	// Default 60s
	Timeout time.Duration

	// TestDelay & TestJitter control how long the in process test executor runs for.
	// Default 10s & 5s, a negative jitter disables it.
	TestDelay  time.Duration
	TestJitter time.Duration

	// WaitDelay bounds how long we wait for an exited executor's output to close.
	WaitDelay time.Duration

	// Credentials are per application credentials used when a task arrives
	// without any attached authentication.
	Credentials map[string]*Credentials
}

func (o *Options) SetDefaults() {
	if o.Directory == "" {
		o.Directory = defaultDirectory
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.TestDelay <= 0 {
		o.TestDelay = defaultTestDelay
	}
	if o.TestJitter < 0 {
		o.TestJitter = 0
	} else if o.TestJitter == 0 {
		o.TestJitter = defaultTestJitter
	}
	if o.WaitDelay <= 0 {
		o.WaitDelay = defaultWaitDelay
	}
	if o.Credentials == nil {
		o.Credentials = map[string]*Credentials{}
	}
}
