package queue

import (
	"crypto/tls"
	"time"
)

const (
	defConcurrency     = 10
	defCallbackTimeout = 60 * time.Second
)

// Options are options for the queue.
type Options struct {
	// URL of the redis server backing the queue (host:port).
	URL string

	// Password & DB select the redis auth & database (optional).
	Password string
	DB       int

	// TLSConfig needed to connect to the queue (optional).
	TLSConfig *tls.Config

	// Concurrency is how many callbacks we'll deliver at once.
	Concurrency int

	// CallbackTimeout bounds a single delivery.
	CallbackTimeout time.Duration
}

func (o *Options) SetDefaults() {
	if o.Concurrency <= 0 {
		o.Concurrency = defConcurrency
	}
	if o.CallbackTimeout <= 0 {
		o.CallbackTimeout = defCallbackTimeout
	}
}
