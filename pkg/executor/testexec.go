package executor

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voidshard/foreman/pkg/structs"
)

// Test runs in process, waits a while & succeeds. It exists so a fleet can be
// exercised without any real executors installed.
type Test struct {
	task  *structs.Task
	delay time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

// NewTest returns a test executor that runs for the configured delay plus
// up to the configured jitter.
func NewTest(task *structs.Task, opts *Options) *Test {
	delay := opts.TestDelay
	if opts.TestJitter > 0 {
		delay += time.Duration(rand.Int63n(int64(opts.TestJitter)))
	}
	return &Test{task: task, delay: delay, stop: make(chan struct{})}
}

func (e *Test) Execute(ctx context.Context) (int, error) {
	zap.L().Debug("test executor running", zap.Int64("task", e.task.ID), zap.Duration("delay", e.delay))

	timer := time.NewTimer(e.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-e.stop:
	case <-ctx.Done():
		return -1, ctx.Err()
	}
	return 0, nil
}

func (e *Test) Terminate() {
	e.stopOnce.Do(func() { close(e.stop) })
}
