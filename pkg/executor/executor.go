package executor

import (
	"context"
)

// Executor runs a single task to completion.
type Executor interface {
	// Execute blocks until the task finishes (or is killed) and returns the exit code.
	Execute(ctx context.Context) (int, error)

	// Terminate stops a running executor. It is safe to call more than once, or
	// after the executor has exited.
	Terminate()
}
