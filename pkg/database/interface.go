package database

import (
	"context"
	"time"

	"github.com/voidshard/foreman/pkg/structs"
)

var (
	// timeNow returns the current time in unix seconds
	timeNow = func() int64 { return time.Now().Unix() }
)

// RegisterResult is returned from RegisterTask. At most one of Created / Updated is set.
type RegisterResult struct {
	Task    *structs.Task
	Created bool
	Updated bool
}

// Database owns the live task table, the append only event history and
// registered applications.
type Database interface {
	// RegisterTask inserts a task, or if one with the same (hash, payload) exists, lowers
	// its order if the given one is more urgent. A Registered / Updated event is written
	// in the same transaction.
	RegisterTask(ctx context.Context, in *structs.Task, machine string) (*RegisterResult, error)

	// ClaimNext atomically leases the most urgent claimable task whose type is one
	// of the given capabilities to the given agent. Returns nil if there is nothing to do.
	ClaimNext(ctx context.Context, machine, agent string, capabilities []string, leaseTimeout int64) (*structs.Task, error)

	// RenewLease refreshes the lease of a task, reports false if the task no longer exists.
	RenewLease(ctx context.Context, taskID int64) (bool, error)

	// CountExpiredLeases counts tasks that are unclaimed or whose lease has expired.
	CountExpiredLeases(ctx context.Context, leaseTimeout int64) (int64, error)

	// Finalize deletes the task & then writes a Done / Failed event. Reports if a
	// task row was actually deleted.
	Finalize(ctx context.Context, result *structs.TaskResult) (bool, error)

	// InsertEvent appends an event to the history
	InsertEvent(ctx context.Context, e *structs.TaskEvent) error

	// UnfinishedEvents returns Registered events (since the given time) of tasks that
	// have not finished, plus synthetic Failed entries for tasks that failed.
	UnfinishedEvents(ctx context.Context, appID, tag string, since int64) ([]*structs.TaskEvent, error)

	// EventsForTask returns all events for a task in insertion order.
	EventsForTask(ctx context.Context, taskID int64, appID, tag string) ([]*structs.TaskEvent, error)

	RegisterApplication(ctx context.Context, app *structs.Application) (*structs.Application, error)
	Applications(ctx context.Context) ([]*structs.Application, error)

	Close() error
}

// New returns the Database selected by the URL in the given options.
func New(opts *Options) (Database, error) {
	if opts.URL == MemoryURL {
		return NewMemory(), nil
	}
	return NewPostgres(opts)
}
