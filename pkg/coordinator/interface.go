package coordinator

import (
	"context"

	"github.com/voidshard/foreman/pkg/structs"
)

// Broadcaster tells connected agents that work may be available. A nil task
// is a generic wake up, agents re-poll without filtering on capability.
type Broadcaster interface {
	Broadcast(ctx context.Context, task *structs.Task) error
}

// Notifier delivers finalize callbacks to applications. Implementations must
// not block the caller on the remote application; delivery is fire and forget.
type Notifier interface {
	Notify(ctx context.Context, cb *Callback) error
}

// Monitor receives everything that happens to tasks and agents.
type Monitor interface {
	TaskEvent(e *structs.TaskEvent)
	Progress(ref structs.AgentRef, p *structs.ProgressRecord)
	Heartbeat(h *structs.HealthRecord)

	// Agents returns the latest heartbeat of every agent we've heard from.
	Agents() []*structs.HealthRecord
}
