package agent

import (
	"context"

	"github.com/voidshard/foreman/pkg/executor"
	"github.com/voidshard/foreman/pkg/structs"
)

// Transport is how an agent talks to the coordinator.
type Transport interface {
	// Subscribe opens the push channel. The returned channel is closed when the
	// connection is lost.
	Subscribe(ctx context.Context, ref structs.AgentRef, capabilities []string) (<-chan *structs.Push, error)

	// Claim asks for the next task, returns nil if there is nothing to do.
	Claim(ctx context.Context, in *structs.ClaimRequest) (*structs.Task, error)

	Renew(ctx context.Context, in *structs.RenewRequest) error
	Heartbeat(ctx context.Context, in *structs.HeartbeatRequest) error
	Finish(ctx context.Context, in *structs.TaskResult) error
	StartSubtask(ctx context.Context, in *structs.SubtaskRequest) error
	FinishSubtask(ctx context.Context, in *structs.SubtaskRequest) error
	Progress(ctx context.Context, in *structs.ProgressRequest) error
}

// Runner executes tasks; satisfied by *executor.Supervisor
type Runner interface {
	Capabilities() []string
	Run(ctx context.Context, task *structs.Task, listener executor.Listener) *structs.TaskResult
	Terminate()
}
