package api

import (
	"context"

	"github.com/voidshard/foreman/pkg/coordinator"
	"github.com/voidshard/foreman/pkg/structs"
)

// API represents the functions foreman coordinators expose to agents and applications.
type API interface {
	// Implemented in foreman/pkg/coordinator.Service

	// agent facing
	Subscribe(ref structs.AgentRef, caps []string) (<-chan *structs.Push, func())
	Claim(ctx context.Context, req *structs.ClaimRequest) (*structs.Task, error)
	Renew(ctx context.Context, req *structs.RenewRequest) (bool, error)
	Heartbeat(ctx context.Context, req *structs.HeartbeatRequest) error
	Finish(ctx context.Context, result *structs.TaskResult) error
	StartSubtask(ctx context.Context, req *structs.SubtaskRequest) error
	FinishSubtask(ctx context.Context, req *structs.SubtaskRequest) error
	Progress(ctx context.Context, req *structs.ProgressRequest) error

	// application facing
	RegisterApplication(ctx context.Context, req *structs.RegisterApplicationRequest) (*structs.RegisterApplicationResponse, error)
	Applications(ctx context.Context) ([]*structs.Application, error)
	RegisterTask(ctx context.Context, req *structs.RegisterTaskRequest) (*structs.RegisterTaskResponse, error)
	UnfinishedEvents(ctx context.Context, appID, tag string) ([]*structs.TaskEvent, error)
	EventsForTask(ctx context.Context, taskID int64, appID, tag string) ([]*structs.TaskEvent, error)
	Agents() []*structs.HealthRecord
}

type Server interface {
	ServeForever(api API) error
	Close() error
}

var _ API = (*coordinator.Service)(nil)
