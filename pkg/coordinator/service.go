// Package coordinator hands tasks to agents and handles their results.
//
// Correctness rests on the database's atomic claim; the Service keeps no task
// state of its own, so any number of coordinators may share one database.
package coordinator

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/voidshard/foreman/internal/metrics"
	"github.com/voidshard/foreman/pkg/database"
	"github.com/voidshard/foreman/pkg/errors"
	"github.com/voidshard/foreman/pkg/structs"
)

var (
	timeNow = time.Now
)

type Service struct {
	opts *Options

	db          database.Database
	hub         *Hub
	broadcaster Broadcaster
	notifier    Notifier
	monitor     Monitor

	apps   *appCache
	client *http.Client
}

// NewService returns a coordinator that broadcasts via the given hub, logs to a
// default monitor and sends callbacks from goroutines. See the With* funcs to
// change these.
func NewService(db database.Database, hub *Hub, opts *Options) *Service {
	if opts == nil {
		opts = &Options{}
	}
	opts.SetDefaults()
	if hub == nil {
		hub = NewHub()
	}
	return &Service{
		opts:        opts,
		db:          db,
		hub:         hub,
		broadcaster: hub,
		notifier:    NewGoNotifier(nil, opts.CallbackTimeout),
		monitor:     NewMonitor(nil),
		apps:        newAppCache(db),
		client:      &http.Client{Timeout: opts.PingTimeout},
	}
}

func (s *Service) WithBroadcaster(b Broadcaster) *Service {
	s.broadcaster = b
	return s
}

func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

func (s *Service) WithMonitor(m Monitor) *Service {
	s.monitor = m
	return s
}

// Subscribe opens a push stream for an agent on the local hub.
func (s *Service) Subscribe(ref structs.AgentRef, caps []string) (<-chan *structs.Push, func()) {
	return s.hub.Subscribe(ref, caps)
}

// Claim leases the most urgent task the agent can run, or returns nil.
//
// The owning application's credentials for the task type are attached so agents
// never need access to application storage.
func (s *Service) Claim(ctx context.Context, req *structs.ClaimRequest) (*structs.Task, error) {
	if req == nil || req.Agent == "" {
		return nil, fmt.Errorf("%w agent name is required", errors.ErrInvalidArg)
	}
	if len(req.Capabilities) == 0 {
		return nil, nil
	}

	task, err := s.db.ClaimNext(ctx, req.Machine, req.Agent, req.Capabilities, s.opts.leaseSeconds())
	if err != nil || task == nil {
		return nil, err
	}

	app, err := s.apps.get(ctx, task.AppID)
	if err != nil {
		zap.L().Warn("failed to load application for claimed task", zap.Int64("task", task.ID), zap.String("app", task.AppID), zap.Error(err))
	} else if app != nil {
		task.Authentication = app.AuthenticationForTask(task.Type)
	}

	metrics.RecordTaskClaimed(task.Type)
	s.monitor.TaskEvent(structs.NewTaskEvent(structs.EventStarted, task, req.Machine, req.Agent))
	return task, nil
}

// Renew refreshes a lease, reporting false if the task no longer exists.
func (s *Service) Renew(ctx context.Context, req *structs.RenewRequest) (bool, error) {
	if req == nil || req.TaskID <= 0 {
		return false, fmt.Errorf("%w task id is required", errors.ErrInvalidArg)
	}
	ok, err := s.db.RenewLease(ctx, req.TaskID)
	if err != nil {
		return false, err
	}
	metrics.RecordLeaseRenewal()
	if !ok {
		zap.L().Debug("lease renewal for unknown task", zap.Int64("task", req.TaskID), zap.String("agent", req.Agent))
	}
	return ok, nil
}

func (s *Service) Heartbeat(ctx context.Context, req *structs.HeartbeatRequest) error {
	if req == nil || req.Health == nil {
		return fmt.Errorf("%w health record is required", errors.ErrInvalidArg)
	}
	if req.Health.Machine == "" {
		req.Health.Machine = req.Machine
	}
	if req.Health.Agent == "" {
		req.Health.Agent = req.Agent
	}
	s.monitor.Heartbeat(req.Health)
	return nil
}

// Finish finalizes a task.
//
// If a finalize callback is due the application is pinged first; an unreachable
// application means no callback, but the task is always deleted. The callback
// itself is handed to the Notifier and never awaited.
func (s *Service) Finish(ctx context.Context, result *structs.TaskResult) error {
	if result == nil || result.Task == nil {
		return fmt.Errorf("%w task result has no task", errors.ErrInvalidArg)
	}
	task := result.Task

	var app *structs.Application
	url := ""
	notify := task.AppID != ""

	if !notify {
		zap.L().Warn("finished task has no app id, nothing to notify", zap.Int64("task", task.ID))
	} else {
		var err error
		app, err = s.apps.get(ctx, task.AppID)
		if err != nil {
			zap.L().Warn("failed to load application", zap.String("app", task.AppID), zap.Error(err))
		}

		url = task.FinalizeURLFor(app)
		if url == "" {
			notify = false
		} else if err := ping(ctx, s.client, app); err != nil {
			zap.L().Error("application unreachable, finalize callback will not be sent",
				zap.Int64("task", task.ID),
				zap.String("app", task.AppID),
				zap.String("url", url),
				zap.Error(err),
			)
			metrics.RecordFinalizeCallback(metrics.CallbackSkipped)
			notify = false
		}
	}

	deleted, err := s.db.Finalize(ctx, result)
	if err != nil {
		return err
	}
	if !deleted {
		zap.L().Warn("finalized task was not in the live table",
			zap.Int64("task", task.ID),
			zap.String("agent", result.Agent),
		)
	}

	et := result.EventType()
	metrics.RecordTaskFinished(task.Type, string(et))
	e := structs.NewTaskEvent(et, task, result.Machine, result.Agent)
	e.Details = result.ResultData
	s.monitor.TaskEvent(e)

	if notify {
		err = s.notifier.Notify(ctx, NewCallback(app, url, result))
		if err != nil {
			zap.L().Error("failed to dispatch finalize callback", zap.Int64("task", task.ID), zap.Error(err))
		}
	}
	return nil
}

func (s *Service) StartSubtask(ctx context.Context, req *structs.SubtaskRequest) error {
	return s.subtaskEvent(ctx, structs.EventSubtaskStarted, req)
}

func (s *Service) FinishSubtask(ctx context.Context, req *structs.SubtaskRequest) error {
	return s.subtaskEvent(ctx, structs.EventSubtaskFinished, req)
}

func (s *Service) subtaskEvent(ctx context.Context, et structs.EventType, req *structs.SubtaskRequest) error {
	if req == nil || req.Subtask == nil || req.Task == nil {
		return fmt.Errorf("%w subtask and task are required", errors.ErrInvalidArg)
	}
	e := structs.NewSubtaskEvent(et, req.Subtask, req.Task, req.Machine, req.Agent)
	err := s.db.InsertEvent(ctx, e)
	if err != nil {
		return err
	}
	s.monitor.TaskEvent(e)
	return nil
}

// Progress is passed to the monitor only, it isn't stored.
func (s *Service) Progress(ctx context.Context, req *structs.ProgressRequest) error {
	if req == nil || req.Progress == nil {
		return fmt.Errorf("%w progress record is required", errors.ErrInvalidArg)
	}
	s.monitor.Progress(req.AgentRef, req.Progress)
	return nil
}

// RegisterTask adds a task (or raises the priority of an identical one).
//
// Unknown applications & store failures are reported in the response Error
// rather than as an error, so callers can tell they need to re-register.
func (s *Service) RegisterTask(ctx context.Context, req *structs.RegisterTaskRequest) (*structs.RegisterTaskResponse, error) {
	if req == nil || req.Type == "" || req.AppID == "" {
		return nil, fmt.Errorf("%w task type and app id are required", errors.ErrInvalidArg)
	}
	order, ok := req.Priority.Order()
	if !ok {
		return nil, fmt.Errorf("%w %s", errors.ErrUnknownPriority, req.Priority)
	}

	app, err := s.apps.get(ctx, req.AppID)
	if err != nil {
		zap.L().Error("failed to load applications", zap.Error(err))
		metrics.RecordTaskRegistered(req.Type, metrics.RegisterFailed)
		return &structs.RegisterTaskResponse{Error: structs.ErrorTaskRegistrationFailed}, nil
	}
	if app == nil {
		zap.L().Warn("task registered for unknown application", zap.String("app", req.AppID), zap.String("type", req.Type))
		metrics.RecordTaskRegistered(req.Type, metrics.RegisterUnknown)
		return &structs.RegisterTaskResponse{Error: structs.ErrorUnknownAppID}, nil
	}

	task := &structs.Task{
		TaskSpec: structs.TaskSpec{
			Type:        req.Type,
			Title:       req.Title,
			Tag:         req.Tag,
			AppID:       app.AppID,
			FinalizeURL: req.FinalizeURL,
			Hash:        req.Hash,
			Payload:     req.Payload,
		},
		Order: order,
	}
	if task.Hash == 0 {
		task.Hash = TaskHash(&task.TaskSpec)
	}

	machine := req.MachineName
	if machine == "" {
		machine = s.opts.Machine
	}

	result, err := s.db.RegisterTask(ctx, task, machine)
	if err != nil {
		zap.L().Error("task registration failed", zap.String("app", req.AppID), zap.String("type", req.Type), zap.Error(err))
		metrics.RecordTaskRegistered(req.Type, metrics.RegisterFailed)
		return &structs.RegisterTaskResponse{Error: structs.ErrorTaskRegistrationFailed}, nil
	}

	switch {
	case result.Created:
		metrics.RecordTaskRegistered(req.Type, metrics.RegisterCreated)
	case result.Updated:
		metrics.RecordTaskRegistered(req.Type, metrics.RegisterUpdated)
	default:
		metrics.RecordTaskRegistered(req.Type, metrics.RegisterUnchanged)
	}

	err = s.broadcaster.Broadcast(ctx, result.Task)
	if err != nil {
		zap.L().Error("failed to broadcast new task", zap.Int64("task", result.Task.ID), zap.Error(err))
	}
	if result.Created || result.Updated {
		s.monitor.TaskEvent(structs.NewRegisterEvent(result.Task, machine, result.Created))
	}

	return &structs.RegisterTaskResponse{Task: result.Task, Created: result.Created, Updated: result.Updated}, nil
}

// RegisterApplication creates or updates an application. Failures are reported
// in the response.
func (s *Service) RegisterApplication(ctx context.Context, req *structs.RegisterApplicationRequest) (*structs.RegisterApplicationResponse, error) {
	if req == nil || req.AppID == "" {
		return &structs.RegisterApplicationResponse{Error: "app id is required"}, nil
	}

	_, err := s.db.RegisterApplication(ctx, req.ToApplication())
	s.apps.reset()
	if err != nil {
		zap.L().Error("application registration failed", zap.String("app", req.AppID), zap.Error(err))
		return &structs.RegisterApplicationResponse{Error: err.Error()}, nil
	}

	zap.L().Info("application registered", zap.String("app", req.AppID), zap.String("url", req.ApplicationURL))
	return &structs.RegisterApplicationResponse{Success: true}, nil
}

func (s *Service) Applications(ctx context.Context) ([]*structs.Application, error) {
	return s.db.Applications(ctx)
}

// UnfinishedEvents returns registrations within the history window of tasks
// that haven't completed successfully.
func (s *Service) UnfinishedEvents(ctx context.Context, appID, tag string) ([]*structs.TaskEvent, error) {
	since := timeNow().Add(-s.opts.HistoryWindow).Unix()
	return s.db.UnfinishedEvents(ctx, appID, tag, since)
}

func (s *Service) EventsForTask(ctx context.Context, taskID int64, appID, tag string) ([]*structs.TaskEvent, error) {
	if taskID <= 0 {
		return nil, fmt.Errorf("%w task id is required", errors.ErrInvalidArg)
	}
	return s.db.EventsForTask(ctx, taskID, appID, tag)
}

// Agents returns the latest heartbeat of every known agent.
func (s *Service) Agents() []*structs.HealthRecord {
	return s.monitor.Agents()
}
