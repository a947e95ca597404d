package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	ie "github.com/voidshard/foreman/pkg/errors"
	"github.com/voidshard/foreman/pkg/structs"
)

// Memory is an in process Database. It keeps the same claim / lease / history
// semantics as Postgres and is intended for a single coordinator or tests.
type Memory struct {
	lock sync.Mutex

	nextTaskID  int64
	nextEventID int64

	tasks  map[int64]*structs.Task
	events []*structs.TaskEvent
	apps   map[string]*structs.Application
}

// NewMemory returns an empty Memory database
func NewMemory() *Memory {
	return &Memory{
		tasks:  map[int64]*structs.Task{},
		events: []*structs.TaskEvent{},
		apps:   map[string]*structs.Application{},
	}
}

func (m *Memory) Close() error {
	return nil
}

// RegisterTask inserts or updates a task, see Database.
func (m *Memory) RegisterTask(ctx context.Context, in *structs.Task, machine string) (*RegisterResult, error) {
	if in == nil {
		return nil, fmt.Errorf("%w task is required", ie.ErrInvalidArg)
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	for _, existing := range m.tasks {
		if existing.Hash != in.Hash || existing.Payload != in.Payload {
			continue
		}
		if in.Order >= existing.Order {
			return &RegisterResult{Task: copyTask(existing)}, nil
		}
		existing.Order = in.Order
		m.appendEvent(structs.NewRegisterEvent(existing, machine, false))
		return &RegisterResult{Task: copyTask(existing), Updated: true}, nil
	}

	m.nextTaskID++
	t := &structs.Task{
		TaskSpec:     in.TaskSpec,
		ID:           m.nextTaskID,
		Order:        in.Order,
		RegisteredAt: timeNow(),
	}
	m.tasks[t.ID] = t
	m.appendEvent(structs.NewRegisterEvent(t, machine, true))

	return &RegisterResult{Task: copyTask(t), Created: true}, nil
}

// ClaimNext leases the next task, see Database.
func (m *Memory) ClaimNext(ctx context.Context, machine, agent string, capabilities []string, leaseTimeout int64) (*structs.Task, error) {
	if len(capabilities) == 0 {
		return nil, nil
	}
	caps := map[string]bool{}
	for _, c := range capabilities {
		caps[c] = true
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	now := timeNow()
	var next *structs.Task
	for _, t := range m.tasks {
		if !caps[t.Type] || !t.Claimable(now, leaseTimeout) {
			continue
		}
		if next == nil || claimsBefore(t, next) {
			next = t
		}
	}
	if next == nil {
		return nil, nil
	}

	next.LockedBy = agent
	next.LastLockUpdate = now
	m.appendEvent(structs.NewTaskEvent(structs.EventStarted, next, machine, agent))

	return copyTask(next), nil
}

// RenewLease refreshes a task's lease, see Database.
func (m *Memory) RenewLease(ctx context.Context, taskID int64) (bool, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	t, ok := m.tasks[taskID]
	if !ok {
		return false, nil
	}
	t.LastLockUpdate = timeNow()
	return true, nil
}

// CountExpiredLeases counts claimable tasks, see Database.
func (m *Memory) CountExpiredLeases(ctx context.Context, leaseTimeout int64) (int64, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	now := timeNow()
	count := int64(0)
	for _, t := range m.tasks {
		if t.Claimable(now, leaseTimeout) {
			count++
		}
	}
	return count, nil
}

// Finalize removes a finished task, see Database.
func (m *Memory) Finalize(ctx context.Context, result *structs.TaskResult) (bool, error) {
	if result == nil || result.Task == nil {
		return false, fmt.Errorf("%w result has no task", ie.ErrInvalidArg)
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	_, deleted := m.tasks[result.Task.ID]
	delete(m.tasks, result.Task.ID)
	m.appendEvent(finishEvent(result))

	return deleted, nil
}

// InsertEvent appends an event to the history
func (m *Memory) InsertEvent(ctx context.Context, e *structs.TaskEvent) error {
	if e == nil {
		return fmt.Errorf("%w event is required", ie.ErrInvalidArg)
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	m.appendEvent(e)
	return nil
}

// UnfinishedEvents see History.UnfinishedEvents
func (m *Memory) UnfinishedEvents(ctx context.Context, appID, tag string, since int64) ([]*structs.TaskEvent, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	finished := map[int64]bool{}
	failed := map[int64]bool{}
	for _, e := range m.events {
		if structs.IsFinalEvent(e.EventType) {
			finished[e.TaskID] = true
		}
		if e.EventType == structs.EventFailed && e.EventTime > since {
			failed[e.TaskID] = true
		}
	}

	out := []*structs.TaskEvent{}
	for _, e := range m.events {
		if e.EventType != structs.EventRegistered || e.EventTime <= since || !matchesEvent(e, appID, tag) {
			continue
		}
		switch {
		case !finished[e.TaskID]:
			out = append(out, copyEvent(e))
		case failed[e.TaskID]:
			c := copyEvent(e)
			c.EventType = structs.EventFailed
			out = append(out, c)
		}
	}
	return out, nil
}

// EventsForTask see History.EventsForTask
func (m *Memory) EventsForTask(ctx context.Context, taskID int64, appID, tag string) ([]*structs.TaskEvent, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	out := []*structs.TaskEvent{}
	for _, e := range m.events {
		if e.TaskID == taskID && matchesEvent(e, appID, tag) {
			out = append(out, copyEvent(e))
		}
	}
	return out, nil
}

// RegisterApplication inserts or updates an application.
func (m *Memory) RegisterApplication(ctx context.Context, app *structs.Application) (*structs.Application, error) {
	if app == nil || app.AppID == "" {
		return nil, fmt.Errorf("%w app id is required", ie.ErrInvalidArg)
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	now := timeNow()
	out := *app
	out.RegistrationDate = now
	if existing, ok := m.apps[strings.ToLower(app.AppID)]; ok {
		out.RegistrationDate = existing.RegistrationDate
	}
	out.LastUpdateDate = now
	m.apps[strings.ToLower(app.AppID)] = &out

	cp := out
	return &cp, nil
}

// Applications returns all registered applications.
func (m *Memory) Applications(ctx context.Context) ([]*structs.Application, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	out := []*structs.Application{}
	for _, a := range m.apps {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppID < out[j].AppID })
	return out, nil
}

// appendEvent assumes the lock is held
func (m *Memory) appendEvent(e *structs.TaskEvent) {
	if e.EventTime == 0 {
		e.EventTime = timeNow()
	}
	m.nextEventID++
	e.ID = m.nextEventID
	m.events = append(m.events, copyEvent(e))
}

// claimsBefore reports if a should be claimed before b
func claimsBefore(a, b *structs.Task) bool {
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	if a.RegisteredAt != b.RegisteredAt {
		return a.RegisteredAt < b.RegisteredAt
	}
	return a.ID < b.ID
}

func matchesEvent(e *structs.TaskEvent, appID, tag string) bool {
	if appID != "" && e.AppID != appID {
		return false
	}
	if tag != "" && e.Tag != tag {
		return false
	}
	return true
}

func copyTask(t *structs.Task) *structs.Task {
	cp := *t
	return &cp
}

func copyEvent(e *structs.TaskEvent) *structs.TaskEvent {
	cp := *e
	return &cp
}
