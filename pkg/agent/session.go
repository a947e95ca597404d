package agent

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voidshard/foreman/pkg/structs"
)

// State of an agent session
type State string

const (
	StateDisconnected State = "Disconnected"
	StateConnecting   State = "Connecting"
	StateReconnecting State = "Reconnecting"
	StateIdle         State = "Idle"
	StateWorking      State = "Working"
)

// Session is a single agent process' connection to the coordinator. It
// claims tasks, runs them one at a time & reports the results.
type Session struct {
	opts      *Options
	transport Transport
	runner    Runner

	ref          structs.AgentRef
	capabilities []string
	started      time.Time

	lock      sync.Mutex
	conn      State
	connected bool
	working   bool
	current   *structs.Task

	// poke skips the wait before the next connection attempt
	poke chan struct{}
	wg   sync.WaitGroup
}

// NewSession returns a new session, call Run to start it.
func NewSession(transport Transport, runner Runner, opts *Options) *Session {
	if opts == nil {
		opts = &Options{}
	}
	opts.SetDefaults()

	caps := append([]string{}, runner.Capabilities()...)
	caps = append(caps, opts.ExtraCapabilities...)

	return &Session{
		opts:         opts,
		transport:    transport,
		runner:       runner,
		ref:          structs.AgentRef{Machine: opts.Machine, Agent: opts.Name},
		capabilities: caps,
		started:      time.Now(),
		conn:         StateDisconnected,
		poke:         make(chan struct{}, 1),
	}
}

// Name of this agent
func (s *Session) Name() string {
	return s.ref.Agent
}

// Capabilities are the task types this agent claims
func (s *Session) Capabilities() []string {
	return s.capabilities
}

// State returns the current state of the session
func (s *Session) State() State {
	s.lock.Lock()
	defer s.lock.Unlock()
	if !s.connected {
		return s.conn
	}
	if s.working {
		return StateWorking
	}
	return StateIdle
}

// Current returns the task being worked on, if any
func (s *Session) Current() *structs.Task {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.current
}

// Run connects to the coordinator & works until the context is cancelled.
// A running task is stopped when the context is cancelled.
func (s *Session) Run(ctx context.Context) error {
	if len(s.capabilities) == 0 {
		return fmt.Errorf("agent %s has no executors", s.ref.Agent)
	}
	zap.L().Info("agent starting", zap.String("agent", s.ref.Agent), zap.Strings("capabilities", s.capabilities))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.heartbeat(ctx)
	}()

	s.connectionLoop(ctx)
	s.wg.Wait()

	zap.L().Info("agent stopped", zap.String("agent", s.ref.Agent))
	return nil
}

// connectionLoop (re)connects forever, resuming the work loop after each
// successful connection.
func (s *Session) connectionLoop(ctx context.Context) {
	var delay time.Duration
	next := StateConnecting

	for {
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			case <-s.poke:
				timer.Stop()
			}
		}
		if ctx.Err() != nil {
			return
		}

		s.setConn(next, false)
		pushes, err := s.transport.Subscribe(ctx, s.ref, s.capabilities)
		if err != nil {
			zap.L().Warn("failed to connect", zap.String("agent", s.ref.Agent), zap.Error(err))
			delay = s.opts.RetryDelay
			continue
		}

		zap.L().Info("agent connected", zap.String("agent", s.ref.Agent))
		s.setConn(StateIdle, true)

		// we may have missed tasks while disconnected
		s.trigger(ctx)
		s.consume(ctx, pushes)

		s.setConn(StateReconnecting, false)
		if ctx.Err() != nil {
			s.setConn(StateDisconnected, false)
			return
		}
		zap.L().Warn("connection closed, reconnecting", zap.String("agent", s.ref.Agent))

		next = StateReconnecting
		delay = time.Duration(rand.Int63n(int64(s.opts.ReconnectMaxBackoff)))
	}
}

// consume handles pushes until the channel closes
func (s *Session) consume(ctx context.Context, pushes <-chan *structs.Push) {
	for {
		select {
		case <-ctx.Done():
			return
		case push, ok := <-pushes:
			if !ok {
				return
			}
			s.onPush(ctx, push)
		}
	}
}

func (s *Session) onPush(ctx context.Context, push *structs.Push) {
	if push == nil || push.Type != structs.PushNewTask {
		return
	}
	if push.Task != nil && !s.canRun(push.Task.Type) {
		return
	}
	if push.Task == nil {
		zap.L().Debug("handling dead tasks message", zap.String("agent", s.ref.Agent))
	} else {
		zap.L().Debug("handling new task message", zap.String("agent", s.ref.Agent), zap.Int64("task", push.Task.ID))
	}
	s.trigger(ctx)
}

func (s *Session) canRun(taskType string) bool {
	for _, c := range s.capabilities {
		if c == taskType {
			return true
		}
	}
	return false
}

// trigger starts the work loop, unless it's already running.
func (s *Session) trigger(ctx context.Context) {
	s.lock.Lock()
	if s.working {
		s.lock.Unlock()
		return
	}
	s.working = true
	s.lock.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.workLoop(ctx)
	}()
}

// workLoop claims & runs tasks until there is nothing left to do
func (s *Session) workLoop(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("agent error", zap.String("agent", s.ref.Agent), zap.Any("panic", r))
		}
		s.lock.Lock()
		s.working = false
		s.current = nil
		s.lock.Unlock()
	}()

	for ctx.Err() == nil {
		task, err := s.transport.Claim(ctx, &structs.ClaimRequest{AgentRef: s.ref, Capabilities: s.capabilities})
		if err != nil {
			zap.L().Warn("failed to claim task", zap.String("agent", s.ref.Agent), zap.Error(err))
			return
		}
		if task == nil {
			return
		}
		s.work(ctx, task)
	}
}

// work runs a single task & reports the result
func (s *Session) work(ctx context.Context, task *structs.Task) {
	log := zap.L().With(zap.String("agent", s.ref.Agent), zap.Int64("task", task.ID), zap.String("type", task.Type))
	log.Info("start work on task")

	s.lock.Lock()
	s.current = task
	s.lock.Unlock()

	stopRenew := make(chan struct{})
	renewDone := make(chan struct{})
	go func() {
		defer close(renewDone)
		s.renewLease(ctx, task, stopRenew)
	}()

	result := s.execute(ctx, task)

	close(stopRenew)
	<-renewDone

	s.lock.Lock()
	s.current = nil
	s.lock.Unlock()

	result.Machine = s.ref.Machine
	result.Agent = s.ref.Agent
	log.Info("execution finished", zap.Int("code", result.ResultCode), zap.Bool("successful", result.Successful()))

	if ctx.Err() != nil {
		log.Warn("shutting down, task will be reclaimed once its lease expires")
		return
	}

	// finalizes on the coordinator & removes the task
	if err := s.transport.Finish(ctx, result); err != nil {
		log.Error("failed to send task result", zap.Error(err))
	}
}

// execute runs the task, converting any panic into a failed result
func (s *Session) execute(ctx context.Context, task *structs.Task) (result *structs.TaskResult) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("task attempt failed", zap.Int64("task", task.ID), zap.Any("panic", r))
			result = &structs.TaskResult{Task: task, ResultCode: -1, Error: structs.NewTaskError(fmt.Errorf("%v", r))}
		}
	}()
	result = s.runner.Run(ctx, task, &listener{ctx: ctx, ref: s.ref, transport: s.transport})
	if result == nil {
		result = &structs.TaskResult{Task: task, ResultCode: -1, Error: structs.NewTaskError(fmt.Errorf("no result"))}
	}
	return result
}

// renewLease refreshes the lease on a task until told to stop
func (s *Session) renewLease(ctx context.Context, task *structs.Task, stop <-chan struct{}) {
	ticker := time.NewTicker(s.opts.UpdateLockPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			err := s.transport.Renew(ctx, &structs.RenewRequest{AgentRef: s.ref, TaskID: task.ID})
			if err != nil {
				zap.L().Warn("failed to renew lease", zap.Int64("task", task.ID), zap.Error(err))
			}
		}
	}
}

// heartbeat sends health records, or pokes the connection loop if we're disconnected
func (s *Session) heartbeat(ctx context.Context) {
	ticker := time.NewTicker(s.opts.HeartbeatPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.lock.Lock()
		connected := s.connected
		working := s.working
		s.lock.Unlock()

		if !connected {
			select {
			case s.poke <- struct{}{}:
			default:
			}
			continue
		}

		err := s.transport.Heartbeat(ctx, &structs.HeartbeatRequest{
			AgentRef: s.ref,
			Health:   healthSnapshot(s.ref, working, s.started),
		})
		if err != nil {
			zap.L().Warn("failed to send heartbeat", zap.String("agent", s.ref.Agent), zap.Error(err))
		}
	}
}

func (s *Session) setConn(state State, connected bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.conn = state
	s.connected = connected
}

// listener forwards executor output to the coordinator
type listener struct {
	ctx       context.Context
	ref       structs.AgentRef
	transport Transport
}

func (l *listener) Progress(t *structs.Task, p *structs.ProgressRecord) {
	p.Title = t.Title
	err := l.transport.Progress(l.ctx, &structs.ProgressRequest{AgentRef: l.ref, Progress: p})
	if err != nil {
		zap.L().Warn("failed to write progress", zap.Int64("task", t.ID), zap.Error(err))
	}
}

func (l *listener) SubtaskStarted(t *structs.Task, sub *structs.Subtask) {
	err := l.transport.StartSubtask(l.ctx, &structs.SubtaskRequest{AgentRef: l.ref, Subtask: sub, Task: t})
	if err != nil {
		zap.L().Warn("failed to start subtask", zap.Int64("task", t.ID), zap.Error(err))
	}
}

func (l *listener) SubtaskFinished(t *structs.Task, sub *structs.Subtask) {
	err := l.transport.FinishSubtask(l.ctx, &structs.SubtaskRequest{AgentRef: l.ref, Subtask: sub, Task: t})
	if err != nil {
		zap.L().Warn("failed to finish subtask", zap.Int64("task", t.ID), zap.Error(err))
	}
}
