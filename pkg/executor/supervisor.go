package executor

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	ie "github.com/voidshard/foreman/pkg/errors"
	"github.com/voidshard/foreman/pkg/structs"
)

// Supervisor picks & runs executors for tasks.
type Supervisor struct {
	opts *Options

	lock      sync.Mutex
	executors map[string]string
	current   Executor
}

// NewSupervisor discovers the executors in the configured directory.
func NewSupervisor(opts *Options) (*Supervisor, error) {
	opts.SetDefaults()
	executors, err := Discover(opts.Directory)
	if err != nil {
		return nil, err
	}
	return NewSupervisorWithExecutors(opts, executors), nil
}

// NewSupervisorWithExecutors returns a supervisor using the given executor commands
// (by capability name) rather than looking on disk.
func NewSupervisorWithExecutors(opts *Options, executors map[string]string) *Supervisor {
	opts.SetDefaults()
	return &Supervisor{opts: opts, executors: executors}
}

// Capabilities are the task types this supervisor can run
func (s *Supervisor) Capabilities() []string {
	return Capabilities(s.executors)
}

// Run executes the task & reports the outcome. Run never returns an error,
// failures are reported on the result.
func (s *Supervisor) Run(ctx context.Context, task *structs.Task, listener Listener) (result *structs.TaskResult) {
	result = &structs.TaskResult{Task: task}
	out := NewOutput(task, listener)

	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("executor panic", zap.Int64("task", task.ID), zap.Any("panic", r))
			result.Error = structs.NewTaskError(fmt.Errorf("executor panic: %v", r))
		}
		s.setCurrent(nil)

		data, resultErr := out.Result()
		result.ResultData = data
		if result.Error == nil {
			result.Error = resultErr
		}
	}()

	exe, err := s.executorFor(task, out)
	if err != nil {
		result.ResultCode = -1
		result.Error = structs.NewTaskError(err)
		return result
	}

	s.setCurrent(exe)
	code, err := exe.Execute(ctx)
	result.ResultCode = code
	if err != nil {
		result.Error = structs.NewTaskError(err)
	}
	return result
}

// Terminate kills whatever is currently running (if anything).
func (s *Supervisor) Terminate() {
	s.lock.Lock()
	exe := s.current
	s.lock.Unlock()
	if exe != nil {
		exe.Terminate()
	}
}

// executorFor selects the executor for a task by its type
func (s *Supervisor) executorFor(task *structs.Task, out *Output) (Executor, error) {
	if task.Type == TestExecutorType {
		return NewTest(task, s.opts), nil
	}
	command, ok := s.executors[task.Type]
	if !ok {
		return nil, fmt.Errorf("%w task executor command was not found for type %s (app %s task %d)", ie.ErrExecutorNotFound, task.Type, task.AppID, task.ID)
	}
	return NewOutProc(command, task, credentialsFor(task, s.opts.Credentials), out, s.opts), nil
}

func (s *Supervisor) setCurrent(exe Executor) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.current = exe
}
