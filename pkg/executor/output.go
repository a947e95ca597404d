package executor

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voidshard/foreman/internal/utils"
	"github.com/voidshard/foreman/pkg/structs"
)

// Listener is told about structured executor output as it happens.
type Listener interface {
	Progress(t *structs.Task, p *structs.ProgressRecord)
	SubtaskStarted(t *structs.Task, s *structs.Subtask)
	SubtaskFinished(t *structs.Task, s *structs.Subtask)
}

// Output accumulates what an executor wrote while running a single task
// and tracks when it was last heard from.
type Output struct {
	lock sync.Mutex

	task     *structs.Task
	listener Listener

	lastAlive  time.Time
	resultData string
	resultErr  string
	errOpen    bool
	subtaskID  string
}

// NewOutput returns an Output for the given task. The listener may be nil.
func NewOutput(task *structs.Task, listener Listener) *Output {
	return &Output{task: task, listener: listener, lastAlive: time.Now()}
}

// Line handles a single line of executor stdout.
func (o *Output) Line(line string) {
	o.lock.Lock()
	o.lastAlive = time.Now()
	o.lock.Unlock()

	log := zap.L().With(zap.Int64("task", o.task.ID), zap.String("type", o.task.Type))

	ev, err := ParseLine(line)
	if err != nil {
		log.Warn("failed to parse executor output", zap.Error(err))
		return
	}

	switch e := ev.(type) {
	case *ProgressEvent:
		o.progress(e.Progress)
	case *SubtaskStartEvent:
		o.subtask(e.Subtask, true)
	case *SubtaskFinishEvent:
		o.subtask(e.Subtask, false)
	case *ResultDataEvent:
		o.lock.Lock()
		o.resultData = e.Data
		o.lock.Unlock()
	case *ErrorEvent:
		o.lock.Lock()
		o.resultErr = e.Text
		o.errOpen = true
		o.lock.Unlock()
	case *WarningEvent:
		log.Warn("executor warning", zap.String("warning", e.Text))
	case *UnrecognizedEvent:
		o.lock.Lock()
		if o.errOpen {
			o.resultErr += e.Line
		}
		o.lock.Unlock()
		log.Info("executor output", zap.String("executor_output", e.Line))
		return
	}
	log.Debug("executor output", zap.String("executor_output", line))
}

// Fail records an error regardless of what the executor wrote.
func (o *Output) Fail(te *structs.TaskError) {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.resultErr = te.String()
	o.errOpen = true
}

// Idle returns how long it's been since the executor last wrote a line.
func (o *Output) Idle() time.Duration {
	o.lock.Lock()
	defer o.lock.Unlock()
	return time.Since(o.lastAlive)
}

// Touch marks the executor as alive.
func (o *Output) Touch() {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.lastAlive = time.Now()
}

// Result returns the captured result data & error (if any).
func (o *Output) Result() (string, *structs.TaskError) {
	o.lock.Lock()
	defer o.lock.Unlock()
	if !o.errOpen {
		return o.resultData, nil
	}
	return o.resultData, structs.ParseTaskError(o.resultErr)
}

func (o *Output) progress(p *structs.Progress) {
	o.lock.Lock()
	if p.SubtaskID == "" {
		p.SubtaskID = o.subtaskID
	}
	o.lock.Unlock()

	if o.listener == nil {
		return
	}
	o.listener.Progress(o.task, &structs.ProgressRecord{
		AppID:    o.task.AppID,
		Tag:      o.task.Tag,
		TaskID:   o.task.ID,
		Progress: p,
	})
}

func (o *Output) subtask(s *structs.Subtask, started bool) {
	o.lock.Lock()
	if s.ID == "" {
		if started {
			s.ID = utils.NewRandomID()
		} else {
			s.ID = o.subtaskID
		}
	}
	if started {
		o.subtaskID = s.ID
	} else if o.subtaskID == s.ID {
		o.subtaskID = ""
	}
	o.lock.Unlock()

	if o.listener == nil {
		return
	}
	if started {
		o.listener.SubtaskStarted(o.task, s)
	} else {
		o.listener.SubtaskFinished(o.task, s)
	}
}
