package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voidshard/foreman/pkg/structs"
)

// OutProc runs a task in an external process and watches it for signs of life.
type OutProc struct {
	lock sync.Mutex

	command   string
	args      []string
	task      *structs.Task
	out       *Output
	timeout   time.Duration
	waitDelay time.Duration

	cmd    *exec.Cmd
	exited bool
}

// NewOutProc returns an executor that runs `command` for the given task.
func NewOutProc(command string, task *structs.Task, creds *Credentials, out *Output, opts *Options) *OutProc {
	return &OutProc{
		command:   command,
		args:      buildArgs(task, creds),
		task:      task,
		out:       out,
		timeout:   opts.Timeout,
		waitDelay: opts.WaitDelay,
	}
}

// Execute starts the process & blocks until it exits or is killed.
func (p *OutProc) Execute(ctx context.Context) (int, error) {
	stdout := &lineWriter{onLine: p.out.Line}
	stderr := &lineWriter{onLine: func(line string) {
		zap.L().Warn("executor stderr", zap.Int64("task", p.task.ID), zap.String("executor_output", line))
	}}

	cmd := exec.CommandContext(ctx, p.command, p.args...)
	cmd.Dir = filepath.Dir(p.command)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = p.waitDelay
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return killProcessGroup(cmd) }

	p.lock.Lock()
	p.cmd = cmd
	p.lock.Unlock()

	log := zap.L().With(zap.Int64("task", p.task.ID), zap.String("type", p.task.Type))
	log.Info("executor starting",
		zap.String("command", p.command),
		zap.Int64("hash", p.task.Hash),
		zap.Float64("order", p.task.Order),
		zap.Int64("registered_at", p.task.RegisteredAt),
	)

	p.out.Touch()
	if err := cmd.Start(); err != nil {
		p.markExited()
		return -1, fmt.Errorf("failed to start executor %s: %w", p.command, err)
	}

	stopWatch := make(chan struct{})
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		p.watch(stopWatch)
	}()

	err := cmd.Wait()
	p.markExited()
	close(stopWatch)
	<-watchDone

	stdout.Flush()
	stderr.Flush()

	code := cmd.ProcessState.ExitCode()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) && !errors.Is(err, exec.ErrWaitDelay) {
		return code, err
	}

	if code != 0 {
		log.Warn("executor finished with error", zap.Int("code", code))
	} else {
		log.Info("executor finished")
	}
	return code, nil
}

// watch kills the process if it stops writing output for longer than the timeout
func (p *OutProc) watch(stop <-chan struct{}) {
	ticker := time.NewTicker(p.timeout)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if p.out.Idle() <= p.timeout {
				continue
			}
			msg := fmt.Sprintf("EXECUTOR TERMINATED: %s.", p.task.Type)
			zap.L().Warn(msg, zap.Int64("task", p.task.ID), zap.Duration("timeout", p.timeout))
			p.out.Fail(&structs.TaskError{
				ErrorCode: structs.ErrorCodeExecutorTerminated,
				ErrorType: structs.ErrorCodeExecutorTerminated,
				Message:   msg,
			})
			p.Terminate()
			return
		}
	}
}

// Terminate kills the process, and any children it started, if it is still running.
func (p *OutProc) Terminate() {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.exited || p.cmd == nil || p.cmd.Process == nil {
		return
	}
	err := killProcessGroup(p.cmd)
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		zap.L().Warn("failed to kill executor", zap.Int64("task", p.task.ID), zap.Error(err))
	}
}

func (p *OutProc) markExited() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.exited = true
}

// lineWriter splits what is written to it into lines
type lineWriter struct {
	buf    bytes.Buffer
	onLine func(string)
}

func (w *lineWriter) Write(data []byte) (int, error) {
	w.buf.Write(data)
	for {
		idx := bytes.IndexByte(w.buf.Bytes(), '\n')
		if idx < 0 {
			break
		}
		line := string(w.buf.Next(idx + 1))
		w.onLine(strings.TrimRight(line, "\r\n"))
	}
	return len(data), nil
}

// Flush emits anything written without a trailing newline
func (w *lineWriter) Flush() {
	if w.buf.Len() == 0 {
		return
	}
	line := w.buf.String()
	w.buf.Reset()
	w.onLine(strings.TrimRight(line, "\r\n"))
}
