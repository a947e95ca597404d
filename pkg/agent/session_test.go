package agent

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/voidshard/foreman/internal/mocks/pkg/agent_mock"
	"github.com/voidshard/foreman/pkg/executor"
	"github.com/voidshard/foreman/pkg/structs"
)

type fakeRunner struct {
	caps []string
	run  func(ctx context.Context, task *structs.Task, l executor.Listener) *structs.TaskResult
}

func (f *fakeRunner) Capabilities() []string {
	return f.caps
}

func (f *fakeRunner) Run(ctx context.Context, task *structs.Task, l executor.Listener) *structs.TaskResult {
	return f.run(ctx, task, l)
}

func (f *fakeRunner) Terminate() {}

func succeed(ctx context.Context, task *structs.Task, l executor.Listener) *structs.TaskResult {
	return &structs.TaskResult{Task: task, ResultData: "ok"}
}

var testRef = structs.AgentRef{Machine: "m", Agent: "agent"}

func testOptions() *Options {
	return &Options{
		Machine:             testRef.Machine,
		Name:                testRef.Agent,
		UpdateLockPeriod:    time.Hour,
		HeartbeatPeriod:     time.Hour,
		ReconnectMaxBackoff: 10 * time.Millisecond,
		RetryDelay:          10 * time.Millisecond,
	}
}

func openStream() <-chan *structs.Push {
	return make(chan *structs.Push)
}

func closedStream() <-chan *structs.Push {
	c := make(chan *structs.Push)
	close(c)
	return c
}

// runSession runs the session in the background, returning a func that stops it
func runSession(t *testing.T, s *Session) func() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- s.Run(ctx)
	}()
	return func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("session did not stop")
		}
	}
}

func TestNewSession(t *testing.T) {
	tr := agent_mock.NewMockTransport(gomock.NewController(t))
	opts := &Options{Machine: "box", ExtraCapabilities: []string{executor.TestExecutorType}}

	s := NewSession(tr, &fakeRunner{caps: []string{"echo"}}, opts)

	assert.Regexp(t, `^box-Agent#[0-9]+$`, s.Name())
	assert.Equal(t, []string{"echo", executor.TestExecutorType}, s.Capabilities())
	assert.Equal(t, StateDisconnected, s.State())
	assert.Equal(t, defaultUpdateLockPeriod, opts.UpdateLockPeriod)
}

func TestSessionRunWithoutCapabilities(t *testing.T) {
	tr := agent_mock.NewMockTransport(gomock.NewController(t))
	s := NewSession(tr, &fakeRunner{}, testOptions())

	err := s.Run(context.Background())

	assert.Error(t, err)
}

func TestSessionWorkLoop(t *testing.T) {
	tr := agent_mock.NewMockTransport(gomock.NewController(t))
	task := &structs.Task{ID: 1, TaskSpec: structs.TaskSpec{Type: "echo", AppID: "app1"}}
	finished := make(chan *structs.TaskResult, 1)

	tr.EXPECT().Subscribe(gomock.Any(), testRef, []string{"echo"}).Return(openStream(), nil)
	gomock.InOrder(
		tr.EXPECT().Claim(gomock.Any(), &structs.ClaimRequest{AgentRef: testRef, Capabilities: []string{"echo"}}).Return(task, nil),
		tr.EXPECT().Claim(gomock.Any(), gomock.Any()).Return(nil, nil),
	)
	tr.EXPECT().Finish(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, r *structs.TaskResult) error {
		finished <- r
		return nil
	})

	s := NewSession(tr, &fakeRunner{caps: []string{"echo"}, run: succeed}, testOptions())
	stop := runSession(t, s)
	defer stop()

	select {
	case result := <-finished:
		assert.Equal(t, "m", result.Machine)
		assert.Equal(t, "agent", result.Agent)
		assert.Equal(t, "ok", result.ResultData)
		assert.Equal(t, task, result.Task)
	case <-time.After(5 * time.Second):
		t.Fatal("task was not finished")
	}

	assert.Eventually(t, func() bool { return s.State() == StateIdle }, time.Second, 5*time.Millisecond)
	assert.Nil(t, s.Current())
}

func TestSessionTriggerWhileWorking(t *testing.T) {
	tr := agent_mock.NewMockTransport(gomock.NewController(t))
	task := &structs.Task{ID: 1, TaskSpec: structs.TaskSpec{Type: "echo"}}
	running := make(chan struct{})
	release := make(chan struct{})

	gomock.InOrder(
		tr.EXPECT().Claim(gomock.Any(), gomock.Any()).Return(task, nil),
		tr.EXPECT().Claim(gomock.Any(), gomock.Any()).Return(nil, nil),
	)
	tr.EXPECT().Finish(gomock.Any(), gomock.Any()).Return(nil)

	s := NewSession(tr, &fakeRunner{caps: []string{"echo"}, run: func(ctx context.Context, task *structs.Task, l executor.Listener) *structs.TaskResult {
		close(running)
		<-release
		return &structs.TaskResult{Task: task}
	}}, testOptions())
	s.setConn(StateIdle, true)

	ctx := context.Background()
	s.trigger(ctx)
	<-running

	assert.Equal(t, StateWorking, s.State())
	assert.Equal(t, task, s.Current())

	// dropped, the running loop re-polls on completion anyway
	s.trigger(ctx)
	s.onPush(ctx, &structs.Push{Type: structs.PushNewTask})

	close(release)
	s.wg.Wait()

	assert.Equal(t, StateIdle, s.State())
}

func TestSessionOnPush(t *testing.T) {
	cases := []struct {
		Name        string
		Given       *structs.Push
		ExpectClaim bool
	}{
		{"ping", &structs.Push{Type: structs.PushPing}, false},
		{"nil", nil, false},
		{"dead tasks", &structs.Push{Type: structs.PushNewTask}, true},
		{"new task", &structs.Push{Type: structs.PushNewTask, Task: &structs.Task{TaskSpec: structs.TaskSpec{Type: "echo"}}}, true},
		{"not our type", &structs.Push{Type: structs.PushNewTask, Task: &structs.Task{TaskSpec: structs.TaskSpec{Type: "other"}}}, false},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			tr := agent_mock.NewMockTransport(gomock.NewController(t))
			if c.ExpectClaim {
				tr.EXPECT().Claim(gomock.Any(), gomock.Any()).Return(nil, nil)
			}
			s := NewSession(tr, &fakeRunner{caps: []string{"echo"}, run: succeed}, testOptions())

			s.onPush(context.Background(), c.Given)
			s.wg.Wait()
		})
	}
}

func TestSessionClaimError(t *testing.T) {
	tr := agent_mock.NewMockTransport(gomock.NewController(t))
	tr.EXPECT().Claim(gomock.Any(), gomock.Any()).Return(nil, fmt.Errorf("connection refused"))

	s := NewSession(tr, &fakeRunner{caps: []string{"echo"}, run: succeed}, testOptions())
	s.trigger(context.Background())
	s.wg.Wait()

	// the loop gave up & can be triggered again
	tr.EXPECT().Claim(gomock.Any(), gomock.Any()).Return(nil, nil)
	s.trigger(context.Background())
	s.wg.Wait()
}

func TestSessionRunnerPanic(t *testing.T) {
	tr := agent_mock.NewMockTransport(gomock.NewController(t))
	task := &structs.Task{ID: 4, TaskSpec: structs.TaskSpec{Type: "echo"}}

	var result *structs.TaskResult
	gomock.InOrder(
		tr.EXPECT().Claim(gomock.Any(), gomock.Any()).Return(task, nil),
		tr.EXPECT().Finish(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, r *structs.TaskResult) error {
			result = r
			return nil
		}),
		tr.EXPECT().Claim(gomock.Any(), gomock.Any()).Return(nil, nil),
	)

	s := NewSession(tr, &fakeRunner{caps: []string{"echo"}, run: func(ctx context.Context, task *structs.Task, l executor.Listener) *structs.TaskResult {
		panic("oh no")
	}}, testOptions())
	s.trigger(context.Background())
	s.wg.Wait()

	require.NotNil(t, result)
	assert.Equal(t, -1, result.ResultCode)
	require.NotNil(t, result.Error)
	assert.Equal(t, "oh no", result.Error.Message)
	assert.False(t, result.Successful())
}

func TestSessionRenewsLease(t *testing.T) {
	tr := agent_mock.NewMockTransport(gomock.NewController(t))
	task := &structs.Task{ID: 9, TaskSpec: structs.TaskSpec{Type: "echo"}}

	gomock.InOrder(
		tr.EXPECT().Claim(gomock.Any(), gomock.Any()).Return(task, nil),
		tr.EXPECT().Claim(gomock.Any(), gomock.Any()).Return(nil, nil),
	)
	tr.EXPECT().Renew(gomock.Any(), &structs.RenewRequest{AgentRef: testRef, TaskID: 9}).Return(nil).MinTimes(2)
	tr.EXPECT().Finish(gomock.Any(), gomock.Any()).Return(nil)

	opts := testOptions()
	opts.UpdateLockPeriod = 10 * time.Millisecond
	s := NewSession(tr, &fakeRunner{caps: []string{"echo"}, run: func(ctx context.Context, task *structs.Task, l executor.Listener) *structs.TaskResult {
		time.Sleep(100 * time.Millisecond)
		return &structs.TaskResult{Task: task}
	}}, opts)

	s.trigger(context.Background())
	s.wg.Wait()
}

func TestSessionReconnects(t *testing.T) {
	tr := agent_mock.NewMockTransport(gomock.NewController(t))
	reconnected := make(chan struct{})

	gomock.InOrder(
		tr.EXPECT().Subscribe(gomock.Any(), testRef, gomock.Any()).Return(nil, fmt.Errorf("refused")),
		tr.EXPECT().Subscribe(gomock.Any(), testRef, gomock.Any()).Return(closedStream(), nil),
		tr.EXPECT().Subscribe(gomock.Any(), testRef, gomock.Any()).DoAndReturn(
			func(ctx context.Context, ref structs.AgentRef, caps []string) (<-chan *structs.Push, error) {
				close(reconnected)
				return openStream(), nil
			},
		),
	)
	// work loop resumes after a successful connection
	tr.EXPECT().Claim(gomock.Any(), gomock.Any()).Return(nil, nil).MinTimes(1)

	s := NewSession(tr, &fakeRunner{caps: []string{"echo"}, run: succeed}, testOptions())
	stop := runSession(t, s)

	select {
	case <-reconnected:
	case <-time.After(5 * time.Second):
		t.Fatal("session did not reconnect")
	}
	assert.Eventually(t, func() bool { return s.State() == StateIdle }, time.Second, 5*time.Millisecond)

	stop()
	assert.Equal(t, StateDisconnected, s.State())
}

func TestSessionHeartbeat(t *testing.T) {
	tr := agent_mock.NewMockTransport(gomock.NewController(t))
	beats := make(chan *structs.HealthRecord, 10)

	tr.EXPECT().Subscribe(gomock.Any(), gomock.Any(), gomock.Any()).Return(openStream(), nil)
	tr.EXPECT().Claim(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	tr.EXPECT().Heartbeat(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, in *structs.HeartbeatRequest) error {
		select {
		case beats <- in.Health:
		default:
		}
		return nil
	}).MinTimes(1)

	opts := testOptions()
	opts.HeartbeatPeriod = 10 * time.Millisecond
	s := NewSession(tr, &fakeRunner{caps: []string{"echo"}, run: succeed}, opts)
	stop := runSession(t, s)
	defer stop()

	select {
	case rec := <-beats:
		assert.Equal(t, "agent", rec.Agent)
		assert.Equal(t, "m", rec.Machine)
		assert.NotZero(t, rec.ProcessID)
		assert.NotZero(t, rec.StartTime)
		assert.Contains(t, []structs.EventType{structs.EventIdle, structs.EventProgress}, rec.EventType)
	case <-time.After(5 * time.Second):
		t.Fatal("no heartbeat")
	}
}

func TestSessionHeartbeatWhileDisconnected(t *testing.T) {
	tr := agent_mock.NewMockTransport(gomock.NewController(t))
	connected := make(chan struct{})

	gomock.InOrder(
		tr.EXPECT().Subscribe(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, fmt.Errorf("refused")),
		tr.EXPECT().Subscribe(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, ref structs.AgentRef, caps []string) (<-chan *structs.Push, error) {
				close(connected)
				return openStream(), nil
			},
		),
	)
	tr.EXPECT().Claim(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	tr.EXPECT().Heartbeat(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	opts := testOptions()
	opts.RetryDelay = time.Hour
	opts.HeartbeatPeriod = 10 * time.Millisecond
	s := NewSession(tr, &fakeRunner{caps: []string{"echo"}, run: succeed}, opts)
	stop := runSession(t, s)
	defer stop()

	// the heartbeat cuts the retry delay short
	select {
	case <-connected:
	case <-time.After(5 * time.Second):
		t.Fatal("heartbeat did not trigger a reconnect")
	}
}

func TestListener(t *testing.T) {
	tr := agent_mock.NewMockTransport(gomock.NewController(t))
	task := &structs.Task{ID: 2, TaskSpec: structs.TaskSpec{Title: "a title"}}
	sub := &structs.Subtask{ID: "s1"}

	tr.EXPECT().Progress(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, in *structs.ProgressRequest) error {
		assert.Equal(t, testRef, in.AgentRef)
		assert.Equal(t, "a title", in.Progress.Title)
		return nil
	})
	tr.EXPECT().StartSubtask(gomock.Any(), &structs.SubtaskRequest{AgentRef: testRef, Subtask: sub, Task: task}).Return(nil)
	tr.EXPECT().FinishSubtask(gomock.Any(), &structs.SubtaskRequest{AgentRef: testRef, Subtask: sub, Task: task}).Return(fmt.Errorf("logged only"))

	l := &listener{ctx: context.Background(), ref: testRef, transport: tr}
	l.Progress(task, &structs.ProgressRecord{TaskID: 2, Progress: &structs.Progress{}})
	l.SubtaskStarted(task, sub)
	l.SubtaskFinished(task, sub)
}
