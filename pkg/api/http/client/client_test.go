package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidshard/foreman/pkg/agent"
	"github.com/voidshard/foreman/pkg/api/http/server"
	"github.com/voidshard/foreman/pkg/coordinator"
	"github.com/voidshard/foreman/pkg/database"
	ie "github.com/voidshard/foreman/pkg/errors"
	"github.com/voidshard/foreman/pkg/structs"
)

var _ agent.Transport = (*Client)(nil)

func setupClient(t *testing.T) (*Client, *coordinator.Service, *database.Memory) {
	t.Helper()
	db := database.NewMemory()
	svc := coordinator.NewService(db, nil, &coordinator.Options{Machine: "test"})
	srv := httptest.NewServer(server.NewServer("", false, nil).Handler(svc))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, nil)
	require.NoError(t, err)
	return c, svc, db
}

func TestNew(t *testing.T) {
	cases := []struct {
		Name      string
		Address   string
		ExpectErr bool
	}{
		{"HTTP", "http://localhost:8080", false},
		{"HTTPSWithPath", "https://coordinator/prefix/", false},
		{"NoScheme", "localhost:8080", true},
		{"Garbage", "::", true},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			_, err := New(c.Address, nil)
			assert.Equal(t, c.ExpectErr, err != nil)
		})
	}
}

func TestAddr(t *testing.T) {
	c, err := New("https://coordinator:9000/prefix/", nil)
	require.NoError(t, err)

	assert.Equal(t, "https://coordinator:9000/prefix/api/v1/tasks", c.addr("/api/v1/tasks").String())
}

func TestApplicationCalls(t *testing.T) {
	c, _, _ := setupClient(t)
	ctx := context.Background()

	reg, err := c.RegisterTask(ctx, &structs.RegisterTaskRequest{AppID: "app1", Type: "echo", Payload: "hi"})
	require.NoError(t, err)
	assert.Equal(t, structs.ErrorUnknownAppID, reg.Error)

	app, err := c.RegisterApplication(ctx, &structs.RegisterApplicationRequest{AppID: "app1", ApplicationURL: "http://app1"})
	require.NoError(t, err)
	require.True(t, app.Success)

	apps, err := c.Applications(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)

	reg, err = c.RegisterTask(ctx, &structs.RegisterTaskRequest{AppID: "app1", Type: "echo", Tag: "t", Payload: "hi"})
	require.NoError(t, err)
	require.True(t, reg.Created)

	unfinished, err := c.UnfinishedEvents(ctx, "app1", "t")
	require.NoError(t, err)
	require.Len(t, unfinished, 1)
	assert.Equal(t, reg.Task.ID, unfinished[0].TaskID)

	events, err := c.EventsForTask(ctx, reg.Task.ID, "app1", "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, structs.EventRegistered, events[0].EventType)

	_, err = c.RegisterTask(ctx, &structs.RegisterTaskRequest{AppID: "app1", Type: "echo", Priority: "Whenever"})
	assert.Error(t, err)
}

func TestAgentCalls(t *testing.T) {
	c, svc, _ := setupClient(t)
	ctx := context.Background()
	ref := structs.AgentRef{Machine: "m", Agent: "a"}

	_, err := svc.RegisterApplication(ctx, &structs.RegisterApplicationRequest{AppID: "app1"})
	require.NoError(t, err)
	reg, err := svc.RegisterTask(ctx, &structs.RegisterTaskRequest{AppID: "app1", Type: "echo", Payload: "hi"})
	require.NoError(t, err)

	task, err := c.Claim(ctx, &structs.ClaimRequest{AgentRef: ref, Capabilities: []string{"resize"}})
	require.NoError(t, err)
	assert.Nil(t, task)

	task, err = c.Claim(ctx, &structs.ClaimRequest{AgentRef: ref, Capabilities: []string{"echo"}})
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, reg.Task.ID, task.ID)

	require.NoError(t, c.Renew(ctx, &structs.RenewRequest{AgentRef: ref, TaskID: task.ID}))
	require.NoError(t, c.Heartbeat(ctx, &structs.HeartbeatRequest{AgentRef: ref, Health: &structs.HealthRecord{EventType: structs.EventProgress}}))

	sub := &structs.SubtaskRequest{AgentRef: ref, Subtask: &structs.Subtask{ID: "s1"}, Task: task}
	require.NoError(t, c.StartSubtask(ctx, sub))
	require.NoError(t, c.Progress(ctx, &structs.ProgressRequest{AgentRef: ref, Progress: &structs.ProgressRecord{TaskID: task.ID}}))
	require.NoError(t, c.FinishSubtask(ctx, sub))
	require.NoError(t, c.Finish(ctx, &structs.TaskResult{Machine: "m", Agent: "a", Task: task, ResultCode: 1}))

	agents, err := c.Agents(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "a", agents[0].Agent)

	events, err := c.EventsForTask(ctx, task.ID, "", "")
	require.NoError(t, err)
	require.Len(t, events, 5)
	assert.Equal(t, structs.EventFailed, events[4].EventType)

	assert.Error(t, c.Heartbeat(ctx, &structs.HeartbeatRequest{AgentRef: ref}))
}

func TestSubscribe(t *testing.T) {
	c, svc, _ := setupClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	pushes, err := c.Subscribe(ctx, structs.AgentRef{Machine: "m", Agent: "a"}, []string{"echo"})
	require.NoError(t, err)

	select {
	case p := <-pushes:
		assert.Equal(t, structs.PushPing, p.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("no ping on connect")
	}

	_, err = svc.Sweep(context.Background())
	require.NoError(t, err)
	_, err = svc.RegisterApplication(context.Background(), &structs.RegisterApplicationRequest{AppID: "app1"})
	require.NoError(t, err)
	_, err = svc.RegisterTask(context.Background(), &structs.RegisterTaskRequest{AppID: "app1", Type: "echo", Payload: "hi"})
	require.NoError(t, err)

	select {
	case p := <-pushes:
		assert.Equal(t, structs.PushNewTask, p.Type)
		require.NotNil(t, p.Task)
		assert.Equal(t, "echo", p.Task.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("no push for new task")
	}

	cancel()
	for range pushes {
	}
}

func TestSubscribeRejected(t *testing.T) {
	c, _, _ := setupClient(t)

	_, err := c.Subscribe(context.Background(), structs.AgentRef{}, nil)
	assert.ErrorIs(t, err, ie.ErrNotConnected)
}
