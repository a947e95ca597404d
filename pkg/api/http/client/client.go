// Package client talks to a coordinator over HTTP. It serves both agents
// (as an agent.Transport) and applications registering work.
package client

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/voidshard/foreman/pkg/api/http/common"
	ie "github.com/voidshard/foreman/pkg/errors"
	"github.com/voidshard/foreman/pkg/structs"
)

const (
	requestTimeout = 30 * time.Second
)

type Client struct {
	url *url.URL

	// rpc has a timeout, stream does not
	rpc    *http.Client
	stream *http.Client
}

// New returns a client for the coordinator at address, tlsConfig is optional.
func New(address string, tlsConfig *tls.Config) (*Client, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("coordinator address must be a url, got %q", address)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig

	return &Client{
		url:    u,
		rpc:    &http.Client{Transport: transport, Timeout: requestTimeout},
		stream: &http.Client{Transport: transport},
	}, nil
}

// Subscribe opens the push stream. The channel is closed when the stream ends,
// which happens if the coordinator goes away or ctx is cancelled.
func (c *Client) Subscribe(ctx context.Context, ref structs.AgentRef, caps []string) (<-chan *structs.Push, error) {
	addr := c.addr(common.API_AGENT_STREAM)
	values := addr.Query()
	values.Set(common.ParamMachine, ref.Machine)
	values.Set(common.ParamAgent, ref.Agent)
	values.Set(common.ParamCapabilities, strings.Join(caps, ","))
	addr.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: bad status code %d opening stream", ie.ErrNotConnected, resp.StatusCode)
	}

	pushes := make(chan *structs.Push)
	go func() {
		defer close(pushes)
		defer resp.Body.Close()

		dec := json.NewDecoder(resp.Body)
		for {
			push := &structs.Push{}
			err := dec.Decode(push)
			if err != nil {
				if ctx.Err() == nil {
					zap.L().Debug("push stream closed", zap.Error(err))
				}
				return
			}
			select {
			case pushes <- push:
			case <-ctx.Done():
				return
			}
		}
	}()
	return pushes, nil
}

func (c *Client) Claim(ctx context.Context, req *structs.ClaimRequest) (*structs.Task, error) {
	var out structs.ClaimResponse
	err := genericPost(ctx, c.rpc, c.addr(common.API_AGENT_CLAIM), req, &out)
	return out.Task, err
}

func (c *Client) Renew(ctx context.Context, req *structs.RenewRequest) error {
	var out structs.Ack
	err := genericPost(ctx, c.rpc, c.addr(common.API_AGENT_RENEW), req, &out)
	if err == nil && !out.OK {
		zap.L().Debug("renewed lease of a task the coordinator doesn't have", zap.Int64("task", req.TaskID))
	}
	return err
}

func (c *Client) Heartbeat(ctx context.Context, req *structs.HeartbeatRequest) error {
	return genericPost(ctx, c.rpc, c.addr(common.API_AGENT_HEARTBEAT), req, nil)
}

func (c *Client) Finish(ctx context.Context, result *structs.TaskResult) error {
	return genericPost(ctx, c.rpc, c.addr(common.API_AGENT_FINISH), result, nil)
}

func (c *Client) StartSubtask(ctx context.Context, req *structs.SubtaskRequest) error {
	return genericPost(ctx, c.rpc, c.addr(common.API_AGENT_SUBTASK_START), req, nil)
}

func (c *Client) FinishSubtask(ctx context.Context, req *structs.SubtaskRequest) error {
	return genericPost(ctx, c.rpc, c.addr(common.API_AGENT_SUBTASK_FINISH), req, nil)
}

func (c *Client) Progress(ctx context.Context, req *structs.ProgressRequest) error {
	return genericPost(ctx, c.rpc, c.addr(common.API_AGENT_PROGRESS), req, nil)
}

func (c *Client) RegisterApplication(ctx context.Context, req *structs.RegisterApplicationRequest) (*structs.RegisterApplicationResponse, error) {
	var out structs.RegisterApplicationResponse
	return &out, genericPost(ctx, c.rpc, c.addr(common.API_APPS), req, &out)
}

func (c *Client) Applications(ctx context.Context) ([]*structs.Application, error) {
	var out []*structs.Application
	return out, genericGet(ctx, c.rpc, c.addr(common.API_APPS), &out)
}

// RegisterTask registers work. Check the response Error for structs.ErrorUnknownAppID,
// which means the application must be registered (again) before retrying.
func (c *Client) RegisterTask(ctx context.Context, req *structs.RegisterTaskRequest) (*structs.RegisterTaskResponse, error) {
	var out structs.RegisterTaskResponse
	return &out, genericPost(ctx, c.rpc, c.addr(common.API_TASKS), req, &out)
}

func (c *Client) UnfinishedEvents(ctx context.Context, appID, tag string) ([]*structs.TaskEvent, error) {
	addr := c.addr(common.API_TASKS_UNFINISHED)
	setFilter(addr, appID, tag)
	var out []*structs.TaskEvent
	return out, genericGet(ctx, c.rpc, addr, &out)
}

func (c *Client) EventsForTask(ctx context.Context, taskID int64, appID, tag string) ([]*structs.TaskEvent, error) {
	addr := c.addr(strings.Replace(common.API_TASK_EVENTS, "{"+common.ParamID+"}", strconv.FormatInt(taskID, 10), 1))
	setFilter(addr, appID, tag)
	var out []*structs.TaskEvent
	return out, genericGet(ctx, c.rpc, addr, &out)
}

func (c *Client) Agents(ctx context.Context) ([]*structs.HealthRecord, error) {
	var out []*structs.HealthRecord
	return out, genericGet(ctx, c.rpc, c.addr(common.API_AGENTS), &out)
}

func (c *Client) addr(path string) *url.URL {
	return &url.URL{Scheme: c.url.Scheme, Host: c.url.Host, Path: strings.TrimSuffix(c.url.Path, "/") + path}
}

func setFilter(u *url.URL, appID, tag string) {
	values := u.Query()
	if appID != "" {
		values.Set(common.ParamAppID, appID)
	}
	if tag != "" {
		values.Set(common.ParamTag, tag)
	}
	u.RawQuery = values.Encode()
}
