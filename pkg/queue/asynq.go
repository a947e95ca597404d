// Package queue delivers finalize callbacks through an asynq (redis) queue,
// so a coordinator restart doesn't lose callbacks that haven't been sent yet.
package queue

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/voidshard/foreman/internal/metrics"
	"github.com/voidshard/foreman/pkg/coordinator"
)

const (
	TaskFinalizeCallback = "foreman:finalize"

	asyncCallbackQueue = "foreman:callbacks"
)

// Asynq implements coordinator.Notifier. Callbacks are delivered at most once.
type Asynq struct {
	opts *Options

	cli    *asynq.Client
	client *http.Client

	lock sync.Mutex
	srv  *asynq.Server
}

func NewAsynqQueue(opts *Options) (*Asynq, error) {
	opts.SetDefaults()
	return &Asynq{
		opts:   opts,
		cli:    asynq.NewClient(redisOpt(opts)),
		client: &http.Client{},
	}, nil
}

// Notify enqueues the callback & returns; delivery happens on Start()ed servers.
func (a *Asynq) Notify(ctx context.Context, cb *coordinator.Callback) error {
	task, err := newCallbackTask(cb)
	if err != nil {
		return err
	}
	info, err := a.cli.EnqueueContext(ctx, task,
		asynq.Queue(asyncCallbackQueue),
		asynq.MaxRetry(0),
		asynq.Timeout(a.opts.CallbackTimeout),
	)
	if err != nil {
		return err
	}
	metrics.RecordFinalizeCallback(metrics.CallbackQueued)
	zap.L().Debug("finalize callback queued", zap.Int64("task", cb.TaskID()), zap.String("id", info.ID))
	return nil
}

// Start processing queued callbacks in the background.
func (a *Asynq) Start() error {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.srv != nil {
		return nil
	}

	srv := asynq.NewServer(
		redisOpt(a.opts),
		asynq.Config{
			Concurrency: a.opts.Concurrency,
			Queues:      map[string]int{asyncCallbackQueue: 1},
		},
	)
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskFinalizeCallback, a.handle)

	err := srv.Start(mux)
	if err != nil {
		return err
	}
	a.srv = srv
	return nil
}

func (a *Asynq) Close() error {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.srv != nil {
		a.srv.Shutdown()
		a.srv = nil
	}
	return a.cli.Close()
}

// handle delivers one callback. A failure is returned so asynq archives the
// task where it can be inspected, it is never retried.
func (a *Asynq) handle(ctx context.Context, t *asynq.Task) error {
	cb := &coordinator.Callback{}
	err := json.Unmarshal(t.Payload(), cb)
	if err != nil {
		zap.L().Error("dropping malformed finalize callback", zap.Error(err))
		return err
	}
	return coordinator.Deliver(ctx, a.client, cb)
}

func newCallbackTask(cb *coordinator.Callback) (*asynq.Task, error) {
	data, err := json.Marshal(cb)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFinalizeCallback, data), nil
}

func redisOpt(opts *Options) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: opts.URL, Password: opts.Password, DB: opts.DB, TLSConfig: opts.TLSConfig}
}
