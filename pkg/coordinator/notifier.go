package coordinator

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/voidshard/foreman/internal/metrics"
)

// GoNotifier sends each callback from its own goroutine. Failures are logged
// and never retried.
type GoNotifier struct {
	client  *http.Client
	timeout time.Duration
}

func NewGoNotifier(client *http.Client, timeout time.Duration) *GoNotifier {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = defCallbackTimeout
	}
	return &GoNotifier{client: client, timeout: timeout}
}

// Notify returns immediately, the callback outlives the caller's context.
func (n *GoNotifier) Notify(_ context.Context, cb *Callback) error {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		Deliver(ctx, n.client, cb)
	}()
	return nil
}

// Deliver sends a callback & logs the outcome.
func Deliver(ctx context.Context, client *http.Client, cb *Callback) error {
	err := cb.Send(ctx, client)
	if err != nil {
		zap.L().Warn("finalize callback failed",
			zap.Int64("task", cb.TaskID()),
			zap.String("url", cb.URL),
			zap.Error(err),
		)
		metrics.RecordFinalizeCallback(metrics.CallbackFailed)
		return err
	}
	zap.L().Debug("finalize callback sent", zap.Int64("task", cb.TaskID()), zap.String("url", cb.URL))
	metrics.RecordFinalizeCallback(metrics.CallbackSent)
	return nil
}
