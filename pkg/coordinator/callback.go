package coordinator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/voidshard/foreman/pkg/structs"
)

const (
	headerAPIKey = "apikey"

	// maxResponseText caps how much of an application's error response we log
	maxResponseText = 4096
)

// Callback is a finalize notification due to an application.
type Callback struct {
	URL    string              `json:"url"`
	APIKey string              `json:"api_key,omitempty"`
	Result *structs.TaskResult `json:"result"`
}

type callbackBody struct {
	Result *structs.TaskResult `json:"result"`
}

// NewCallback builds the callback for a finished task, app may be nil.
func NewCallback(app *structs.Application, url string, result *structs.TaskResult) *Callback {
	cb := &Callback{URL: url, Result: result}
	if app != nil && result.Task != nil {
		auth := app.AuthenticationForTask(result.Task.Type)
		if auth != nil {
			cb.APIKey = auth.APIKey
		}
	}
	return cb
}

// TaskID of the finished task, for logging.
func (c *Callback) TaskID() int64 {
	if c.Result == nil || c.Result.Task == nil {
		return 0
	}
	return c.Result.Task.ID
}

// Send POSTs {"result": <TaskResult>} to the callback URL. A non 2xx
// response is returned as an error carrying the response text.
func (c *Callback) Send(ctx context.Context, client *http.Client) error {
	data, err := json.Marshal(&callbackBody{Result: c.Result})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set(headerAPIKey, c.APIKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseText))
		return fmt.Errorf("finalize callback to %s returned %d: %s", c.URL, resp.StatusCode, string(text))
	}
	return nil
}

// ping checks an application is reachable with a GET to its ApplicationURL.
func ping(ctx context.Context, client *http.Client, app *structs.Application) error {
	if app == nil || app.ApplicationURL == "" {
		return fmt.Errorf("application has no url to ping")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, app.ApplicationURL, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("application %s returned %d", app.ApplicationURL, resp.StatusCode)
	}
	return nil
}
