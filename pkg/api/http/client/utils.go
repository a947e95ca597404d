package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// genericPost is a helper to POST data to a given URL and unmarshal the response
func genericPost(ctx context.Context, client *http.Client, addr *url.URL, in interface{}, out interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, addr.String(), bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return do(client, req, out)
}

// genericGet is a helper to GET data from a given URL and unmarshal the response.
// Implies the Query string is already set, if needed.
func genericGet(ctx context.Context, client *http.Client, addr *url.URL, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr.String(), nil)
	if err != nil {
		return err
	}
	return do(client, req, out)
}

func do(client *http.Client, req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	} else if resp.Body == nil {
		return fmt.Errorf("no response body with status code %d", resp.StatusCode)
	}

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 { // some error code, assume message is error message
		return fmt.Errorf("bad status code %d, returned %s", resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}

	return json.Unmarshal(body, out)
}
