package coordinator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidshard/foreman/pkg/structs"
)

func TestNewCallback(t *testing.T) {
	result := &structs.TaskResult{Task: testTask()}

	cb := NewCallback(testApp("http://app"), "http://app/finalize", result)
	assert.Equal(t, "k1", cb.APIKey)
	assert.Equal(t, int64(12), cb.TaskID())

	cb = NewCallback(nil, "http://x", result)
	assert.Equal(t, "", cb.APIKey)

	assert.Equal(t, int64(0), (&Callback{}).TaskID())
}

func TestCallbackSend(t *testing.T) {
	cases := []struct {
		Name      string
		Status    int
		ExpectErr bool
	}{
		{"OK", http.StatusOK, false},
		{"Accepted", http.StatusAccepted, false},
		{"Rejected", http.StatusBadRequest, true},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Accept"))
				assert.Equal(t, "k1", r.Header.Get("apikey"))

				body := map[string]*structs.TaskResult{}
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				if assert.NotNil(t, body["result"]) {
					assert.Equal(t, "ok", body["result"].ResultData)
				}

				w.WriteHeader(c.Status)
				w.Write([]byte("nope"))
			}))
			defer srv.Close()

			cb := &Callback{URL: srv.URL, APIKey: "k1", Result: &structs.TaskResult{Task: testTask(), ResultData: "ok"}}

			err := cb.Send(context.Background(), srv.Client())

			if c.ExpectErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "nope")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPing(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer up.Close()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()

	cases := []struct {
		Name      string
		App       *structs.Application
		ExpectErr bool
	}{
		{"Up", &structs.Application{ApplicationURL: up.URL}, false},
		{"Down", &structs.Application{ApplicationURL: down.URL}, true},
		{"NoURL", &structs.Application{}, true},
		{"NoApp", nil, true},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			err := ping(context.Background(), http.DefaultClient, c.App)
			assert.Equal(t, c.ExpectErr, err != nil)
		})
	}
}

func TestGoNotifier(t *testing.T) {
	got := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(got)
	}))
	defer srv.Close()

	n := NewGoNotifier(srv.Client(), time.Second)
	err := n.Notify(context.Background(), &Callback{URL: srv.URL, Result: &structs.TaskResult{}})
	require.NoError(t, err)

	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("callback was not sent")
	}
}
