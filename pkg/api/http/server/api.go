// Package server serves the coordinator API over HTTP.
package server

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/voidshard/foreman/pkg/api"
	"github.com/voidshard/foreman/pkg/api/http/common"
	"github.com/voidshard/foreman/pkg/structs"
)

const (
	wait = 30 * time.Second
)

type Server struct {
	addr       string
	debug      bool
	tlsConfig  *tls.Config
	svc        api.API
	exit       chan os.Signal
	ping       time.Duration
	httpserver *http.Server
}

// ServeForever serves until Close() is called or we receive SIGINT / SIGTERM,
// then shuts down gracefully.
func (s *Server) ServeForever(svc api.API) error {
	s.httpserver = &http.Server{
		Handler:      s.Handler(svc),
		Addr:         s.addr,
		TLSConfig:    s.tlsConfig,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		zap.L().Info("listening", zap.String("addr", s.httpserver.Addr), zap.Bool("tls", s.tlsConfig != nil))
		var err error
		if s.tlsConfig != nil {
			err = s.httpserver.ListenAndServeTLS("", "")
		} else {
			err = s.httpserver.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errs <- err
		}
	}()

	signal.Notify(s.exit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(s.exit)

	select {
	case err := <-errs:
		return err
	case <-s.exit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	return s.httpserver.Shutdown(ctx)
}

// Handler returns the router serving the given API.
func (s *Server) Handler(svc api.API) http.Handler {
	s.svc = svc

	router := mux.NewRouter()
	router.HandleFunc(common.API_HEALTH, s.Health).Methods(http.MethodGet)
	router.Handle(common.API_METRICS, promhttp.Handler()).Methods(http.MethodGet)

	router.HandleFunc(common.API_AGENT_STREAM, s.Stream).Methods(http.MethodGet)
	router.HandleFunc(common.API_AGENT_CLAIM, s.Claim).Methods(http.MethodPost)
	router.HandleFunc(common.API_AGENT_RENEW, s.Renew).Methods(http.MethodPost)
	router.HandleFunc(common.API_AGENT_HEARTBEAT, s.Heartbeat).Methods(http.MethodPost)
	router.HandleFunc(common.API_AGENT_FINISH, s.Finish).Methods(http.MethodPost)
	router.HandleFunc(common.API_AGENT_SUBTASK_START, s.subtaskOp(s.svc.StartSubtask)).Methods(http.MethodPost)
	router.HandleFunc(common.API_AGENT_SUBTASK_FINISH, s.subtaskOp(s.svc.FinishSubtask)).Methods(http.MethodPost)
	router.HandleFunc(common.API_AGENT_PROGRESS, s.Progress).Methods(http.MethodPost)

	router.HandleFunc(common.API_APPS, s.Apps).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc(common.API_TASKS, s.RegisterTask).Methods(http.MethodPost)
	router.HandleFunc(common.API_TASKS_UNFINISHED, s.Unfinished).Methods(http.MethodGet)
	router.HandleFunc(common.API_TASK_EVENTS, s.TaskEvents).Methods(http.MethodGet)
	router.HandleFunc(common.API_AGENTS, s.Agents).Methods(http.MethodGet)

	router.Use(metricsMiddleware)
	if s.debug {
		zap.L().Info("debug enabled, adding per-request logging middleware")
		router.Use(loggingMiddleware)
	}
	return router
}

// Stream holds open a newline delimited JSON stream of pushes for one agent.
func (s *Server) Stream(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref := structs.AgentRef{Machine: q.Get(common.ParamMachine), Agent: q.Get(common.ParamAgent)}
	if ref.Agent == "" {
		http.Error(w, "agent is required", http.StatusBadRequest)
		return
	}
	caps := splitList(q[common.ParamCapabilities])

	// the stream outlives the server's write timeout
	rc := http.NewResponseController(w)
	err := rc.SetWriteDeadline(time.Time{})
	if err != nil {
		zap.L().Debug("unable to clear stream write deadline", zap.Error(err))
	}

	pushes, cancel := s.svc.Subscribe(ref, caps)
	defer cancel()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	send := func(p *structs.Push) bool {
		if err := enc.Encode(p); err != nil {
			return false
		}
		return rc.Flush() == nil
	}
	if !send(&structs.Push{Type: structs.PushPing}) {
		return
	}

	ticker := time.NewTicker(s.ping)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case push, ok := <-pushes:
			if !ok || !send(push) {
				return
			}
		case <-ticker.C:
			if !send(&structs.Push{Type: structs.PushPing}) {
				return
			}
		}
	}
}

func (s *Server) Claim(w http.ResponseWriter, r *http.Request) {
	req := &structs.ClaimRequest{}
	err := unmarshalJson(w, r, req)
	if err != nil {
		return
	}

	task, err := s.svc.Claim(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJson(w, &structs.ClaimResponse{Task: task})
}

func (s *Server) Renew(w http.ResponseWriter, r *http.Request) {
	req := &structs.RenewRequest{}
	err := unmarshalJson(w, r, req)
	if err != nil {
		return
	}

	ok, err := s.svc.Renew(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJson(w, &structs.Ack{OK: ok})
}

func (s *Server) Heartbeat(w http.ResponseWriter, r *http.Request) {
	req := &structs.HeartbeatRequest{}
	err := unmarshalJson(w, r, req)
	if err != nil {
		return
	}
	ack(w, s.svc.Heartbeat(r.Context(), req))
}

func (s *Server) Finish(w http.ResponseWriter, r *http.Request) {
	result := &structs.TaskResult{}
	err := unmarshalJson(w, r, result)
	if err != nil {
		return
	}
	ack(w, s.svc.Finish(r.Context(), result))
}

func (s *Server) subtaskOp(fn func(context.Context, *structs.SubtaskRequest) error) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		req := &structs.SubtaskRequest{}
		err := unmarshalJson(w, r, req)
		if err != nil {
			return
		}
		ack(w, fn(r.Context(), req))
	}
}

func (s *Server) Progress(w http.ResponseWriter, r *http.Request) {
	req := &structs.ProgressRequest{}
	err := unmarshalJson(w, r, req)
	if err != nil {
		return
	}
	ack(w, s.svc.Progress(r.Context(), req))
}

func (s *Server) Apps(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		apps, err := s.svc.Applications(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJson(w, apps)
	case http.MethodPost:
		req := &structs.RegisterApplicationRequest{}
		err := unmarshalJson(w, r, req)
		if err != nil {
			return
		}
		resp, err := s.svc.RegisterApplication(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJson(w, resp)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) RegisterTask(w http.ResponseWriter, r *http.Request) {
	req := &structs.RegisterTaskRequest{}
	err := unmarshalJson(w, r, req)
	if err != nil {
		return
	}

	resp, err := s.svc.RegisterTask(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJson(w, resp)
}

func (s *Server) Unfinished(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	events, err := s.svc.UnfinishedEvents(r.Context(), q.Get(common.ParamAppID), q.Get(common.ParamTag))
	if err != nil {
		writeError(w, err)
		return
	}
	if s.debug {
		zap.L().Debug("unfinished events", zap.String("url", r.URL.String()), zap.Int("count", len(events)))
	}
	writeJson(w, events)
}

func (s *Server) TaskEvents(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)[common.ParamID], 10, 64)
	if err != nil {
		http.Error(w, "bad task id", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	events, err := s.svc.EventsForTask(r.Context(), id, q.Get(common.ParamAppID), q.Get(common.ParamTag))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJson(w, events)
}

func (s *Server) Agents(w http.ResponseWriter, r *http.Request) {
	writeJson(w, s.svc.Agents())
}

func (s *Server) Close() error {
	s.exit <- os.Interrupt
	return nil
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// NewServer returns a server for the given address, tlsConfig is optional.
func NewServer(addr string, debug bool, tlsConfig *tls.Config) *Server {
	return &Server{
		addr:      addr,
		debug:     debug,
		tlsConfig: tlsConfig,
		ping:      common.StreamPingInterval,
		exit:      make(chan os.Signal, 1),
	}
}
