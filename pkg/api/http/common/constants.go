package common

import (
	"time"
)

const (
	// API_AGENT_STREAM is a long lived GET of newline delimited structs.Push
	API_AGENT_STREAM = "/api/v1/agent/stream"

	// API_AGENT_CLAIM leases a task to the calling agent
	API_AGENT_CLAIM = "/api/v1/agent/claim"

	// API_AGENT_RENEW refreshes a task lease
	API_AGENT_RENEW = "/api/v1/agent/renew"

	API_AGENT_HEARTBEAT = "/api/v1/agent/heartbeat"

	// API_AGENT_FINISH finalizes a task with its result
	API_AGENT_FINISH = "/api/v1/agent/finish"

	API_AGENT_SUBTASK_START  = "/api/v1/agent/subtask/start"
	API_AGENT_SUBTASK_FINISH = "/api/v1/agent/subtask/finish"
	API_AGENT_PROGRESS       = "/api/v1/agent/progress"

	// API_APPS is used to register or list applications
	API_APPS = "/api/v1/apps"

	// API_TASKS is used to register tasks
	API_TASKS = "/api/v1/tasks"

	// API_TASKS_UNFINISHED lists registrations of tasks that haven't completed
	API_TASKS_UNFINISHED = "/api/v1/tasks/unfinished"

	// API_TASK_EVENTS is the history of one task, {id} is the task id
	API_TASK_EVENTS = "/api/v1/tasks/{id}/events"

	// API_AGENTS lists the latest heartbeat of each agent
	API_AGENTS = "/api/v1/agents"

	API_HEALTH  = "/healthz"
	API_METRICS = "/metrics"
)

const (
	ParamMachine      = "machine"
	ParamAgent        = "agent"
	ParamCapabilities = "capabilities"
	ParamAppID        = "app_id"
	ParamTag          = "tag"
	ParamID           = "id"
)

const (
	// StreamPingInterval is how often an idle push stream sends a keepalive
	StreamPingInterval = 15 * time.Second
)
