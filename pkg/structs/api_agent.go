package structs

// AgentRef identifies the agent making a call
type AgentRef struct {
	Machine string `json:"machine"`
	Agent   string `json:"agent"`
}

type ClaimRequest struct {
	AgentRef     `json:",inline"`
	Capabilities []string `json:"capabilities"`
}

// ClaimResponse holds the claimed task, or nil if there was nothing to do
type ClaimResponse struct {
	Task *Task `json:"task"`
}

type RenewRequest struct {
	AgentRef `json:",inline"`
	TaskID   int64 `json:"task_id"`
}

type HeartbeatRequest struct {
	AgentRef `json:",inline"`
	Health   *HealthRecord `json:"health"`
}

type SubtaskRequest struct {
	AgentRef `json:",inline"`
	Subtask  *Subtask `json:"subtask"`
	Task     *Task    `json:"task"`
}

type ProgressRequest struct {
	AgentRef `json:",inline"`
	Progress *ProgressRecord `json:"progress"`
}

// Ack is returned by calls that have nothing else to say
type Ack struct {
	OK bool `json:"ok"`
}

const (
	PushNewTask = "new_task"
	PushPing    = "ping"
)

// Push is sent from the coordinator to connected agents. A new_task push
// with no task asks agents to look for orphaned work.
type Push struct {
	Type string `json:"type"`
	Task *Task  `json:"task,omitempty"`
}
