package structs

// TaskSpec are fields that can be set when a task is registered
type TaskSpec struct {
	// Type is the type of task this is. This selects the executor (capability)
	// an agent must have in order to run it.
	//
	// Required.
	Type string `json:"type"`

	// Title is a human readable name for this task
	Title string `json:"title"`

	// Tag is an optional grouping key
	Tag string `json:"tag,omitempty"`

	// AppID is the ID of the application that owns this task
	AppID string `json:"app_id"`

	// FinalizeURL is an optional per-task callback, if not given the application's
	// TaskFinalizeURL is used.
	FinalizeURL string `json:"finalize_url,omitempty"`

	// Hash is, together with Payload, the deduplication key of a task.
	Hash int64 `json:"hash"`

	// Payload is opaque data handed to the executor (typically JSON).
	Payload string `json:"payload"`
}

// Task represents a single unit of work that needs to be done.
type Task struct {
	// TaskSpec are fields that can be set when a task is registered
	TaskSpec `json:",inline"`

	// ID is assigned by the store
	ID int64 `json:"id"`

	// Order is the numeric priority, lower is more urgent
	Order float64 `json:"order"`

	// RegisteredAt is the time this task was registered unix time in seconds
	RegisteredAt int64 `json:"registered_at"`

	// LockedBy is the name of the agent currently holding the lease (if any)
	LockedBy string `json:"locked_by,omitempty"`

	// LastLockUpdate is the time the lease was last taken or renewed, unix time in seconds.
	// If 0, the task has never been claimed.
	LastLockUpdate int64 `json:"last_lock_update,omitempty"`

	// Authentication is attached by the coordinator when the task is handed to an agent;
	// it is never stored with the task.
	Authentication *TaskAuthOptions `json:"authentication,omitempty"`
}

// FinalizeURLFor returns the URL the application wants to be told about this task on,
// preferring the task's own URL over the application wide setting.
func (t *Task) FinalizeURLFor(app *Application) string {
	if t.FinalizeURL != "" {
		return t.FinalizeURL
	}
	if app == nil {
		return ""
	}
	return app.TaskFinalizeURL
}

// Claimable reports if the task may be claimed at `now` given a lease timeout (seconds).
func (t *Task) Claimable(now, leaseTimeout int64) bool {
	return t.LockedBy == "" || t.LastLockUpdate < now-leaseTimeout
}
