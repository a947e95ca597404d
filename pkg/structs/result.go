package structs

// TaskResult is what an agent reports once it has finished running a task.
type TaskResult struct {
	Machine string `json:"machine"`
	Agent   string `json:"agent"`

	Task *Task `json:"task"`

	// ResultCode is the exit code of the executor, 0 means success
	ResultCode int `json:"result_code"`

	// ResultData is whatever the executor emitted with the `ResultData:` prefix
	ResultData string `json:"result_data,omitempty"`

	Error *TaskError `json:"error,omitempty"`
}

// Successful is true if the executor exited cleanly without reporting an error.
func (r *TaskResult) Successful() bool {
	return r.ResultCode == 0 && r.Error == nil
}

// EventType returns the event type that finishes the task with this result.
func (r *TaskResult) EventType() EventType {
	if r.Successful() {
		return EventDone
	}
	return EventFailed
}
