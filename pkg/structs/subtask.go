package structs

// Subtask is a progress marker inside a running task. The json field names
// are part of the executor stdout protocol.
type Subtask struct {
	ID      string `json:"id"`
	Title   string `json:"t"`
	Details string `json:"d,omitempty"`
}

// Progress is written by executors with the `Progress:` prefix.
type Progress struct {
	SubtaskID string `json:"subtaskId,omitempty"`

	SubtaskProgress    *int `json:"p,omitempty"`
	SubtaskProgressMax *int `json:"pm,omitempty"`
	OverallProgress    *int `json:"op,omitempty"`
	OverallProgressMax *int `json:"opm,omitempty"`

	Details string `json:"d,omitempty"`
}

// ProgressRecord is a Progress tied to the task it belongs to.
type ProgressRecord struct {
	Title    string    `json:"title,omitempty"`
	Details  string    `json:"details,omitempty"`
	AppID    string    `json:"app_id,omitempty"`
	Tag      string    `json:"tag,omitempty"`
	TaskID   int64     `json:"task_id"`
	Progress *Progress `json:"progress"`
}
