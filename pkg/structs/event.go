package structs

type EventType string

const (
	EventRegistered      EventType = "Registered"
	EventUpdated         EventType = "Updated"
	EventStarted         EventType = "Started"
	EventDone            EventType = "Done"
	EventFailed          EventType = "Failed"
	EventSubtaskStarted  EventType = "SubtaskStarted"
	EventSubtaskFinished EventType = "SubtaskFinished"
	EventProgress        EventType = "Progress"
	EventIdle            EventType = "Idle"
)

// IsFinalEvent reports if the event type ends a task's life.
func IsFinalEvent(e EventType) bool {
	switch e {
	case EventDone, EventFailed:
		return true
	default:
		return false
	}
}

// TaskEvent is an append only record of something happening to a task.
type TaskEvent struct {
	ID        int64     `json:"id"`
	EventType EventType `json:"event_type"`

	// EventTime unix time in seconds
	EventTime int64 `json:"event_time"`

	Title   string `json:"title,omitempty"`
	Details string `json:"details,omitempty"`
	AppID   string `json:"app_id,omitempty"`
	Tag     string `json:"tag,omitempty"`
	Machine string `json:"machine,omitempty"`
	Agent   string `json:"agent,omitempty"`

	TaskID    int64  `json:"task_id"`
	SubtaskID string `json:"subtask_id,omitempty"`

	// task snapshot, set on Registered & Updated events only
	TaskType  string  `json:"task_type,omitempty"`
	TaskOrder float64 `json:"task_order,omitempty"`
	TaskHash  int64   `json:"task_hash,omitempty"`
	TaskData  string  `json:"task_data,omitempty"`
}

// NewTaskEvent returns an event for the given task, without the task snapshot fields.
func NewTaskEvent(et EventType, t *Task, machine, agent string) *TaskEvent {
	return &TaskEvent{
		EventType: et,
		Title:     t.Title,
		AppID:     t.AppID,
		Tag:       t.Tag,
		Machine:   machine,
		Agent:     agent,
		TaskID:    t.ID,
	}
}

// NewRegisterEvent returns a Registered (or Updated) event carrying a full task snapshot.
func NewRegisterEvent(t *Task, machine string, created bool) *TaskEvent {
	et := EventUpdated
	if created {
		et = EventRegistered
	}
	e := NewTaskEvent(et, t, machine, "")
	e.TaskType = t.Type
	e.TaskOrder = t.Order
	e.TaskHash = t.Hash
	e.TaskData = t.Payload
	return e
}

// NewSubtaskEvent returns a SubtaskStarted / SubtaskFinished event.
func NewSubtaskEvent(et EventType, s *Subtask, t *Task, machine, agent string) *TaskEvent {
	e := NewTaskEvent(et, t, machine, agent)
	e.SubtaskID = s.ID
	e.Title = s.Title
	e.Details = s.Details
	return e
}
