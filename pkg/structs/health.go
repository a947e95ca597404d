package structs

// HealthRecord is a periodic snapshot sent by an agent.
type HealthRecord struct {
	Machine   string `json:"machine"`
	Agent     string `json:"agent"`
	EventTime int64  `json:"event_time"`
	ProcessID int    `json:"process_id"`

	// CPU usage of the agent process in percent
	CPU float64 `json:"cpu"`

	// RAM is the resident memory of the agent process in MB
	RAM uint64 `json:"ram"`

	// TotalRAM of the machine in MB
	TotalRAM uint64 `json:"total_ram"`

	// StartTime of the agent process unix time in seconds
	StartTime int64 `json:"start_time"`

	// EventType is Idle or Progress (working)
	EventType EventType `json:"event_type"`
}
