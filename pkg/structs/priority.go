package structs

import (
	"strings"
)

type Priority string

const (
	PrioritySystem      Priority = "System"
	PriorityImmediately Priority = "Immediately"
	PriorityImportant   Priority = "Important"
	PriorityNormal      Priority = "Normal"
	PriorityUnimportant Priority = "Unimportant"
)

// ToPriority returns the Priority named by s (case insensitive), an empty
// string means PriorityNormal. Unknown names return "".
func ToPriority(s string) Priority {
	switch strings.ToLower(s) {
	case "system":
		return PrioritySystem
	case "immediately":
		return PriorityImmediately
	case "important":
		return PriorityImportant
	case "", "normal":
		return PriorityNormal
	case "unimportant":
		return PriorityUnimportant
	default:
		return ""
	}
}

// Order returns the numeric task order for a priority, lower runs first.
func (p Priority) Order() (float64, bool) {
	switch ToPriority(string(p)) {
	case PrioritySystem:
		return 0, true
	case PriorityImmediately:
		return 1, true
	case PriorityImportant:
		return 10, true
	case PriorityNormal:
		return 100, true
	case PriorityUnimportant:
		return 1000, true
	default:
		return 0, false
	}
}
