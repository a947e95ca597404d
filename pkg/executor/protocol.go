package executor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/voidshard/foreman/pkg/structs"
)

const (
	prefixProgress      = "Progress:"
	prefixStartSubtask  = "StartSubtask:"
	prefixFinishSubtask = "FinishSubtask:"
	prefixResultData    = "ResultData:"
	prefixError         = "ERROR:"
	prefixWarning       = "WARNING:"
)

// Event is one parsed line of executor output.
type Event interface {
	isEvent()
}

type ProgressEvent struct {
	Progress *structs.Progress
}

type SubtaskStartEvent struct {
	Subtask *structs.Subtask
}

type SubtaskFinishEvent struct {
	Subtask *structs.Subtask
}

type ResultDataEvent struct {
	Data string
}

// ErrorEvent opens an error; following unrecognised lines are appended to it.
type ErrorEvent struct {
	Text string
}

type WarningEvent struct {
	Text string
}

// UnrecognizedEvent is any line without a known prefix.
type UnrecognizedEvent struct {
	Line string
}

func (ProgressEvent) isEvent()      {}
func (SubtaskStartEvent) isEvent()  {}
func (SubtaskFinishEvent) isEvent() {}
func (ResultDataEvent) isEvent()    {}
func (ErrorEvent) isEvent()         {}
func (WarningEvent) isEvent()       {}
func (UnrecognizedEvent) isEvent()  {}

// ParseLine converts a line of executor stdout into an Event. Prefixes are
// matched case insensitively. An error is returned (with a nil Event) if a
// prefixed line carries malformed JSON.
func ParseLine(line string) (Event, error) {
	if rest, ok := cutPrefix(line, prefixProgress); ok {
		p := &structs.Progress{}
		if err := json.Unmarshal([]byte(strings.TrimSpace(rest)), p); err != nil {
			return nil, fmt.Errorf("malformed progress %q: %w", rest, err)
		}
		return &ProgressEvent{Progress: p}, nil
	}
	if rest, ok := cutPrefix(line, prefixStartSubtask); ok {
		s, err := parseSubtask(rest)
		if err != nil {
			return nil, err
		}
		return &SubtaskStartEvent{Subtask: s}, nil
	}
	if rest, ok := cutPrefix(line, prefixFinishSubtask); ok {
		s, err := parseSubtask(rest)
		if err != nil {
			return nil, err
		}
		return &SubtaskFinishEvent{Subtask: s}, nil
	}
	if rest, ok := cutPrefix(line, prefixResultData); ok {
		return &ResultDataEvent{Data: strings.TrimSpace(rest)}, nil
	}
	if rest, ok := cutPrefix(line, prefixError); ok {
		return &ErrorEvent{Text: rest}, nil
	}
	if rest, ok := cutPrefix(line, prefixWarning); ok {
		return &WarningEvent{Text: rest}, nil
	}
	return &UnrecognizedEvent{Line: line}, nil
}

func parseSubtask(in string) (*structs.Subtask, error) {
	s := &structs.Subtask{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(in)), s); err != nil {
		return nil, fmt.Errorf("malformed subtask %q: %w", in, err)
	}
	return s, nil
}

// cutPrefix is strings.CutPrefix ignoring case
func cutPrefix(line, prefix string) (string, bool) {
	if len(line) < len(prefix) || !strings.EqualFold(line[:len(prefix)], prefix) {
		return line, false
	}
	return line[len(prefix):], true
}
