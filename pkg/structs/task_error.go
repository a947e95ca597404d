package structs

import (
	"encoding/json"
	"fmt"
)

const (
	ErrorCodeUnknown            = "unknown"
	ErrorCodeExecutorTerminated = "ExecutorTerminated"

	// ErrorParseMessage is the message of errors that could not be parsed
	ErrorParseMessage = "An error occurred during error parsing. The Details property contains the raw error data of the task executor."
)

// TaskError is a structured error raised while executing a task.
type TaskError struct {
	ErrorCode string `json:"ErrorCode,omitempty"`

	// ErrorType is a Go error type name or a custom error type
	ErrorType string `json:"ErrorType,omitempty"`

	Message string `json:"Message,omitempty"`
	Details string `json:"Details,omitempty"`

	// CallingContext is custom error data, serialized as JSON
	CallingContext string `json:"CallingContext,omitempty"`
}

// NewTaskError builds a TaskError from a Go error.
func NewTaskError(err error) *TaskError {
	if err == nil {
		return nil
	}
	return &TaskError{
		ErrorType: fmt.Sprintf("%T", err),
		Message:   err.Error(),
	}
}

// ParseTaskError reads an error written by an executor. Executors are expected
// to write a JSON object, anything else is kept verbatim in Details.
func ParseTaskError(src string) *TaskError {
	props := map[string]json.RawMessage{}
	err := json.Unmarshal([]byte(src), &props)
	if err != nil {
		return &TaskError{
			ErrorCode: ErrorCodeUnknown,
			ErrorType: ErrorCodeUnknown,
			Message:   ErrorParseMessage,
			Details:   src,
		}
	}

	result := &TaskError{}
	for k, v := range props {
		val := rawString(v)
		switch k {
		case "ErrorCode":
			result.ErrorCode = val
		case "ErrorType":
			result.ErrorType = val
		case "Message":
			result.Message = val
		case "Details":
			result.Details = val
		case "CallingContext":
			result.CallingContext = val
		}
	}
	return result
}

// rawString returns the string value of a JSON string, or the JSON text itself
// for any other kind of value.
func rawString(in json.RawMessage) string {
	var s string
	if err := json.Unmarshal(in, &s); err == nil {
		return s
	}
	return string(in)
}

// String returns the error as compact JSON
func (e *TaskError) String() string {
	if e == nil {
		return ""
	}
	data, _ := json.Marshal(e)
	return string(data)
}

// Error allows a TaskError to be passed around as an error
func (e *TaskError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.String()
}
