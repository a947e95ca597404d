package errors

import (
	"fmt"
)

var (
	ErrInvalidArg         = fmt.Errorf("invalid arg")
	ErrNotFound           = fmt.Errorf("not found")
	ErrUnknownApp         = fmt.Errorf("unknown app id")
	ErrUnknownPriority    = fmt.Errorf("unknown task priority")
	ErrRegistrationFailed = fmt.Errorf("task registration failed")
	ErrExecutorNotFound   = fmt.Errorf("task executor command was not found")
	ErrNotConnected       = fmt.Errorf("not connected")
	ErrNotSupported       = fmt.Errorf("not supported")
)
