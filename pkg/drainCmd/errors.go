package drainCmd

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyStarted = errors.New("command already started")
	ErrNotStarted     = errors.New("command not started")
)

type StreamReadError struct {
	Stream ProcessOutType
	Err    error
}

func (e *StreamReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Stream, e.Err)
}

func (e *StreamReadError) Unwrap() error { return e.Err }

type SinkError struct {
	Stream ProcessOutType
	Err    error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink rejected %s line: %v", e.Stream, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

// DrainFailedError wraps the StreamReadError or SinkError that stopped a drainer.
type DrainFailedError struct {
	Stream ProcessOutType
	Err    error
}

func (e *DrainFailedError) Error() string {
	return fmt.Sprintf("drain of %s failed: %v", e.Stream, e.Err)
}

func (e *DrainFailedError) Unwrap() error { return e.Err }

type CancelledError struct {
	Cause error
}

func (e *CancelledError) Error() string {
	if e.Cause == nil {
		return "drain cancelled"
	}
	return fmt.Sprintf("drain cancelled: %v", e.Cause)
}

func (e *CancelledError) Unwrap() error { return e.Cause }
