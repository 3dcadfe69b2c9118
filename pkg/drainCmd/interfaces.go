package drainCmd

import "io"

// Completion is the handle returned by ExternalCommand.BeginExecute.
type Completion interface {
	IsCompleted() bool
}

// ExternalCommand is everything the drain needs from a running command.
// Streams are only valid after BeginExecute succeeded and belong to the command:
// the drain reads them but never closes them.
type ExternalCommand interface {
	BeginExecute() (Completion, error)
	RequestCancel()
	StdoutStream() io.Reader
	StderrStream() io.Reader
	// Finalize collects the exit status and releases the command. Called exactly once.
	Finalize(c Completion) (int, error)
}

// LineSink receives classified lines. It is shared by both drainers and must tolerate
// concurrent calls.
type LineSink func(isError bool, text string) error

// ErrorValidator reports whether a stdout line should be treated as an error.
type ErrorValidator func(line string) bool

// LineHandler is the stream-aware form of LineSink used by the Coordinator.
type LineHandler func(line ClassifiedLine) error

func (s LineSink) handler() LineHandler {
	if s == nil {
		return func(ClassifiedLine) error { return nil }
	}
	return func(line ClassifiedLine) error {
		return s(line.IsError, line.Text)
	}
}
