package drainCmd

import (
	"io"
	"strings"
	"sync"
	"sync/atomic"
)

type fakeCommand struct {
	stdout io.Reader
	stderr io.Reader

	beginErr    error
	exitCode    int
	finalizeErr error

	completed  atomic.Bool
	cancels    atomic.Int32
	finalized  atomic.Int32
	cancelOnce sync.Once
	onCancel   func()
}

type fakeCompletion struct {
	cmd *fakeCommand
}

func (c fakeCompletion) IsCompleted() bool { return c.cmd.completed.Load() }

func (f *fakeCommand) BeginExecute() (Completion, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	return fakeCompletion{cmd: f}, nil
}

func (f *fakeCommand) RequestCancel() {
	f.cancels.Add(1)
	f.cancelOnce.Do(func() {
		if f.onCancel != nil {
			f.onCancel()
		}
	})
}

func (f *fakeCommand) StdoutStream() io.Reader { return f.stdout }
func (f *fakeCommand) StderrStream() io.Reader { return f.stderr }

func (f *fakeCommand) Finalize(Completion) (int, error) {
	f.finalized.Add(1)
	return f.exitCode, f.finalizeErr
}

// finishedCommand has already exited and left the given output behind.
func finishedCommand(stdout, stderr string) *fakeCommand {
	cmd := &fakeCommand{stdout: strings.NewReader(stdout), stderr: strings.NewReader(stderr)}
	cmd.completed.Store(true)
	return cmd
}

// runningCommand never completes on its own; cancelling it closes both streams and
// marks it completed.
func runningCommand() (cmd *fakeCommand, stdout, stderr *io.PipeWriter) {
	outR, outW := io.Pipe()
	errR, errW := io.Pipe()
	cmd = &fakeCommand{stdout: outR, stderr: errR}
	cmd.onCancel = func() {
		_ = outW.Close()
		_ = errW.Close()
		// a killed command reports completion like any other exit
		cmd.completed.Store(true)
	}
	return cmd, outW, errW
}

type sinkCall struct {
	isError bool
	text    string
}

type recordingSink struct {
	mu    sync.Mutex
	calls []sinkCall
}

func (r *recordingSink) sink(isError bool, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, sinkCall{isError: isError, text: text})
	return nil
}

func (r *recordingSink) handle(line ClassifiedLine) error {
	return r.sink(line.IsError, line.Text)
}

func (r *recordingSink) snapshot() []sinkCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sinkCall(nil), r.calls...)
}
