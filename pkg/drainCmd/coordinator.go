package drainCmd

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"
)

type Option func(*Coordinator)

func WithPollInterval(interval time.Duration) Option {
	return func(c *Coordinator) {
		c.interval = interval
	}
}

// Coordinator drains stdout and stderr of one command concurrently and finalizes the
// command once both drainers stopped reading.
type Coordinator struct {
	interval time.Duration
}

func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{interval: DefaultPollInterval}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result is only filled once both drainers are terminal.
type Result struct {
	ExitStatus int
	Stdout     DrainState
	Stderr     DrainState
}

// Run starts the command and drains it. A failing drainer cancels the shared drain
// context, which asks the command to stop and ends the sibling as Cancelled, so the
// failure is always the error Wait reports. Drain errors win over a finalize error.
func (c *Coordinator) Run(
	ctx context.Context, cmd ExternalCommand, handle LineHandler, validator ErrorValidator,
) (Result, error) {
	completion, err := cmd.BeginExecute()
	if err != nil {
		return Result{}, fmt.Errorf("begin execute: %w", err)
	}
	stdout := NewStreamDrainer(
		StdOut, NewLineSource(cmd.StdoutStream()), completion.IsCompleted, cmd.RequestCancel, validator, handle, c.interval,
	)
	stderr := NewStreamDrainer(
		StdErr, NewLineSource(cmd.StderrStream()), completion.IsCompleted, cmd.RequestCancel, validator, handle, c.interval,
	)

	// group cancels drainCtx on the first error, and again when Wait returns;
	// only the first must reach the command.
	group, drainCtx := errgroup.WithContext(ctx)
	var running atomic.Int32
	running.Store(2)
	stopWatch := context.AfterFunc(drainCtx, func() {
		if running.Load() > 0 {
			cmd.RequestCancel()
		}
	})
	defer stopWatch()

	for _, d := range []*StreamDrainer{stdout, stderr} {
		d := d
		group.Go(func() error {
			defer running.Add(-1)
			return d.Run(drainCtx)
		})
	}
	drainErr := group.Wait()

	result := Result{Stdout: stdout.State(), Stderr: stderr.State()}
	glog.V(1).Infof("Drain finished: stdout %s, stderr %s", result.Stdout, result.Stderr)

	exitStatus, finalizeErr := cmd.Finalize(completion)
	result.ExitStatus = exitStatus
	if drainErr != nil {
		if finalizeErr != nil {
			glog.Errorf("Finalize after failed drain: %v", finalizeErr)
		}
		return result, drainErr
	}
	if finalizeErr != nil {
		return result, fmt.Errorf("finalize: %w", finalizeErr)
	}
	return result, nil
}

// Drain runs cmd with the default coordinator and returns its exit status.
// onLine and errorValidator may be nil.
func Drain(ctx context.Context, cmd ExternalCommand, onLine LineSink, errorValidator ErrorValidator) (int, error) {
	result, err := NewCoordinator().Run(ctx, cmd, onLine.handler(), errorValidator)
	return result.ExitStatus, err
}
