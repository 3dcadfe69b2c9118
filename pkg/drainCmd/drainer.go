package drainCmd

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

type DrainState int32

const (
	Running DrainState = iota
	Draining
	Done
	Cancelled
	Failed
)

func (s DrainState) String() string {
	switch s {
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Done:
		return "done"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s DrainState) Terminal() bool {
	return s == Done || s == Cancelled || s == Failed
}

const DefaultPollInterval = 100 * time.Millisecond

// StreamDrainer pulls lines from one stream until the command reports completion
// and the stream is exhausted.
type StreamDrainer struct {
	stream      ProcessOutType
	lines       *LineSource
	isCompleted func() bool
	cancel      func()
	validator   ErrorValidator
	handle      LineHandler
	interval    time.Duration

	state atomic.Int32
}

func NewStreamDrainer(
	stream ProcessOutType,
	lines *LineSource,
	isCompleted func() bool,
	cancel func(),
	validator ErrorValidator,
	handle LineHandler,
	interval time.Duration,
) *StreamDrainer {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if handle == nil {
		handle = LineSink(nil).handler()
	}
	if cancel == nil {
		cancel = func() {}
	}
	return &StreamDrainer{
		stream:      stream,
		lines:       lines,
		isCompleted: isCompleted,
		cancel:      cancel,
		validator:   validator,
		handle:      handle,
		interval:    interval,
	}
}

func (d *StreamDrainer) State() DrainState {
	return DrainState(d.state.Load())
}

func (d *StreamDrainer) setState(s DrainState) {
	if prev := DrainState(d.state.Swap(int32(s))); prev != s {
		glog.V(2).Infof("%s drainer: %s -> %s", d.stream, prev, s)
	}
}

// Run drains until Done, Cancelled or Failed. Each iteration checks cancellation, pulls
// one line unless the stream is exhausted, then asks whether the command completed.
// A fresh empty stream of a finished command is Done after a single liveness check.
// Once cancellation was requested the drainer ends Cancelled, even if the teardown made
// the command look completed.
func (d *StreamDrainer) Run(ctx context.Context) error {
	timer := time.NewTimer(d.interval)
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return d.cancelled(ctx)
		}

		pulled := false
		if !d.lines.Exhausted() {
			line, ok, err := d.lines.NextLine()
			if err != nil {
				// reads fail once the command is torn down for cancellation
				if ctx.Err() != nil {
					return d.cancelled(ctx)
				}
				d.setState(Failed)
				return &DrainFailedError{Stream: d.stream, Err: &StreamReadError{Stream: d.stream, Err: err}}
			}
			if ok {
				pulled = true
				if err := d.deliver(ctx, line); err != nil {
					return err
				}
			}
		}

		completed := d.isCompleted()
		if completed && d.lines.Exhausted() {
			if ctx.Err() != nil {
				return d.cancelled(ctx)
			}
			d.setState(Done)
			return nil
		}
		if completed {
			d.setState(Draining)
		}
		if pulled {
			continue
		}

		// exhausted, waiting for the command to report completion
		timer.Reset(d.interval)
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	}
}

func (d *StreamDrainer) deliver(ctx context.Context, line string) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	classified := ClassifiedLine{
		IsError: Classify(d.stream == StdErr, line, d.validator),
		Text:    line,
		Stream:  d.stream,
		Time:    time.Now(),
	}
	if err := d.handle(classified); err != nil {
		if ctx.Err() != nil {
			return d.cancelled(ctx)
		}
		d.setState(Failed)
		return &DrainFailedError{Stream: d.stream, Err: &SinkError{Stream: d.stream, Err: err}}
	}
	return nil
}

func (d *StreamDrainer) cancelled(ctx context.Context) error {
	d.cancel()
	d.setState(Cancelled)
	return &CancelledError{Cause: context.Cause(ctx)}
}
