package drainCmd

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

type ProcessOutType int

const (
	StdErr ProcessOutType = 1
	StdOut ProcessOutType = 2
)

func (t ProcessOutType) String() string {
	switch t {
	case StdErr:
		return "stderr"
	case StdOut:
		return "stdout"
	default:
		return "unknown"
	}
}

type ClassifiedLine struct {
	IsError bool
	Text    string
	Stream  ProcessOutType
	Time    time.Time
}

func (l ClassifiedLine) FormatRead() string {
	prefix := ""
	switch l.Stream {
	case StdErr:
		prefix = "STDERR"
	case StdOut:
		prefix = "STDOUT"
	default:
		prefix = "UNKNOWN"
	}
	return fmt.Sprintf("[%s] {%s} %s", prefix, l.Time.Format(time.RFC3339), l.Text)
}

// ChannelSink queues lines from both drainers into one channel so a single consumer
// can read them in arrival order. Sends block while the channel is full.
type ChannelSink struct {
	ctx     context.Context
	outChan chan ClassifiedLine

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

func NewChannelSink(ctx context.Context, capacity int) *ChannelSink {
	if capacity < 0 {
		capacity = 0
	}
	return &ChannelSink{
		ctx:     ctx,
		outChan: make(chan ClassifiedLine, capacity),
	}
}

// Handle enqueues the line. Lines sent after Close, or after the sink context is done,
// are rejected with an error.
func (s *ChannelSink) Handle(line ClassifiedLine) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errSinkClosed
	}
	select {
	case s.outChan <- line:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

func (s *ChannelSink) GetOutputChan() <-chan ClassifiedLine { return s.outChan }

// Close closes the output channel. Blocked senders are released by the sink context,
// so Close must be preceded by cancelling it or by the drain having returned.
func (s *ChannelSink) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed = true
		close(s.outChan)
	})
}

var errSinkClosed = errors.New("channel sink closed")
