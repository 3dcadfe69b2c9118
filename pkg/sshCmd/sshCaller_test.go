package sshCmd

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/D1-3105/DrainService/pkg/drainCmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

// fakeSession plays a remote command: script writes the output, then the command exits
// with waitErr. Without a script the command runs until Close.
type fakeSession struct {
	stdoutR, stderrR *io.PipeReader
	stdoutW, stderrW *io.PipeWriter

	exit    chan struct{}
	waitErr error
	script  func(stdout, stderr io.Writer)

	mu       sync.Mutex
	started  string
	signals  []ssh.Signal
	closes   int
	exitOnce sync.Once
}

func newFakeSession(script func(stdout, stderr io.Writer)) *fakeSession {
	s := &fakeSession{exit: make(chan struct{}), script: script}
	s.stdoutR, s.stdoutW = io.Pipe()
	s.stderrR, s.stderrW = io.Pipe()
	return s
}

func (s *fakeSession) StdoutPipe() (io.Reader, error) { return s.stdoutR, nil }
func (s *fakeSession) StderrPipe() (io.Reader, error) { return s.stderrR, nil }

func (s *fakeSession) Start(cmd string) error {
	s.mu.Lock()
	s.started = cmd
	s.mu.Unlock()
	if s.script == nil {
		return nil
	}
	go func() {
		s.script(s.stdoutW, s.stderrW)
		_ = s.stdoutW.Close()
		_ = s.stderrW.Close()
		s.finish()
	}()
	return nil
}

func (s *fakeSession) finish() {
	s.exitOnce.Do(func() { close(s.exit) })
}

func (s *fakeSession) Wait() error {
	<-s.exit
	return s.waitErr
}

func (s *fakeSession) Signal(sig ssh.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals = append(s.signals, sig)
	return nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	s.closes++
	s.mu.Unlock()
	_ = s.stdoutW.CloseWithError(io.EOF)
	_ = s.stderrW.CloseWithError(io.EOF)
	s.finish()
	return nil
}

type lines struct {
	mu  sync.Mutex
	got []string
}

func (l *lines) sink(isError bool, text string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	prefix := "out:"
	if isError {
		prefix = "err:"
	}
	l.got = append(l.got, prefix+text)
	return nil
}

func TestSshCommandDrain(t *testing.T) {
	session := newFakeSession(func(stdout, stderr io.Writer) {
		_, _ = io.WriteString(stdout, "hello\nworld\n")
		_, _ = io.WriteString(stderr, "boom\n")
	})
	out := &lines{}

	code, err := drainCmd.Drain(context.Background(), NewSshCommand(session, "deploy.sh"), out.sink, nil)
	require.NoError(t, err)
	assert.Zero(t, code)
	assert.ElementsMatch(t, []string{"out:hello", "out:world", "err:boom"}, out.got)
	assert.Equal(t, "deploy.sh", session.started)
	assert.Empty(t, session.signals)
	assert.Equal(t, 1, session.closes)
}

func TestSshCommandCancel(t *testing.T) {
	session := newFakeSession(nil)
	go func() { _, _ = io.WriteString(session.stdoutW, "started\n") }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		_, err := drainCmd.Drain(ctx, NewSshCommand(session, "tail -f log"), func(bool, string) error {
			cancel()
			return nil
		}, nil)
		done <- err
	}()

	select {
	case err := <-done:
		var cancelled *drainCmd.CancelledError
		require.ErrorAs(t, err, &cancelled)
	case <-time.After(5 * time.Second):
		t.Fatal("drain did not return after cancel")
	}
	assert.Equal(t, []ssh.Signal{ssh.SIGKILL}, session.signals)
}

func TestSshCommandCancelAfterExitStatus(t *testing.T) {
	// exit status arrived but the channel still holds the streams open
	session := newFakeSession(nil)
	go func() {
		_, _ = io.WriteString(session.stdoutW, "started\n")
		session.finish()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		_, err := drainCmd.Drain(ctx, NewSshCommand(session, "nohup worker &"), func(bool, string) error {
			go func() {
				time.Sleep(50 * time.Millisecond)
				cancel()
			}()
			return nil
		}, nil)
		done <- err
	}()

	select {
	case err := <-done:
		var cancelled *drainCmd.CancelledError
		require.ErrorAs(t, err, &cancelled)
	case <-time.After(5 * time.Second):
		t.Fatal("drain still blocked after cancellation")
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	assert.Empty(t, session.signals)
	assert.GreaterOrEqual(t, session.closes, 1)
}

func TestSshCommandWaitError(t *testing.T) {
	missing := &ssh.ExitMissingError{}
	session := newFakeSession(func(stdout, _ io.Writer) {
		_, _ = io.WriteString(stdout, "partial\n")
	})
	session.waitErr = missing

	code, err := drainCmd.Drain(context.Background(), NewSshCommand(session, "reboot"), nil, nil)
	assert.Equal(t, -1, code)
	assert.ErrorIs(t, err, missing)
	assert.True(t, strings.HasPrefix(err.Error(), "finalize"))
}

func TestSshCommandLifecycle(t *testing.T) {
	session := newFakeSession(func(io.Writer, io.Writer) {})
	cmd := NewSshCommand(session, "true")

	_, err := cmd.Finalize(nil)
	assert.ErrorIs(t, err, drainCmd.ErrNotStarted)
	cmd.RequestCancel()
	assert.Empty(t, session.signals)

	completion, err := cmd.BeginExecute()
	require.NoError(t, err)
	_, err = cmd.BeginExecute()
	assert.ErrorIs(t, err, drainCmd.ErrAlreadyStarted)

	_, err = cmd.Finalize(completion)
	require.NoError(t, err)
	_, err = cmd.Finalize(completion)
	assert.True(t, errors.Is(err, ErrAlreadyFinalized))
}
