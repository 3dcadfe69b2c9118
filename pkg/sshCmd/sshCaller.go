package sshCmd

import (
	"errors"
	"io"
	"sync"

	"github.com/D1-3105/DrainService/pkg/drainCmd"
	"github.com/golang/glog"
	"golang.org/x/crypto/ssh"
)

var ErrAlreadyFinalized = errors.New("remote command already finalized")

// Session is the part of *ssh.Session the adapter uses.
type Session interface {
	StdoutPipe() (io.Reader, error)
	StderrPipe() (io.Reader, error)
	Start(cmd string) error
	Wait() error
	Signal(sig ssh.Signal) error
	Close() error
}

var _ Session = (*ssh.Session)(nil)

// SshCommand runs one remote command on an established session.
type SshCommand struct {
	session Session
	command string

	mu         sync.Mutex
	started    bool
	finalized  bool
	stdout     io.Reader
	stderr     io.Reader
	done       chan struct{}
	waitErr    error
	cancelOnce sync.Once
}

func NewSshCommand(session Session, command string) *SshCommand {
	return &SshCommand{
		session: session,
		command: command,
		done:    make(chan struct{}),
	}
}

// NewClientCommand opens a fresh session on client for command.
func NewClientCommand(client *ssh.Client, command string) (*SshCommand, error) {
	session, err := client.NewSession()
	if err != nil {
		return nil, err
	}
	return NewSshCommand(session, command), nil
}

type sessionCompletion struct {
	done <-chan struct{}
}

func (s sessionCompletion) IsCompleted() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (c *SshCommand) BeginExecute() (drainCmd.Completion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil, drainCmd.ErrAlreadyStarted
	}

	stdout, err := c.session.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := c.session.StderrPipe()
	if err != nil {
		return nil, err
	}
	glog.V(1).Infof("Ssh Command Call: >>%s<<", c.command)
	if err := c.session.Start(c.command); err != nil {
		return nil, err
	}
	c.started = true
	c.stdout = stdout
	c.stderr = stderr

	go func() {
		err := c.session.Wait()
		c.waitErr = err
		close(c.done)
	}()
	return sessionCompletion{done: c.done}, nil
}

// RequestCancel sends SIGKILL to a running command and always closes the session.
// Many servers ignore signals; closing the channel is what ends the stream reads.
func (c *SshCommand) RequestCancel() {
	c.mu.Lock()
	started := c.started
	c.mu.Unlock()
	if !started {
		return
	}
	c.cancelOnce.Do(func() {
		glog.V(1).Infof("Cancelling remote command >>%s<<", c.command)
		if !(sessionCompletion{done: c.done}).IsCompleted() {
			if err := c.session.Signal(ssh.SIGKILL); err != nil {
				glog.V(1).Infof("Signal remote command: %v", err)
			}
		}
		// the channel can outlive the exit status, closing it always ends the reads
		if err := c.session.Close(); err != nil && !errors.Is(err, io.EOF) {
			glog.Errorf("Close session: %v", err)
		}
	})
}

func (c *SshCommand) StdoutStream() io.Reader { return c.stdout }

func (c *SshCommand) StderrStream() io.Reader { return c.stderr }

// Finalize waits for the remote exit status and closes the session.
func (c *SshCommand) Finalize(drainCmd.Completion) (int, error) {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return -1, drainCmd.ErrNotStarted
	}
	if c.finalized {
		c.mu.Unlock()
		return -1, ErrAlreadyFinalized
	}
	c.finalized = true
	c.mu.Unlock()

	<-c.done
	if err := c.session.Close(); err != nil && !errors.Is(err, io.EOF) {
		glog.V(1).Infof("Close session: %v", err)
	}

	var exitErr *ssh.ExitError
	switch {
	case c.waitErr == nil:
		return 0, nil
	case errors.As(c.waitErr, &exitErr):
		return exitErr.ExitStatus(), nil
	default:
		return -1, c.waitErr
	}
}
