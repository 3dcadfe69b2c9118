package execCmd

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/D1-3105/DrainService/conf"
	"github.com/D1-3105/DrainService/pkg/drainCmd"
	"github.com/golang/glog"
)

var ErrAlreadyFinalized = errors.New("command already finalized")

// ExecCommand runs a local process for drainCmd. The adapter owns the pipe read ends,
// so the process exit is observed independently from the streams being drained.
type ExecCommand struct {
	env    *conf.ExecEnviron
	binary string
	args   []string

	mu         sync.Mutex
	cmd        *exec.Cmd
	stdout     *os.File
	stderr     *os.File
	done       chan struct{}
	waitErr    error
	cancelOnce sync.Once
	finalized  bool
}

func NewExecCommand(env *conf.ExecEnviron, binary string, args ...string) *ExecCommand {
	return &ExecCommand{
		env:    env,
		binary: binary,
		args:   args,
		done:   make(chan struct{}),
	}
}

type processCompletion struct {
	done <-chan struct{}
}

func (p processCompletion) IsCompleted() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (e *ExecCommand) BeginExecute() (drainCmd.Completion, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cmd != nil {
		return nil, drainCmd.ErrAlreadyStarted
	}

	glog.V(1).Infof("Exec Command Call: >>%s %v<< in %q", e.binary, e.args, e.env.WorkingDir)
	cmd := exec.Command(e.binary, e.args...)
	cmd.Dir = e.env.WorkingDir
	if !e.env.InheritEnv {
		cmd.Env = []string{}
	}
	configureProcess(cmd)

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		closeAll(stdoutR, stdoutW)
		return nil, err
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	if err := cmd.Start(); err != nil {
		closeAll(stdoutR, stdoutW, stderrR, stderrW)
		return nil, err
	}
	// the child keeps its own copies of the write ends
	closeAll(stdoutW, stderrW)
	glog.V(1).Infof("Started new process: %d", cmd.Process.Pid)

	e.cmd = cmd
	e.stdout = stdoutR
	e.stderr = stderrR
	go func() {
		err := cmd.Wait()
		e.waitErr = err
		close(e.done)
	}()
	return processCompletion{done: e.done}, nil
}

// RequestCancel kills the whole process group and closes the pipe read ends. Children
// left behind by an exited leader may still hold the pipes, so this runs even when the
// leader is already done.
func (e *ExecCommand) RequestCancel() {
	e.mu.Lock()
	cmd := e.cmd
	e.mu.Unlock()
	if cmd == nil {
		return
	}
	e.cancelOnce.Do(func() {
		glog.V(1).Infof("Killing process group of %d", cmd.Process.Pid)
		if err := killProcess(cmd); err != nil && !errors.Is(err, os.ErrProcessDone) {
			glog.Errorf("Failed to kill process %d: %v", cmd.Process.Pid, err)
		}
		closeAll(e.stdout, e.stderr)
	})
}

func (e *ExecCommand) StdoutStream() io.Reader { return e.stdout }

func (e *ExecCommand) StderrStream() io.Reader { return e.stderr }

// Finalize waits for the process and closes the pipe read ends. A non-zero exit is
// reported through the status, not as an error; a killed process reports -1.
func (e *ExecCommand) Finalize(drainCmd.Completion) (int, error) {
	e.mu.Lock()
	if e.cmd == nil {
		e.mu.Unlock()
		return -1, drainCmd.ErrNotStarted
	}
	if e.finalized {
		e.mu.Unlock()
		return -1, ErrAlreadyFinalized
	}
	e.finalized = true
	e.mu.Unlock()

	<-e.done
	closeAll(e.stdout, e.stderr)

	var exitErr *exec.ExitError
	switch {
	case e.waitErr == nil:
		return e.cmd.ProcessState.ExitCode(), nil
	case errors.As(e.waitErr, &exitErr):
		glog.V(1).Infof("Process %d exited: %v", e.cmd.Process.Pid, exitErr)
		return exitErr.ExitCode(), nil
	default:
		return -1, e.waitErr
	}
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		if f != nil {
			_ = f.Close()
		}
	}
}
