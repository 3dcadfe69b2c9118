//go:build unix

package execCmd

import (
	"errors"
	"os/exec"
	"syscall"
)

// The process leads its own group so a cancel also reaches children holding the pipes.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcess signals the group even after the leader exited; ESRCH means it is empty.
func killProcess(cmd *exec.Cmd) error {
	err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	if err == nil || errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return cmd.Process.Kill()
}
