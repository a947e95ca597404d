//go:build !windows

package executor

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts the executor in its own process group, so anything it
// spawns can be killed along with it.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessGroup kills the executor & every process in its group
func killProcessGroup(cmd *exec.Cmd) error {
	err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	if err == syscall.ESRCH {
		return cmd.Process.Kill()
	}
	return err
}
