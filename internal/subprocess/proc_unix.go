//go:build unix

package subprocess

import (
	stderrors "errors"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcessGroup starts the engine in its own process group so that
// launcher-spawned children (dotnet run forks the engine) die with it.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessGroup sends SIGKILL to the engine's process group, falling back
// to the process itself.
func killProcessGroup(p *os.Process) error {
	err := unix.Kill(-p.Pid, unix.SIGKILL)
	if err == nil || stderrors.Is(err, unix.ESRCH) {
		return nil
	}

	if err := p.Kill(); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
		return err
	}

	return nil
}
