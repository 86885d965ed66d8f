//go:build !unix

package subprocess

import (
	stderrors "errors"
	"os"
	"os/exec"
)

func setProcessGroup(*exec.Cmd) {}

func killProcessGroup(p *os.Process) error {
	if err := p.Kill(); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
		return err
	}

	return nil
}
