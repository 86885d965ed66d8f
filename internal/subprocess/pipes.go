package subprocess

import (
	"fmt"
	"os"
)

// enginePipes holds both ends of the engine's three standard streams.
//
// os.Pipe is used instead of exec.Cmd's pipe helpers because Cmd.Wait closes
// those as soon as the process exits, discarding output the session has not
// read yet.
type enginePipes struct {
	stdinR, stdinW   *os.File
	stdoutR, stdoutW *os.File
	stderrR, stderrW *os.File
}

func openPipes() (*enginePipes, error) {
	p := &enginePipes{}

	var err error

	if p.stdinR, p.stdinW, err = os.Pipe(); err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}

	if p.stdoutR, p.stdoutW, err = os.Pipe(); err != nil {
		p.closeAll()

		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	if p.stderrR, p.stderrW, err = os.Pipe(); err != nil {
		p.closeAll()

		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	return p, nil
}

// closeChildEnds closes the ends inherited by the child.
func (p *enginePipes) closeChildEnds() {
	closeFiles(p.stdinR, p.stdoutW, p.stderrW)
}

func (p *enginePipes) closeAll() {
	closeFiles(p.stdinR, p.stdinW, p.stdoutR, p.stdoutW, p.stderrR, p.stderrW)
}

func closeFiles(files ...*os.File) {
	for _, f := range files {
		if f != nil {
			_ = f.Close()
		}
	}
}
