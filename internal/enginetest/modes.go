package enginetest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/wagiedev/conceptfinder-go/internal/config"
)

// ModeEnv selects the stub behaviour of a re-executed test binary.
const ModeEnv = "CONCEPTFINDER_STUB_ENGINE"

// Stub engine modes understood by Run.
const (
	// ModeEcho serves requests with the Echo handler.
	ModeEcho = "echo"
	// ModeTruncate answers the first request with a header declaring three
	// lines, writes two and exits.
	ModeTruncate = "truncate"
	// ModeCrash writes a stack trace to stderr on the first request and
	// exits with status 3.
	ModeCrash = "crash"
	// ModeExitEarly exits with status 2 without reading anything.
	ModeExitEarly = "exit-early"
	// ModeHang reads requests but never answers.
	ModeHang = "hang"
	// ModeStubborn ignores the end of its input and keeps running.
	ModeStubborn = "stubborn"
	// ModeSpawn starts a ModeStubborn child, prints its pid and exits at the
	// end of its input, leaving the child behind.
	ModeSpawn = "spawn"
	// ModeNoisy writes a NoisyLineSize stderr line, then one far past any
	// sane limit, then serves requests like ModeEcho.
	ModeNoisy = "noisy"
)

// NoisyLineSize is the length of the first stderr line written by ModeNoisy.
const NoisyLineSize = 200 * 1024

// CrashMessage is the stderr text written by ModeCrash.
const CrashMessage = "Unhandled exception. System.IO.FileNotFoundException: meddict"

// Run executes the stub engine in the given mode and returns the process
// exit status.
func Run(mode string, stdin io.Reader, stdout, stderr io.Writer) int {
	switch mode {
	case ModeEcho:
		if err := Serve(context.Background(), stdin, stdout, Echo); err != nil {
			fmt.Fprintln(stderr, err)

			return 1
		}

		return 0
	case ModeTruncate, ModeCrash:
		if _, err := bufio.NewReader(stdin).ReadString('\n'); err != nil {
			return 1
		}

		if mode == ModeCrash {
			fmt.Fprintln(stderr, CrashMessage)
			fmt.Fprintln(stderr, "   at conceptfinder.Server.Main(String[] args)")

			return 3
		}

		fmt.Fprint(stdout, "3\nC0000001 1\nC0000002 1\n")

		return 0
	case ModeExitEarly:
		return 2
	case ModeHang:
		_, _ = io.Copy(io.Discard, stdin)

		return 0
	case ModeStubborn:
		time.Sleep(time.Hour)

		return 0
	case ModeNoisy:
		fmt.Fprintln(stderr, strings.Repeat("a", NoisyLineSize))
		fmt.Fprintln(stderr, strings.Repeat("b", 4*1024*1024))

		return Run(ModeEcho, stdin, stdout, stderr)
	case ModeSpawn:
		pid, err := spawnStubborn()
		if err != nil {
			fmt.Fprintln(stderr, err)

			return 1
		}

		fmt.Fprintf(stdout, "%d\n", pid)

		_, _ = io.Copy(io.Discard, stdin)

		return 0
	default:
		fmt.Fprintf(stderr, "unknown stub engine mode %q\n", mode)

		return 64
	}
}

// spawnStubborn starts the running executable in ModeStubborn without
// waiting for it. The child stays in the caller's process group.
func spawnStubborn() (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("locate executable: %w", err)
	}

	cmd := exec.Command(exe, "-test.run=^$")
	cmd.Env = append(os.Environ(), ModeEnv+"="+ModeStubborn)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start child: %w", err)
	}

	return cmd.Process.Pid, nil
}

// SelfOptions returns session options that launch the running executable as
// a stub engine in the given mode. The executable must divert to Run when
// ModeEnv is set, typically from TestMain.
func SelfOptions(mode string) (*config.Options, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate test executable: %w", err)
	}

	return &config.Options{
		Command: exe,
		Args:    []string{"-test.run=^$"},
		Dir:     filepath.Dir(exe),
		Env:     map[string]string{ModeEnv: mode},
	}, nil
}
