//go:build unix

package subprocess

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/wagiedev/conceptfinder-go/internal/enginetest"
)

// processGone reports whether pid has exited. A zombie awaiting its reaper
// counts as gone.
func processGone(pid int) bool {
	if err := unix.Kill(pid, 0); err != nil {
		return stderrors.Is(err, unix.ESRCH)
	}

	stat, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return false
	}

	// The state field follows the parenthesised command name.
	fields := strings.Fields(string(stat[strings.LastIndexByte(string(stat), ')')+1:]))

	return len(fields) > 0 && fields[0] == "Z"
}

func TestEngineTransport_CloseKillsLeftoverChildren(t *testing.T) {
	transport := startStub(t, enginetest.ModeSpawn, nil)

	line, err := bufio.NewReader(transport.Reader()).ReadString('\n')
	require.NoError(t, err)

	child, err := strconv.Atoi(strings.TrimSpace(line))
	require.NoError(t, err)

	t.Cleanup(func() { _ = unix.Kill(child, unix.SIGKILL) })

	require.False(t, processGone(child), "child exited before Close")

	require.NoError(t, transport.Close())
	require.NoError(t, transport.Err())

	require.Eventually(t, func() bool { return processGone(child) },
		5*time.Second, 20*time.Millisecond, "child %d survived Close", child)
}
