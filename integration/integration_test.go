//go:build integration

package integration

import (
	"errors"
	"os"
	"regexp"
	"testing"
	"time"

	conceptfinder "github.com/wagiedev/conceptfinder-go"
)

// conceptIDPattern matches UMLS concept unique identifiers.
var conceptIDPattern = regexp.MustCompile(`^C\d{7}$`)

// engineOptions points the SDK at the engine checkout named by
// CONCEPTFINDER_DIR, or the default location.
func engineOptions(extra ...conceptfinder.Option) []conceptfinder.Option {
	dir := os.Getenv("CONCEPTFINDER_DIR")
	if dir == "" {
		dir = conceptfinder.DefaultDir
	}

	opts := []conceptfinder.Option{
		conceptfinder.WithDir(dir),
		conceptfinder.WithRequiredFiles("meddict", "frequency_dictionary_en_82_765.txt"),
		conceptfinder.WithReadTimeout(2 * time.Minute),
	}

	return append(opts, extra...)
}

// skipIfEngineNotInstalled skips the test if the error indicates the engine
// or its dictionaries are missing.
func skipIfEngineNotInstalled(t *testing.T, err error) {
	t.Helper()

	if launchErr, ok := errors.AsType[*conceptfinder.ProcessLaunchError](err); ok {
		t.Skipf("Concept finder engine not available: %v", launchErr)
	}
}
