package cli

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/wagiedev/conceptfinder-go/internal/config"
)

// DotnetLauncher is the launcher name of the .NET runtime.
const DotnetLauncher = "dotnet"

// Command represents the engine command to execute.
type Command struct {
	// Path is the resolved launcher executable.
	Path string

	// Args are the command line arguments.
	Args []string

	// Dir is the working directory.
	Dir string

	// Env are the environment variables.
	Env []string
}

// BuildCommand constructs the engine command from a resolved launcher path.
func BuildCommand(path string, options *config.Options) Command {
	return Command{
		Path: path,
		Args: slices.Clone(options.Args),
		Dir:  options.Dir,
		Env:  BuildEnvironment(options),
	}
}

// String renders the command line for logs and errors.
func (c Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// BuildEnvironment constructs the environment variables for the engine process.
func BuildEnvironment(options *config.Options) []string {
	// Start with current environment
	env := os.Environ()

	// The dotnet first-run banner and telemetry notice are written to stdout,
	// ahead of the first response header.
	if strings.TrimSuffix(filepath.Base(options.Command), ".exe") == DotnetLauncher {
		env = append(env,
			"DOTNET_NOLOGO=1",
			"DOTNET_CLI_TELEMETRY_OPTOUT=1",
			"DOTNET_SKIP_FIRST_TIME_EXPERIENCE=1",
		)
	}

	// Add or override with user-provided environment variables
	for _, key := range slices.Sorted(maps.Keys(options.Env)) {
		env = append(env, fmt.Sprintf("%s=%s", key, options.Env[key]))
	}

	return env
}
