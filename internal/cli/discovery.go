package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/wagiedev/conceptfinder-go/internal/errors"
)

// Config holds configuration for launcher discovery.
type Config struct {
	// Command is the launcher executable. A value containing a path separator
	// skips the PATH search; a relative one is resolved against the caller's
	// working directory, not Dir.
	Command string

	// Dir is the engine working directory.
	Dir string

	// RequiredFiles are paths relative to Dir that must exist.
	RequiredFiles []string

	// Logger is an optional logger for discovery operations.
	// If nil, a no-op logger is used.
	Logger *slog.Logger
}

// Discoverer locates the launcher and validates the engine working directory.
type Discoverer interface {
	// Discover returns the absolute path to the launcher executable.
	Discover(ctx context.Context) (string, error)
}

// discoverer implements the Discoverer interface.
type discoverer struct {
	cfg *Config
	log *slog.Logger
}

// Compile-time verification that discoverer implements Discoverer.
var _ Discoverer = (*discoverer)(nil)

// NewDiscoverer creates a new launcher discoverer with the given configuration.
func NewDiscoverer(cfg *Config) Discoverer {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &discoverer{
		cfg: cfg,
		log: log,
	}
}

// Discover validates the working directory and locates the launcher.
func (d *discoverer) Discover(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	d.log.Debug("Discovering engine launcher", "command", d.cfg.Command, "dir", d.cfg.Dir)

	if err := d.checkDir(); err != nil {
		d.log.Error("Engine working directory is not usable", "dir", d.cfg.Dir, "error", err)

		return "", d.launchError(err)
	}

	path, err := d.findLauncher()
	if err != nil {
		d.log.Error("Failed to find engine launcher", "command", d.cfg.Command, "error", err)

		return "", d.launchError(err)
	}

	d.log.Debug("Found engine launcher", "path", path)

	return path, nil
}

func (d *discoverer) launchError(err error) error {
	return &errors.ProcessLaunchError{Command: d.cfg.Command, Dir: d.cfg.Dir, Err: err}
}

// checkDir verifies Dir is a directory holding every required file.
func (d *discoverer) checkDir() error {
	info, err := os.Stat(d.cfg.Dir)
	if err != nil {
		return fmt.Errorf("working directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("working directory: %s is not a directory", d.cfg.Dir)
	}

	for _, name := range d.cfg.RequiredFiles {
		if _, err := os.Stat(filepath.Join(d.cfg.Dir, name)); err != nil {
			return fmt.Errorf("required file: %w", err)
		}
	}

	return nil
}

// findLauncher resolves Command to an executable path.
func (d *discoverer) findLauncher() (string, error) {
	command := d.cfg.Command
	if command == "" {
		return "", fmt.Errorf("no launcher command configured")
	}

	// Explicit path: use it and only it
	if strings.ContainsRune(command, filepath.Separator) || strings.ContainsRune(command, '/') {
		info, err := os.Stat(command)
		if err != nil {
			return "", err
		}

		if info.IsDir() {
			return "", fmt.Errorf("%s is a directory", command)
		}

		return filepath.Abs(command)
	}

	if path, err := exec.LookPath(command); err == nil {
		d.log.Debug("Found launcher in PATH", "path", path)

		return path, nil
	}

	searched := []string{"$PATH"}

	for _, path := range commonPaths(command) {
		searched = append(searched, path)
		d.log.Debug("Checking common path", "path", path)

		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}

	d.log.Warn("Engine launcher not found in any searched paths", "searched_paths", searched)

	return "", fmt.Errorf("%s not found in %v: %w", command, searched, exec.ErrNotFound)
}

// commonPaths lists install locations checked after PATH.
func commonPaths(command string) []string {
	paths := []string{
		filepath.Join("/usr/local/bin", command),
		filepath.Join("/usr/bin", command),
	}

	if command == DotnetLauncher {
		paths = append(paths,
			"/usr/local/share/dotnet/dotnet",
			"/usr/share/dotnet/dotnet",
			"/usr/lib/dotnet/dotnet",
		)
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		if command == DotnetLauncher {
			paths = append(paths, filepath.Join(homeDir, ".dotnet", "dotnet"))
		}

		paths = append(paths, filepath.Join(homeDir, ".local", "bin", command))
	}

	return paths
}
