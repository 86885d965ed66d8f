package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	conceptfinder "github.com/wagiedev/conceptfinder-go"
)

const defaultBatch = 64

// cliConfig is the resolved driver configuration: defaults, then the TOML
// file, then flags.
type cliConfig struct {
	ConfigPath    string
	Command       string
	Args          []string
	Dir           string
	Env           map[string]string
	RequiredFiles []string
	Batch         int
	Timeout       time.Duration
	StopTimeout   time.Duration
	MaxLineSize   int
	Parallel      int
	Verbose       int
}

func defaultCLIConfig() cliConfig {
	return cliConfig{
		Command:     conceptfinder.DefaultCommand,
		Args:        []string{"run"},
		Dir:         conceptfinder.DefaultDir,
		Env:         map[string]string{},
		Batch:       defaultBatch,
		StopTimeout: conceptfinder.DefaultStopTimeout,
		MaxLineSize: conceptfinder.DefaultMaxLineSize,
	}
}

type fileConfig struct {
	Command       string            `toml:"command"`
	Args          []string          `toml:"args"`
	Dir           string            `toml:"dir"`
	Env           map[string]string `toml:"env"`
	RequiredFiles []string          `toml:"required_files"`
	Batch         int               `toml:"batch"`
	Timeout       string            `toml:"timeout"`
	StopTimeout   string            `toml:"stop_timeout"`
	MaxLineSize   int               `toml:"max_line_size"`
	Parallel      int               `toml:"parallel"`
}

// loadFileConfig overlays the keys defined in the TOML file at path onto cfg.
func loadFileConfig(path string, cfg *cliConfig) error {
	var raw fileConfig

	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("command") {
		cfg.Command = strings.TrimSpace(raw.Command)
	}

	if meta.IsDefined("args") {
		cfg.Args = raw.Args
		if cfg.Args == nil {
			cfg.Args = []string{}
		}
	}

	if meta.IsDefined("dir") {
		cfg.Dir = strings.TrimSpace(raw.Dir)
	}

	if meta.IsDefined("env") {
		for k, v := range raw.Env {
			cfg.Env[k] = v
		}
	}

	if meta.IsDefined("required_files") {
		cfg.RequiredFiles = raw.RequiredFiles
	}

	if meta.IsDefined("batch") {
		cfg.Batch = raw.Batch
	}

	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return fmt.Errorf("parse timeout: %w", err)
		}

		cfg.Timeout = d
	}

	if meta.IsDefined("stop_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.StopTimeout))
		if err != nil {
			return fmt.Errorf("parse stop_timeout: %w", err)
		}

		cfg.StopTimeout = d
	}

	if meta.IsDefined("max_line_size") {
		cfg.MaxLineSize = raw.MaxLineSize
	}

	if meta.IsDefined("parallel") {
		cfg.Parallel = raw.Parallel
	}

	return nil
}

// validate rejects settings no run could use.
func (c *cliConfig) validate() error {
	if c.Batch < 1 {
		return fmt.Errorf("batch must be at least 1, got %d", c.Batch)
	}

	if c.Parallel < 0 {
		return fmt.Errorf("parallel must not be negative, got %d", c.Parallel)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}

	if c.Command == "" {
		return fmt.Errorf("command must not be empty")
	}

	return nil
}

// options converts the configuration to SDK options.
func (c *cliConfig) options() []conceptfinder.Option {
	return []conceptfinder.Option{
		conceptfinder.WithCommand(c.Command),
		conceptfinder.WithArgs(c.Args...),
		conceptfinder.WithDir(c.Dir),
		conceptfinder.WithEnv(c.Env),
		conceptfinder.WithRequiredFiles(c.RequiredFiles...),
		conceptfinder.WithReadTimeout(c.Timeout),
		conceptfinder.WithStopTimeout(c.StopTimeout),
		conceptfinder.WithMaxLineSize(c.MaxLineSize),
	}
}
