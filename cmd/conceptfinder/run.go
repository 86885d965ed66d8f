package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	conceptfinder "github.com/wagiedev/conceptfinder-go"
	"github.com/wagiedev/conceptfinder-go/internal/enginetest"
)

// version is overridable at link time:
//
//	go build -ldflags "-X main.version=2.0.0"
var version = "0.1.0" //nolint:gochecknoglobals

const maxSentenceSize = 1024 * 1024

var errUsage = errors.New("usage: conceptfinder [flags] extract|encode|stub-engine [FILE]")

// sentence is one non-blank input line and its 1-based line number.
type sentence struct {
	Line int
	Text string
}

// execute parses args and runs the requested command.
func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg := defaultCLIConfig()
	fs := flag.NewFlagSet("conceptfinder", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// ── engine ───────────────────────────────────────────────────
	fs.StringVarP(&cfg.ConfigPath, "config", "c", "", "TOML config file")
	fs.StringVarP(&cfg.Dir, "dir", "d", cfg.Dir, "Engine working directory")
	fs.StringVar(&cfg.Command, "command", cfg.Command, "Launcher executable")
	fs.StringArrayVar(&cfg.Args, "arg", cfg.Args, "Launcher argument (repeatable)")

	var envFlags []string
	fs.StringArrayVarP(&envFlags, "env", "e", nil, "Engine environment KEY=VALUE (repeatable)")
	fs.StringArrayVar(&cfg.RequiredFiles, "require", nil, "File that must exist in the engine directory (repeatable)")

	// ── requests ─────────────────────────────────────────────────
	fs.IntVarP(&cfg.Batch, "batch", "b", cfg.Batch, "Sentences per request")
	fs.DurationVarP(&cfg.Timeout, "timeout", "t", 0, "Per-request read timeout (0 waits forever)")
	fs.DurationVar(&cfg.StopTimeout, "stop-timeout", cfg.StopTimeout, "Grace period for the engine to exit")
	fs.IntVarP(&cfg.Parallel, "parallel", "p", 0, "Sessions to run; attributes concepts to input lines")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp {
		printUsage(stderr, fs)

		return nil
	}

	if showVersion {
		fmt.Fprintf(stdout, "conceptfinder %s\n", version)

		return nil
	}

	if err := resolveConfig(fs, &cfg, envFlags); err != nil {
		return err
	}

	log := newLogger(stderr, cfg.Verbose)

	positional := fs.Args()
	if len(positional) == 0 || len(positional) > 2 {
		return errUsage
	}

	if positional[0] == "stub-engine" {
		return enginetest.Serve(ctx, stdin, stdout, enginetest.Echo)
	}

	cmd, err := parseCommandName(positional[0])
	if err != nil {
		return err
	}

	input := stdin

	if len(positional) == 2 && positional[1] != "-" {
		f, err := os.Open(positional[1])
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()

		input = f
	} else if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		log.Info("Reading sentences from the terminal, one per line; end with Ctrl-D")
	}

	sentences, err := readSentences(input)
	if err != nil {
		return err
	}

	log.Info("Loaded sentences", "count", len(sentences), "command", cmd.String())

	opts := append(cfg.options(),
		conceptfinder.WithLogger(log),
		conceptfinder.WithStderr(func(line string) {
			log.Info("Engine stderr", "line", line)
		}),
	)

	out := bufio.NewWriter(stdout)
	defer out.Flush()

	if cfg.Parallel > 0 {
		return runPool(ctx, cmd, &cfg, sentences, out, opts)
	}

	return runSession(ctx, cmd, &cfg, sentences, out, opts)
}

// resolveConfig layers the config file under any flags set explicitly.
func resolveConfig(fs *flag.FlagSet, cfg *cliConfig, envFlags []string) error {
	if cfg.ConfigPath != "" {
		fromFile := defaultCLIConfig()
		if err := loadFileConfig(cfg.ConfigPath, &fromFile); err != nil {
			return err
		}

		overrides := map[string]func(){
			"dir":          func() { fromFile.Dir = cfg.Dir },
			"command":      func() { fromFile.Command = cfg.Command },
			"arg":          func() { fromFile.Args = cfg.Args },
			"require":      func() { fromFile.RequiredFiles = cfg.RequiredFiles },
			"batch":        func() { fromFile.Batch = cfg.Batch },
			"timeout":      func() { fromFile.Timeout = cfg.Timeout },
			"stop-timeout": func() { fromFile.StopTimeout = cfg.StopTimeout },
			"parallel":     func() { fromFile.Parallel = cfg.Parallel },
		}

		for name, apply := range overrides {
			if fs.Changed(name) {
				apply()
			}
		}

		fromFile.ConfigPath = cfg.ConfigPath
		fromFile.Verbose = cfg.Verbose
		*cfg = fromFile
	}

	// "--arg=" alone clears the launcher arguments.
	if fs.Changed("arg") {
		cfg.Args = slices.DeleteFunc(cfg.Args, func(a string) bool { return a == "" })
	}

	for _, kv := range envFlags {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return fmt.Errorf("invalid --env %q: want KEY=VALUE", kv)
		}

		cfg.Env[k] = v
	}

	return cfg.validate()
}

func parseCommandName(name string) (conceptfinder.Command, error) {
	switch name {
	case "extract", "x":
		return conceptfinder.CommandExtract, nil
	case "encode", "e":
		return conceptfinder.CommandEncode, nil
	default:
		return 0, fmt.Errorf("%w %q: %w", conceptfinder.ErrUnknownCommand, name, errUsage)
	}
}

// newLogger builds a text logger on w whose level follows the -v count.
func newLogger(w io.Writer, verbose int) *slog.Logger {
	level := slog.LevelWarn

	switch {
	case verbose >= 2:
		level = slog.LevelDebug
	case verbose == 1:
		level = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// readSentences reads non-blank lines, trimmed, keeping their line numbers.
func readSentences(r io.Reader) ([]sentence, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSentenceSize)

	var (
		sentences []sentence
		line      int
	)

	for scanner.Scan() {
		line++

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		sentences = append(sentences, sentence{Line: line, Text: text})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	return sentences, nil
}

// batches splits sentences into runs of at most size.
func batches(sentences []sentence, size int) [][]sentence {
	var out [][]sentence

	for len(sentences) > 0 {
		n := min(size, len(sentences))
		out = append(out, sentences[:n])
		sentences = sentences[n:]
	}

	return out
}

func texts(batch []sentence) []string {
	out := make([]string, len(batch))
	for i, s := range batch {
		out[i] = s.Text
	}

	return out
}

// runSession sends every batch through one session. Extract output is not
// attributed to input lines.
func runSession(
	ctx context.Context,
	cmd conceptfinder.Command,
	cfg *cliConfig,
	sentences []sentence,
	out *bufio.Writer,
	opts []conceptfinder.Option,
) error {
	return conceptfinder.WithClient(ctx, func(c conceptfinder.Client) error {
		for _, batch := range batches(sentences, cfg.Batch) {
			switch cmd {
			case conceptfinder.CommandExtract:
				concepts, err := c.ExtractConcepts(ctx, texts(batch))
				if err != nil {
					return fmt.Errorf("extract lines %d-%d: %w", batch[0].Line, batch[len(batch)-1].Line, err)
				}

				for _, concept := range concepts {
					fmt.Fprintf(out, "%s\t%d\n", concept.ID, concept.SpanLength)
				}
			default:
				lines, err := c.EncodeConcepts(ctx, texts(batch))
				if err != nil {
					return fmt.Errorf("encode lines %d-%d: %w", batch[0].Line, batch[len(batch)-1].Line, err)
				}

				for _, line := range lines {
					fmt.Fprintln(out, line)
				}
			}

			if err := out.Flush(); err != nil {
				return err
			}
		}

		return nil
	}, opts...)
}

// runPool sends one sentence per request across a pool of sessions and
// prints each result with the line it came from.
func runPool(
	ctx context.Context,
	cmd conceptfinder.Command,
	cfg *cliConfig,
	sentences []sentence,
	out *bufio.Writer,
	opts []conceptfinder.Option,
) error {
	pool, err := conceptfinder.NewPool(ctx, cfg.Parallel, opts...)
	if err != nil {
		return err
	}
	defer pool.Close()

	for _, batch := range batches(sentences, cfg.Batch) {
		switch cmd {
		case conceptfinder.CommandExtract:
			results, err := pool.ExtractEach(ctx, texts(batch))
			if err != nil {
				return err
			}

			for i, concepts := range results {
				for _, concept := range concepts {
					fmt.Fprintf(out, "%d\t%s\t%d\n", batch[i].Line, concept.ID, concept.SpanLength)
				}
			}
		default:
			results, err := pool.EncodeEach(ctx, texts(batch))
			if err != nil {
				return err
			}

			for _, lines := range results {
				for _, line := range lines {
					fmt.Fprintln(out, line)
				}
			}
		}

		if err := out.Flush(); err != nil {
			return err
		}
	}

	return nil
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, `conceptfinder %s

Annotates sentences with concepts using the concept finder engine.

Usage:
  conceptfinder [options] extract [FILE]     Print concept_id<TAB>span per concept
  conceptfinder [options] encode [FILE]      Print the engine's encoding lines
  conceptfinder stub-engine                  Serve the echo test engine on stdin/stdout

Sentences are read one per line from FILE or stdin; blank lines are skipped.
With --parallel, extract output is prefixed with the input line number.

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(w, `
Examples:
  conceptfinder -d ./conceptfinder extract notes.txt
  conceptfinder --command ./engine/conceptfinder --arg= -p 4 extract notes.txt
  conceptfinder -c conceptfinder.toml -vv encode < notes.txt
`)
}
