package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/buildgrid/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// goalList collects repeated -goal flags; each value may also be a comma
// separated list.
type goalList []string

func (g *goalList) String() string { return strings.Join(*g, ",") }

func (g *goalList) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*g = append(*g, part)
		}
	}
	return nil
}

// Parse processes command-line arguments. It returns a validated Config, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("buildgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
buildgrid - A declarative, concurrency-first build engine.

Usage:
  buildgrid [options] TARGET...

Arguments:
  TARGET
    Address of a root target, e.g. src/app:app or src/app.

Options:
`)
		flagSet.PrintDefaults()
	}

	var goals goalList
	flagSet.Var(&goals, "goal", "Goal name or product kind to build. Repeatable.")
	rootFlag := flagSet.String("root", "", "Directory declaration namespaces are resolved against.")
	rFlag := flagSet.String("r", "", "Declaration root (shorthand).")
	configFlag := flagSet.String("config", "", "Path to a YAML config file.")
	envFileFlag := flagSet.String("env-file", app.DefaultEnvFile, "Path to an optional .env file.")
	workersFlag := flagSet.Int("workers", 0, "Number of concurrent workers. 1 runs serially.")
	failFastFlag := flagSet.Bool("fail-fast", false, "Cancel outstanding work after the first failure.")
	logFormatFlag := flagSet.String("log-format", "", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	set := make(map[string]bool)
	flagSet.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg := app.DefaultConfig()
	if *configFlag != "" {
		if err := app.LoadFile(*configFlag, &cfg); err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
	}
	if err := app.LoadEnv(&cfg, *envFileFlag); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	switch {
	case *rootFlag != "":
		cfg.Root = *rootFlag
	case *rFlag != "":
		cfg.Root = *rFlag
	}
	if len(goals) > 0 {
		cfg.Goals = goals
	}
	if flagSet.NArg() > 0 {
		cfg.Targets = flagSet.Args()
	}
	if set["workers"] {
		cfg.Workers = *workersFlag
	}
	if set["fail-fast"] {
		cfg.FailFast = *failFastFlag
	}
	if *logFormatFlag != "" {
		cfg.LogFormat = strings.ToLower(*logFormatFlag)
	}
	if *logLevelFlag != "" {
		cfg.LogLevel = strings.ToLower(*logLevelFlag)
	}

	if len(cfg.Targets) == 0 {
		slog.Debug("No targets provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "root", config.Root, "goals", config.Goals, "targets", config.Targets)
	return config, false, nil
}
