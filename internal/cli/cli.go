package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/sentgrid/internal/app"
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

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("sentgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
sentgrid - A bounded, sampling sentence generator for expansion grammars.

Usage:
  sentgrid [options] [GRAMMAR_PATH]

Arguments:
  GRAMMAR_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	grammarFlag := flagSet.String("grammar", "", "Path to the grammar file or directory.")
	gFlag := flagSet.String("g", "", "Path to the grammar file or directory (shorthand).")
	contextsFlag := flagSet.String("contexts", "", "Path to a YAML file with context inputs and constants.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	seedFlag := flagSet.Uint64("seed", 0, "Random seed. 0 uses the grammar's seed.")
	maxDepthFlag := flagSet.Int("max-depth", 0, "Maximum derivation depth. 0 uses the grammar's value.")
	targetSizeFlag := flagSet.Int("target-size", 0, "Target pruning size per chart cell. 0 uses the grammar's value.")
	iterationsFlag := flagSet.Int("iterations", 1, "Number of generation passes.")
	shardsFlag := flagSet.Int("shards", 1, "Number of concurrent generators the context inputs are split over.")
	oneFlag := flagSet.Bool("one", false, "Generate a single derivation per context input.")
	outputFlag := flagSet.String("output", "", "Write derivations to this file instead of stdout.")
	metricsFlag := flagSet.String("metrics-out", "", "Write Prometheus metrics in text format to this file.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, usageError("%s", err)
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	switch {
	case *grammarFlag != "":
		path = *grammarFlag
	case *gFlag != "":
		path = *gFlag
	case flagSet.NArg() > 0:
		path = flagSet.Arg(0)
	}
	slog.Debug("Grammar path determined.", "path", path)

	if path == "" {
		slog.Debug("No grammar path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, usageError("invalid log-format: must be 'text' or 'json'")
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		GrammarPath:  path,
		ContextsPath: *contextsFlag,
		OutputPath:   *outputFlag,
		MetricsPath:  *metricsFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
		Seed:         *seedFlag,
		MaxDepth:     *maxDepthFlag,
		TargetSize:   *targetSizeFlag,
		Iterations:   *iterationsFlag,
		Shards:       *shardsFlag,
		One:          *oneFlag,
	})
	if err != nil {
		return nil, false, usageError("%s", err)
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
