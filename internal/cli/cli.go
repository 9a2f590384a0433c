package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/vk/appmodel/internal/app"
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

const usageText = `
appmodel - generates the DAQ modules of the applications in a session.

Usage:
  appmodel <command> [options] [DB_PATH]

Commands:
  generate   Generate modules and print them, optionally writing and publishing them.
  describe   Generate modules and print every attribute and relationship.
  classes    List the application classes that have a generator.

Arguments:
  DB_PATH
    Path to the database entry file, or a directory of .hcl files.

Options:
`

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("appmodel", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, usageText)
		flagSet.PrintDefaults()
	}

	settingsFlag := flagSet.String("config", "", "Path to a TOML settings file. Flags override its values.")
	dbFlag := flagSet.String("db", "", "Path to the database entry file or directory.")
	sessionFlag := flagSet.String("session", "", "Id of the session to generate for.")
	appFlag := flagSet.String("app", "", "Id of a single application. Empty means every enabled application.")
	outFlag := flagSet.String("out", "", "Directory to write one <app>.data.hcl file per application into.")
	publishURLFlag := flagSet.String("publish-url", "", "socket.io endpoint to announce generated modules to.")
	publishNSFlag := flagSet.String("publish-namespace", "/", "socket.io namespace for announcements.")
	publishInsecureFlag := flagSet.Bool("publish-insecure", false, "Skip TLS certificate verification when publishing.")
	publishTimeoutFlag := flagSet.Duration("publish-timeout", 15*time.Second, "How long to wait for the socket.io connection.")
	workersFlag := flagSet.Int("workers", 4, "Number of applications generated concurrently.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if len(args) == 0 {
		flagSet.Usage()
		return nil, true, nil
	}
	command := args[0]
	switch command {
	case "-h", "-help", "--help", "help":
		flagSet.Usage()
		return nil, true, nil
	case app.CommandGenerate, app.CommandDescribe, app.CommandClasses:
	default:
		flagSet.Usage()
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q", command)}
	}

	if err := flagSet.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.", "command", command)

	cfg := app.Config{
		Command:          command,
		PublishNamespace: *publishNSFlag,
		PublishTimeout:   *publishTimeoutFlag,
		Workers:          *workersFlag,
		LogFormat:        *logFormatFlag,
		LogLevel:         *logLevelFlag,
	}
	if *settingsFlag != "" {
		if err := loadSettings(*settingsFlag, &cfg); err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
	}

	// Explicit flags win over the settings file.
	flagSet.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db":
			cfg.DBPath = *dbFlag
		case "session":
			cfg.SessionID = *sessionFlag
		case "app":
			cfg.AppID = *appFlag
		case "out":
			cfg.OutDir = *outFlag
		case "publish-url":
			cfg.PublishURL = *publishURLFlag
		case "publish-namespace":
			cfg.PublishNamespace = *publishNSFlag
		case "publish-insecure":
			cfg.PublishInsecure = *publishInsecureFlag
		case "publish-timeout":
			cfg.PublishTimeout = *publishTimeoutFlag
		case "workers":
			cfg.Workers = *workersFlag
		case "log-format":
			cfg.LogFormat = *logFormatFlag
		case "log-level":
			cfg.LogLevel = *logLevelFlag
		}
	})
	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unexpected arguments: %s", strings.Join(flagSet.Args()[1:], " "))}
	}
	if flagSet.NArg() == 1 {
		cfg.DBPath = flagSet.Arg(0)
	}
	slog.Debug("Database path determined.", "path", cfg.DBPath)

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
