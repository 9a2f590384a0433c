package app

import (
	"errors"
	"fmt"
	"time"
)

// Commands understood by App.Run.
const (
	CommandGenerate = "generate"
	CommandDescribe = "describe"
	CommandClasses  = "classes"
)

// ErrInvalidConfig is wrapped by every NewConfig validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Command string

	DBPath    string // database file or directory
	SessionID string
	AppID     string // empty means every enabled application
	OutDir    string // per-application output files; empty skips writing
	Workers   int    // applications generated concurrently; values below 1 mean 1

	PublishURL       string // socket.io endpoint; empty disables publishing
	PublishNamespace string
	PublishInsecure  bool
	PublishTimeout   time.Duration

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	switch cfg.Command {
	case CommandClasses:
		return &cfg, nil
	case CommandGenerate, CommandDescribe:
	default:
		return nil, fmt.Errorf("%w: unknown command %q", ErrInvalidConfig, cfg.Command)
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("%w: a database path is required", ErrInvalidConfig)
	}
	if cfg.SessionID == "" {
		return nil, fmt.Errorf("%w: a session id is required", ErrInvalidConfig)
	}
	if cfg.PublishURL != "" && cfg.Command != CommandGenerate {
		return nil, fmt.Errorf("%w: publishing is only supported by %s", ErrInvalidConfig, CommandGenerate)
	}
	return &cfg, nil
}
