package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/appmodel/internal/appmodel"
	"github.com/vk/appmodel/internal/confdb"
	"github.com/vk/appmodel/internal/config"
	"github.com/vk/appmodel/internal/ctxlog"
	"github.com/vk/appmodel/internal/publish"
)

// Publisher announces generated modules.
type Publisher interface {
	Publish(ctx context.Context, a publish.Announcement) error
	Close() error
}

// Dialer opens a Publisher.
type Dialer func(ctx context.Context, opts publish.Options) (Publisher, error)

func dialSocketIO(ctx context.Context, opts publish.Options) (Publisher, error) {
	return publish.Dial(ctx, opts)
}

// Option customises an App.
type Option func(*App)

// WithFactory replaces the default generator factory.
func WithFactory(f *appmodel.Factory) Option {
	return func(a *App) { a.factory = f }
}

// WithDialer replaces the socket.io dialer used for publishing.
func WithDialer(d Dialer) Option {
	return func(a *App) { a.dial = d }
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	factory *appmodel.Factory
	dial    Dialer
	db      *confdb.Configuration
}

// NewApp is the constructor for the main application. Output goes to outW and
// logs to logW. The database, when the command needs one, is read through
// loader.
func NewApp(outW, logW io.Writer, cfg *Config, loader config.Loader, opts ...Option) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	a := &App{
		outW:    outW,
		logger:  logger,
		config:  cfg,
		factory: appmodel.DefaultFactory(),
		dial:    dialSocketIO,
	}
	for _, opt := range opts {
		opt(a)
	}

	if cfg.Command == CommandClasses {
		return a, nil
	}

	model, err := loader.Load(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load database: %w", err)
	}
	logger.Debug("Database loaded.", "files", len(model.Files), "objects", len(model.Objects))

	db, err := confdb.New(ctx, model, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to build database: %w", err)
	}
	a.db = db
	return a, nil
}

// Run executes the configured command.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "command", a.config.Command)

	switch a.config.Command {
	case CommandClasses:
		for _, class := range a.factory.Classes() {
			fmt.Fprintln(a.outW, class)
		}
		return nil
	case CommandDescribe:
		return a.describe(ctx)
	case CommandGenerate:
		return a.generate(ctx)
	}
	return fmt.Errorf("%w: unknown command %q", ErrInvalidConfig, a.config.Command)
}
