// Package app provides the application context and dependency management
// for the rfreconcile CLI. It centralizes configuration, logging and the
// lazily loaded reconciliation settings.
package app

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/rfreconcile/internal/config"
	"github.com/agentstation/rfreconcile/pkg/errors"
)

// App represents the rfreconcile application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	// Time source and console output
	now    func() time.Time
	stdout io.Writer
	stderr io.Writer

	// Settings (lazy-initialized, singleton)
	mu       sync.RWMutex
	settings *config.Settings
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		now:     time.Now,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}

	cfg, err := LoadConfig()
	if err != nil {
		return nil, errors.NewConfigError("app", "load config", err)
	}
	app.config = cfg

	logger := NewLogger(cfg, "")
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Settings returns the reconciliation settings, loading them on first use.
func (a *App) Settings() (*config.Settings, error) {
	a.mu.RLock()
	if a.settings != nil {
		s := a.settings
		a.mu.RUnlock()
		return s, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.settings != nil {
		return a.settings, nil
	}

	s, err := config.Load(a.config.SettingsFile)
	if err != nil {
		return nil, err
	}
	a.logger.Debug().Str("path", s.Path).Msg("Settings loaded")
	a.settings = s
	return s, nil
}

// teeLog switches the logger to also write into path.
func (a *App) teeLog(path string) {
	logger := NewLogger(a.config, path)
	a.logger = &logger
}

// Shutdown performs graceful shutdown of the application.
func (a *App) Shutdown(_ context.Context) error {
	a.logger.Debug().Msg("Shutdown")
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithSettings sets preloaded settings (useful for testing).
func WithSettings(s *config.Settings) Option {
	return func(a *App) error {
		a.settings = s
		return nil
	}
}

// WithClock sets the time source used for output names.
func WithClock(now func() time.Time) Option {
	return func(a *App) error {
		if now == nil {
			return &errors.ValidationError{Field: "clock", Message: "cannot be nil"}
		}
		a.now = now
		return nil
	}
}

// WithOutput sets the writer for command output.
func WithOutput(w io.Writer) Option {
	return func(a *App) error {
		if w == nil {
			return &errors.ValidationError{Field: "output", Message: "cannot be nil"}
		}
		a.stdout = w
		return nil
	}
}

// WithErrorOutput sets the writer for alerts.
func WithErrorOutput(w io.Writer) Option {
	return func(a *App) error {
		if w == nil {
			return &errors.ValidationError{Field: "error output", Message: "cannot be nil"}
		}
		a.stderr = w
		return nil
	}
}
