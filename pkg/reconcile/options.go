package reconcile

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentstation/rfreconcile/pkg/errors"
	"github.com/agentstation/rfreconcile/pkg/extended"
	"github.com/agentstation/rfreconcile/pkg/logging"
	"github.com/agentstation/rfreconcile/pkg/template"
)

type options struct {
	template *template.Manager
	detector *extended.Detector
	logger   *zerolog.Logger
	now      func() time.Time
	runID    string
}

func defaultOptions() *options {
	return &options{
		logger: logging.Default(),
		now:    time.Now,
		runID:  uuid.NewString(),
	}
}

// Option configures an Engine.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithTemplate enables template-based name resolution and backfill.
// A nil or empty manager leaves the template disabled.
func WithTemplate(m *template.Manager) Option {
	return func(o *options) error {
		o.template = m
		return nil
	}
}

// WithDetector enables extended cell detection.
func WithDetector(d *extended.Detector) Option {
	return func(o *options) error {
		o.detector = d
		return nil
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return &errors.ValidationError{Field: "logger", Message: "cannot be nil"}
		}
		o.logger = logger
		return nil
	}
}

// WithClock sets the time source for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return &errors.ValidationError{Field: "clock", Message: "cannot be nil"}
		}
		o.now = now
		return nil
	}
}

// WithRunID sets the identifier written into reports.
func WithRunID(id string) Option {
	return func(o *options) error {
		if id == "" {
			return &errors.ValidationError{Field: "run_id", Message: "cannot be empty"}
		}
		o.runID = id
		return nil
	}
}
