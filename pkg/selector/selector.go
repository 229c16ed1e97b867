// Package selector picks one authoritative value among the conflicting
// candidates reported for a site attribute. Each attribute type has its own
// strategy and tie-break; all strategies are deterministic.
package selector

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/rfreconcile/pkg/logging"
	"github.com/agentstation/rfreconcile/pkg/sites"
)

// Selector chooses one value among candidates. ok is false when the
// attribute stays unresolved.
type Selector interface {
	// Name returns the strategy name
	Name() string

	// Select resolves the candidates of one station
	Select(stationID string, candidates []string) (value sites.Value, ok bool)
}

// NameResolver supplies a canonical site name from a reference source.
type NameResolver interface {
	ReferenceName(stationID string, candidates []string) (string, bool)
}

// Bounds is an inclusive numeric range.
type Bounds struct {
	Min float64
	Max float64
}

// Contains reports whether v lies within the bounds.
func (b Bounds) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Config parameterises the built-in selectors.
type Config struct {
	Latitude            Bounds
	Longitude           Bounds
	Height              Bounds
	CoordinateThreshold float64
	TypePriority        map[string]int
}

// Set holds one selector per site field.
type Set struct {
	selectors map[sites.Field]Selector
	logger    *zerolog.Logger
}

// Option configures a Set.
type Option func(*Set)

// WithLogger sets the logger used for unresolved attributes.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Set) {
		s.logger = logger
	}
}

// WithSelector overrides the selector of one field.
func WithSelector(f sites.Field, sel Selector) Option {
	return func(s *Set) {
		s.selectors[f] = sel
	}
}

// New builds the default selector set. names may be nil.
func New(cfg Config, names NameResolver, opts ...Option) *Set {
	s := &Set{
		selectors: make(map[sites.Field]Selector, len(sites.SiteFields)),
		logger:    logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.Component(s.logger, "selector")

	defaults := map[sites.Field]Selector{
		sites.FieldLatitude:        &Coordinate{Field: sites.FieldLatitude, Bounds: cfg.Latitude, Threshold: cfg.CoordinateThreshold, logger: s.logger},
		sites.FieldLongitude:       &Coordinate{Field: sites.FieldLongitude, Bounds: cfg.Longitude, Threshold: cfg.CoordinateThreshold, logger: s.logger},
		sites.FieldStructureHeight: &Height{Bounds: cfg.Height, logger: s.logger},
		sites.FieldStructureOwner:  Owner{},
		sites.FieldStructureType:   StructureType{Priority: cfg.TypePriority},
		sites.FieldName:            Name{Resolver: names},
	}
	for f, sel := range defaults {
		if _, ok := s.selectors[f]; !ok {
			s.selectors[f] = sel
		}
	}
	return s
}

// For returns the selector of a field.
func (s *Set) For(f sites.Field) (Selector, bool) {
	sel, ok := s.selectors[f]
	return sel, ok
}

// Select resolves one field of a station.
func (s *Set) Select(f sites.Field, stationID string, candidates []string) (sites.Value, bool) {
	sel, ok := s.selectors[f]
	if !ok || len(candidates) == 0 {
		return sites.Value{}, false
	}
	return sel.Select(stationID, candidates)
}
