// Package template wraps the optional reference template: a workbook of
// known-correct station values used for canonical names and for
// backfilling attributes that stay blank after reconciliation.
package template

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/rfreconcile/pkg/constants"
	"github.com/agentstation/rfreconcile/pkg/errors"
	"github.com/agentstation/rfreconcile/pkg/logging"
	"github.com/agentstation/rfreconcile/pkg/sites"
	"github.com/agentstation/rfreconcile/pkg/workbook"
)

// Config controls name matching.
type Config struct {
	UseFuzzyMatching    bool
	SimilarityThreshold float64
}

// DefaultConfig enables fuzzy matching at the default threshold.
func DefaultConfig() Config {
	return Config{UseFuzzyMatching: true, SimilarityThreshold: constants.DefaultSimilarityThreshold}
}

// Manager answers reference queries against the template.
type Manager struct {
	config Config
	index  *workbook.Index
	logger *zerolog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// Load reads every sheet of a template workbook. A template without a
// station_id column is rejected.
func Load(path string, cfg Config, opts ...Option) (*Manager, error) {
	wb, err := workbook.Load(path)
	if err != nil {
		return nil, err
	}
	return New(wb, cfg, opts...)
}

// New builds a manager over the consolidated sheets of wb.
func New(wb *workbook.Workbook, cfg Config, opts ...Option) (*Manager, error) {
	m := &Manager{config: cfg}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.Component(m.logger, "template")

	all := wb.Consolidated()
	if !all.HasField(sites.FieldStationID) {
		return nil, errors.NewMissingColumnsError("template", []string{sites.FieldStationID.String()})
	}
	m.index = workbook.NewIndex(all)

	m.logger.Info().
		Int("rows", len(all.Rows)).
		Int("stations", m.index.Len()).
		Msg("Template loaded")
	return m, nil
}

// Available reports whether the template holds any station.
func (m *Manager) Available() bool {
	return m != nil && m.index != nil && m.index.Len() > 0
}

// Stations returns the number of stations in the template.
func (m *Manager) Stations() int {
	if m == nil || m.index == nil {
		return 0
	}
	return m.index.Len()
}

// Index exposes the station index for lookup tiers.
func (m *Manager) Index() *workbook.Index {
	if m == nil {
		return nil
	}
	return m.index
}

// Rows returns the template rows of a station.
func (m *Manager) Rows(stationID string) []*sites.Sector {
	if !m.Available() {
		return nil
	}
	return m.index.Rows(stationID)
}

// ReferenceName picks a name for a station. It returns false when the
// template has no name for it. An exact candidate match wins; otherwise the
// most similar candidate is used when it reaches the threshold, and the
// template's own name when none does.
func (m *Manager) ReferenceName(stationID string, candidates []string) (string, bool) {
	if !m.Available() {
		return "", false
	}
	rows := m.Rows(stationID)
	if len(rows) == 0 {
		m.logger.Debug().Str("station_id", stationID).Msg("Station not in template")
		return "", false
	}
	if !m.index.HasField(sites.FieldName) {
		m.logger.Warn().Str("station_id", stationID).Msg("Template has no name column")
		return "", false
	}

	names := workbook.Distinct(rows, sites.FieldName)
	reference := ""
	for _, n := range names {
		if n != "" {
			reference = n
			break
		}
	}
	if reference == "" {
		return "", false
	}
	if len(candidates) == 0 {
		return reference, true
	}

	for _, c := range candidates {
		if c == reference {
			m.logger.Info().Str("station_id", stationID).Str("name", reference).Msg("Template name matched exactly")
			return reference, true
		}
	}

	if m.config.UseFuzzyMatching {
		best, bestScore := "", 0.0
		for _, c := range candidates {
			if s := Similarity(reference, c); s > bestScore {
				best, bestScore = c, s
			}
		}
		if bestScore >= m.config.SimilarityThreshold && best != "" {
			m.logger.Info().
				Str("station_id", stationID).
				Str("name", best).
				Str("template_name", reference).
				Float64("similarity", bestScore).
				Msg("Similar candidate name found")
			return best, true
		}
		m.logger.Warn().
			Str("station_id", stationID).
			Str("best", best).
			Float64("similarity", bestScore).
			Msg("No candidate name similar to template")
	}

	m.logger.Info().Str("station_id", stationID).Str("name", reference).Msg("Using template name")
	return reference, true
}

// ReferenceValue returns the most frequent non-blank template value of a
// field for a station.
func (m *Manager) ReferenceValue(stationID string, f sites.Field) (string, bool) {
	if !m.Available() {
		return "", false
	}
	return m.index.MostFrequent(stationID, f)
}

// FillMissing completes blank fillable fields of values from the template.
// It returns the fields it filled.
func (m *Manager) FillMissing(stationID string, values map[sites.Field]sites.Value) []sites.Field {
	if !m.Available() || len(m.Rows(stationID)) == 0 {
		return nil
	}

	var filled []sites.Field
	for _, f := range sites.FillableFields {
		if cur, ok := values[f]; ok && !sites.IsBlank(cur.String()) {
			continue
		}
		v, ok := m.ReferenceValue(stationID, f)
		if !ok {
			continue
		}
		values[f] = sites.ValueFor(f, v)
		filled = append(filled, f)
		m.logger.Info().
			Str("station_id", stationID).
			Str("field", f.String()).
			Str("value", v).
			Msg("Parameter filled from template")
	}
	return filled
}
