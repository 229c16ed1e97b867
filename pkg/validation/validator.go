// Package validation measures data quality of a physical-parameters table
// before and after reconciliation: cross-sector consistency per station,
// geographic validity of coordinates and validity of structure parameters.
package validation

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/rfreconcile/pkg/logging"
	"github.com/agentstation/rfreconcile/pkg/selector"
	"github.com/agentstation/rfreconcile/pkg/sites"
	"github.com/agentstation/rfreconcile/pkg/workbook"
)

// Config holds the validity bounds.
type Config struct {
	Latitude  selector.Bounds
	Longitude selector.Bounds
	Height    selector.Bounds
}

// Validator runs the quality checks.
type Validator struct {
	config Config
	logger *zerolog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the validator logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

// New returns a validator.
func New(cfg Config, opts ...Option) *Validator {
	v := &Validator{config: cfg}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = logging.Component(v.logger, "validation")
	return v
}

// FieldConsistency is the distinct-value count of one field for a station.
// Present is false when the table has no such column.
type FieldConsistency struct {
	Field       sites.Field
	UniqueCount int
	Present     bool
}

// Consistent reports whether every sector agrees on one non-blank value.
func (f FieldConsistency) Consistent() bool {
	return f.Present && f.UniqueCount == 1
}

// ConsistencyRecord is the consistency of one station.
type ConsistencyRecord struct {
	StationID     string
	Fields        []FieldConsistency
	AllConsistent bool
	TotalSectors  int
}

// GeographicRecord is the coordinate validity of one row.
type GeographicRecord struct {
	StationID      string
	Latitude       string
	Longitude      string
	LatitudeValid  bool
	LongitudeValid bool
}

// Valid reports whether both coordinates are valid.
func (g GeographicRecord) Valid() bool {
	return g.LatitudeValid && g.LongitudeValid
}

// StructureRecord is the structure-parameter validity of one row.
type StructureRecord struct {
	StationID   string
	Height      string
	Type        string
	Owner       string
	HeightValid bool
	TypeValid   bool
	OwnerValid  bool
}

// Valid reports whether every structure parameter is valid.
func (s StructureRecord) Valid() bool {
	return s.HeightValid && s.TypeValid && s.OwnerValid
}

// Consistency checks, per station, that all sectors carry one value for
// each site field. A missing column makes the station inconsistent.
func (v *Validator) Consistency(t *workbook.Table) []ConsistencyRecord {
	stations := t.Stations()
	records := make([]ConsistencyRecord, 0, len(stations))
	consistent := 0
	for _, id := range stations {
		rows := t.StationRows(id)
		rec := ConsistencyRecord{StationID: id, TotalSectors: len(rows), AllConsistent: true}
		for _, f := range sites.SiteFields {
			fc := FieldConsistency{Field: f, Present: t.HasField(f)}
			if fc.Present {
				fc.UniqueCount = nonBlankUnique(rows, f)
			}
			rec.AllConsistent = rec.AllConsistent && fc.Consistent()
			rec.Fields = append(rec.Fields, fc)
		}
		if rec.AllConsistent {
			consistent++
		}
		records = append(records, rec)
	}

	v.logger.Info().
		Int("consistent", consistent).
		Int("stations", len(records)).
		Float64("rate", rate(consistent, len(records))).
		Msg("Consistency validated")
	return records
}

// Geographic checks every row's coordinates against the geographic bounds.
func (v *Validator) Geographic(t *workbook.Table) []GeographicRecord {
	records := make([]GeographicRecord, 0, len(t.Rows))
	valid := 0
	for _, r := range t.Rows {
		rec := GeographicRecord{
			StationID: r.StationID(),
			Latitude:  r.Get(sites.FieldLatitude),
			Longitude: r.Get(sites.FieldLongitude),
		}
		rec.LatitudeValid = inBounds(rec.Latitude, v.config.Latitude)
		rec.LongitudeValid = inBounds(rec.Longitude, v.config.Longitude)
		if rec.Valid() {
			valid++
		}
		records = append(records, rec)
	}

	event := v.logger.Info()
	if valid < len(records) {
		event = v.logger.Warn().Int("invalid", len(records)-valid)
	}
	event.
		Int("valid", valid).
		Int("rows", len(records)).
		Float64("rate", rate(valid, len(records))).
		Msg("Geographic ranges validated")
	return records
}

// Structure checks height bounds and that type and owner are present.
func (v *Validator) Structure(t *workbook.Table) []StructureRecord {
	records := make([]StructureRecord, 0, len(t.Rows))
	valid := 0
	for _, r := range t.Rows {
		rec := StructureRecord{
			StationID: r.StationID(),
			Height:    r.Get(sites.FieldStructureHeight),
			Type:      r.Get(sites.FieldStructureType),
			Owner:     r.Get(sites.FieldStructureOwner),
		}
		rec.HeightValid = inBounds(rec.Height, v.config.Height)
		rec.TypeValid = !sites.IsBlank(rec.Type)
		rec.OwnerValid = strings.TrimSpace(rec.Owner) != ""
		if rec.Valid() {
			valid++
		}
		records = append(records, rec)
	}

	v.logger.Info().
		Int("valid", valid).
		Int("rows", len(records)).
		Float64("rate", rate(valid, len(records))).
		Msg("Structure parameters validated")
	return records
}

func nonBlankUnique(rows []*sites.Sector, f sites.Field) int {
	seen := make(map[string]bool)
	for _, r := range rows {
		if v := r.Get(f); strings.TrimSpace(v) != "" {
			seen[v] = true
		}
	}
	return len(seen)
}

func inBounds(raw string, b selector.Bounds) bool {
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	return err == nil && b.Contains(n)
}

func rate(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
