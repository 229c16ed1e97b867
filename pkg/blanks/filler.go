// Package blanks fills blank structure_owner, structure_type and tx_type
// cells of a workbook from the multi-source lookup and reports the blanks
// that remain.
package blanks

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/rfreconcile/pkg/constants"
	"github.com/agentstation/rfreconcile/pkg/logging"
	"github.com/agentstation/rfreconcile/pkg/lookup"
	"github.com/agentstation/rfreconcile/pkg/sites"
	"github.com/agentstation/rfreconcile/pkg/workbook"
)

// Stats counts blank cells by how they were resolved.
type Stats struct {
	TotalBlanks  int `json:"total_blanks_found" yaml:"total_blanks_found"`
	FromWorkbook int `json:"filled_from_same_site" yaml:"filled_from_same_site"`
	FromTemplate int `json:"filled_from_template" yaml:"filled_from_template"`
	FromBaseline int `json:"filled_from_physical" yaml:"filled_from_physical"`
	StillBlank   int `json:"still_blank" yaml:"still_blank"`
}

// Filled returns the number of cells filled.
func (s Stats) Filled() int {
	return s.FromWorkbook + s.FromTemplate + s.FromBaseline
}

// FillRate returns the filled percentage of blank cells.
func (s Stats) FillRate() float64 {
	if s.TotalBlanks == 0 {
		return 0
	}
	return float64(s.TotalBlanks-s.StillBlank) / float64(s.TotalBlanks) * 100
}

func (s *Stats) add(tier lookup.Tier, n int) {
	switch tier {
	case lookup.TierWorkbook:
		s.FromWorkbook += n
	case lookup.TierTemplate:
		s.FromTemplate += n
	case lookup.TierBaseline:
		s.FromBaseline += n
	default:
		s.StillBlank += n
	}
}

// Filler fills blanks in place.
type Filler struct {
	fields   []sites.Field
	template *workbook.Index
	baseline *workbook.Index
	cache    *lookup.Cache
	user     string
	now      func() time.Time
	logger   *zerolog.Logger
	stats    Stats
}

// Option configures a Filler.
type Option func(*Filler)

// WithTemplate sets the template tier.
func WithTemplate(idx *workbook.Index) Option {
	return func(f *Filler) { f.template = idx }
}

// WithBaseline sets the physical-parameters tier.
func WithBaseline(idx *workbook.Index) Option {
	return func(f *Filler) { f.baseline = idx }
}

// WithFields overrides the target fields.
func WithFields(fields ...sites.Field) Option {
	return func(f *Filler) {
		if len(fields) > 0 {
			f.fields = fields
		}
	}
}

// WithUser sets the user stamped into saved workbooks.
func WithUser(user string) Option {
	return func(f *Filler) {
		if user != "" {
			f.user = user
		}
	}
}

// WithClock sets the time source for metadata stamps.
func WithClock(now func() time.Time) Option {
	return func(f *Filler) {
		if now != nil {
			f.now = now
		}
	}
}

// WithLogger sets the filler logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(f *Filler) { f.logger = logger }
}

// New returns a filler for the default target fields.
func New(opts ...Option) *Filler {
	f := &Filler{
		fields: sites.FillableFields,
		cache:  lookup.NewCache(),
		user:   constants.BlankFillerUser,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = logging.Component(f.logger, "blanks")
	return f
}

// Stats returns the accumulated statistics.
func (f *Filler) Stats() Stats {
	return f.stats
}

// FillWorkbook fills blank target cells of every sheet and returns the
// statistics of this call.
func (f *Filler) FillWorkbook(wb *workbook.Workbook) Stats {
	look := lookup.New(wb,
		lookup.WithTemplate(f.template),
		lookup.WithBaseline(f.baseline),
		lookup.WithCache(f.cache),
		lookup.WithLogger(f.logger),
	)

	var stats Stats
	for _, t := range wb.Tables() {
		stats = merge(stats, f.fillTable(t, look))
	}
	f.stats = merge(f.stats, stats)

	f.logger.Info().
		Int("blanks", stats.TotalBlanks).
		Int("filled", stats.Filled()).
		Int("still_blank", stats.StillBlank).
		Msg("Blank fields processed")
	return stats
}

func (f *Filler) fillTable(t *workbook.Table, look *lookup.Lookup) Stats {
	var stats Stats
	log := f.logger.With().Str("sheet", t.Name).Logger()

	if !t.HasField(sites.FieldStationID) {
		log.Warn().Msg("Sheet has no station_id column, skipping")
		return stats
	}

	filled := 0
	for _, field := range f.fields {
		if !t.HasField(field) {
			continue
		}
		for _, station := range t.Stations() {
			var blank []*sites.Sector
			for _, r := range t.StationRows(station) {
				if sites.IsBlank(r.Get(field)) {
					blank = append(blank, r)
				}
			}
			if len(blank) == 0 {
				continue
			}

			stats.TotalBlanks += len(blank)
			res := look.Find(lookup.Key{StationID: station, Field: field})
			stats.add(res.Tier, len(blank))
			if !res.Found() {
				log.Warn().
					Str("station_id", station).
					Str("field", field.String()).
					Int("cells", len(blank)).
					Msg("No source for blank values")
				continue
			}

			for _, r := range blank {
				r.Set(field, res.Value)
			}
			filled += len(blank)
			log.Info().
				Str("station_id", station).
				Str("field", field.String()).
				Int("cells", len(blank)).
				Str("value", res.Value).
				Str("source", res.Tier.String()).
				Msg("Blank values filled")
		}
	}

	log.Info().Int("filled", filled).Msg("Sheet processed")
	return stats
}

// Process loads input, fills it, stamps metadata and writes output.
func (f *Filler) Process(input, output string) (Stats, error) {
	wb, err := workbook.Load(input)
	if err != nil {
		return Stats{}, err
	}
	f.logger.Info().Str("input", input).Strs("sheets", wb.SheetNames()).Msg("Filling blank fields")

	stats := f.FillWorkbook(wb)
	wb.Stamp(f.user, f.now())
	if err := workbook.Save(output, wb); err != nil {
		return stats, err
	}

	f.logger.Info().Str("output", output).Msg("Completed workbook saved")
	return stats, nil
}

func merge(a, b Stats) Stats {
	return Stats{
		TotalBlanks:  a.TotalBlanks + b.TotalBlanks,
		FromWorkbook: a.FromWorkbook + b.FromWorkbook,
		FromTemplate: a.FromTemplate + b.FromTemplate,
		FromBaseline: a.FromBaseline + b.FromBaseline,
		StillBlank:   a.StillBlank + b.StillBlank,
	}
}
