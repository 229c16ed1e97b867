// Package lookup searches for a value of a station field across the
// working workbook, the reference template and the physical-parameters
// baseline, in that order, and memoizes what it finds.
package lookup

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/rfreconcile/pkg/logging"
	"github.com/agentstation/rfreconcile/pkg/sites"
	"github.com/agentstation/rfreconcile/pkg/workbook"
)

// Tier is the source a value was found in.
type Tier int

// Lookup tiers in search order.
const (
	TierNone Tier = iota
	TierWorkbook
	TierTemplate
	TierBaseline
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierWorkbook:
		return "workbook"
	case TierTemplate:
		return "template"
	case TierBaseline:
		return "baseline"
	default:
		return "none"
	}
}

// Result is the outcome of a lookup.
type Result struct {
	Value string
	Tier  Tier
	Sheet string
}

// NotFound is the result of a lookup that found nothing.
var NotFound = Result{}

// Found reports whether the lookup produced a value.
func (r Result) Found() bool {
	return r.Tier != TierNone
}

// Lookup searches the configured sources.
type Lookup struct {
	working  *workbook.Workbook
	template *workbook.Index
	baseline *workbook.Index
	cache    *Cache
	logger   *zerolog.Logger
}

// Option configures a Lookup.
type Option func(*Lookup)

// WithTemplate sets the template tier.
func WithTemplate(idx *workbook.Index) Option {
	return func(l *Lookup) {
		l.template = idx
	}
}

// WithBaseline sets the baseline tier.
func WithBaseline(idx *workbook.Index) Option {
	return func(l *Lookup) {
		l.baseline = idx
	}
}

// WithCache replaces the private cache.
func WithCache(c *Cache) Option {
	return func(l *Lookup) {
		if c != nil {
			l.cache = c
		}
	}
}

// WithLogger sets the lookup logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(l *Lookup) {
		l.logger = logger
	}
}

// New returns a lookup over a working workbook.
func New(working *workbook.Workbook, opts ...Option) *Lookup {
	l := &Lookup{working: working, cache: NewCache()}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = logging.Component(l.logger, "lookup")
	return l
}

// Cache returns the lookup cache.
func (l *Lookup) Cache() *Cache {
	return l.cache
}

// Find returns the memoized multi-tier value of a station field.
func (l *Lookup) Find(key Key) Result {
	if r, ok := l.cache.Get(key); ok {
		return r
	}
	r := l.search(key, "")
	l.cache.Put(key, r)
	return r
}

// Complete searches without memoization, preferring within the workbook
// tier the sheets whose name matches technology.
func (l *Lookup) Complete(key Key, technology string) Result {
	return l.search(key, technology)
}

func (l *Lookup) search(key Key, technology string) Result {
	if r, ok := l.fromWorkbook(key, technology); ok {
		return r
	}
	for _, tier := range []struct {
		idx  *workbook.Index
		tier Tier
	}{
		{l.template, TierTemplate},
		{l.baseline, TierBaseline},
	} {
		if tier.idx == nil {
			continue
		}
		if v, ok := tier.idx.MostFrequent(key.StationID, key.Field); ok {
			return Result{Value: v, Tier: tier.tier}
		}
	}

	l.logger.Debug().
		Str("station_id", key.StationID).
		Str("field", key.Field.String()).
		Msg("No value found in any source")
	return NotFound
}

func (l *Lookup) fromWorkbook(key Key, technology string) (Result, bool) {
	if l.working == nil {
		return NotFound, false
	}

	var preferred, others []*workbook.Table
	for _, t := range l.working.Tables() {
		if !t.HasField(key.Field) {
			continue
		}
		if technology != "" && strings.EqualFold(t.Name, technology) {
			preferred = append(preferred, t)
		} else {
			others = append(others, t)
		}
	}

	for _, group := range [][]*workbook.Table{preferred, others} {
		var values, sheets []string
		for _, t := range group {
			for _, r := range t.StationRows(key.StationID) {
				if v := r.Get(key.Field); !sites.IsBlank(v) {
					values = append(values, v)
					sheets = append(sheets, t.Name)
				}
			}
		}
		best, ok := sites.MostFrequent(values)
		if !ok {
			continue
		}
		sheet := ""
		for i, v := range values {
			if v == best {
				sheet = sheets[i]
				break
			}
		}
		return Result{Value: best, Tier: TierWorkbook, Sheet: sheet}, true
	}
	return NotFound, false
}
