package selector

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"github.com/agentstation/rfreconcile/pkg/constants"
	"github.com/agentstation/rfreconcile/pkg/errors"
	"github.com/agentstation/rfreconcile/pkg/sites"
)

// parseFloats converts every non-empty candidate. A single bad element
// fails the whole list.
func parseFloats(candidates []string) ([]float64, error) {
	out := make([]float64, 0, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return nil, errors.NewParseError("float", "", strconv.Quote(c), err)
		}
		out = append(out, v)
	}
	return out, nil
}

func within(values []float64, b Bounds) []float64 {
	var out []float64
	for _, v := range values {
		if b.Contains(v) {
			out = append(out, v)
		}
	}
	return out
}

// Median returns the middle value, averaging the two middle values of an
// even-length input. stat.Quantile with stat.Empirical returns the lower
// middle order statistic instead, so it cannot be used here.
func Median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Round rounds half to even at the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.RoundToEven(v*p) / p
}

// Coordinate resolves latitude or longitude to the median in-bounds value.
type Coordinate struct {
	Field     sites.Field
	Bounds    Bounds
	Threshold float64

	logger *zerolog.Logger
}

// Name returns the strategy name.
func (c *Coordinate) Name() string { return "median" }

// Select implements Selector.
func (c *Coordinate) Select(stationID string, candidates []string) (sites.Value, bool) {
	values, err := parseFloats(candidates)
	if err != nil {
		warn(c.logger, stationID, c.Field, err, "invalid coordinate values")
		return sites.Value{}, false
	}
	valid := within(values, c.Bounds)
	if len(valid) == 0 {
		warn(c.logger, stationID, c.Field, nil, "no coordinate within geographic bounds")
		return sites.Value{}, false
	}

	// The spread is only reported; tight and loose clusters both resolve to the median.
	if c.logger != nil && floats.Max(valid)-floats.Min(valid) >= c.Threshold {
		c.logger.Debug().
			Str("station_id", stationID).
			Str("field", c.Field.String()).
			Float64("spread", floats.Max(valid)-floats.Min(valid)).
			Msg("Coordinate candidates exceed closeness threshold")
	}
	return sites.Number(Round(Median(valid), constants.CoordinatePrecision)), true
}

// Height resolves structure_height to the tallest in-bounds value.
type Height struct {
	Bounds Bounds

	logger *zerolog.Logger
}

// Name returns the strategy name.
func (h *Height) Name() string { return "max" }

// Select implements Selector.
func (h *Height) Select(stationID string, candidates []string) (sites.Value, bool) {
	values, err := parseFloats(candidates)
	if err != nil {
		warn(h.logger, stationID, sites.FieldStructureHeight, err, "invalid height values")
		return sites.Value{}, false
	}
	valid := within(values, h.Bounds)
	if len(valid) == 0 {
		warn(h.logger, stationID, sites.FieldStructureHeight, nil, "no height within bounds")
		return sites.Value{}, false
	}
	return sites.Number(floats.Max(valid)), true
}

func warn(logger *zerolog.Logger, stationID string, f sites.Field, err error, msg string) {
	if logger == nil {
		return
	}
	logger.Warn().
		Err(err).
		Str("station_id", stationID).
		Str("field", f.String()).
		Msg(msg)
}
