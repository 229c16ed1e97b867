// Package extended detects extended cells: sectors that belong to a site
// but stand at a different physical location. A sector qualifies only when
// its cell id follows the <station_id>R<n> nomenclature and it lies farther
// than the distance threshold from the site's main location.
package extended

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"github.com/agentstation/rfreconcile/pkg/constants"
	"github.com/agentstation/rfreconcile/pkg/logging"
	"github.com/agentstation/rfreconcile/pkg/sites"
	"github.com/agentstation/rfreconcile/pkg/workbook"
)

// requiredFields must exist for detection to run.
var requiredFields = []sites.Field{
	sites.FieldStationCellID,
	sites.FieldLatitude,
	sites.FieldLongitude,
}

// Detector finds extended cells of a site.
type Detector struct {
	threshold float64
	logger    *zerolog.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithThreshold sets the distance threshold in degrees.
func WithThreshold(degrees float64) Option {
	return func(d *Detector) {
		if degrees > 0 {
			d.threshold = degrees
		}
	}
}

// WithLogger sets the detector logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(d *Detector) {
		d.logger = logger
	}
}

// New returns a detector using the default threshold unless overridden.
func New(opts ...Option) *Detector {
	d := &Detector{threshold: constants.DefaultExtendedCellDistance}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.Component(d.logger, "extended")
	d.logger.Info().
		Float64("threshold_deg", d.threshold).
		Float64("threshold_km", d.threshold*constants.KilometersPerDegree).
		Msg("Extended cell detector initialized")
	return d
}

// Threshold returns the distance threshold in degrees.
func (d *Detector) Threshold() float64 {
	return d.threshold
}

// FollowsNomenclature reports whether cellID is <stationID>R<digits>,
// ignoring case.
func FollowsNomenclature(stationID, cellID string) bool {
	if stationID == "" || cellID == "" {
		return false
	}
	pattern := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(stationID) + `R\d+$`)
	return pattern.MatchString(cellID)
}

// Distance returns the flat-plane distance in degrees between two points.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	return floats.Distance([]float64{lat1, lon1}, []float64{lat2, lon2}, 2)
}

type location struct {
	lat, lon float64
}

func coordinates(s *sites.Sector) (location, bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(s.Get(sites.FieldLatitude)), 64)
	if err != nil {
		return location{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(s.Get(sites.FieldLongitude)), 64)
	if err != nil {
		return location{}, false
	}
	return location{lat: lat, lon: lon}, true
}

// mainLocation groups sectors by exact coordinates and returns the most
// populated location. Ties go to the lowest (lat, lon). groups is the
// number of distinct locations.
func mainLocation(sectors []*sites.Sector) (main location, groups int) {
	counts := make(map[location]int)
	for _, s := range sectors {
		if loc, ok := coordinates(s); ok {
			counts[loc]++
		}
	}

	keys := make([]location, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].lat != keys[j].lat {
			return keys[i].lat < keys[j].lat
		}
		return keys[i].lon < keys[j].lon
	})

	for i, k := range keys {
		if i == 0 || counts[k] > counts[main] {
			main = k
		}
	}
	return main, len(keys)
}

// Detect inspects every sector of a station across the workbook.
func (d *Detector) Detect(stationID string, wb *workbook.Workbook) []string {
	var (
		sectors []*sites.Sector
		present = make(map[sites.Field]bool)
	)
	for _, t := range wb.Tables() {
		rows := t.StationRows(stationID)
		if len(rows) == 0 {
			continue
		}
		sectors = append(sectors, rows...)
		for _, f := range requiredFields {
			if t.HasField(f) {
				present[f] = true
			}
		}
	}
	if len(sectors) == 0 {
		return nil
	}

	var missing []string
	for _, f := range requiredFields {
		if !present[f] {
			missing = append(missing, f.String())
		}
	}
	if len(missing) > 0 {
		d.logger.Warn().
			Str("station_id", stationID).
			Strs("missing", missing).
			Msg("Missing columns for extended cell detection")
		return nil
	}

	return d.DetectSectors(stationID, sectors)
}

// DetectSectors returns the ids of extended cells among a station's
// sectors, in first-seen order without duplicates.
func (d *Detector) DetectSectors(stationID string, sectors []*sites.Sector) []string {
	main, groups := mainLocation(sectors)
	if groups <= 1 {
		d.logger.Debug().Str("station_id", stationID).Msg("Single location, no extended cells")
		return nil
	}

	var (
		cells []string
		seen  = make(map[string]bool)
	)
	for _, s := range sectors {
		cellID := s.CellID()
		if !FollowsNomenclature(stationID, cellID) || seen[cellID] {
			continue
		}
		loc, ok := coordinates(s)
		if !ok {
			d.logger.Warn().Str("cell_id", cellID).Msg("Cannot compute distance for sector")
			continue
		}

		dist := Distance(main.lat, main.lon, loc.lat, loc.lon)
		if dist <= d.threshold {
			d.logger.Debug().
				Str("cell_id", cellID).
				Float64("distance_deg", dist).
				Msg("Sector follows nomenclature but is near the main location")
			continue
		}

		seen[cellID] = true
		cells = append(cells, cellID)
		d.logger.Info().
			Str("station_id", stationID).
			Str("cell_id", cellID).
			Float64("distance_deg", dist).
			Float64("distance_km", dist*constants.KilometersPerDegree).
			Msg("Extended cell detected")
	}
	return cells
}

// Mark rewrites cell_type to the extended cell marker for the given cell
// ids in every sheet that has both cell_type and station_cell_id. It
// returns the number of rows changed.
func (d *Detector) Mark(wb *workbook.Workbook, cellIDs []string) int {
	if len(cellIDs) == 0 {
		return 0
	}
	ids := make(map[string]bool, len(cellIDs))
	for _, id := range cellIDs {
		ids[id] = true
	}

	marked := 0
	for _, t := range wb.Tables() {
		if !t.HasField(sites.FieldCellType) || !t.HasField(sites.FieldStationCellID) {
			continue
		}
		for _, r := range t.Rows {
			if ids[r.CellID()] {
				r.Set(sites.FieldCellType, constants.ExtendedCellMarker)
				marked++
			}
		}
	}

	if marked == 0 {
		d.logger.Warn().Int("cells", len(cellIDs)).Msg("No extended cell found to mark")
	} else {
		d.logger.Info().Int("rows", marked).Msg("Sectors marked as extended cell")
	}
	return marked
}
