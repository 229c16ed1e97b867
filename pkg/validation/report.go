package validation

import (
	"strconv"
	"strings"

	"github.com/agentstation/rfreconcile/pkg/sites"
	"github.com/agentstation/rfreconcile/pkg/workbook"
)

// Metric names.
const (
	MetricConsistentStations = "Consistent stations"
	MetricValidCoordinates   = "Valid coordinates"
	MetricValidStructure     = "Valid structure parameters"
)

// Report holds the three checks of one table.
type Report struct {
	Consistency []ConsistencyRecord
	Geographic  []GeographicRecord
	Structure   []StructureRecord
}

// ConsistentStations counts fully consistent stations.
func (r Report) ConsistentStations() int {
	n := 0
	for _, c := range r.Consistency {
		if c.AllConsistent {
			n++
		}
	}
	return n
}

// ValidCoordinates counts rows with valid coordinates.
func (r Report) ValidCoordinates() int {
	n := 0
	for _, g := range r.Geographic {
		if g.Valid() {
			n++
		}
	}
	return n
}

// ValidStructure counts rows with valid structure parameters.
func (r Report) ValidStructure() int {
	n := 0
	for _, s := range r.Structure {
		if s.Valid() {
			n++
		}
	}
	return n
}

// Metric is one before/after count.
type Metric struct {
	Name      string `json:"metric" yaml:"metric"`
	Original  int    `json:"original_count" yaml:"original_count"`
	Corrected int    `json:"corrected_count" yaml:"corrected_count"`
}

// Improvement returns corrected minus original.
func (m Metric) Improvement() int {
	return m.Corrected - m.Original
}

// Comparison is the before/after validation of a reconciliation run.
type Comparison struct {
	Metrics   []Metric
	Original  Report
	Corrected Report
}

// Validate runs every check on one table.
func (v *Validator) Validate(t *workbook.Table) Report {
	return Report{
		Consistency: v.Consistency(t),
		Geographic:  v.Geographic(t),
		Structure:   v.Structure(t),
	}
}

// Compare validates both tables and summarises the difference.
func (v *Validator) Compare(original, corrected *workbook.Table) Comparison {
	c := Comparison{
		Original:  v.Validate(original),
		Corrected: v.Validate(corrected),
	}
	c.Metrics = []Metric{
		{Name: MetricConsistentStations, Original: c.Original.ConsistentStations(), Corrected: c.Corrected.ConsistentStations()},
		{Name: MetricValidCoordinates, Original: c.Original.ValidCoordinates(), Corrected: c.Corrected.ValidCoordinates()},
		{Name: MetricValidStructure, Original: c.Original.ValidStructure(), Corrected: c.Corrected.ValidStructure()},
	}
	for _, m := range c.Metrics {
		v.logger.Info().
			Str("metric", m.Name).
			Int("original", m.Original).
			Int("corrected", m.Corrected).
			Int("improvement", m.Improvement()).
			Msg("Validation metric")
	}
	return c
}

// Sheets renders the comparison as the seven report sheets.
func (c Comparison) Sheets() []workbook.Sheet {
	summary := workbook.Sheet{
		Name:   "comparison_summary",
		Header: []string{"metric", "original_count", "corrected_count", "improvement"},
	}
	for _, m := range c.Metrics {
		summary.Rows = append(summary.Rows, []any{m.Name, m.Original, m.Corrected, m.Improvement()})
	}
	return []workbook.Sheet{
		summary,
		consistencySheet("original_consistency", c.Original.Consistency),
		consistencySheet("corrected_consistency", c.Corrected.Consistency),
		geographicSheet("original_geographic", c.Original.Geographic),
		geographicSheet("corrected_geographic", c.Corrected.Geographic),
		structureSheet("original_structure", c.Original.Structure),
		structureSheet("corrected_structure", c.Corrected.Structure),
	}
}

// WriteReport writes the validation report workbook.
func WriteReport(path string, c Comparison) error {
	return workbook.WriteSheets(path, c.Sheets()...)
}

func consistencySheet(name string, records []ConsistencyRecord) workbook.Sheet {
	header := []string{"station_id"}
	for _, f := range sites.SiteFields {
		header = append(header, f.String()+"_unique_count", f.String()+"_consistent")
	}
	header = append(header, "all_consistent", "total_sectors")

	s := workbook.Sheet{Name: name, Header: header}
	for _, r := range records {
		row := []any{r.StationID}
		for _, f := range r.Fields {
			if f.Present {
				row = append(row, f.UniqueCount, f.Consistent())
			} else {
				row = append(row, nil, nil)
			}
		}
		row = append(row, r.AllConsistent, r.TotalSectors)
		s.Rows = append(s.Rows, row)
	}
	return s
}

func geographicSheet(name string, records []GeographicRecord) workbook.Sheet {
	s := workbook.Sheet{
		Name:   name,
		Header: []string{"station_id", "latitude", "longitude", "latitude_valid", "longitude_valid", "coordinates_valid"},
	}
	for _, r := range records {
		s.Rows = append(s.Rows, []any{
			r.StationID, number(r.Latitude), number(r.Longitude),
			r.LatitudeValid, r.LongitudeValid, r.Valid(),
		})
	}
	return s
}

func structureSheet(name string, records []StructureRecord) workbook.Sheet {
	s := workbook.Sheet{
		Name: name,
		Header: []string{
			"station_id", "structure_height", "structure_type", "structure_owner",
			"height_valid", "type_valid", "owner_valid", "all_structure_params_valid",
		},
	}
	for _, r := range records {
		s.Rows = append(s.Rows, []any{
			r.StationID, number(r.Height), r.Type, r.Owner,
			r.HeightValid, r.TypeValid, r.OwnerValid, r.Valid(),
		})
	}
	return s
}

func number(raw string) any {
	if n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		return n
	}
	return raw
}
