package reconcile

import (
	"fmt"
	"sort"
	"time"

	"github.com/agentstation/rfreconcile/pkg/sites"
)

// Source tags where a resolved value came from.
type Source string

// Provenance tags.
const (
	SourceAlgorithm Source = "algorithm"
	SourceTemplate  Source = "template"
)

// Correction records one overwrite of a station field in one sheet.
type Correction struct {
	StationID    string    `json:"station_id" yaml:"station_id"`
	Sheet        string    `json:"sheet_name" yaml:"sheet_name"`
	Parameter    string    `json:"parameter" yaml:"parameter"`
	OldValues    []string  `json:"old_values" yaml:"old_values"`
	NewValue     string    `json:"new_value" yaml:"new_value"`
	RowsAffected int       `json:"rows_affected" yaml:"rows_affected"`
	Timestamp    time.Time `json:"timestamp" yaml:"timestamp"`
	Source       Source    `json:"source" yaml:"source"`
	Method       string    `json:"method,omitempty" yaml:"method,omitempty"`
}

// ManualReviewEntry flags a site whose resolution needs a human decision.
type ManualReviewEntry struct {
	StationID     string
	Score         float64
	Details       map[sites.Field]float64
	Original      map[sites.Field][]string
	Proposed      map[sites.Field]sites.Value
	ExtendedCells []string
}

// ExtendedCellMark is a cell whose cell_type was rewritten.
type ExtendedCellMark struct {
	StationID string `json:"station_id" yaml:"station_id"`
	CellID    string `json:"cell_id" yaml:"cell_id"`
	Action    string `json:"action" yaml:"action"`
}

// SiteResult is the resolution of one anomalous site.
type SiteResult struct {
	StationID     string
	Technology    string
	Values        map[sites.Field]sites.Value
	Sources       map[sites.Field]Source
	Scores        map[sites.Field]float64
	Score         float64
	ExtendedCells []string
	Review        *ManualReviewEntry
}

// HasExtendedCells reports whether coordinate reconciliation is suppressed.
func (s *SiteResult) HasExtendedCells() bool {
	return len(s.ExtendedCells) > 0
}

func (s *SiteResult) set(f sites.Field, v sites.Value, src Source) {
	s.Values[f] = v
	s.Sources[f] = src
}

// Result is the outcome of a run.
type Result struct {
	Corrections   []Correction
	ManualReview  []ManualReviewEntry
	ExtendedCells []ExtendedCellMark

	Metadata ResultMetadata

	Errors   []error
	Warnings []string
}

// ResultMetadata describes a run.
type ResultMetadata struct {
	RunID     string
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Stats     ResultStatistics
}

// ResultStatistics counts what a run did.
type ResultStatistics struct {
	SitesProcessed int
	SitesFailed    int
	SitesSkipped   int
}

// ParameterStatistic aggregates corrections of one parameter.
type ParameterStatistic struct {
	Parameter        string `json:"parameter" yaml:"parameter"`
	StationsAffected int    `json:"stations_affected" yaml:"stations_affected"`
	RowsAffected     int    `json:"rows_affected" yaml:"rows_affected"`
}

// Summary holds the counts of the summary report sheet.
type Summary struct {
	TotalStations            int       `json:"total_stations" yaml:"total_stations"`
	TotalCorrections         int       `json:"total_corrections" yaml:"total_corrections"`
	TotalRowsAffected        int       `json:"total_rows_affected" yaml:"total_rows_affected"`
	CorrectionsFromTemplate  int       `json:"corrections_from_template" yaml:"corrections_from_template"`
	CorrectionsFromAlgorithm int       `json:"corrections_from_algorithm" yaml:"corrections_from_algorithm"`
	ExtendedCellsDetected    int       `json:"extended_cells_detected" yaml:"extended_cells_detected"`
	ManualReviewRequired     int       `json:"manual_review_required" yaml:"manual_review_required"`
	ExecutionTime            time.Time `json:"execution_time" yaml:"execution_time"`
	RunID                    string    `json:"run_id" yaml:"run_id"`
}

// NewResult creates a new result stamped with a run id and start time.
func NewResult(runID string, start time.Time) *Result {
	return &Result{
		Errors:   []error{},
		Warnings: []string{},
		Metadata: ResultMetadata{
			RunID:     runID,
			StartTime: start,
		},
	}
}

// Finalize calculates duration and marks completion.
func (r *Result) Finalize(end time.Time) {
	r.Metadata.EndTime = end
	r.Metadata.Duration = end.Sub(r.Metadata.StartTime)
}

// IsSuccess returns true if no site failed.
func (r *Result) IsSuccess() bool {
	return len(r.Errors) == 0
}

// Summary computes the summary counts.
func (r *Result) Summary() Summary {
	s := Summary{
		TotalCorrections:      len(r.Corrections),
		ExtendedCellsDetected: len(r.ExtendedCells),
		ManualReviewRequired:  len(r.ManualReview),
		ExecutionTime:         r.Metadata.EndTime,
		RunID:                 r.Metadata.RunID,
	}
	stations := make(map[string]bool)
	for _, c := range r.Corrections {
		stations[c.StationID] = true
		s.TotalRowsAffected += c.RowsAffected
		if c.Source == SourceTemplate {
			s.CorrectionsFromTemplate++
		} else {
			s.CorrectionsFromAlgorithm++
		}
	}
	s.TotalStations = len(stations)
	return s
}

// ParameterStatistics aggregates corrections per parameter, sorted by name.
func (r *Result) ParameterStatistics() []ParameterStatistic {
	type agg struct {
		stations map[string]bool
		rows     int
	}
	byParam := make(map[string]*agg)
	for _, c := range r.Corrections {
		a, ok := byParam[c.Parameter]
		if !ok {
			a = &agg{stations: make(map[string]bool)}
			byParam[c.Parameter] = a
		}
		a.stations[c.StationID] = true
		a.rows += c.RowsAffected
	}

	stats := make([]ParameterStatistic, 0, len(byParam))
	for p, a := range byParam {
		stats = append(stats, ParameterStatistic{Parameter: p, StationsAffected: len(a.stations), RowsAffected: a.rows})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Parameter < stats[j].Parameter })
	return stats
}

// String returns a one-line description of the result.
func (r *Result) String() string {
	s := r.Summary()
	return fmt.Sprintf("%d corrections on %d stations (%d rows), %d for manual review, %d extended cells, %d failed",
		s.TotalCorrections, s.TotalStations, s.TotalRowsAffected, s.ManualReviewRequired, s.ExtendedCellsDetected, r.Metadata.Stats.SitesFailed)
}
