package reconcile

import (
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/rfreconcile/pkg/constants"
	"github.com/agentstation/rfreconcile/pkg/sites"
	"github.com/agentstation/rfreconcile/pkg/workbook"
)

// Report sheet names.
const (
	SheetSummary      = "summary"
	SheetCorrections  = "detailed_corrections"
	SheetManualReview = "manual_review_required"
	SheetParameters   = "parameter_statistics"
	SheetExtended     = "extended_cells"
)

// ReportSheets renders the result as report sheets. Every sheet is present
// with its header even when it has no rows.
func (r *Result) ReportSheets() []workbook.Sheet {
	s := r.Summary()
	summary := workbook.Sheet{
		Name: SheetSummary,
		Header: []string{
			"total_stations", "total_corrections", "total_rows_affected",
			"corrections_from_template", "corrections_from_algorithm",
			"extended_cells_detected", "manual_review_required", "execution_time", "run_id",
		},
		Rows: [][]any{{
			s.TotalStations, s.TotalCorrections, s.TotalRowsAffected,
			s.CorrectionsFromTemplate, s.CorrectionsFromAlgorithm,
			s.ExtendedCellsDetected, s.ManualReviewRequired,
			s.ExecutionTime.Format(constants.TimeFormatReport), s.RunID,
		}},
	}

	corrections := workbook.Sheet{
		Name:   SheetCorrections,
		Header: []string{"station_id", "sheet_name", "parameter", "old_values", "new_value", "rows_affected", "timestamp", "source", "method"},
	}
	for _, c := range r.Corrections {
		corrections.Rows = append(corrections.Rows, []any{
			c.StationID, c.Sheet, c.Parameter, flow(c.OldValues), c.NewValue,
			c.RowsAffected, c.Timestamp.Format(constants.TimeFormatReport), string(c.Source),
		})
	}

	review := workbook.Sheet{
		Name:   SheetManualReview,
		Header: []string{"station_id", "discrepancy_score", "discrepancy_details", "original_values", "proposed_values", "extended_cells"},
	}
	for _, m := range r.ManualReview {
		review.Rows = append(review.Rows, []any{
			m.StationID, m.Score, flow(scoreItems(m.Details)), flow(candidateItems(m.Original)),
			flow(valueItems(m.Proposed)), flow(m.ExtendedCells),
		})
	}

	params := workbook.Sheet{
		Name:   SheetParameters,
		Header: []string{"parameter", "stations_affected", "rows_affected"},
	}
	for _, p := range r.ParameterStatistics() {
		params.Rows = append(params.Rows, []any{p.Parameter, p.StationsAffected, p.RowsAffected})
	}

	ext := workbook.Sheet{
		Name:   SheetExtended,
		Header: []string{"station_id", "cell_id", "action"},
	}
	for _, e := range r.ExtendedCells {
		ext.Rows = append(ext.Rows, []any{e.StationID, e.CellID, e.Action})
	}

	return []workbook.Sheet{summary, corrections, review, params, ext}
}

// WriteReport writes the correction report workbook.
func WriteReport(path string, r *Result) error {
	return workbook.WriteSheets(path, r.ReportSheets()...)
}

// flow renders v as a single-line YAML flow value.
func flow(v any) string {
	if s, ok := v.([]string); ok && len(s) == 0 {
		return constants.EmptyListMarker
	}
	out, err := yaml.MarshalWithOptions(v, yaml.Flow(true))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func scoreItems(scores map[sites.Field]float64) yaml.MapSlice {
	items := make(yaml.MapSlice, 0, len(scores))
	for _, f := range sites.SiteFields {
		if s, ok := scores[f]; ok {
			items = append(items, yaml.MapItem{Key: f.String(), Value: s})
		}
	}
	return items
}

func candidateItems(candidates map[sites.Field][]string) yaml.MapSlice {
	items := make(yaml.MapSlice, 0, len(candidates))
	for _, f := range sites.SiteFields {
		if c, ok := candidates[f]; ok {
			if c == nil {
				c = []string{}
			}
			items = append(items, yaml.MapItem{Key: f.String(), Value: c})
		}
	}
	return items
}

func valueItems(values map[sites.Field]sites.Value) yaml.MapSlice {
	items := make(yaml.MapSlice, 0, len(values))
	for _, f := range applyOrder {
		v, ok := values[f]
		if !ok {
			continue
		}
		if v.Numeric {
			items = append(items, yaml.MapItem{Key: f.String(), Value: v.Number})
		} else {
			items = append(items, yaml.MapItem{Key: f.String(), Value: v.Text})
		}
	}
	return items
}
