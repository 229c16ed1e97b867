package output

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/agentstation/rfreconcile/pkg/blanks"
	"github.com/agentstation/rfreconcile/pkg/reconcile"
	"github.com/agentstation/rfreconcile/pkg/validation"
)

// RunSummary is the printable outcome of a reconciliation run.
type RunSummary struct {
	reconcile.Summary `yaml:",inline"`
	SitesProcessed    int           `json:"sites_processed" yaml:"sites_processed"`
	SitesFailed       int           `json:"sites_failed" yaml:"sites_failed"`
	Duration          time.Duration `json:"duration" yaml:"duration"`
}

// NewRunSummary builds the printable summary of a result.
func NewRunSummary(r *reconcile.Result) RunSummary {
	return RunSummary{
		Summary:        r.Summary(),
		SitesProcessed: r.Metadata.Stats.SitesProcessed,
		SitesFailed:    r.Metadata.Stats.SitesFailed,
		Duration:       r.Metadata.Duration,
	}
}

// FormatRunSummary writes a run summary.
func FormatRunSummary(w io.Writer, format Format, r *reconcile.Result) error {
	s := NewRunSummary(r)
	if format != FormatTable && format != "" {
		return NewFormatter(format).Format(w, s)
	}
	return NewFormatter(FormatTable).Format(w, Data{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Sites processed", strconv.Itoa(s.SitesProcessed)},
			{"Sites failed", strconv.Itoa(s.SitesFailed)},
			{"Stations corrected", strconv.Itoa(s.TotalStations)},
			{"Corrections", strconv.Itoa(s.TotalCorrections)},
			{"Rows affected", strconv.Itoa(s.TotalRowsAffected)},
			{"From template", strconv.Itoa(s.CorrectionsFromTemplate)},
			{"From algorithm", strconv.Itoa(s.CorrectionsFromAlgorithm)},
			{"Extended cells", strconv.Itoa(s.ExtendedCellsDetected)},
			{"Manual review", strconv.Itoa(s.ManualReviewRequired)},
			{"Duration", s.Duration.Round(time.Millisecond).String()},
		},
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	})
}

// FormatParameterStatistics writes per-parameter correction counts.
func FormatParameterStatistics(w io.Writer, format Format, stats []reconcile.ParameterStatistic) error {
	if format != FormatTable && format != "" {
		return NewFormatter(format).Format(w, stats)
	}
	data := Data{
		Headers:         []string{"Parameter", "Stations", "Rows"},
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignRight},
	}
	for _, p := range stats {
		data.Rows = append(data.Rows, []string{p.Parameter, strconv.Itoa(p.StationsAffected), strconv.Itoa(p.RowsAffected)})
	}
	return NewFormatter(FormatTable).Format(w, data)
}

// MetricRow is a printable validation metric.
type MetricRow struct {
	Metric      string `json:"metric" yaml:"metric"`
	Original    int    `json:"original_count" yaml:"original_count"`
	Corrected   int    `json:"corrected_count" yaml:"corrected_count"`
	Improvement int    `json:"improvement" yaml:"improvement"`
}

// FormatComparison writes the before/after validation metrics.
func FormatComparison(w io.Writer, format Format, c validation.Comparison) error {
	rows := make([]MetricRow, len(c.Metrics))
	for i, m := range c.Metrics {
		rows[i] = MetricRow{Metric: m.Name, Original: m.Original, Corrected: m.Corrected, Improvement: m.Improvement()}
	}
	if format != FormatTable && format != "" {
		return NewFormatter(format).Format(w, rows)
	}
	data := Data{
		Headers:         []string{"Metric", "Original", "Corrected", "Improvement"},
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignRight, AlignRight},
	}
	for _, r := range rows {
		data.Rows = append(data.Rows, []string{
			r.Metric, strconv.Itoa(r.Original), strconv.Itoa(r.Corrected), fmt.Sprintf("%+d", r.Improvement),
		})
	}
	return NewFormatter(FormatTable).Format(w, data)
}

// FormatBlankStats writes blank-fill statistics.
func FormatBlankStats(w io.Writer, format Format, s blanks.Stats) error {
	if format != FormatTable && format != "" {
		return NewFormatter(format).Format(w, s)
	}
	return NewFormatter(FormatTable).Format(w, Data{
		Headers: []string{"Source", "Fields"},
		Rows: [][]string{
			{"Blank fields", strconv.Itoa(s.TotalBlanks)},
			{"From workbook", strconv.Itoa(s.FromWorkbook)},
			{"From template", strconv.Itoa(s.FromTemplate)},
			{"From baseline", strconv.Itoa(s.FromBaseline)},
			{"Still blank", strconv.Itoa(s.StillBlank)},
			{"Fill rate", fmt.Sprintf("%.1f%%", s.FillRate())},
		},
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	})
}
