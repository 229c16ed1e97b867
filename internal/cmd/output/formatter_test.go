package output_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/rfreconcile/internal/cmd/output"
	"github.com/agentstation/rfreconcile/pkg/blanks"
	"github.com/agentstation/rfreconcile/pkg/reconcile"
	"github.com/agentstation/rfreconcile/pkg/validation"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    output.Format
		wantErr bool
	}{
		{"table", output.FormatTable, false},
		{"JSON", output.FormatJSON, false},
		{"yaml", output.FormatYAML, false},
		{"", "", false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := output.ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectFormatExplicit(t *testing.T) {
	assert.Equal(t, output.FormatYAML, output.DetectFormat("YAML"))
}

func result() *reconcile.Result {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := reconcile.NewResult("run-1", start)
	r.Corrections = []reconcile.Correction{
		{StationID: "ABB", Parameter: "latitude", RowsAffected: 2, Source: reconcile.SourceAlgorithm},
		{StationID: "ABB", Parameter: "name", RowsAffected: 2, Source: reconcile.SourceTemplate},
	}
	r.Metadata.Stats.SitesProcessed = 1
	r.Finalize(start.Add(1500 * time.Millisecond))
	return r
}

func TestFormatRunSummaryTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, output.FormatRunSummary(&buf, output.FormatTable, result()))
	out := buf.String()
	assert.Contains(t, out, "Corrections")
	assert.Contains(t, out, "Rows affected")
	assert.Contains(t, out, "1.5s")
}

func TestFormatRunSummaryJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, output.FormatRunSummary(&buf, output.FormatJSON, result()))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, float64(2), got["total_corrections"])
	assert.Equal(t, float64(1), got["corrections_from_template"])
	assert.Equal(t, float64(1), got["sites_processed"])
	assert.Equal(t, "run-1", got["run_id"])
}

func TestFormatParameterStatisticsYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, output.FormatParameterStatistics(&buf, output.FormatYAML, result().ParameterStatistics()))
	assert.Contains(t, buf.String(), "parameter: latitude")
	assert.Contains(t, buf.String(), "rows_affected: 2")
}

func TestFormatComparison(t *testing.T) {
	c := validation.Comparison{Metrics: []validation.Metric{
		{Name: validation.MetricConsistentStations, Original: 1, Corrected: 3},
	}}

	var buf bytes.Buffer
	require.NoError(t, output.FormatComparison(&buf, output.FormatTable, c))
	assert.Contains(t, buf.String(), "+2")

	buf.Reset()
	require.NoError(t, output.FormatComparison(&buf, output.FormatJSON, c))
	var rows []output.MetricRow
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Improvement)
}

func TestFormatBlankStats(t *testing.T) {
	var buf bytes.Buffer
	s := blanks.Stats{TotalBlanks: 4, FromWorkbook: 1, FromTemplate: 1, FromBaseline: 1, StillBlank: 1}
	require.NoError(t, output.FormatBlankStats(&buf, output.FormatTable, s))
	assert.Contains(t, buf.String(), "75.0%")
}

func TestTableFormatterStructFallback(t *testing.T) {
	var buf bytes.Buffer
	rows := []output.MetricRow{{Metric: "m", Original: 1, Corrected: 2, Improvement: 1}}
	require.NoError(t, output.NewFormatter(output.FormatTable).Format(&buf, rows))
	assert.Contains(t, strings.ToUpper(buf.String()), "ORIGINAL COUNT")
}
