package alerts_test

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/rfreconcile/internal/cmd/alerts"
	"github.com/agentstation/rfreconcile/internal/cmd/output"
	"github.com/agentstation/rfreconcile/pkg/errors"
	"github.com/agentstation/rfreconcile/pkg/reconcile"
)

var at = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func TestAlertString(t *testing.T) {
	a := alerts.New(alerts.LevelError, "Save failed", at).WithError(errors.New("disk full"))
	assert.Equal(t, "✗ Save failed: disk full", a.String())
	assert.Equal(t, "error", a.Level.String())
	assert.Equal(t, "unknown(9)", alerts.Level(9).String())
}

func TestFormatWriter(t *testing.T) {
	a := alerts.New(alerts.LevelWarning, "2 stations require manual review", at).WithDetails("ABB (score 0.45)")

	tests := []struct {
		format output.Format
		want   []string
	}{
		{output.FormatTable, []string{"! 2 stations require manual review\n", "   ABB (score 0.45)\n"}},
		{output.FormatJSON, []string{`"level": "warning"`, `"details": [`}},
		{output.FormatYAML, []string{"level: warning", "- ABB (score 0.45)"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, alerts.NewFormatWriter(&buf, tt.format).WriteAlert(a))
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestFromResult(t *testing.T) {
	r := reconcile.NewResult("run-1", at)
	r.ManualReview = []reconcile.ManualReviewEntry{{StationID: "ABB", Score: 0.45}}
	r.ExtendedCells = []reconcile.ExtendedCellMark{{StationID: "XYZ", CellID: "XYZR2"}}

	got := alerts.FromResult(r, at, "corrected.xlsx")
	require.Len(t, got, 3)
	assert.Equal(t, alerts.LevelWarning, got[0].Level)
	assert.Equal(t, []string{"ABB (score 0.45)"}, got[0].Details)
	assert.Equal(t, alerts.LevelInfo, got[1].Level)
	assert.Equal(t, alerts.LevelSuccess, got[2].Level)
	assert.Equal(t, []string{"corrected.xlsx"}, got[2].Details)
}

func TestFromResultCapsDetails(t *testing.T) {
	r := reconcile.NewResult("run-1", at)
	for i := 0; i < 12; i++ {
		r.Errors = append(r.Errors, errors.NewSiteError(fmt.Sprintf("S%02d", i), "process", errors.New("boom")))
	}

	got := alerts.FromResult(r, at)
	require.Len(t, got, 1)
	assert.Equal(t, "12 sites failed", got[0].Message)
	require.Len(t, got[0].Details, 11)
	assert.Equal(t, "... and 2 more", got[0].Details[10])
}

func TestWriteAll(t *testing.T) {
	var buf bytes.Buffer
	list := []*alerts.Alert{
		alerts.New(alerts.LevelInfo, "one", at),
		alerts.New(alerts.LevelSuccess, "two", at),
	}
	require.NoError(t, alerts.WriteAll(alerts.NewWriterTo(&buf), list))
	assert.Equal(t, "i one\n✓ two\n", buf.String())
	assert.NoError(t, alerts.WriteAll(alerts.DiscardWriter, list))
}
