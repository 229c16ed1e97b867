package validation_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/rfreconcile/pkg/logging"
	"github.com/agentstation/rfreconcile/pkg/selector"
	"github.com/agentstation/rfreconcile/pkg/workbook"
	"github.com/agentstation/rfreconcile/pkg/validation"
)

var headers = []string{"station_id", "name", "latitude", "longitude", "structure_height", "structure_owner", "structure_type"}

func newValidator() *validation.Validator {
	return validation.New(validation.Config{
		Latitude:  selector.Bounds{Min: -5, Max: 15},
		Longitude: selector.Bounds{Min: -80, Max: -66},
		Height:    selector.Bounds{Min: 0, Max: 200},
	}, validation.WithLogger(logging.NewNopLogger()))
}

func original() *workbook.Table {
	t := workbook.NewTable("consolidated", headers...)
	t.AppendRow("ABB", "Alpha", "1.234", "-75.0", "30", "ACME", "TORRE")
	t.AppendRow("ABB", "Alpha", "1.236", "-75.0", "35", "ACME", "TORRE")
	t.AppendRow("CDE", "Cde", "20.0", "-75.0", "500", "", "-")
	t.AppendRow("FGH", "Fgh", "2.0", "-70.0", "15", "OTHER", "MONOPOLO")
	return t
}

func corrected() *workbook.Table {
	t := workbook.NewTable("consolidated", headers...)
	t.AppendRow("ABB", "Alpha", "1.235", "-75.0", "35", "ACME", "TORRE")
	t.AppendRow("ABB", "Alpha", "1.235", "-75.0", "35", "ACME", "TORRE")
	t.AppendRow("CDE", "Cde", "20.0", "-75.0", "50", "ACME", "TORRE")
	t.AppendRow("FGH", "Fgh", "2.0", "-70.0", "15", "OTHER", "MONOPOLO")
	return t
}

func TestConsistency(t *testing.T) {
	records := newValidator().Consistency(original())
	require.Len(t, records, 3)

	abb := records[0]
	assert.Equal(t, "ABB", abb.StationID)
	assert.Equal(t, 2, abb.TotalSectors)
	assert.False(t, abb.AllConsistent)
	for _, f := range abb.Fields {
		switch f.Field.String() {
		case "latitude", "structure_height":
			assert.Equal(t, 2, f.UniqueCount)
			assert.False(t, f.Consistent())
		default:
			assert.True(t, f.Consistent(), f.Field.String())
		}
	}

	// CDE has a blank owner.
	assert.False(t, records[1].AllConsistent)
	assert.True(t, records[2].AllConsistent)
}

func TestConsistencyMissingColumn(t *testing.T) {
	tbl := workbook.NewTable("t", "station_id", "name", "latitude", "longitude", "structure_height", "structure_owner")
	tbl.AppendRow("ABB", "A", "1", "-75", "10", "ACME")

	records := newValidator().Consistency(tbl)
	require.Len(t, records, 1)
	assert.False(t, records[0].AllConsistent)
	last := records[0].Fields[len(records[0].Fields)-1]
	assert.False(t, last.Present)
}

func TestGeographic(t *testing.T) {
	records := newValidator().Geographic(original())
	require.Len(t, records, 4)
	assert.True(t, records[0].Valid())
	assert.False(t, records[2].LatitudeValid)
	assert.True(t, records[2].LongitudeValid)
	assert.False(t, records[2].Valid())
}

func TestStructure(t *testing.T) {
	records := newValidator().Structure(original())
	require.Len(t, records, 4)
	assert.True(t, records[0].Valid())

	cde := records[2]
	assert.False(t, cde.HeightValid)
	assert.False(t, cde.TypeValid)
	assert.False(t, cde.OwnerValid)
}

func TestCompare(t *testing.T) {
	c := newValidator().Compare(original(), corrected())
	require.Len(t, c.Metrics, 3)

	tests := []struct {
		name      string
		original  int
		corrected int
	}{
		{validation.MetricConsistentStations, 1, 3},
		{validation.MetricValidCoordinates, 3, 3},
		{validation.MetricValidStructure, 3, 4},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := c.Metrics[i]
			assert.Equal(t, tt.name, m.Name)
			assert.Equal(t, tt.original, m.Original)
			assert.Equal(t, tt.corrected, m.Corrected)
			assert.Equal(t, tt.corrected-tt.original, m.Improvement())
		})
	}
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "validation.xlsx")
	c := newValidator().Compare(original(), corrected())
	require.NoError(t, validation.WriteReport(path, c))

	wb, err := workbook.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"comparison_summary",
		"original_consistency", "corrected_consistency",
		"original_geographic", "corrected_geographic",
		"original_structure", "corrected_structure",
	}, wb.SheetNames())

	summary, ok := wb.Table("comparison_summary")
	require.True(t, ok)
	require.Len(t, summary.Rows, 3)
	assert.Equal(t, validation.MetricConsistentStations, summary.Rows[0].Column("metric"))
	assert.Equal(t, "2", summary.Rows[0].Column("improvement"))
}
