package blanks_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/rfreconcile/pkg/blanks"
	"github.com/agentstation/rfreconcile/pkg/logging"
	"github.com/agentstation/rfreconcile/pkg/sites"
	"github.com/agentstation/rfreconcile/pkg/workbook"
)

func corrected() *workbook.Workbook {
	lte := workbook.NewTable("LTE", "station_id", "structure_owner", "structure_type", "tx_type", "db_modified_by_user")
	lte.AppendRow("ABB", "ACME", "TORRE", "", "x")
	lte.AppendRow("ABB", "", "-", "", "x")
	lte.AppendRow("TPL", "", "MASTIL", "MW", "x")
	lte.AppendRow("BSE", "OWN", "MASTIL", "", "x")
	lte.AppendRow("NON", "OWN", "MASTIL", "", "x")

	gsm := workbook.NewTable("GSM", "station_id", "structure_owner")
	gsm.AppendRow("ABB", "ACME")

	notes := workbook.NewTable("notes", "comment")
	notes.AppendRow("free text")

	wb := workbook.New()
	wb.Add(lte)
	wb.Add(gsm)
	wb.Add(notes)
	return wb
}

func tiers() (*workbook.Index, *workbook.Index) {
	tpl := workbook.NewTable("template", "station_id", "structure_owner", "tx_type")
	tpl.AppendRow("TPL", "TPL-OWNER", "")
	tpl.AppendRow("ABB", "", "FO")

	base := workbook.NewTable("physical", "station_id", "tx_type")
	base.AppendRow("BSE", "SAT")
	base.AppendRow("ABB", "SAT")
	return workbook.NewIndex(tpl), workbook.NewIndex(base)
}

func newFiller(opts ...blanks.Option) *blanks.Filler {
	tpl, base := tiers()
	opts = append([]blanks.Option{
		blanks.WithTemplate(tpl),
		blanks.WithBaseline(base),
		blanks.WithLogger(logging.NewNopLogger()),
	}, opts...)
	return blanks.New(opts...)
}

func TestFillWorkbook(t *testing.T) {
	wb := corrected()
	stats := newFiller().FillWorkbook(wb)

	lte, _ := wb.Table("LTE")
	assert.Equal(t, "ACME", lte.Rows[1].Get(sites.FieldStructureOwner), "same workbook first")
	assert.Equal(t, "TORRE", lte.Rows[1].Get(sites.FieldStructureType), "placeholder is blank")
	assert.Equal(t, "FO", lte.Rows[0].Get(sites.FieldTxType), "template before baseline")
	assert.Equal(t, "TPL-OWNER", lte.Rows[2].Get(sites.FieldStructureOwner))
	assert.Equal(t, "SAT", lte.Rows[3].Get(sites.FieldTxType))
	assert.Empty(t, lte.Rows[4].Get(sites.FieldTxType))

	assert.Equal(t, blanks.Stats{
		TotalBlanks:  7,
		FromWorkbook: 2,
		FromTemplate: 3,
		FromBaseline: 1,
		StillBlank:   1,
	}, stats)
	assert.Equal(t, 6, stats.Filled())
	assert.InDelta(t, 600.0/7.0, stats.FillRate(), 1e-9)
}

func TestFillWorkbookWithoutSources(t *testing.T) {
	wb := corrected()
	f := blanks.New(blanks.WithLogger(logging.NewNopLogger()))
	stats := f.FillWorkbook(wb)

	assert.Equal(t, 0, stats.FromTemplate)
	assert.Equal(t, 0, stats.FromBaseline)
	assert.Equal(t, stats, f.Stats())
	assert.Equal(t, 0.0, blanks.Stats{}.FillRate())
}

func TestReport(t *testing.T) {
	records := newFiller().Report(corrected())

	require.NotEmpty(t, records)
	first := records[0]
	assert.Equal(t, blanks.Record{
		Sheet:        "LTE",
		StationID:    "ABB",
		Field:        "structure_owner",
		BlankCount:   1,
		TotalSectors: 2,
		Percentage:   50,
	}, first)

	for i := 1; i < len(records); i++ {
		prev, cur := records[i-1], records[i]
		assert.True(t, prev.StationID < cur.StationID || (prev.StationID == cur.StationID && prev.Field <= cur.Field))
	}

	stations, cells, byField := blanks.Summary(records)
	assert.Equal(t, 4, stations)
	assert.Equal(t, 7, cells)
	assert.Equal(t, 4, byField["tx_type"])
}

func TestProcessAndWriteReport(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "corrected.xlsx")
	out := filepath.Join(dir, "complete.xlsx")
	require.NoError(t, workbook.Save(in, corrected()))

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f := newFiller(blanks.WithClock(func() time.Time { return at }))
	stats, err := f.Process(in, out)
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Filled())

	wb, err := workbook.Load(out)
	require.NoError(t, err)
	lte, _ := wb.Table("LTE")
	assert.Equal(t, "blank_field_filler", lte.Rows[0].Get(sites.FieldModifiedBy))
	assert.Equal(t, "FO", lte.Rows[0].Get(sites.FieldTxType))

	report := filepath.Join(dir, "blanks.xlsx")
	require.NoError(t, blanks.WriteReport(report, f.Report(wb)))
	rep, err := workbook.Load(report)
	require.NoError(t, err)
	assert.Equal(t, []string{blanks.ReportSheet}, rep.SheetNames())

	_, err = f.Process(filepath.Join(dir, "missing.xlsx"), out)
	assert.Error(t, err)
}
