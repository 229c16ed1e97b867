package lookup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/rfreconcile/pkg/logging"
	"github.com/agentstation/rfreconcile/pkg/lookup"
	"github.com/agentstation/rfreconcile/pkg/sites"
	"github.com/agentstation/rfreconcile/pkg/workbook"
)

func working() *workbook.Workbook {
	lte := workbook.NewTable("LTE", "station_id", "structure_owner", "tx_type")
	lte.AppendRow("ABB", "ACME", "")
	lte.AppendRow("ABB", "-", "")
	lte.AppendRow("TPL", "", "")

	gsm := workbook.NewTable("GSM", "station_id", "structure_owner")
	gsm.AppendRow("ABB", "OTHER")
	gsm.AppendRow("ABB", "OTHER")

	wb := workbook.New()
	wb.Add(lte)
	wb.Add(gsm)
	return wb
}

func index(rows ...[]string) *workbook.Index {
	t := workbook.NewTable("t", "station_id", "structure_owner", "tx_type")
	for _, r := range rows {
		t.AppendRow(r...)
	}
	return workbook.NewIndex(t)
}

func newLookup(opts ...lookup.Option) *lookup.Lookup {
	opts = append(opts, lookup.WithLogger(logging.NewNopLogger()))
	return lookup.New(working(), opts...)
}

func TestFindPrecedence(t *testing.T) {
	tpl := index([]string{"ABB", "TPL-OWNER", "MW"}, []string{"TPL", "TPL-OWNER", "FO"})
	base := index([]string{"ABB", "BASE", "SAT"}, []string{"TPL", "BASE", "SAT"}, []string{"BSE", "BASE", "SAT"})
	l := newLookup(lookup.WithTemplate(tpl), lookup.WithBaseline(base))

	tests := []struct {
		name  string
		key   lookup.Key
		value string
		tier  lookup.Tier
	}{
		{name: "workbook most frequent across sheets", key: lookup.Key{StationID: "ABB", Field: sites.FieldStructureOwner}, value: "OTHER", tier: lookup.TierWorkbook},
		{name: "template when workbook blank", key: lookup.Key{StationID: "ABB", Field: sites.FieldTxType}, value: "MW", tier: lookup.TierTemplate},
		{name: "template for station with blanks", key: lookup.Key{StationID: "TPL", Field: sites.FieldStructureOwner}, value: "TPL-OWNER", tier: lookup.TierTemplate},
		{name: "baseline last", key: lookup.Key{StationID: "BSE", Field: sites.FieldTxType}, value: "SAT", tier: lookup.TierBaseline},
		{name: "not found", key: lookup.Key{StationID: "NONE", Field: sites.FieldTxType}, tier: lookup.TierNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := l.Find(tt.key)
			assert.Equal(t, tt.value, r.Value)
			assert.Equal(t, tt.tier, r.Tier)
			assert.Equal(t, tt.tier != lookup.TierNone, r.Found())
		})
	}
}

func TestFindMemoizesNotFound(t *testing.T) {
	l := newLookup()
	key := lookup.Key{StationID: "NONE", Field: sites.FieldStructureOwner}

	_, looked := l.Cache().Get(key)
	assert.False(t, looked)

	assert.Equal(t, lookup.NotFound, l.Find(key))
	cached, looked := l.Cache().Get(key)
	require.True(t, looked)
	assert.False(t, cached.Found())
	assert.Equal(t, 1, l.Cache().Len())
}

func TestFindUsesCache(t *testing.T) {
	wb := working()
	l := lookup.New(wb, lookup.WithLogger(logging.NewNopLogger()))
	key := lookup.Key{StationID: "ABB", Field: sites.FieldStructureOwner}

	first := l.Find(key)
	gsm, _ := wb.Table("GSM")
	for _, r := range gsm.Rows {
		r.Set(sites.FieldStructureOwner, "CHANGED")
	}
	assert.Equal(t, first, l.Find(key))

	hits, _ := l.Cache().Stats()
	assert.Equal(t, 1, hits)
}

func TestCompletePrefersTechnology(t *testing.T) {
	l := newLookup()
	key := lookup.Key{StationID: "ABB", Field: sites.FieldStructureOwner}

	r := l.Complete(key, "lte")
	assert.Equal(t, "ACME", r.Value)
	assert.Equal(t, "LTE", r.Sheet)

	r = l.Complete(key, "UMTS")
	assert.Equal(t, "OTHER", r.Value)
	assert.Equal(t, "GSM", r.Sheet)

	assert.Equal(t, 0, l.Cache().Len())
}

func TestCompleteFallsBackToOtherSheets(t *testing.T) {
	l := newLookup()
	r := l.Complete(lookup.Key{StationID: "ABB", Field: sites.FieldStructureOwner}, "GSM")
	assert.Equal(t, "OTHER", r.Value)

	wb := working()
	lte, _ := wb.Table("LTE")
	for _, row := range lte.Rows {
		row.Set(sites.FieldStructureOwner, "")
	}
	l = lookup.New(wb, lookup.WithLogger(logging.NewNopLogger()))
	r = l.Complete(lookup.Key{StationID: "ABB", Field: sites.FieldStructureOwner}, "LTE")
	assert.Equal(t, "OTHER", r.Value)
	assert.Equal(t, lookup.TierWorkbook, r.Tier)
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "workbook", lookup.TierWorkbook.String())
	assert.Equal(t, "template", lookup.TierTemplate.String())
	assert.Equal(t, "baseline", lookup.TierBaseline.String())
	assert.Equal(t, "none", lookup.TierNone.String())
}
