// Package workbook holds named sheets of sector rows in memory and moves
// them to and from xlsx files.
package workbook

import (
	"github.com/agentstation/rfreconcile/pkg/sites"
)

// Table is one sheet: its header row and the sectors below it.
type Table struct {
	Name    string
	Headers []string
	Rows    []*sites.Sector

	fields map[sites.Field]bool
}

// NewTable returns an empty table with the given header row.
func NewTable(name string, headers ...string) *Table {
	t := &Table{Name: name}
	for _, h := range headers {
		t.addHeader(h)
	}
	return t
}

func (t *Table) addHeader(header string) {
	if t.fields == nil {
		t.fields = make(map[sites.Field]bool)
	}
	t.Headers = append(t.Headers, header)
	if f, ok := sites.ParseField(header); ok {
		t.fields[f] = true
	}
}

// HasField reports whether the table carries a column for f.
func (t *Table) HasField(f sites.Field) bool {
	return t.fields[f]
}

// Missing returns the names of fields the table lacks.
func (t *Table) Missing(fields ...sites.Field) []string {
	var missing []string
	for _, f := range fields {
		if !t.fields[f] {
			missing = append(missing, f.String())
		}
	}
	return missing
}

// AppendRow adds a row whose cells follow the header order. Missing
// trailing cells are left empty.
func (t *Table) AppendRow(cells ...string) *sites.Sector {
	s := sites.NewSector(t.Name, len(t.Rows)+2)
	for i, h := range t.Headers {
		v := ""
		if i < len(cells) {
			v = cells[i]
		}
		s.SetColumn(h, v)
	}
	t.Rows = append(t.Rows, s)
	return s
}

// StationRows returns the rows of a station.
func (t *Table) StationRows(stationID string) []*sites.Sector {
	var rows []*sites.Sector
	for _, r := range t.Rows {
		if r.StationID() == stationID {
			rows = append(rows, r)
		}
	}
	return rows
}

// Stations returns station ids in first-appearance order.
func (t *Table) Stations() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, r := range t.Rows {
		id := r.StationID()
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// Values returns the cells of a field over rows.
func Values(rows []*sites.Sector, f sites.Field) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Get(f)
	}
	return out
}

// Distinct returns the distinct cells of a field over rows in
// first-appearance order.
func Distinct(rows []*sites.Sector, f sites.Field) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rows {
		v := r.Get(f)
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Row renders a sector as cells in header order.
func (t *Table) Row(s *sites.Sector) []any {
	out := make([]any, len(t.Headers))
	for i, h := range t.Headers {
		out[i] = cellValue(h, s.Column(h))
	}
	return out
}
