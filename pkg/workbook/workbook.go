package workbook

import (
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/rfreconcile/pkg/constants"
	"github.com/agentstation/rfreconcile/pkg/sites"
)

// ConsolidatedName names the table produced by Consolidated.
const ConsolidatedName = "consolidated"

// Workbook is an ordered set of named tables.
type Workbook struct {
	Path string

	tables []*Table
	byName map[string]*Table
}

// New returns an empty workbook.
func New() *Workbook {
	return &Workbook{byName: make(map[string]*Table)}
}

// Add appends a table, replacing any table with the same name in place.
func (w *Workbook) Add(t *Table) {
	if existing, ok := w.byName[t.Name]; ok {
		for i, cur := range w.tables {
			if cur == existing {
				w.tables[i] = t
			}
		}
	} else {
		w.tables = append(w.tables, t)
	}
	w.byName[t.Name] = t
}

// Table returns a table by exact name.
func (w *Workbook) Table(name string) (*Table, bool) {
	t, ok := w.byName[name]
	return t, ok
}

// Tables returns the tables in sheet order.
func (w *Workbook) Tables() []*Table {
	return w.tables
}

// SheetNames returns the sheet names in order.
func (w *Workbook) SheetNames() []string {
	names := make([]string, len(w.tables))
	for i, t := range w.tables {
		names[i] = t.Name
	}
	return names
}

// Len returns the total number of rows across all sheets.
func (w *Workbook) Len() int {
	n := 0
	for _, t := range w.tables {
		n += len(t.Rows)
	}
	return n
}

// StationRows returns every row of a station across all sheets.
func (w *Workbook) StationRows(stationID string) []*sites.Sector {
	var rows []*sites.Sector
	for _, t := range w.tables {
		rows = append(rows, t.StationRows(stationID)...)
	}
	return rows
}

// Consolidated concatenates all sheets into one table. Headers are the
// union in first-seen order and rows are copies, so mutating the result
// leaves the sheets untouched.
func (w *Workbook) Consolidated() *Table {
	out := NewTable(ConsolidatedName)
	seen := make(map[string]bool)
	for _, t := range w.tables {
		for _, h := range t.Headers {
			if !seen[h] {
				seen[h] = true
				out.addHeader(h)
			}
		}
	}
	for _, t := range w.tables {
		for _, r := range t.Rows {
			out.Rows = append(out.Rows, r.Clone())
		}
	}
	return out
}

// Stamp writes user and time into the modification metadata columns of
// every sheet that has them.
func (w *Workbook) Stamp(user string, at time.Time) {
	stamp := at.Format(constants.TimeFormatMetadata)
	for _, t := range w.tables {
		hasUser, hasTime := t.HasField(sites.FieldModifiedBy), t.HasField(sites.FieldModifiedAt)
		for _, r := range t.Rows {
			if hasUser {
				r.Set(sites.FieldModifiedBy, user)
			}
			if hasTime {
				r.Set(sites.FieldModifiedAt, stamp)
			}
		}
	}
}

// cellValue converts known numeric columns to numbers for writing.
func cellValue(header, raw string) any {
	f, ok := sites.ParseField(header)
	if !ok || !f.Numeric() {
		return raw
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return raw
	}
	return n
}
