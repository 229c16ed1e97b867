package workbook

import (
	"github.com/agentstation/rfreconcile/pkg/sites"
)

// Index groups the rows of a table by station.
type Index struct {
	table    *Table
	stations map[string][]*sites.Sector
}

// NewIndex indexes t by station_id.
func NewIndex(t *Table) *Index {
	idx := &Index{table: t, stations: make(map[string][]*sites.Sector)}
	if t == nil {
		return idx
	}
	for _, r := range t.Rows {
		id := r.StationID()
		if id == "" {
			continue
		}
		idx.stations[id] = append(idx.stations[id], r)
	}
	return idx
}

// Rows returns the rows of a station.
func (i *Index) Rows(stationID string) []*sites.Sector {
	return i.stations[stationID]
}

// Len returns the number of indexed stations.
func (i *Index) Len() int {
	return len(i.stations)
}

// HasField reports whether the indexed table carries f.
func (i *Index) HasField(f sites.Field) bool {
	return i.table != nil && i.table.HasField(f)
}

// NonBlank returns the non-blank values of f for a station in row order.
func (i *Index) NonBlank(stationID string, f sites.Field) []string {
	if !i.HasField(f) {
		return nil
	}
	var out []string
	for _, r := range i.stations[stationID] {
		if v := r.Get(f); !sites.IsBlank(v) {
			out = append(out, v)
		}
	}
	return out
}

// MostFrequent returns the most frequent non-blank value of f for a station.
func (i *Index) MostFrequent(stationID string, f sites.Field) (string, bool) {
	return sites.MostFrequent(i.NonBlank(stationID, f))
}
