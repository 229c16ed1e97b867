package sites

import "strings"

// Sector is one row of a technology sheet. Known columns live in a fixed
// schema; unknown columns pass through Extra untouched.
type Sector struct {
	Sheet string
	Row   int
	Extra map[string]string

	cells [fieldCount]string
}

// NewSector returns an empty sector bound to a sheet row.
func NewSector(sheet string, row int) *Sector {
	return &Sector{Sheet: sheet, Row: row}
}

// Get returns the raw cell text of a field.
func (s *Sector) Get(f Field) string {
	if !f.Valid() {
		return ""
	}
	return s.cells[f]
}

// Set stores the raw cell text of a field.
func (s *Sector) Set(f Field, value string) {
	if !f.Valid() {
		return
	}
	s.cells[f] = value
}

// SetColumn stores a value by header name, routing unknown headers to Extra.
func (s *Sector) SetColumn(header, value string) {
	if f, ok := ParseField(header); ok {
		s.cells[f] = value
		return
	}
	if s.Extra == nil {
		s.Extra = make(map[string]string)
	}
	s.Extra[header] = value
}

// Column returns a value by header name.
func (s *Sector) Column(header string) string {
	if f, ok := ParseField(header); ok {
		return s.cells[f]
	}
	return s.Extra[header]
}

// StationID returns the trimmed station identifier.
func (s *Sector) StationID() string {
	return strings.TrimSpace(s.cells[FieldStationID])
}

// CellID returns the trimmed station_cell_id.
func (s *Sector) CellID() string {
	return strings.TrimSpace(s.cells[FieldStationCellID])
}

// Clone returns a deep copy of the sector.
func (s *Sector) Clone() *Sector {
	c := *s
	if s.Extra != nil {
		c.Extra = make(map[string]string, len(s.Extra))
		for k, v := range s.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}
