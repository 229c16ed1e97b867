package sites

import "strings"

// Field identifies a known sector column.
type Field int

// Known sector columns.
const (
	FieldStationID Field = iota
	FieldSectorID
	FieldStationCellID
	FieldName
	FieldLatitude
	FieldLongitude
	FieldStructureHeight
	FieldStructureOwner
	FieldStructureType
	FieldTxType
	FieldCellType
	FieldTechnology
	FieldModifiedBy
	FieldModifiedAt

	fieldCount
)

var fieldNames = [fieldCount]string{
	FieldStationID:       "station_id",
	FieldSectorID:        "sector_id",
	FieldStationCellID:   "station_cell_id",
	FieldName:            "name",
	FieldLatitude:        "latitude",
	FieldLongitude:       "longitude",
	FieldStructureHeight: "structure_height",
	FieldStructureOwner:  "structure_owner",
	FieldStructureType:   "structure_type",
	FieldTxType:          "tx_type",
	FieldCellType:        "cell_type",
	FieldTechnology:      "technology",
	FieldModifiedBy:      "db_modified_by_user",
	FieldModifiedAt:      "db_modification_datetime",
}

var fieldsByName = func() map[string]Field {
	m := make(map[string]Field, fieldCount)
	for f, name := range fieldNames {
		m[name] = Field(f)
	}
	return m
}()

// SiteFields are the attributes every sector of a site should agree on,
// in the order they are scored and reported.
var SiteFields = []Field{
	FieldLatitude,
	FieldLongitude,
	FieldName,
	FieldStructureHeight,
	FieldStructureOwner,
	FieldStructureType,
}

// FillableFields are the attributes the blank filler and the template
// backfill complete.
var FillableFields = []Field{
	FieldStructureOwner,
	FieldStructureType,
	FieldTxType,
}

// RequiredBaselineFields must be present in the consolidated baseline.
var RequiredBaselineFields = []Field{
	FieldStationID,
	FieldName,
	FieldLatitude,
	FieldLongitude,
	FieldStructureHeight,
	FieldStructureOwner,
	FieldStructureType,
}

// String returns the column name of the field.
func (f Field) String() string {
	if f < 0 || f >= fieldCount {
		return "unknown"
	}
	return fieldNames[f]
}

// Valid reports whether f is a known field.
func (f Field) Valid() bool {
	return f >= 0 && f < fieldCount
}

// Numeric reports whether the field holds a number.
func (f Field) Numeric() bool {
	switch f {
	case FieldLatitude, FieldLongitude, FieldStructureHeight:
		return true
	default:
		return false
	}
}

// Coordinate reports whether the field is latitude or longitude.
func (f Field) Coordinate() bool {
	return f == FieldLatitude || f == FieldLongitude
}

// ParseField maps a column header to a Field. Matching ignores case and
// surrounding whitespace.
func ParseField(header string) (Field, bool) {
	f, ok := fieldsByName[strings.ToLower(strings.TrimSpace(header))]
	return f, ok
}
