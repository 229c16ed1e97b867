// Package constants provides shared constants used throughout the rfreconcile
// codebase. This includes file permissions, markers written into workbooks,
// timestamp layouts and default thresholds.
package constants

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Workbook markers
const (
	// ExtendedCellMarker is written to cell_type for relocated sectors
	ExtendedCellMarker = "Extended Cell"

	// ExtendedCellAction labels extended-cell rows in the correction report
	ExtendedCellAction = "marked_as_extended_cell"

	// Placeholder is the literal used by the source data for "no value"
	Placeholder = "-"

	// EmptyListMarker is the serialized form of an empty candidate list
	EmptyListMarker = "[]"

	// BlankFillerUser stamps workbooks written by the blank filler
	BlankFillerUser = "blank_field_filler"

	// DefaultSystemUser stamps workbooks written by the reconciliation engine
	DefaultSystemUser = "rf_reconciliation"
)

// Default thresholds
const (
	// DefaultExtendedCellDistance is the extended-cell threshold in degrees (~1.1 km)
	DefaultExtendedCellDistance = 0.01

	// KilometersPerDegree approximates the flat-plane length of one degree
	KilometersPerDegree = 111.0

	// DefaultSimilarityThreshold is the minimum fuzzy name similarity accepted
	DefaultSimilarityThreshold = 0.7

	// DefaultManualReviewThreshold is the mean discrepancy above which a site is queued
	DefaultManualReviewThreshold = 0.3

	// CoordinatePrecision is the number of decimals kept on resolved coordinates
	CoordinatePrecision = 6
)

// Default names
const (
	// DefaultAnomalousSheet is the sheet read from the anomalous-sites workbook
	DefaultAnomalousSheet = "anomalous_stations_data"

	// DefaultSettingsPath is where settings are read from when no flag is given
	DefaultSettingsPath = "config/settings.yaml"

	// WorkbookExtension is appended to generated workbook names
	WorkbookExtension = ".xlsx"
)

// Format constants
const (
	// TimeFormatMetadata is written into db_modification_datetime
	TimeFormatMetadata = "2006-01-02 15:04:05"

	// TimeFormatFilename prefixes generated files and backups
	TimeFormatFilename = "20060102_150405"

	// TimeFormatReport is used for timestamps inside report rows
	TimeFormatReport = "2006-01-02T15:04:05.000000"
)
