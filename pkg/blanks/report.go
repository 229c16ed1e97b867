package blanks

import (
	"sort"

	"github.com/agentstation/rfreconcile/pkg/sites"
	"github.com/agentstation/rfreconcile/pkg/workbook"
)

// ReportSheet names the sheet of the blank-fields report.
const ReportSheet = "blank_fields"

// Record counts the blank cells of one station field in one sheet.
type Record struct {
	Sheet        string  `json:"sheet" yaml:"sheet"`
	StationID    string  `json:"station_id" yaml:"station_id"`
	Field        string  `json:"field" yaml:"field"`
	BlankCount   int     `json:"blank_count" yaml:"blank_count"`
	TotalSectors int     `json:"total_sectors" yaml:"total_sectors"`
	Percentage   float64 `json:"blank_percentage" yaml:"blank_percentage"`
}

// Report lists blank target cells without modifying the workbook. Records
// are ordered by station then field.
func (f *Filler) Report(wb *workbook.Workbook) []Record {
	var records []Record
	for _, t := range wb.Tables() {
		if !t.HasField(sites.FieldStationID) {
			continue
		}
		for _, field := range f.fields {
			if !t.HasField(field) {
				continue
			}
			for _, station := range t.Stations() {
				rows := t.StationRows(station)
				blank := 0
				for _, r := range rows {
					if sites.IsBlank(r.Get(field)) {
						blank++
					}
				}
				if blank == 0 {
					continue
				}
				records = append(records, Record{
					Sheet:        t.Name,
					StationID:    station,
					Field:        field.String(),
					BlankCount:   blank,
					TotalSectors: len(rows),
					Percentage:   float64(blank) / float64(len(rows)) * 100,
				})
			}
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].StationID != records[j].StationID {
			return records[i].StationID < records[j].StationID
		}
		return records[i].Field < records[j].Field
	})
	return records
}

// Summary aggregates blank counts per field.
func Summary(records []Record) (stations int, cells int, byField map[string]int) {
	seen := make(map[string]bool)
	byField = make(map[string]int)
	for _, r := range records {
		seen[r.StationID] = true
		cells += r.BlankCount
		byField[r.Field] += r.BlankCount
	}
	return len(seen), cells, byField
}

// WriteReport writes records to an xlsx file.
func WriteReport(path string, records []Record) error {
	sheet := workbook.Sheet{
		Name:   ReportSheet,
		Header: []string{"sheet", "station_id", "field", "blank_count", "total_sectors", "blank_percentage"},
		Rows:   make([][]any, len(records)),
	}
	for i, r := range records {
		sheet.Rows[i] = []any{r.Sheet, r.StationID, r.Field, r.BlankCount, r.TotalSectors, r.Percentage}
	}
	return workbook.WriteSheets(path, sheet)
}
