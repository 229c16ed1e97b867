package workbook

import (
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/agentstation/rfreconcile/pkg/errors"
)

const defaultSheet = "Sheet1"

// Sheet is a generic report sheet.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

// Load reads every sheet of an xlsx file. The first row of each sheet is
// its header; fully empty rows are skipped.
func Load(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer func() { _ = f.Close() }()

	wb := New()
	wb.Path = path
	for _, name := range f.GetSheetList() {
		t, err := readTable(f, path, name)
		if err != nil {
			return nil, err
		}
		wb.Add(t)
	}
	return wb, nil
}

// LoadSheet reads a single named sheet of an xlsx file.
func LoadSheet(path, name string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer func() { _ = f.Close() }()

	if idx, err := f.GetSheetIndex(name); err != nil || idx < 0 {
		return nil, errors.NewNotFoundError("sheet", name)
	}
	return readTable(f, path, name)
}

func readTable(f *excelize.File, path, name string) (*Table, error) {
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.WrapParse("xlsx", path, err)
	}

	t := NewTable(name)
	if len(rows) == 0 {
		return t, nil
	}
	for _, h := range rows[0] {
		t.addHeader(strings.TrimSpace(h))
	}
	for i, row := range rows[1:] {
		if emptyRow(row) {
			continue
		}
		s := t.AppendRow(row...)
		s.Row = i + 2
	}
	return t, nil
}

func emptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Save writes every table of the workbook to path, in sheet order.
func Save(path string, wb *Workbook) error {
	sheets := make([]Sheet, 0, len(wb.Tables()))
	for _, t := range wb.Tables() {
		s := Sheet{Name: t.Name, Header: t.Headers, Rows: make([][]any, len(t.Rows))}
		for i, r := range t.Rows {
			s.Rows[i] = t.Row(r)
		}
		sheets = append(sheets, s)
	}
	return WriteSheets(path, sheets...)
}

// WriteSheets writes report sheets to a new xlsx file.
func WriteSheets(path string, sheets ...Sheet) error {
	x := excelize.NewFile()
	defer func() { _ = x.Close() }()

	keepDefault := false
	for _, s := range sheets {
		if s.Name == defaultSheet {
			keepDefault = true
		}
		if _, err := x.NewSheet(s.Name); err != nil {
			return errors.WrapIO("create", path, err)
		}
		if err := writeRows(x, s); err != nil {
			return errors.WrapIO("write", path, err)
		}
	}
	if !keepDefault && len(sheets) > 0 {
		if err := x.DeleteSheet(defaultSheet); err != nil {
			return errors.WrapIO("write", path, err)
		}
	}
	if len(sheets) > 0 {
		if idx, err := x.GetSheetIndex(sheets[0].Name); err == nil && idx >= 0 {
			x.SetActiveSheet(idx)
		}
	}

	if err := x.SaveAs(path); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

func writeRows(x *excelize.File, s Sheet) error {
	header := make([]any, len(s.Header))
	for i, h := range s.Header {
		header[i] = h
	}
	if err := x.SetSheetRow(s.Name, "A1", &header); err != nil {
		return err
	}
	for r, row := range s.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := x.SetSheetRow(s.Name, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
