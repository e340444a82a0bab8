package xlsx

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/bryanwahyu/geo-authority/internal/domain/report"
)

// ContentType of an encoded workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Encoder writes report workbooks as .xlsx
type Encoder struct{}

func NewEncoder() *Encoder { return &Encoder{} }

// Encode renders every sheet with a bold, frozen header row and the
// configured column widths.
func (e *Encoder) Encode(wb report.Workbook) ([]byte, error) {
	if len(wb.Sheets) == 0 {
		return nil, report.ErrExportUnavailable
	}
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9E1F2"}},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	for i, s := range wb.Sheets {
		// NewFile selalu membuat "Sheet1", pakai ulang untuk sheet pertama
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return nil, fmt.Errorf("new sheet %q: %w", s.Name, err)
		}
		if err := writeSheet(f, s, bold); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", s.Name, err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, s report.Sheet, headerStyle int) error {
	header := make([]any, len(s.Columns))
	for i, c := range s.Columns {
		header[i] = c.Header
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if c.Width > 0 {
			if err := f.SetColWidth(s.Name, col, col, c.Width); err != nil {
				return err
			}
		}
	}
	if err := f.SetSheetRow(s.Name, "A1", &header); err != nil {
		return err
	}
	if len(s.Columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(s.Columns), 1)
		if err := f.SetCellStyle(s.Name, "A1", last, headerStyle); err != nil {
			return err
		}
	}

	for r, row := range s.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(s.Name, cell, &values); err != nil {
			return err
		}
	}

	return f.SetPanes(s.Name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// DecodedSheet is a sheet read back from an encoded workbook, header row
// included.
type DecodedSheet struct {
	Name string
	Rows [][]string
}

// Decode reads an encoded workbook back, sheets in workbook order.
func Decode(data []byte) ([]DecodedSheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var out []DecodedSheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", name, err)
		}
		out = append(out, DecodedSheet{Name: name, Rows: rows})
	}
	return out, nil
}
