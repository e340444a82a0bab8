package report

import (
	"errors"
	"fmt"

	"github.com/bryanwahyu/geo-authority/internal/domain/exports"
)

// ErrExportUnavailable: nothing to export yet (no rows, or no metrics for the
// comprehensive report).
var ErrExportUnavailable = errors.New("export unavailable")

// Column of a sheet
type Column struct {
	Header string
	Width  float64
}

// Sheet is a named table. Cells hold string, int or float64 values.
type Sheet struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// Workbook is the encoder-independent report.
type Workbook struct {
	Filename string
	Sheets   []Sheet
}

// Sheet looks a sheet up by name.
func (w Workbook) Sheet(name string) (Sheet, bool) {
	for _, s := range w.Sheets {
		if s.Name == name {
			return s, true
		}
	}
	return Sheet{}, false
}

// Filename of the downloadable report.
func Filename(domain, state string, v exports.Variant) string {
	if state == "" {
		state = "local"
	}
	switch v {
	case exports.VariantAuthority:
		return fmt.Sprintf("%s_%s_authority_report.xlsx", domain, state)
	default:
		return fmt.Sprintf("%s_%s_comprehensive_report.xlsx", domain, state)
	}
}
