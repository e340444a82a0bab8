package xlsx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/bryanwahyu/geo-authority/internal/domain/evaluation"
	"github.com/bryanwahyu/geo-authority/internal/domain/metrics"
	"github.com/bryanwahyu/geo-authority/internal/domain/report"
)

func TestEncodeComprehensive(t *testing.T) {
	results := []evaluation.Result{
		{ID: "1", Category: "General", Question: "Best plumber near me?", FullAnswer: "We recommend Acme Plumbing for this job.", Found: true},
	}
	wb, err := report.BuildComprehensive(results, &metrics.Snapshot{BrandName: "Acme"}, report.Options{BrandName: "Acme", Domain: "acme.com"})
	require.NoError(t, err)

	data, err := NewEncoder().Encode(wb)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	sheets, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, sheets, 5)
	assert.Equal(t, report.SheetPromptTracking, sheets[0].Name)
	assert.Equal(t, report.SheetAllQnA, sheets[4].Name)

	qa := sheets[4].Rows
	require.Len(t, qa, 2)
	assert.Equal(t, []string{"Category", "Category Found Rate", "Question", "AI Answer", "Brand Found", "Notes"}, qa[0])
	assert.Equal(t, "YES ✓", qa[1][4])

	pt := sheets[0].Rows
	assert.Equal(t, "4", pt[1][8])
}

func TestEncodeLayout(t *testing.T) {
	wb := report.Workbook{Sheets: []report.Sheet{{
		Name:    report.SheetAuthority,
		Columns: []report.Column{{Header: "Category", Width: 25}, {Header: "Question", Width: 50}},
		Rows:    [][]any{{"General", "Who?"}, {"Cost", report.NA}},
	}}}
	data, err := NewEncoder().Encode(wb)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{report.SheetAuthority}, f.GetSheetList())

	w, err := f.GetColWidth(report.SheetAuthority, "B")
	require.NoError(t, err)
	assert.Equal(t, 50.0, w)

	panes, err := f.GetPanes(report.SheetAuthority)
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
	assert.Equal(t, 1, panes.YSplit)

	styleID, err := f.GetCellStyle(report.SheetAuthority, "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)

	v, err := f.GetCellValue(report.SheetAuthority, "B3")
	require.NoError(t, err)
	assert.Equal(t, "NA", v)
}

func TestEncodeEmpty(t *testing.T) {
	_, err := NewEncoder().Encode(report.Workbook{})
	assert.ErrorIs(t, err, report.ErrExportUnavailable)
}
