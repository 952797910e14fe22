package export

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/sapclean/internal/report"
)

// Sheet names used in the workbook.
const (
	CleanedSheet = "Cleaned Data"
	DeletedSheet = "Deleted Rows"
)

// maxColWidth caps auto-sized columns so long descriptions stay readable.
const maxColWidth = 60

// SheetWriter writes both tables as a spreadsheet workbook.
// A nil SheetWriter means spreadsheet output is unavailable.
type SheetWriter interface {
	WriteWorkbook(w io.Writer, schema report.Schema, records []report.Record, rejections []report.Rejection) error
}

// ExcelWriter writes .xlsx workbooks with excelize.
type ExcelWriter struct{}

// WriteWorkbook writes the cleaned table to CleanedSheet and, when there
// are rejections, the audit table to DeletedSheet.
func (ExcelWriter) WriteWorkbook(w io.Writer, schema report.Schema, records []report.Record, rejections []report.Rejection) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", CleanedSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	rows := make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, len(rec.Fields))
		for j, fld := range rec.Fields {
			row[j] = fld.Value()
		}
		rows[i] = row
	}
	if err := writeSheet(f, CleanedSheet, schema.Names(), rows, bold); err != nil {
		return err
	}

	if len(rejections) > 0 {
		if _, err := f.NewSheet(DeletedSheet); err != nil {
			return fmt.Errorf("create sheet %q: %w", DeletedSheet, err)
		}
		rows := make([][]any, len(rejections))
		for i, rej := range rejections {
			rows[i] = []any{rej.Reason.Label(), rej.Line, rej.Data}
		}
		if err := writeSheet(f, DeletedSheet, DeletedHeader, rows, bold); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// writeSheet fills one sheet: bold frozen header, then data rows.
// nil values are left as empty cells.
func writeSheet(f *excelize.File, sheet string, header []string, rows [][]any, headerStyle int) error {
	widths := make([]int, len(header))

	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("%s header: %w", sheet, err)
		}
		widths[i] = utf8.RuneCountInString(h)
	}

	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("%s row %d: %w", sheet, r+2, err)
			}
			if c < len(widths) {
				if n := utf8.RuneCountInString(fmt.Sprint(v)); n > widths[c] {
					widths[c] = n
				}
			}
		}
	}

	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("%s header style: %w", sheet, err)
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("%s freeze header: %w", sheet, err)
	}

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, float64(min(w, maxColWidth)+2)); err != nil {
			return fmt.Errorf("%s column width: %w", sheet, err)
		}
	}
	return nil
}
