package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/JonMunkholm/sapclean/internal/report"
)

// Separator is the field delimiter of every delimited export.
const Separator = ';'

// bom makes spreadsheet programs detect UTF-8.
const bom = "\ufeff"

// DeletedHeader is the header row of the rejected-rows table.
var DeletedHeader = []string{"Reason", "Original Line", "Data"}

func newCSVWriter(w io.Writer) (*csv.Writer, error) {
	if _, err := io.WriteString(w, bom); err != nil {
		return nil, fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	cw.Comma = Separator
	return cw, nil
}

// WriteCleanedCSV writes the typed table with a header of schema names.
// Null integers are written as empty cells.
func WriteCleanedCSV(w io.Writer, schema report.Schema, records []report.Record) error {
	cw, err := newCSVWriter(w)
	if err != nil {
		return err
	}
	if err := cw.Write(schema.Names()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(rec.Strings()); err != nil {
			return fmt.Errorf("write line %d: %w", rec.Line, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDeletedCSV writes the audit table of rejected rows.
func WriteDeletedCSV(w io.Writer, rejections []report.Rejection) error {
	cw, err := newCSVWriter(w)
	if err != nil {
		return err
	}
	if err := cw.Write(DeletedHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rej := range rejections {
		row := []string{rej.Reason.Label(), strconv.Itoa(rej.Line), rej.Data}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write line %d: %w", rej.Line, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
