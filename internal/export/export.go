// Package export writes a cleaned report to disk as delimited text and
// spreadsheet files.
//
// A [Plan] names the files a run should produce. The [Exporter] carries it
// out and falls back to delimited text when the spreadsheet writer is
// missing or fails, so a run with good input always leaves usable output.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/sapclean/internal/logging"
	"github.com/JonMunkholm/sapclean/internal/report"
)

// Format is an output file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts "xlsx", "excel" and "csv" in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xlsx", "excel", "":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want xlsx or csv)", s)
	}
}

// ErrNoSheetWriter is the fallback reason when spreadsheet output is unavailable.
var ErrNoSheetWriter = errors.New("spreadsheet writer unavailable")

// Plan lists the files to write. Empty paths are skipped.
type Plan struct {
	// CSVPath receives the cleaned table unconditionally.
	CSVPath string

	// WorkbookPath receives both tables as a workbook.
	WorkbookPath string

	// FallbackCSVPath receives the cleaned table when the workbook fails.
	FallbackCSVPath string

	// DeletedPath receives the rejected rows. It is written on workbook
	// fallback, or with a plain CSV export when DeletedWithCSV is set and
	// there are rejections.
	DeletedPath    string
	DeletedWithCSV bool
}

// stem returns the file name without directory and extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// BesideSource writes <stem>_cleaned.csv and <stem>_cleaned.xlsx next to
// the source file. The rejected rows go to <stem>_deleted.csv only when
// the workbook cannot be written.
func BesideSource(src string) Plan {
	dir, name := filepath.Dir(src), stem(src)
	return Plan{
		CSVPath:      filepath.Join(dir, name+"_cleaned.csv"),
		WorkbookPath: filepath.Join(dir, name+"_cleaned.xlsx"),
		DeletedPath:  filepath.Join(dir, name+"_deleted.csv"),
	}
}

// ForTarget writes to a user-chosen file. A .csv target gets the cleaned
// table plus <stem>_deleted.csv when rows were rejected. Any other target
// gets a workbook, falling back to <stem>.csv and <stem>_deleted.csv.
func ForTarget(target string) Plan {
	dir, name := filepath.Dir(target), stem(target)
	deleted := filepath.Join(dir, name+"_deleted.csv")

	if strings.EqualFold(filepath.Ext(target), ".csv") {
		return Plan{CSVPath: target, DeletedPath: deleted, DeletedWithCSV: true}
	}
	return Plan{
		WorkbookPath:    target,
		FallbackCSVPath: filepath.Join(dir, name+".csv"),
		DeletedPath:     deleted,
	}
}

// InDir writes <source stem>_cleaned.<format> into dir.
func InDir(dir, src string, format Format) Plan {
	name := stem(src)
	csvPath := filepath.Join(dir, name+"_cleaned.csv")
	deleted := filepath.Join(dir, name+"_deleted.csv")

	if format == FormatCSV {
		return Plan{CSVPath: csvPath, DeletedPath: deleted, DeletedWithCSV: true}
	}
	return Plan{
		WorkbookPath:    filepath.Join(dir, name+"_cleaned.xlsx"),
		FallbackCSVPath: csvPath,
		DeletedPath:     deleted,
	}
}

// Outcome reports what an export wrote.
type Outcome struct {
	Written        []string `json:"written"`
	FellBack       bool     `json:"fellBack"`
	FallbackReason string   `json:"fallbackReason,omitempty"`
}

// Primary returns the main output file: the workbook when it was written,
// otherwise the cleaned CSV.
func (o Outcome) Primary() string {
	if len(o.Written) == 0 {
		return ""
	}
	return o.Written[0]
}

// Exporter carries out plans.
type Exporter struct {
	sheets SheetWriter
}

// New returns an Exporter. Pass a nil SheetWriter when spreadsheet output
// is not available; workbook targets then fall back to CSV.
func New(sheets SheetWriter) *Exporter {
	return &Exporter{sheets: sheets}
}

// Export writes the files named by plan.
//
// A workbook failure is logged and triggers the fallback. Failing to write
// a cleaned CSV is returned as an error.
func (e *Exporter) Export(ctx context.Context, plan Plan, schema report.Schema, res *report.Result) (Outcome, error) {
	logger := logging.FromContext(ctx)
	var out Outcome

	writeCleaned := func(path string) error {
		if err := writeFile(path, func(w io.Writer) error {
			return WriteCleanedCSV(w, schema, res.Records)
		}); err != nil {
			return fmt.Errorf("export cleaned csv: %w", err)
		}
		out.Written = append(out.Written, path)
		return nil
	}
	writeDeleted := func() error {
		if err := writeFile(plan.DeletedPath, func(w io.Writer) error {
			return WriteDeletedCSV(w, res.Rejections)
		}); err != nil {
			return fmt.Errorf("export deleted rows: %w", err)
		}
		out.Written = append(out.Written, plan.DeletedPath)
		return nil
	}

	if plan.WorkbookPath != "" {
		err := e.writeWorkbook(plan.WorkbookPath, schema, res)
		if err == nil {
			out.Written = append(out.Written, plan.WorkbookPath)
		} else {
			out.FellBack = true
			out.FallbackReason = err.Error()
			logger.Warn("workbook export failed, falling back to csv",
				"path", plan.WorkbookPath,
				"error", err,
			)
		}
	}

	if plan.CSVPath != "" {
		if err := writeCleaned(plan.CSVPath); err != nil {
			return out, err
		}
	}

	if out.FellBack {
		if plan.FallbackCSVPath != "" {
			if err := writeCleaned(plan.FallbackCSVPath); err != nil {
				return out, err
			}
		}
		if plan.DeletedPath != "" {
			if err := writeDeleted(); err != nil {
				return out, err
			}
		}
	} else if plan.DeletedWithCSV && plan.DeletedPath != "" && len(res.Rejections) > 0 {
		if err := writeDeleted(); err != nil {
			return out, err
		}
	}

	logger.Info("export complete", "primary", out.Primary(), "files", out.Written, "fell_back", out.FellBack)
	return out, nil
}

// Render writes the requested format to w and returns the format actually
// written. A workbook request falls back to the cleaned CSV when the
// spreadsheet writer is unavailable or fails; nothing reaches w before the
// workbook is complete.
func (e *Exporter) Render(ctx context.Context, w io.Writer, format Format, schema report.Schema, res *report.Result) (Format, error) {
	if format == FormatXLSX {
		err := ErrNoSheetWriter
		if e.sheets != nil {
			var buf bytes.Buffer
			if err = e.sheets.WriteWorkbook(&buf, schema, res.Records, res.Rejections); err == nil {
				if _, err := buf.WriteTo(w); err != nil {
					return FormatXLSX, fmt.Errorf("send workbook: %w", err)
				}
				return FormatXLSX, nil
			}
		}
		logging.FromContext(ctx).Warn("workbook render failed, sending csv", "error", err)
	}

	if err := WriteCleanedCSV(w, schema, res.Records); err != nil {
		return FormatCSV, fmt.Errorf("export cleaned csv: %w", err)
	}
	return FormatCSV, nil
}

func (e *Exporter) writeWorkbook(path string, schema report.Schema, res *report.Result) error {
	if e.sheets == nil {
		return ErrNoSheetWriter
	}
	return writeFile(path, func(w io.Writer) error {
		return e.sheets.WriteWorkbook(w, schema, res.Records, res.Rejections)
	})
}

// writeFile writes through a temporary file in the target directory and
// renames it into place, so a failed write leaves no partial file.
func writeFile(path string, fn func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := fn(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
