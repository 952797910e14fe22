package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/sapclean/internal/report"
)

func sampleResult(t *testing.T) *report.Result {
	t.Helper()
	names := report.DefaultSchema().Names()
	input := strings.Join([]string{
		"\t\t\t" + strings.Join(names, "\t"),
		"\t\t\t100200\tFL-01\tEQ\tPump seal; large\tWC1\t1.234,56\t-\t3\t\t01.02.24\t4711\tA\t12\tX\tCust",
		"\t\t\t100300\tFL-02",
		"\t\t*\tTotal",
		"",
		"\t\t\t\tFL-03",
	}, "\n")
	res, err := report.Process(strings.NewReader(input), report.DefaultOptions())
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	return res
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	if !bytes.HasPrefix(data, []byte(bom)) {
		t.Fatalf("missing utf-8 bom")
	}
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte(bom))))
	r.Comma = Separator
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return records
}

// ----------------------------------------------------------------------------
// CSV Tests
// ----------------------------------------------------------------------------

func TestWriteCleanedCSV_RoundTrip(t *testing.T) {
	res := sampleResult(t)
	schema := report.DefaultSchema()

	var buf bytes.Buffer
	if err := WriteCleanedCSV(&buf, schema, res.Records); err != nil {
		t.Fatalf("WriteCleanedCSV() error = %v", err)
	}

	rows := readCSV(t, buf.Bytes())
	if len(rows) != len(res.Records)+1 {
		t.Fatalf("got %d rows, want %d", len(rows), len(res.Records)+1)
	}
	if strings.Join(rows[0], "|") != strings.Join(schema.Names(), "|") {
		t.Errorf("header = %q", rows[0])
	}
	if len(rows[0]) != report.ColumnCount {
		t.Errorf("header has %d columns", len(rows[0]))
	}
	if rows[1][3] != "Pump seal; large" {
		t.Errorf("quoted field = %q", rows[1][3])
	}
	if rows[1][5] != "1235" || rows[1][6] != "" || rows[1][9] != "01.02.2024" {
		t.Errorf("typed fields = %q", rows[1])
	}
}

func TestWriteDeletedCSV(t *testing.T) {
	res := sampleResult(t)

	var buf bytes.Buffer
	if err := WriteDeletedCSV(&buf, res.Rejections); err != nil {
		t.Fatalf("WriteDeletedCSV() error = %v", err)
	}

	rows := readCSV(t, buf.Bytes())
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0][0] != "Reason" || rows[0][1] != "Original Line" || rows[0][2] != "Data" {
		t.Errorf("header = %q", rows[0])
	}
	if rows[1][0] != "Summary row" || rows[1][1] != "4" {
		t.Errorf("summary = %q", rows[1])
	}
	if rows[2][0] != "Missing key" || rows[2][1] != "6" {
		t.Errorf("missing key = %q", rows[2])
	}
}

// ----------------------------------------------------------------------------
// Plan Tests
// ----------------------------------------------------------------------------

func TestPlans(t *testing.T) {
	dir := filepath.Join("data", "in")
	tests := []struct {
		name string
		plan Plan
		want Plan
	}{
		{
			name: "beside source",
			plan: BesideSource(filepath.Join(dir, "report.txt")),
			want: Plan{
				CSVPath:      filepath.Join(dir, "report_cleaned.csv"),
				WorkbookPath: filepath.Join(dir, "report_cleaned.xlsx"),
				DeletedPath:  filepath.Join(dir, "report_deleted.csv"),
			},
		},
		{
			name: "csv target",
			plan: ForTarget(filepath.Join(dir, "out.CSV")),
			want: Plan{
				CSVPath:        filepath.Join(dir, "out.CSV"),
				DeletedPath:    filepath.Join(dir, "out_deleted.csv"),
				DeletedWithCSV: true,
			},
		},
		{
			name: "workbook target",
			plan: ForTarget(filepath.Join(dir, "out.xlsx")),
			want: Plan{
				WorkbookPath:    filepath.Join(dir, "out.xlsx"),
				FallbackCSVPath: filepath.Join(dir, "out.csv"),
				DeletedPath:     filepath.Join(dir, "out_deleted.csv"),
			},
		},
		{
			name: "downloads xlsx",
			plan: InDir("dl", "/tmp/report.txt", FormatXLSX),
			want: Plan{
				WorkbookPath:    filepath.Join("dl", "report_cleaned.xlsx"),
				FallbackCSVPath: filepath.Join("dl", "report_cleaned.csv"),
				DeletedPath:     filepath.Join("dl", "report_deleted.csv"),
			},
		},
		{
			name: "downloads csv",
			plan: InDir("dl", "/tmp/report.txt", FormatCSV),
			want: Plan{
				CSVPath:        filepath.Join("dl", "report_cleaned.csv"),
				DeletedPath:    filepath.Join("dl", "report_deleted.csv"),
				DeletedWithCSV: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.plan != tt.want {
				t.Errorf("plan = %+v\nwant   %+v", tt.plan, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"xlsx", FormatXLSX, false},
		{"Excel", FormatXLSX, false},
		{"", FormatXLSX, false},
		{"CSV", FormatCSV, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// ----------------------------------------------------------------------------
// Exporter Tests
// ----------------------------------------------------------------------------

type failingWriter struct{}

func (failingWriter) WriteWorkbook(w io.Writer, _ report.Schema, _ []report.Record, _ []report.Rejection) error {
	io.WriteString(w, "partial")
	return errors.New("disk full")
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestExporter_Workbook(t *testing.T) {
	dir := t.TempDir()
	res := sampleResult(t)
	plan := BesideSource(filepath.Join(dir, "report.txt"))

	out, err := New(ExcelWriter{}).Export(context.Background(), plan, report.DefaultSchema(), res)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if out.FellBack {
		t.Errorf("FellBack = true, reason %q", out.FallbackReason)
	}
	if out.Primary() != plan.WorkbookPath {
		t.Errorf("Primary() = %q, want %q", out.Primary(), plan.WorkbookPath)
	}
	if exists(plan.DeletedPath) {
		t.Error("deleted csv written without fallback")
	}

	f, err := excelize.OpenFile(plan.WorkbookPath)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != CleanedSheet || sheets[1] != DeletedSheet {
		t.Errorf("sheets = %q", sheets)
	}
	if v, _ := f.GetCellValue(CleanedSheet, "A1"); v != "Material" {
		t.Errorf("A1 = %q, want Material", v)
	}
	if v, _ := f.GetCellValue(CleanedSheet, "A2"); v != "100200" {
		t.Errorf("A2 = %q, want 100200", v)
	}
	if v, _ := f.GetCellValue(CleanedSheet, "G2"); v != "" {
		t.Errorf("null cell G2 = %q, want empty", v)
	}
	if v, _ := f.GetCellValue(DeletedSheet, "A2"); v != "Summary row" {
		t.Errorf("Deleted A2 = %q, want Summary row", v)
	}
	rows, err := f.GetRows(CleanedSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != len(res.Records)+1 {
		t.Errorf("got %d workbook rows, want %d", len(rows), len(res.Records)+1)
	}
}

func TestExporter_NoRejectionsSingleSheet(t *testing.T) {
	dir := t.TempDir()
	res := sampleResult(t)
	res.Rejections = nil
	target := filepath.Join(dir, "out.xlsx")

	if _, err := New(ExcelWriter{}).Export(context.Background(), ForTarget(target), report.DefaultSchema(), res); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	f, err := excelize.OpenFile(target)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	if sheets := f.GetSheetList(); len(sheets) != 1 {
		t.Errorf("sheets = %q, want only %q", sheets, CleanedSheet)
	}
}

func TestExporter_Fallback(t *testing.T) {
	tests := []struct {
		name   string
		sheets SheetWriter
	}{
		{name: "writer unavailable", sheets: nil},
		{name: "writer fails", sheets: failingWriter{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			res := sampleResult(t)
			target := filepath.Join(dir, "out.xlsx")
			plan := ForTarget(target)

			out, err := New(tt.sheets).Export(context.Background(), plan, report.DefaultSchema(), res)
			if err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			if !out.FellBack || out.FallbackReason == "" {
				t.Errorf("outcome = %+v, want fallback", out)
			}
			if exists(target) {
				t.Error("partial workbook left behind")
			}
			if !exists(plan.FallbackCSVPath) || !exists(plan.DeletedPath) {
				t.Errorf("fallback files missing: %v", out.Written)
			}
			if out.Primary() != plan.FallbackCSVPath {
				t.Errorf("Primary() = %q, want %q", out.Primary(), plan.FallbackCSVPath)
			}

			entries, _ := os.ReadDir(dir)
			if len(entries) != 2 {
				t.Errorf("got %d files in output dir, want 2", len(entries))
			}
		})
	}
}

func TestExporter_CSVTarget(t *testing.T) {
	dir := t.TempDir()
	res := sampleResult(t)
	target := filepath.Join(dir, "clean.csv")
	plan := ForTarget(target)

	out, err := New(ExcelWriter{}).Export(context.Background(), plan, report.DefaultSchema(), res)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(out.Written) != 2 || !exists(plan.DeletedPath) {
		t.Errorf("written = %v, want csv and deleted csv", out.Written)
	}

	res.Rejections = nil
	os.Remove(plan.DeletedPath)
	out, err = New(ExcelWriter{}).Export(context.Background(), plan, report.DefaultSchema(), res)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(out.Written) != 1 || exists(plan.DeletedPath) {
		t.Errorf("written = %v, want only the cleaned csv", out.Written)
	}
}

func TestExporter_CSVFailureIsFatal(t *testing.T) {
	res := sampleResult(t)
	plan := Plan{CSVPath: filepath.Join(t.TempDir(), "missing", "out.csv")}

	if _, err := New(nil).Export(context.Background(), plan, report.DefaultSchema(), res); err == nil {
		t.Error("Export() expected error for unwritable csv path")
	}
}

func TestExporter_Render(t *testing.T) {
	res := sampleResult(t)
	schema := report.DefaultSchema()

	tests := []struct {
		name   string
		sheets SheetWriter
		format Format
		want   Format
	}{
		{name: "workbook", sheets: ExcelWriter{}, format: FormatXLSX, want: FormatXLSX},
		{name: "csv requested", sheets: ExcelWriter{}, format: FormatCSV, want: FormatCSV},
		{name: "writer unavailable", sheets: nil, format: FormatXLSX, want: FormatCSV},
		{name: "writer fails", sheets: failingWriter{}, format: FormatXLSX, want: FormatCSV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			got, err := New(tt.sheets).Render(context.Background(), &buf, tt.format, schema, res)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Render() format = %q, want %q", got, tt.want)
			}
			switch got {
			case FormatXLSX:
				if !bytes.HasPrefix(buf.Bytes(), []byte("PK")) {
					t.Error("workbook output is not a zip archive")
				}
			case FormatCSV:
				if rows := readCSV(t, buf.Bytes()); len(rows) != len(res.Records)+1 {
					t.Errorf("got %d csv rows, want %d", len(rows), len(res.Records)+1)
				}
			}
		})
	}
}
