package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"golang.org/x/text/encoding/unicode"
)

// line builds a tab-separated report line with the anchor at column 3
// and the marker at column 2.
func line(marker string, fields ...string) string {
	return strings.Join(append([]string{"", "", marker}, fields...), "\t")
}

func header() string {
	return line("", DefaultSchema().Names()...)
}

// ----------------------------------------------------------------------------
// Tokenizer Tests
// ----------------------------------------------------------------------------

func TestSplitRows(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantRows int
		wantLast RawRow
	}{
		{name: "single line", input: "a\tb", wantRows: 1, wantLast: RawRow{"a", "b"}},
		{name: "trailing newline keeps empty row", input: "a\tb\n", wantRows: 2, wantLast: RawRow{""}},
		{name: "crlf", input: "a\r\nb\tc\r\n", wantRows: 3, wantLast: RawRow{""}},
		{name: "cells untrimmed", input: "x\n a \t b ", wantRows: 2, wantLast: RawRow{" a ", " b "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := SplitRows(tt.input)
			if len(rows) != tt.wantRows {
				t.Fatalf("got %d rows, want %d", len(rows), tt.wantRows)
			}
			last := rows[len(rows)-1]
			if strings.Join(last, "|") != strings.Join(tt.wantLast, "|") || len(last) != len(tt.wantLast) {
				t.Errorf("last row = %q, want %q", last, tt.wantLast)
			}
		})
	}
}

func TestTokenize_Encodings(t *testing.T) {
	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String("Material\tGröße")
	if err != nil {
		t.Fatalf("encode utf-16: %v", err)
	}

	tests := []struct {
		name     string
		input    []byte
		encoding string
		want     RawRow
	}{
		{name: "utf-8", input: []byte("Material\tGröße"), encoding: "utf-8", want: RawRow{"Material", "Größe"}},
		{name: "utf-8 bom stripped", input: []byte("\xef\xbb\xbfMaterial\tx"), encoding: "", want: RawRow{"Material", "x"}},
		{name: "invalid bytes replaced", input: []byte("a\xffb"), encoding: "utf-8", want: RawRow{"a\ufffdb"}},
		{name: "windows-1252", input: []byte("Material\tGr\xf6\xdfe"), encoding: "windows-1252", want: RawRow{"Material", "Größe"}},
		{name: "latin1", input: []byte("\xe4"), encoding: "latin1", want: RawRow{"ä"}},
		{name: "utf-16le with bom", input: []byte(utf16), encoding: "utf-16le", want: RawRow{"Material", "Größe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := Tokenize(bytes.NewReader(tt.input), tt.encoding)
			if err != nil {
				t.Fatalf("Tokenize() error = %v", err)
			}
			if len(rows) != 1 {
				t.Fatalf("got %d rows, want 1", len(rows))
			}
			if strings.Join(rows[0], "|") != strings.Join(tt.want, "|") {
				t.Errorf("row = %q, want %q", rows[0], tt.want)
			}
		})
	}
}

func TestTokenize_Empty(t *testing.T) {
	for _, input := range []string{"", "\xef\xbb\xbf"} {
		_, err := Tokenize(strings.NewReader(input), "utf-8")
		if !errors.Is(err, ErrEmptyInput) {
			t.Errorf("Tokenize(%q) error = %v, want ErrEmptyInput", input, err)
		}
	}
}

func TestDecoder_Unsupported(t *testing.T) {
	if _, err := Decoder("ebcdic"); err == nil {
		t.Error("Decoder(ebcdic) expected error")
	}
	if err := CheckEncoding("ebcdic"); err == nil {
		t.Error("CheckEncoding(ebcdic) expected error")
	}
	if err := CheckEncoding("AUTO"); err != nil {
		t.Errorf("CheckEncoding(AUTO) error = %v", err)
	}
}

func TestDetectEncoding(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{name: "utf-8 bom", input: []byte("\xef\xbb\xbfMaterial"), want: "utf-8"},
		{name: "utf-16le bom", input: []byte{0xFF, 0xFE, 'M', 0}, want: "utf-16le"},
		{name: "utf-16be bom", input: []byte{0xFE, 0xFF, 0, 'M'}, want: "utf-16be"},
		{name: "plain ascii", input: []byte("Material\tOrder"), want: "utf-8"},
		{name: "valid utf-8", input: []byte("Matériel"), want: "utf-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectEncoding(tt.input); got != tt.want {
				t.Errorf("DetectEncoding() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecode_Auto(t *testing.T) {
	// "Matériel Größe" in a single-byte Western encoding.
	input := "Mat\xe9riel Gr\xf6\xdfe\tWerk \xc4nderung f\xfcr K\xfchlung\n"
	got, err := Decode(strings.NewReader(input), AutoEncoding)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	for _, want := range []string{"Matériel", "Größe", "Änderung", "Kühlung"} {
		if !strings.Contains(got, want) {
			t.Errorf("Decode() = %q, missing %q", got, want)
		}
	}
}

// ----------------------------------------------------------------------------
// Header Locator Tests
// ----------------------------------------------------------------------------

func TestFindAnchor(t *testing.T) {
	tests := []struct {
		name      string
		rows      []RawRow
		wantFound bool
		want      Anchor
	}{
		{
			name:      "exact",
			rows:      []RawRow{{"x"}, {"", "", "", "Material"}},
			wantFound: true,
			want:      Anchor{Row: 1, Column: 3},
		},
		{
			name:      "case and whitespace",
			rows:      []RawRow{{"  MATERIAL "}},
			wantFound: true,
			want:      Anchor{Row: 0, Column: 0},
		},
		{
			name:      "first row wins",
			rows:      []RawRow{{"", "", "material"}, {"material"}},
			wantFound: true,
			want:      Anchor{Row: 0, Column: 2},
		},
		{
			name:      "first column wins",
			rows:      []RawRow{{"", "material", "material"}},
			wantFound: true,
			want:      Anchor{Row: 0, Column: 1},
		},
		{
			name:      "substring does not match",
			rows:      []RawRow{{"Material Description"}},
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := FindAnchor(tt.rows, "material")
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v", found, tt.wantFound)
			}
			if found && got != tt.want {
				t.Errorf("anchor = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHeaderLabels_ShortHeader(t *testing.T) {
	rows := []RawRow{{"", "Material", "Functional Loc."}}
	labels := HeaderLabels(rows, Anchor{Row: 0, Column: 1})
	if len(labels) != ColumnCount {
		t.Fatalf("got %d labels, want %d", len(labels), ColumnCount)
	}
	if labels[0] != "Material" || labels[1] != "Functional Loc." {
		t.Errorf("labels[0:2] = %q", labels[:2])
	}
	if labels[2] != "Col_3" {
		t.Errorf("labels[2] = %q, want Col_3", labels[2])
	}
}

// ----------------------------------------------------------------------------
// Row Classifier Tests
// ----------------------------------------------------------------------------

func TestClassifier_Row(t *testing.T) {
	c := NewClassifier(Anchor{Row: 0, Column: 3}, DefaultOptions())

	tests := []struct {
		name string
		row  RawRow
		want Outcome
	}{
		{name: "all blank", row: RawRow{" ", "\t", ""}, want: OutcomeEmpty},
		{name: "no cells", row: RawRow{""}, want: OutcomeEmpty},
		{name: "single star", row: RawRow{"", "", "*", "100"}, want: OutcomeSummary},
		{name: "double star padded", row: RawRow{"", "", " ** ", "100"}, want: OutcomeSummary},
		{name: "triple star is data", row: RawRow{"", "", "***", "100"}, want: OutcomeKept},
		{name: "star elsewhere is data", row: RawRow{"*", "", "", "100"}, want: OutcomeKept},
		{name: "short row before marker", row: RawRow{"x"}, want: OutcomeMissingKey},
		{name: "blank key", row: RawRow{"", "", "", " ", "FL"}, want: OutcomeMissingKey},
		{name: "key present", row: RawRow{"", "", "", "100"}, want: OutcomeKept},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := c.Row(tt.row)
			if got != tt.want {
				t.Errorf("Row(%q) = %v, want %v", tt.row, got, tt.want)
			}
		})
	}
}

func TestClassifier_MarkerLeftOfFirstColumn(t *testing.T) {
	c := NewClassifier(Anchor{Row: 0, Column: 0}, DefaultOptions())
	got, _ := c.Row(RawRow{"*"})
	if got != OutcomeKept {
		t.Errorf("Row(*) = %v, want OutcomeKept", got)
	}
}

func TestClassifier_BlankMarkerIgnored(t *testing.T) {
	opts := DefaultOptions()
	opts.MarkerValues = []string{"*", ""}

	rows := SplitRows("x\tx\tMaterial\n\t\t1\n\t\t2\n")
	res := ProcessRows(rows, opts)

	want := Stats{TotalConsidered: 3, EmptyRows: 1, KeptRows: 2}
	if res.Stats != want {
		t.Errorf("Stats = %+v, want %+v", res.Stats, want)
	}
}

func TestClassify_RejectionData(t *testing.T) {
	rows := []RawRow{
		{"", "", "", "Material"},
		{"", "", "*", "Total", "x"},
		{"", "", "", "", "FL-9"},
	}
	cls := Classify(rows, Anchor{Row: 0, Column: 3}, DefaultOptions())

	if len(cls.Rejections) != 2 {
		t.Fatalf("got %d rejections, want 2", len(cls.Rejections))
	}

	summary := cls.Rejections[0]
	if summary.Reason != ReasonSummaryRow || summary.Line != 2 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.Data != "\t\t*\tTotal\tx" {
		t.Errorf("summary data = %q, want raw row", summary.Data)
	}

	missing := cls.Rejections[1]
	if missing.Reason != ReasonMissingKey || missing.Line != 3 {
		t.Errorf("missing = %+v", missing)
	}
	fields := strings.Split(missing.Data, "\t")
	if len(fields) != ColumnCount || fields[0] != "" || fields[1] != "FL-9" {
		t.Errorf("missing data = %q, want 15 extracted cells", missing.Data)
	}
}

// ----------------------------------------------------------------------------
// Pipeline Tests
// ----------------------------------------------------------------------------

func TestProcess_EndToEnd(t *testing.T) {
	input := strings.Join([]string{
		header(),
		line("", "100200", "FL-01", "EQ-1", "Pump seal", "WC1", "1.234,56", "-", "3", "", "01.02.24", "4711", "A", "12", "X", "Customer A"),
		line("*", "", "", "", "", "", "1.234"),
		"\t\t\t",
		line("", "", "FL-02", "EQ-2"),
	}, "\n")

	res, err := Process(strings.NewReader(input), DefaultOptions())
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	want := Stats{TotalConsidered: 4, SummaryRows: 1, EmptyRows: 1, MissingKeyRows: 1, KeptRows: 1}
	if res.Stats != want {
		t.Errorf("stats = %+v, want %+v", res.Stats, want)
	}
	if !res.AnchorFound || res.Anchor != (Anchor{Row: 0, Column: 3}) {
		t.Errorf("anchor = %+v found=%v", res.Anchor, res.AnchorFound)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
	if res.SourceHeaders[0] != "Material" {
		t.Errorf("SourceHeaders[0] = %q", res.SourceHeaders[0])
	}

	if len(res.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(res.Records))
	}
	rec := res.Records[0]
	if rec.Line != 2 {
		t.Errorf("record line = %d, want 2", rec.Line)
	}
	wantStrings := []string{"100200", "FL-01", "EQ-1", "Pump seal", "WC1", "1235", "", "3", "", "01.02.2024", "4711", "A", "12", "X", "Customer A"}
	if got := rec.Strings(); strings.Join(got, "|") != strings.Join(wantStrings, "|") {
		t.Errorf("record = %q\nwant     %q", got, wantStrings)
	}

	if len(res.Rejections) != 2 {
		t.Fatalf("got %d rejections, want 2", len(res.Rejections))
	}
	if res.Rejections[0].Line != 3 || res.Rejections[1].Line != 5 {
		t.Errorf("rejection lines = %d, %d, want 3, 5", res.Rejections[0].Line, res.Rejections[1].Line)
	}
	if res.Stats.Deleted() != len(res.Rejections) {
		t.Errorf("Deleted() = %d, want %d", res.Stats.Deleted(), len(res.Rejections))
	}
}

func TestProcess_StatsSum(t *testing.T) {
	inputs := []string{
		header(),
		header() + "\n",
		header() + "\n" + line("", "1") + "\n\n" + line("**") + "\n" + line("", " ") + "\n",
		"no header here\nat all\n\n\t\t\t\n\t\tx\t1\n",
	}
	for _, input := range inputs {
		res, err := Process(strings.NewReader(input), DefaultOptions())
		if err != nil {
			t.Fatalf("Process() error = %v", err)
		}
		s := res.Stats
		if s.TotalConsidered != s.SummaryRows+s.EmptyRows+s.MissingKeyRows+s.KeptRows {
			t.Errorf("stats do not sum: %+v", s)
		}
		for _, r := range res.Records {
			if r.Key == "" {
				t.Errorf("record on line %d has empty key", r.Line)
			}
		}
	}
}

func TestProcess_FallbackAnchor(t *testing.T) {
	input := strings.Join([]string{
		"SAP report",
		"",
		"",
		"\t\tPart\tLoc",
		"\t\t555\tFL-1",
		"\t*\t999",
	}, "\n")

	res, err := Process(strings.NewReader(input), DefaultOptions())
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.AnchorFound {
		t.Error("AnchorFound = true, want false")
	}
	if res.Anchor != DefaultFallbackAnchor {
		t.Errorf("anchor = %+v, want %+v", res.Anchor, DefaultFallbackAnchor)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("warnings = %v, want one", res.Warnings)
	}
	if res.Stats.TotalConsidered != 2 || res.Stats.KeptRows != 1 || res.Stats.SummaryRows != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if res.Records[0].Fields[0].Int != 555 {
		t.Errorf("key = %+v, want 555", res.Records[0].Fields[0])
	}
}

func TestProcess_NonNumericKeyKept(t *testing.T) {
	input := header() + "\n" + line("", "ABC-1", "FL")
	res, err := Process(strings.NewReader(input), DefaultOptions())
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(res.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(res.Records))
	}
	rec := res.Records[0]
	if rec.Key != "ABC-1" || !rec.Fields[0].Null {
		t.Errorf("record = %+v, want key ABC-1 with null Material", rec)
	}
}

func TestProcess_Errors(t *testing.T) {
	if _, err := Process(strings.NewReader(""), DefaultOptions()); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("empty input error = %v, want ErrEmptyInput", err)
	}

	opts := DefaultOptions()
	opts.Schema = opts.Schema[:3]
	if _, err := Process(strings.NewReader("x"), opts); err == nil {
		t.Error("short schema expected error")
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Options)
		wantErr string
	}{
		{name: "defaults", modify: func(o *Options) {}},
		{name: "duplicate column", modify: func(o *Options) { o.Schema[1].Name = "Material" }, wantErr: "duplicated"},
		{name: "blank label", modify: func(o *Options) { o.AnchorLabel = " " }, wantErr: "anchor label"},
		{name: "negative offset", modify: func(o *Options) { o.MarkerOffset = -1 }, wantErr: "marker offset"},
		{name: "no markers", modify: func(o *Options) { o.MarkerValues = nil }, wantErr: "marker value"},
		{name: "blank marker", modify: func(o *Options) { o.MarkerValues = []string{"*", " "} }, wantErr: "must not be blank"},
		{name: "bad encoding", modify: func(o *Options) { o.Encoding = "klingon" }, wantErr: "unsupported encoding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)
			err := opts.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
