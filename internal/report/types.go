package report

import (
	"strconv"
	"strings"
)

// Kind is the target type of a report column.
type Kind int

const (
	KindText Kind = iota
	KindInteger
	KindDate
)

// String returns the lower-case name used in profiles and JSON output.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindDate:
		return "date"
	default:
		return "text"
	}
}

// ParseKind converts a profile kind name to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "string", "":
		return KindText, true
	case "integer", "int", "number":
		return KindInteger, true
	case "date":
		return KindDate, true
	default:
		return KindText, false
	}
}

// MarshalText implements encoding.TextMarshaler so kinds render by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Column is one canonical output column.
type Column struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Schema is the ordered list of output columns. The first column is the key.
type Schema []Column

// Names returns the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// RawRow is one line of the input split on tabs. Cells are untrimmed.
type RawRow []string

// Anchor is the 0-based position of the header cell.
type Anchor struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

// Field is a single typed value in a cleaned record.
type Field struct {
	Kind Kind
	Text string // text and date columns
	Int  int64  // integer columns when Null is false
	Null bool   // integer columns with no value
}

// String renders the field the way it appears in delimited output.
func (f Field) String() string {
	if f.Kind == KindInteger {
		if f.Null {
			return ""
		}
		return strconv.FormatInt(f.Int, 10)
	}
	return f.Text
}

// Value returns the field as a Go value for typed writers.
// Null integers return nil.
func (f Field) Value() any {
	if f.Kind == KindInteger {
		if f.Null {
			return nil
		}
		return f.Int
	}
	return f.Text
}

// Record is a row that survived classification.
type Record struct {
	Line   int     // 1-based line number in the raw file
	Key    string  // trimmed key text, never empty
	Fields []Field // one per schema column
}

// Strings returns the rendered field values.
func (r Record) Strings() []string {
	out := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		out[i] = f.String()
	}
	return out
}

// Reason explains why a row was rejected.
type Reason string

const (
	ReasonSummaryRow Reason = "SummaryRow"
	ReasonMissingKey Reason = "MissingKey"
)

// Label returns the human-readable form used in exports.
func (r Reason) Label() string {
	switch r {
	case ReasonSummaryRow:
		return "Summary row"
	case ReasonMissingKey:
		return "Missing key"
	default:
		return string(r)
	}
}

// Rejection is the audit entry for a discarded, reportable row.
type Rejection struct {
	Reason Reason `json:"reason"`
	Line   int    `json:"line"`
	Data   string `json:"data"`
}

// Stats counts classification outcomes.
// TotalConsidered always equals the sum of the other four counters.
type Stats struct {
	TotalConsidered int `json:"totalConsidered"`
	SummaryRows     int `json:"summaryRows"`
	EmptyRows       int `json:"emptyRows"`
	MissingKeyRows  int `json:"missingKeyRows"`
	KeptRows        int `json:"keptRows"`
}

// Deleted returns the number of rows written to the audit table.
func (s Stats) Deleted() int {
	return s.SummaryRows + s.MissingKeyRows
}

// Result is the output of one run.
type Result struct {
	Anchor        Anchor
	AnchorFound   bool
	SourceHeaders []string // header text read from the file, diagnostics only
	Records       []Record
	Rejections    []Rejection
	Stats         Stats
	Warnings      []string
}
