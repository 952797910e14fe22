package report

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// numericRegex matches a plain decimal number after separators are resolved.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

var (
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

// dateLayouts are tried in order; the first full parse wins.
var dateLayouts = []string{
	"2.1.06",   // 01.02.24
	"2.1.2006", // 01.02.2024
	"2006-1-2", // 2024-02-01
}

// DateOutputLayout is how every recognised date is rendered.
const DateOutputLayout = "02.01.2006"

// CoerceInteger converts locale-ambiguous numeric text to an integer.
// The bool is false for blank, "-" and anything that does not parse.
//
// Separator rules:
//   - both "," and "." present: "." is thousands, "," is decimal
//   - only ",": decimal when there is one comma with at most two digits after it, else thousands
//   - only ".": thousands when there is one dot with a non-empty lead and exactly three digits after it, else decimal
//
// Halves round to even, so "2,5" is 2 and "3,5" is 4.
func CoerceInteger(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0, false
	}

	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, " ", "")

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && hasDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case hasComma:
		parts := strings.Split(s, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasDot:
		parts := strings.Split(s, ".")
		if len(parts) == 2 && len(parts[0]) >= 1 && len(parts[1]) == 3 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	if !numericRegex.MatchString(s) {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	r := d.RoundBank(0)
	if r.LessThan(minInt64) || r.GreaterThan(maxInt64) {
		return 0, false
	}
	return r.IntPart(), true
}

// CoerceDate normalises a posting date to DD.MM.YYYY.
// Text that matches no layout is returned trimmed but otherwise unchanged.
func CoerceDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateOutputLayout)
		}
	}
	return s
}

// CoerceText trims s and blanks it when it is exactly one of sentinels.
func CoerceText(s string, sentinels []string) string {
	s = strings.TrimSpace(s)
	for _, v := range sentinels {
		if s == v {
			return ""
		}
	}
	return s
}

// Normalizer converts kept text rows into typed records.
type Normalizer struct {
	schema    Schema
	sentinels []string
}

// NewNormalizer returns a normalizer for the given options.
func NewNormalizer(opts Options) *Normalizer {
	return &Normalizer{schema: opts.Schema, sentinels: opts.TextSentinels}
}

// Field coerces one value for the column at index col.
func (n *Normalizer) Field(col int, value string) Field {
	kind := n.schema[col].Kind
	switch kind {
	case KindInteger:
		v, ok := CoerceInteger(value)
		return Field{Kind: kind, Int: v, Null: !ok}
	case KindDate:
		return Field{Kind: kind, Text: CoerceDate(value)}
	default:
		return Field{Kind: kind, Text: CoerceText(value, n.sentinels)}
	}
}

// Normalize types every kept row. Work proceeds column by column so each
// column's coercion runs as one pass over the table.
func (n *Normalizer) Normalize(kept [][]string, lines []int) []Record {
	records := make([]Record, len(kept))
	for i, row := range kept {
		records[i] = Record{
			Key:    strings.TrimSpace(row[0]),
			Fields: make([]Field, len(n.schema)),
		}
		if i < len(lines) {
			records[i].Line = lines[i]
		}
	}

	for col := range n.schema {
		for i, row := range kept {
			var v string
			if col < len(row) {
				v = row[col]
			}
			records[i].Fields[col] = n.Field(col, v)
		}
	}
	return records
}
