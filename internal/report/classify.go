package report

import "strings"

// Outcome is the classification of a single row.
type Outcome int

const (
	OutcomeEmpty Outcome = iota
	OutcomeSummary
	OutcomeMissingKey
	OutcomeKept
)

// Classification is the output of Classify: kept rows still as trimmed
// text, the audit entries, and the counters.
type Classification struct {
	Kept       [][]string
	KeptLines  []int // 1-based raw line of each kept row
	Rejections []Rejection
	Stats      Stats
}

// Classifier decides the fate of each row below the anchor.
type Classifier struct {
	anchor       Anchor
	markerColumn int
	markers      map[string]bool
}

// NewClassifier builds a classifier for the given anchor.
func NewClassifier(a Anchor, opts Options) *Classifier {
	markers := make(map[string]bool, len(opts.MarkerValues))
	for _, m := range opts.MarkerValues {
		// A blank marker would match every short row.
		if m = strings.TrimSpace(m); m != "" {
			markers[m] = true
		}
	}
	return &Classifier{
		anchor:       a,
		markerColumn: a.Column - opts.MarkerOffset,
		markers:      markers,
	}
}

// Row classifies one row. For OutcomeMissingKey and OutcomeKept the
// extracted, trimmed cells are returned as well.
func (c *Classifier) Row(row RawRow) (Outcome, []string) {
	if isEmptyRow(row) {
		return OutcomeEmpty, nil
	}

	if c.markers[cellAt(row, c.markerColumn)] {
		return OutcomeSummary, nil
	}

	fields := extract(row, c.anchor.Column)
	if fields[0] == "" {
		return OutcomeMissingKey, fields
	}
	return OutcomeKept, fields
}

// Classify routes every row after the anchor row. Line numbers are the
// row's 1-based position in rows.
func Classify(rows []RawRow, a Anchor, opts Options) Classification {
	c := NewClassifier(a, opts)
	var out Classification

	for i := a.Row + 1; i < len(rows); i++ {
		row := rows[i]
		line := i + 1
		out.Stats.TotalConsidered++

		outcome, fields := c.Row(row)
		switch outcome {
		case OutcomeEmpty:
			out.Stats.EmptyRows++
		case OutcomeSummary:
			out.Stats.SummaryRows++
			out.Rejections = append(out.Rejections, Rejection{
				Reason: ReasonSummaryRow,
				Line:   line,
				Data:   strings.Join(row, "\t"),
			})
		case OutcomeMissingKey:
			out.Stats.MissingKeyRows++
			out.Rejections = append(out.Rejections, Rejection{
				Reason: ReasonMissingKey,
				Line:   line,
				Data:   strings.Join(fields, "\t"),
			})
		case OutcomeKept:
			out.Stats.KeptRows++
			out.Kept = append(out.Kept, fields)
			out.KeptLines = append(out.KeptLines, line)
		}
	}

	return out
}

// isEmptyRow reports whether every cell is blank after trimming.
func isEmptyRow(row RawRow) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// cellAt returns the trimmed cell at idx, or "" when idx is out of range.
func cellAt(row RawRow, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// extract reads ColumnCount trimmed cells starting at start.
// Short rows are padded with empty strings.
func extract(row RawRow, start int) []string {
	fields := make([]string, ColumnCount)
	for i := range fields {
		fields[i] = cellAt(row, start+i)
	}
	return fields
}
