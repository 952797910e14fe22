package report

import (
	"fmt"
	"strings"
)

// FindAnchor returns the position of the first cell whose trimmed,
// lower-cased text equals label. Rows are scanned top to bottom and cells
// left to right. The bool is false when no cell matches.
func FindAnchor(rows []RawRow, label string) (Anchor, bool) {
	want := strings.ToLower(strings.TrimSpace(label))
	for r, row := range rows {
		for c, cell := range row {
			if strings.ToLower(strings.TrimSpace(cell)) == want {
				return Anchor{Row: r, Column: c}, true
			}
		}
	}
	return Anchor{}, false
}

// HeaderLabels reads the printed header text at the anchor for diagnostics.
// Positions past the end of the header row are labelled Col_<index>.
func HeaderLabels(rows []RawRow, a Anchor) []string {
	var header RawRow
	if a.Row >= 0 && a.Row < len(rows) {
		header = rows[a.Row]
	}
	labels := make([]string, ColumnCount)
	for i := range labels {
		idx := a.Column + i
		if idx < len(header) {
			labels[i] = strings.TrimSpace(header[idx])
		} else {
			labels[i] = fmt.Sprintf("Col_%d", idx)
		}
	}
	return labels
}
