package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/JonMunkholm/sapclean/internal/core"
	"github.com/JonMunkholm/sapclean/internal/report"
)

const (
	previewRows     = 5
	previewCellSize = 18
)

// printSummary writes the counts, the files written and a short preview of
// the cleaned table.
func printSummary(w io.Writer, run *core.Run, schema report.Schema) {
	res := run.Result
	st := res.Stats

	fmt.Fprintf(w, "Cleaned %s in %s (run %s)\n", run.Source, run.Duration.Round(time.Millisecond), run.ID)

	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	header := fmt.Sprintf("row %d, column %d", res.Anchor.Row+1, res.Anchor.Column+1)
	if !res.AnchorFound {
		header += " (fallback)"
	}
	fmt.Fprintf(tw, "  Header:\t%s\t\n", header)
	fmt.Fprintf(tw, "  Rows considered:\t%s\t\n", humanize.Comma(int64(st.TotalConsidered)))
	fmt.Fprintf(tw, "  Kept:\t%s\t\n", humanize.Comma(int64(st.KeptRows)))
	fmt.Fprintf(tw, "  Summary rows:\t%s\t\n", humanize.Comma(int64(st.SummaryRows)))
	fmt.Fprintf(tw, "  Empty rows:\t%s\t\n", humanize.Comma(int64(st.EmptyRows)))
	fmt.Fprintf(tw, "  Missing key:\t%s\t\n", humanize.Comma(int64(st.MissingKeyRows)))
	tw.Flush()

	if len(run.Outcome.Written) > 0 {
		fmt.Fprintln(w, "Written:")
		for _, path := range run.Outcome.Written {
			if fi, err := os.Stat(path); err == nil {
				fmt.Fprintf(w, "  %s (%s)\n", path, humanize.Bytes(uint64(fi.Size())))
			} else {
				fmt.Fprintf(w, "  %s\n", path)
			}
		}
	}
	if run.Outcome.FellBack {
		fmt.Fprintf(w, "Spreadsheet not written (%s); wrote CSV instead.\n", run.Outcome.FallbackReason)
	}
	if primary := run.Outcome.Primary(); primary != "" {
		fmt.Fprintf(w, "Open %s to review the cleaned data.\n", primary)
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warn)
	}

	printPreview(w, schema, res.Records)
}

// printPreview renders the first rows of the cleaned table.
func printPreview(w io.Writer, schema report.Schema, records []report.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No rows kept.")
		return
	}

	n := min(previewRows, len(records))
	fmt.Fprintf(w, "Preview (%d of %s rows):\n", n, humanize.Comma(int64(len(records))))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	names := make([]string, len(schema))
	for i, c := range schema {
		names[i] = truncate(c.Name, previewCellSize)
	}
	fmt.Fprintln(tw, strings.Join(names, "\t"))
	for _, rec := range records[:n] {
		cells := rec.Strings()
		for i := range cells {
			cells[i] = truncate(cells[i], previewCellSize)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()
}

// truncate shortens s to at most n runes, marking the cut with "…".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
