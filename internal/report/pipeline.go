package report

import (
	"fmt"
	"io"
)

// Process runs the full pipeline over r: decode, locate the header,
// classify rows and normalise the kept ones.
//
// Only undecodable configuration and empty input are errors. Malformed
// data never fails a run.
func Process(r io.Reader, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	rows, err := Tokenize(r, opts.Encoding)
	if err != nil {
		return nil, err
	}
	return ProcessRows(rows, opts), nil
}

// ProcessRows runs the pipeline over already tokenized rows.
// opts is assumed valid.
func ProcessRows(rows []RawRow, opts Options) *Result {
	res := &Result{}

	anchor, found := FindAnchor(rows, opts.AnchorLabel)
	if !found {
		anchor = opts.FallbackAnchor
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"header %q not found, using fallback position row %d column %d",
			opts.AnchorLabel, anchor.Row, anchor.Column))
	}
	res.Anchor = anchor
	res.AnchorFound = found
	res.SourceHeaders = HeaderLabels(rows, anchor)

	cls := Classify(rows, anchor, opts)
	res.Rejections = cls.Rejections
	res.Stats = cls.Stats
	res.Records = NewNormalizer(opts).Normalize(cls.Kept, cls.KeptLines)

	return res
}
