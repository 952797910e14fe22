package report

import (
	"fmt"
	"strings"
)

// ColumnCount is the number of data columns read from the anchor onward.
const ColumnCount = 15

// DefaultAnchorLabel is the header text that marks the first data column.
const DefaultAnchorLabel = "material"

// DefaultFallbackAnchor is used when no header cell matches the label.
var DefaultFallbackAnchor = Anchor{Row: 3, Column: 2}

// DefaultSchema returns the canonical column layout of the SAP goods
// movement report. A fresh slice is returned on every call.
func DefaultSchema() Schema {
	return Schema{
		{Name: "Material", Kind: KindInteger},
		{Name: "Functional Loc.", Kind: KindText},
		{Name: "Equipment", Kind: KindText},
		{Name: "Material Description", Kind: KindText},
		{Name: "Work Ctr", Kind: KindText},
		{Name: "Withdrawn", Kind: KindInteger},
		{Name: "W/o resrv.", Kind: KindInteger},
		{Name: "Reserved", Kind: KindInteger},
		{Name: "Reserv.ref", Kind: KindInteger},
		{Name: "Pstng Date", Kind: KindDate},
		{Name: "Order", Kind: KindInteger},
		{Name: "ID", Kind: KindText},
		{Name: "Message", Kind: KindInteger},
		{Name: "ICt", Kind: KindText},
		{Name: "Customer", Kind: KindText},
	}
}

// Options configures a run. Build one with DefaultOptions and override
// fields as needed.
type Options struct {
	Schema         Schema
	AnchorLabel    string
	FallbackAnchor Anchor

	// MarkerOffset is how many columns left of the anchor the summary marker sits.
	MarkerOffset int
	MarkerValues []string

	// TextSentinels are exact cell values in text columns that mean "no value".
	TextSentinels []string

	// Encoding names the input character set, see Decoder.
	Encoding string
}

// DefaultOptions returns the settings for the standard report layout.
func DefaultOptions() Options {
	return Options{
		Schema:         DefaultSchema(),
		AnchorLabel:    DefaultAnchorLabel,
		FallbackAnchor: DefaultFallbackAnchor,
		MarkerOffset:   1,
		MarkerValues:   []string{"*", "**"},
		TextSentinels:  []string{"nan", "None"},
		Encoding:       "utf-8",
	}
}

// Validate reports every problem with the options at once.
func (o Options) Validate() error {
	var errs []string

	if len(o.Schema) != ColumnCount {
		errs = append(errs, fmt.Sprintf("schema must have exactly %d columns, got %d", ColumnCount, len(o.Schema)))
	}
	seen := make(map[string]bool, len(o.Schema))
	for i, c := range o.Schema {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			errs = append(errs, fmt.Sprintf("schema column %d has no name", i+1))
			continue
		}
		if seen[name] {
			errs = append(errs, fmt.Sprintf("schema column %q is duplicated", name))
		}
		seen[name] = true
	}
	if strings.TrimSpace(o.AnchorLabel) == "" {
		errs = append(errs, "anchor label must not be empty")
	}
	if o.FallbackAnchor.Row < 0 || o.FallbackAnchor.Column < 0 {
		errs = append(errs, "fallback anchor must be non-negative")
	}
	if o.MarkerOffset < 0 {
		errs = append(errs, "marker offset must be non-negative")
	}
	if len(o.MarkerValues) == 0 {
		errs = append(errs, "at least one marker value is required")
	}
	for _, m := range o.MarkerValues {
		if strings.TrimSpace(m) == "" {
			errs = append(errs, "marker values must not be blank")
			break
		}
	}
	if err := CheckEncoding(o.Encoding); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid options:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
