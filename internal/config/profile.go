package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/sapclean/internal/report"
)

// ErrInvalidProfile wraps every profile load or validation failure.
var ErrInvalidProfile = errors.New("invalid report profile")

// Profile describes a report layout in YAML, or TOML for files ending in
// .toml. Every field is optional; unset fields keep the environment or
// built-in value.
//
//	anchor_label: material
//	fallback: {row: 3, column: 2}
//	marker_offset: 1
//	markers: ["*", "**"]
//	text_sentinels: [nan, None]
//	encoding: windows-1252
//	columns:
//	  - {name: Material, kind: integer}
//	  - {name: Functional Loc., kind: text}
//	  ...
type Profile struct {
	AnchorLabel   string          `yaml:"anchor_label" toml:"anchor_label"`
	Fallback      *ProfileAnchor  `yaml:"fallback" toml:"fallback"`
	MarkerOffset  *int            `yaml:"marker_offset" toml:"marker_offset"`
	Markers       []string        `yaml:"markers" toml:"markers"`
	TextSentinels []string        `yaml:"text_sentinels" toml:"text_sentinels"`
	Encoding      string          `yaml:"encoding" toml:"encoding"`
	Columns       []ProfileColumn `yaml:"columns" toml:"columns"`
}

// ProfileAnchor is a 0-based header position.
type ProfileAnchor struct {
	Row    int `yaml:"row" toml:"row"`
	Column int `yaml:"column" toml:"column"`
}

// ProfileColumn is one schema column.
type ProfileColumn struct {
	Name string `yaml:"name" toml:"name"`
	Kind string `yaml:"kind" toml:"kind"`
}

// LoadProfile reads a profile from path. The extension picks the format.
func LoadProfile(path string) (*Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}

	var p Profile
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(b, &p)
	} else {
		err = yaml.Unmarshal(b, &p)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrInvalidProfile, path, err)
	}
	return &p, nil
}

// Schema converts the profile columns. It returns nil when the profile
// does not define columns.
func (p *Profile) Schema() (report.Schema, error) {
	if len(p.Columns) == 0 {
		return nil, nil
	}
	schema := make(report.Schema, len(p.Columns))
	for i, c := range p.Columns {
		kind, ok := report.ParseKind(c.Kind)
		if !ok {
			return nil, fmt.Errorf("%w: column %q has unknown kind %q", ErrInvalidProfile, c.Name, c.Kind)
		}
		schema[i] = report.Column{Name: c.Name, Kind: kind}
	}
	return schema, nil
}

// ReportOptions builds pipeline options from the report settings, then
// applies the profile at ReportConfig.ProfilePath when one is set.
func (c *Config) ReportOptions() (report.Options, error) {
	opts := report.DefaultOptions()
	opts.AnchorLabel = c.Report.AnchorLabel
	opts.FallbackAnchor = report.Anchor{Row: c.Report.FallbackRow, Column: c.Report.FallbackColumn}
	opts.MarkerOffset = c.Report.MarkerOffset
	if len(c.Report.Markers) > 0 {
		opts.MarkerValues = c.Report.Markers
	}
	opts.Encoding = c.Report.Encoding

	if c.Report.ProfilePath != "" {
		p, err := LoadProfile(c.Report.ProfilePath)
		if err != nil {
			return opts, err
		}
		if err := p.Apply(&opts); err != nil {
			return opts, err
		}
	}

	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}
	return opts, nil
}

// Apply overrides opts with every field set in the profile.
func (p *Profile) Apply(opts *report.Options) error {
	schema, err := p.Schema()
	if err != nil {
		return err
	}
	if schema != nil {
		opts.Schema = schema
	}
	if p.AnchorLabel != "" {
		opts.AnchorLabel = p.AnchorLabel
	}
	if p.Fallback != nil {
		opts.FallbackAnchor = report.Anchor{Row: p.Fallback.Row, Column: p.Fallback.Column}
	}
	if p.MarkerOffset != nil {
		opts.MarkerOffset = *p.MarkerOffset
	}
	if len(p.Markers) > 0 {
		opts.MarkerValues = p.Markers
	}
	if p.TextSentinels != nil {
		opts.TextSentinels = p.TextSentinels
	}
	if p.Encoding != "" {
		opts.Encoding = p.Encoding
	}
	return nil
}
