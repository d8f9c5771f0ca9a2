package dataset

import (
	"strings"
	"time"

	perr "crimedash/internal/platform/errors"
)

// Layout says how counts are laid out in a source
type Layout string

const (
	// LayoutLong is one row per timestamp, crime type and unit with an optional count
	LayoutLong Layout = "long"
	// LayoutWide is a timestamp, a unit and one count column per crime type
	LayoutWide Layout = "wide"
	// LayoutAuto picks long when a crime type column exists and wide otherwise
	LayoutAuto Layout = "auto"
)

// ParseLayout validates a layout name, blank means auto
func ParseLayout(s string) (Layout, error) {
	switch l := Layout(strings.ToLower(strings.TrimSpace(s))); l {
	case "":
		return LayoutAuto, nil
	case LayoutLong, LayoutWide, LayoutAuto:
		return l, nil
	}
	return "", perr.InvalidArgf("layout %q: want long, wide or auto", s)
}

// Policy says what happens to rows that fail to parse
type Policy string

const (
	// PolicyFail fails the whole load with a ParseError
	PolicyFail Policy = "fail"
	// PolicyDrop excludes the rows and reports them
	PolicyDrop Policy = "drop"
)

// ParsePolicy validates a policy name, blank means fail
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyFail, nil
	case PolicyFail, PolicyDrop:
		return p, nil
	}
	return "", perr.InvalidArgf("policy %q: want fail or drop", s)
}

// Columns holds the header aliases for each logical column, the first alias found wins
type Columns struct {
	Timestamp []string `yaml:"timestamp" json:"timestamp,omitempty"`
	CrimeType []string `yaml:"crime_type" json:"crime_type,omitempty"`
	Unit      []string `yaml:"unit" json:"unit,omitempty"`
	Count     []string `yaml:"count" json:"count,omitempty"`
}

// DefaultColumns are the aliases used when none are configured
func DefaultColumns() Columns {
	return Columns{
		Timestamp: []string{"timestamp", "date"},
		CrimeType: []string{"crime_type", "type", "category"},
		Unit:      []string{"unit", "area", "district"},
		Count:     []string{"count"},
	}
}

// DefaultDateFormats are tried in order until one parses
var DefaultDateFormats = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
	"2006-01",
}

// Options configure a load
type Options struct {
	Name        string
	Layout      Layout
	Policy      Policy
	Columns     Columns
	DateFormats []string
	Ignore      []string // wide layout columns that are not crime types
}

// DefaultOptions returns auto layout, fail policy, default aliases and formats
func DefaultOptions() Options {
	return Options{
		Layout:      LayoutAuto,
		Policy:      PolicyFail,
		Columns:     DefaultColumns(),
		DateFormats: append([]string(nil), DefaultDateFormats...),
		Ignore:      []string{"year", "month"},
	}
}

// Option mutates load options
type Option func(*Options)

// WithName overrides the dataset name taken from the source
func WithName(name string) Option {
	return func(o *Options) { o.Name = name }
}

// WithLayout sets the layout
func WithLayout(l Layout) Option {
	return func(o *Options) { o.Layout = l }
}

// WithPolicy sets the row policy
func WithPolicy(p Policy) Option {
	return func(o *Options) { o.Policy = p }
}

// WithColumns replaces the alias lists that are non empty in c
func WithColumns(c Columns) Option {
	return func(o *Options) {
		if len(c.Timestamp) > 0 {
			o.Columns.Timestamp = c.Timestamp
		}
		if len(c.CrimeType) > 0 {
			o.Columns.CrimeType = c.CrimeType
		}
		if len(c.Unit) > 0 {
			o.Columns.Unit = c.Unit
		}
		if len(c.Count) > 0 {
			o.Columns.Count = c.Count
		}
	}
}

// WithDateFormats replaces the ordered list of timestamp layouts
func WithDateFormats(formats ...string) Option {
	return func(o *Options) {
		if len(formats) > 0 {
			o.DateFormats = formats
		}
	}
}

// WithIgnore replaces the wide layout ignore list
func WithIgnore(cols ...string) Option {
	return func(o *Options) { o.Ignore = cols }
}
