package dataset

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	perr "crimedash/internal/platform/errors"
	"crimedash/internal/platform/logger"
	pstrings "crimedash/internal/platform/strings"
)

// Report describes what a load produced, it is returned even when the load fails
type Report struct {
	Layout  Layout     `json:"layout"`
	Read    int        `json:"read"`    // data rows seen
	Loaded  int        `json:"loaded"`  // records produced
	Dropped int        `json:"dropped"` // rows excluded under the drop policy
	Rows    []RowError `json:"rows,omitempty"`
}

// Load reads src into a Dataset
func Load(ctx context.Context, src Source, opts ...Option) (*Dataset, Report, error) {
	if src == nil {
		return nil, Report{}, perr.InvalidArgf("load: nil source")
	}
	fr, err := src.Frame(ctx)
	if err != nil {
		return nil, Report{}, err
	}
	return FromFrame(ctx, fr, opts...)
}

// FromFrame turns an already fetched frame into a Dataset
func FromFrame(ctx context.Context, fr Frame, opts ...Option) (*Dataset, Report, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Name == "" {
		o.Name = fr.Name
	}
	log := logger.C(ctx)
	start := time.Now()

	if o.Policy != PolicyFail && o.Policy != PolicyDrop {
		return nil, Report{}, perr.InvalidArgf("load: unknown policy %q", o.Policy)
	}
	sc, err := resolve(fr.Header, o)
	if err != nil {
		return nil, Report{}, err
	}

	rep := Report{Layout: sc.layout, Read: len(fr.Rows)}
	p := parser{formats: o.DateFormats}
	var (
		records []Record
		bad     rowLog
	)
	for i, row := range fr.Rows {
		if err := ctx.Err(); err != nil {
			return nil, rep, perr.Wrap(err, perr.ErrorCodeUnavailable, "load canceled")
		}
		if blankRow(row) {
			continue
		}
		recs, rowErr := sc.parse(p, i+1, row)
		if rowErr != nil {
			bad.add(*rowErr)
			continue
		}
		records = append(records, recs...)
	}

	rep.Rows = bad.rows
	if bad.total > 0 {
		if o.Policy == PolicyFail {
			return nil, rep, &ParseError{Rows: bad.rows, Total: bad.total}
		}
		rep.Dropped = bad.total
		log.Warn().
			Str("source", o.Name).
			Int("dropped", bad.total).
			Str("first", bad.rows[0].String()).
			Msg("dropped unparseable rows")
	}

	ds := New(o.Name, records)
	rep.Loaded = ds.Len()
	log.Debug().
		Str("source", o.Name).
		Str("layout", string(sc.layout)).
		Int("read", rep.Read).
		Int("loaded", rep.Loaded).
		Int("dropped", rep.Dropped).
		Dur("elapsed", time.Since(start)).
		Msg("dataset loaded")
	return ds, rep, nil
}

// typeColumn is one crime type column of a wide layout
type typeColumn struct {
	idx   int
	name  string
	label string
}

// schema is the resolved column mapping of a frame
type schema struct {
	layout Layout
	ts     int
	unit   int
	ctype  int
	count  int
	names  []string
	types  []typeColumn
}

// resolve maps the header onto logical columns
func resolve(header []string, o Options) (schema, error) {
	keys := make([]string, len(header))
	empty := true
	for i, h := range header {
		keys[i] = pstrings.SnakeKey(h)
		if keys[i] != "" {
			empty = false
		}
	}
	if empty {
		return schema{}, &DataFormatError{Reason: "empty header"}
	}

	sc := schema{
		ts:    find(keys, o.Columns.Timestamp),
		unit:  find(keys, o.Columns.Unit),
		ctype: find(keys, o.Columns.CrimeType),
		count: find(keys, o.Columns.Count),
		names: header,
	}

	switch o.Layout {
	case LayoutAuto, "":
		sc.layout = LayoutWide
		if sc.ctype >= 0 {
			sc.layout = LayoutLong
		}
	case LayoutLong, LayoutWide:
		sc.layout = o.Layout
	default:
		return schema{}, &DataFormatError{Reason: "unknown layout " + strconv.Quote(string(o.Layout))}
	}

	var missing []string
	if sc.ts < 0 {
		missing = append(missing, "timestamp")
	}
	if sc.layout == LayoutLong && sc.ctype < 0 {
		missing = append(missing, "crime_type")
	}
	if sc.unit < 0 {
		missing = append(missing, "unit")
	}
	if len(missing) > 0 {
		return schema{}, &DataFormatError{Missing: missing}
	}

	if sc.layout == LayoutWide {
		skip := make(map[string]bool, len(o.Ignore))
		for _, c := range o.Ignore {
			skip[pstrings.SnakeKey(c)] = true
		}
		for i, k := range keys {
			if i == sc.ts || i == sc.unit || k == "" || skip[k] {
				continue
			}
			sc.types = append(sc.types, typeColumn{idx: i, name: header[i], label: NormalizeLabel(header[i])})
		}
		if len(sc.types) == 0 {
			return schema{}, &DataFormatError{Reason: "wide layout has no crime type columns"}
		}
	}
	return sc, nil
}

// find returns the index of the first alias present in keys, -1 when none is
func find(keys []string, aliases []string) int {
	for _, a := range aliases {
		want := pstrings.SnakeKey(a)
		for i, k := range keys {
			if k == want && want != "" {
				return i
			}
		}
	}
	return -1
}

// parse turns one row into records, wide rows fan out into one record per type column
func (sc schema) parse(p parser, n int, row []string) ([]Record, *RowError) {
	rowErr := func(col int, reason string) *RowError {
		return &RowError{Row: n, Column: sc.names[col], Value: cell(row, col), Reason: reason}
	}

	ts, ok := p.timestamp(cell(row, sc.ts))
	if !ok {
		return nil, rowErr(sc.ts, "unparseable timestamp")
	}
	unit := NormalizeLabel(cell(row, sc.unit))
	if unit == "" {
		return nil, rowErr(sc.unit, "empty unit")
	}

	if sc.layout == LayoutLong {
		ctype := NormalizeLabel(cell(row, sc.ctype))
		if ctype == "" {
			return nil, rowErr(sc.ctype, "empty crime type")
		}
		count := int64(1)
		if sc.count >= 0 {
			c, reason := parseCount(cell(row, sc.count))
			if reason != "" {
				return nil, rowErr(sc.count, reason)
			}
			count = c
		}
		return []Record{{Timestamp: ts, CrimeType: ctype, Unit: unit, Count: count}}, nil
	}

	out := make([]Record, 0, len(sc.types))
	for _, tc := range sc.types {
		raw := cell(row, tc.idx)
		if raw == "" {
			continue
		}
		c, reason := parseCount(raw)
		if reason != "" {
			return nil, rowErr(tc.idx, reason)
		}
		out = append(out, Record{Timestamp: ts, CrimeType: tc.label, Unit: unit, Count: c})
	}
	return out, nil
}

// parser holds the ordered timestamp layouts
type parser struct{ formats []string }

func (p parser) timestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, f := range p.formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseCount accepts integers and integral floats like 12.0, reason is empty on success
func parseCount(s string) (int64, string) {
	if s == "" {
		return 0, "empty count"
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		if v < 0 {
			return 0, "negative count"
		}
		return v, ""
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f >= math.MaxInt64 {
		return 0, "bad count"
	}
	if f < 0 {
		return 0, "negative count"
	}
	return int64(f), ""
}

// cell returns the trimmed cell or empty when the row is short
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
