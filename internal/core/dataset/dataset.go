// Package dataset loads tabular crime records into an immutable in memory Dataset
package dataset

import (
	"slices"
	"time"

	perr "crimedash/internal/platform/errors"
	pstrings "crimedash/internal/platform/strings"
)

// Record is one row of incident counts
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	CrimeType string    `json:"crime_type"`
	Unit      string    `json:"unit"`
	Count     int64     `json:"count"`
}

// Period returns the calendar month the record falls in
func (r Record) Period() Period { return PeriodOf(r.Timestamp) }

// Dataset is an ordered immutable set of records and the span they cover
type Dataset struct {
	name    string
	records []Record
	span    Span
}

// New builds a Dataset from records in the given order
// records are copied, the span runs from the earliest to the latest period
func New(name string, records []Record) *Dataset {
	d := &Dataset{name: name, records: slices.Clone(records)}
	for i, r := range d.records {
		p := r.Period()
		if i == 0 || p.Before(d.span.From) {
			d.span.From = p
		}
		if i == 0 || p.After(d.span.To) {
			d.span.To = p
		}
	}
	return d
}

// Name is the label of the source the dataset came from
func (d *Dataset) Name() string { return d.name }

// Len is the number of records
func (d *Dataset) Len() int { return len(d.records) }

// Records returns a copy of the records in source order
func (d *Dataset) Records() []Record { return slices.Clone(d.records) }

// Each calls fn for every record in source order without copying
func (d *Dataset) Each(fn func(Record)) {
	for _, r := range d.records {
		fn(r)
	}
}

// Span is the global period range, zero when the dataset is empty
func (d *Dataset) Span() Span { return d.span }

// CrimeTypes lists the distinct crime types in ascending order
func (d *Dataset) CrimeTypes() []string {
	out := make([]string, len(d.records))
	for i, r := range d.records {
		out[i] = r.CrimeType
	}
	return pstrings.SortedUnique(out)
}

// Units lists the distinct units in ascending order
func (d *Dataset) Units() []string {
	out := make([]string, len(d.records))
	for i, r := range d.records {
		out[i] = r.Unit
	}
	return pstrings.SortedUnique(out)
}

// Total sums the counts of every record
func (d *Dataset) Total() int64 {
	var n int64
	for _, r := range d.records {
		n += r.Count
	}
	return n
}

// Filter narrows a dataset by period range and labels
// zero From or To leave that side open, empty label lists match everything
type Filter struct {
	From       Period   `json:"from"`
	To         Period   `json:"to"`
	Units      []string `json:"units,omitempty"`
	CrimeTypes []string `json:"crime_types,omitempty"`
}

// IsZero reports whether the filter keeps everything
func (f Filter) IsZero() bool {
	return f.From.IsZero() && f.To.IsZero() && len(f.Units) == 0 && len(f.CrimeTypes) == 0
}

// Filter returns a new Dataset holding the matching records
// the result keeps the parent span clipped to From and To so that series built from it
// share the parent time axis even when the selection leaves months empty
func (d *Dataset) Filter(f Filter) (*Dataset, error) {
	if f.IsZero() {
		return d, nil
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return nil, perr.InvalidArgf("filter: to %s is before from %s", f.To, f.From)
	}

	span := d.span
	if !f.From.IsZero() && f.From.After(span.From) {
		span.From = f.From
	}
	if !f.To.IsZero() && f.To.Before(span.To) {
		span.To = f.To
	}
	if !d.span.IsZero() && span.To.Before(span.From) {
		return nil, perr.InvalidArgf("filter: %s..%s is outside the dataset span %s..%s", f.From, f.To, d.span.From, d.span.To)
	}

	units, types := foldSet(f.Units), foldSet(f.CrimeTypes)
	out := &Dataset{name: d.name, span: span}
	for _, r := range d.records {
		if !span.Contains(r.Period()) {
			continue
		}
		if units != nil {
			if _, ok := units[foldLabel(r.Unit)]; !ok {
				continue
			}
		}
		if types != nil {
			if _, ok := types[foldLabel(r.CrimeType)]; !ok {
				continue
			}
		}
		out.records = append(out.records, r)
	}
	return out, nil
}
