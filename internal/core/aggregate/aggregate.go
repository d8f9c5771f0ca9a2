// Package aggregate buckets dataset records into zero filled monthly series and
// derives the dashboard summaries
package aggregate

import (
	"slices"

	"crimedash/internal/core/dataset"
	perr "crimedash/internal/platform/errors"
)

// Point is one month of a series
type Point struct {
	Period dataset.Period `json:"period"`
	Count  int64          `json:"count"`
}

// Series is a contiguous ascending monthly series for one key
type Series struct {
	Key    Key     `json:"key"`
	Points []Point `json:"points"`
}

// Total sums the series
func (s Series) Total() int64 {
	var n int64
	for _, p := range s.Points {
		n += p.Count
	}
	return n
}

// Values returns the counts as float64 in period order
func (s Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = float64(p.Count)
	}
	return out
}

// Last returns the last period of the series, zero when empty
func (s Series) Last() dataset.Period {
	if len(s.Points) == 0 {
		return dataset.Period{}
	}
	return s.Points[len(s.Points)-1].Period
}

// Result holds one series per distinct key, sorted lexically by key
type Result struct {
	Dims   []Dimension  `json:"dims"`
	Span   dataset.Span `json:"span"`
	Series []Series     `json:"series"`

	index map[string]int
}

// Lookup finds the series for k
func (r Result) Lookup(k Key) (Series, bool) {
	i, ok := r.index[k.id()]
	if !ok {
		return Series{}, false
	}
	return r.Series[i], true
}

// Aggregate groups ds by dims and sums counts per month
// every series covers the dataset span with missing months as zero
func Aggregate(ds *dataset.Dataset, dims ...Dimension) (Result, error) {
	if ds == nil {
		return Result{}, perr.InvalidArgf("aggregate: nil dataset")
	}
	if err := checkDims(dims); err != nil {
		return Result{}, err
	}
	dims = slices.Clone(dims)
	span := ds.Span()
	n := span.Len()

	type bucket struct {
		key    Key
		counts []int64
	}
	buckets := map[string]*bucket{}
	ds.Each(func(r dataset.Record) {
		off := span.Offset(r.Period())
		if off < 0 {
			return
		}
		k := keyOf(dims, r)
		id := k.id()
		b, ok := buckets[id]
		if !ok {
			b = &bucket{key: k, counts: make([]int64, n)}
			buckets[id] = b
		}
		b.counts[off] += r.Count
	})

	out := Result{Dims: dims, Span: span, Series: make([]Series, 0, len(buckets))}
	for _, b := range buckets {
		pts := make([]Point, n)
		for i := range n {
			pts[i] = Point{Period: span.From.Add(i), Count: b.counts[i]}
		}
		out.Series = append(out.Series, Series{Key: b.key, Points: pts})
	}
	slices.SortFunc(out.Series, func(a, b Series) int { return a.Key.Compare(b.Key) })

	out.index = make(map[string]int, len(out.Series))
	for i, s := range out.Series {
		out.index[s.Key.id()] = i
	}
	return out, nil
}
