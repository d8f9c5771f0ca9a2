package aggregate

import (
	"cmp"
	"math"
	"slices"
	"strconv"

	"crimedash/internal/core/dataset"
	perr "crimedash/internal/platform/errors"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/stat"
)

// Overview is the headline strip of the dashboard
type Overview struct {
	Name       string       `json:"name"`
	Records    int          `json:"records"`
	Incidents  int64        `json:"incidents"`
	Span       dataset.Span `json:"span"`
	Months     int          `json:"months"`
	Units      int          `json:"units"`
	CrimeTypes int          `json:"crime_types"`
}

// Summarize computes the Overview of ds
func Summarize(ds *dataset.Dataset) Overview {
	return Overview{
		Name:       ds.Name(),
		Records:    ds.Len(),
		Incidents:  ds.Total(),
		Span:       ds.Span(),
		Months:     ds.Span().Len(),
		Units:      len(ds.Units()),
		CrimeTypes: len(ds.CrimeTypes()),
	}
}

// Total is the sum for one dimension value and its share of the grand total
type Total struct {
	Value string  `json:"value"`
	Count int64   `json:"count"`
	Share float64 `json:"share"` // percent, 2 decimals
}

// Totals sums counts per value of dim, largest first, ties broken lexically
func Totals(ds *dataset.Dataset, dim Dimension) ([]Total, error) {
	if err := checkDims([]Dimension{dim}); err != nil {
		return nil, err
	}
	sums := map[string]int64{}
	var grand int64
	ds.Each(func(r dataset.Record) {
		sums[dim.value(r)] += r.Count
		grand += r.Count
	})
	out := make([]Total, 0, len(sums))
	for v, c := range sums {
		out = append(out, Total{Value: v, Count: c, Share: percent(float64(c), float64(grand))})
	}
	slices.SortFunc(out, func(a, b Total) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Value, b.Value)
	})
	return out, nil
}

// Matrix is a zero filled table of totals
type Matrix struct {
	Rows    []string  `json:"rows"`
	Columns []string  `json:"columns"`
	Cells   [][]int64 `json:"cells"` // Cells[row][column]
}

func newMatrix(rows, cols []string) Matrix {
	cells := make([][]int64, len(rows))
	for i := range cells {
		cells[i] = make([]int64, len(cols))
	}
	return Matrix{Rows: rows, Columns: cols, Cells: cells}
}

// add accumulates into the cell addressed by labels, unknown labels are ignored
func (m Matrix) add(ri, ci map[string]int, row, col string, v int64) {
	r, ok := ri[row]
	if !ok {
		return
	}
	c, ok := ci[col]
	if !ok {
		return
	}
	m.Cells[r][c] += v
}

// RowTotals sums each row
func (m Matrix) RowTotals() []int64 {
	out := make([]int64, len(m.Rows))
	for i, row := range m.Cells {
		for _, v := range row {
			out[i] += v
		}
	}
	return out
}

func indexOf(labels []string) map[string]int {
	m := make(map[string]int, len(labels))
	for i, l := range labels {
		m[l] = i
	}
	return m
}

func years(span dataset.Span) []string {
	if span.Len() == 0 {
		return []string{}
	}
	out := make([]string, 0, span.To.Year-span.From.Year+1)
	for y := span.From.Year; y <= span.To.Year; y++ {
		out = append(out, strconv.Itoa(y))
	}
	return out
}

// Yearly is a year by crime type matrix covering every year of the span
func Yearly(ds *dataset.Dataset) Matrix {
	rows, cols := years(ds.Span()), ds.CrimeTypes()
	m := newMatrix(rows, cols)
	ri, ci := indexOf(rows), indexOf(cols)
	ds.Each(func(r dataset.Record) {
		m.add(ri, ci, strconv.Itoa(r.Period().Year), r.CrimeType, r.Count)
	})
	return m
}

// Heatmap is a rowDim by year matrix, restricted to crimeType when it is set
func Heatmap(ds *dataset.Dataset, rowDim Dimension, crimeType string) (Matrix, error) {
	if err := checkDims([]Dimension{rowDim}); err != nil {
		return Matrix{}, err
	}
	span := ds.Span()
	if crimeType != "" {
		var err error
		if ds, err = ds.Filter(dataset.Filter{CrimeTypes: []string{crimeType}}); err != nil {
			return Matrix{}, err
		}
		if ds.Len() == 0 {
			return Matrix{}, perr.NotFoundf("crime type %q is not in the dataset", crimeType)
		}
	}
	rows := ds.Units()
	if rowDim == DimCrimeType {
		rows = ds.CrimeTypes()
	}
	cols := years(span)
	m := newMatrix(rows, cols)
	ri, ci := indexOf(rows), indexOf(cols)
	ds.Each(func(r dataset.Record) {
		m.add(ri, ci, rowDim.value(r), strconv.Itoa(r.Period().Year), r.Count)
	})
	return m, nil
}

// CompareUnits is a unit by crime type matrix over the selected units and types
// empty selections mean all of them
func CompareUnits(ds *dataset.Dataset, units, crimeTypes []string) (Matrix, error) {
	sel, err := ds.Filter(dataset.Filter{Units: units, CrimeTypes: crimeTypes})
	if err != nil {
		return Matrix{}, err
	}
	rows, cols := sel.Units(), sel.CrimeTypes()
	if len(units) > 0 && len(rows) == 0 {
		return Matrix{}, perr.NotFoundf("none of the units %v are in the dataset", units)
	}
	m := newMatrix(rows, cols)
	ri, ci := indexOf(rows), indexOf(cols)
	sel.Each(func(r dataset.Record) {
		m.add(ri, ci, r.Unit, r.CrimeType, r.Count)
	})
	return m, nil
}

// CorrelationMatrix holds Pearson coefficients between monthly crime type totals
// a nil cell means the coefficient is undefined because a series is constant
type CorrelationMatrix struct {
	Labels []string     `json:"labels"`
	Cells  [][]*float64 `json:"cells"`
}

// Correlation correlates the monthly totals of the selected crime types, all when empty
func Correlation(ds *dataset.Dataset, crimeTypes []string) (CorrelationMatrix, error) {
	sel, err := ds.Filter(dataset.Filter{CrimeTypes: crimeTypes})
	if err != nil {
		return CorrelationMatrix{}, err
	}
	res, err := Aggregate(sel, DimCrimeType)
	if err != nil {
		return CorrelationMatrix{}, err
	}
	if len(res.Series) < 2 {
		return CorrelationMatrix{}, perr.InvalidArgf("correlation needs at least two crime types, have %d", len(res.Series))
	}

	labels := make([]string, len(res.Series))
	vals := make([][]float64, len(res.Series))
	for i, s := range res.Series {
		labels[i] = s.Key.Get(DimCrimeType)
		vals[i] = s.Values()
	}
	cells := make([][]*float64, len(vals))
	for i := range vals {
		cells[i] = make([]*float64, len(vals))
		for j := range vals {
			if j < i {
				cells[i][j] = cells[j][i]
				continue
			}
			c := stat.Correlation(vals[i], vals[j], nil)
			if math.IsNaN(c) || math.IsInf(c, 0) {
				continue
			}
			c = scalar.Round(c, 4)
			cells[i][j] = &c
		}
	}
	return CorrelationMatrix{Labels: labels, Cells: cells}, nil
}

// percent returns part/whole*100 rounded to 2 decimals, zero when whole is zero
func percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return scalar.Round(part/whole*100, 2)
}
