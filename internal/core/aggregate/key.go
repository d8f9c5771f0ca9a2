package aggregate

import (
	"slices"
	"strconv"
	"strings"

	"crimedash/internal/core/dataset"
	perr "crimedash/internal/platform/errors"
)

// Dimension is a record attribute series can be grouped by
type Dimension string

const (
	// DimCrimeType groups by crime type
	DimCrimeType Dimension = "crime_type"
	// DimUnit groups by geographic unit
	DimUnit Dimension = "unit"
)

// ParseDimension validates a dimension name
func ParseDimension(s string) (Dimension, error) {
	switch d := Dimension(strings.ToLower(strings.TrimSpace(s))); d {
	case DimCrimeType, DimUnit:
		return d, nil
	}
	return "", perr.InvalidArgf("dimension %q: want crime_type or unit", s)
}

// ParseDimensions parses a list such as crime_type,unit
func ParseDimensions(in []string) ([]Dimension, error) {
	out := make([]Dimension, 0, len(in))
	for _, s := range in {
		d, err := ParseDimension(s)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, checkDims(out)
}

func checkDims(dims []Dimension) error {
	if len(dims) == 0 {
		return perr.InvalidArgf("at least one dimension is required")
	}
	for i, d := range dims {
		if d != DimCrimeType && d != DimUnit {
			return perr.InvalidArgf("unknown dimension %q", d)
		}
		if slices.Contains(dims[:i], d) {
			return perr.InvalidArgf("duplicate dimension %q", d)
		}
	}
	return nil
}

// value reads the attribute d of r
func (d Dimension) value(r dataset.Record) string {
	if d == DimUnit {
		return r.Unit
	}
	return r.CrimeType
}

// Key identifies a series by the values of its dimensions, in dimension order
type Key struct {
	Dims   []Dimension
	Values []string
}

// NewKey pairs dims with values, both must have the same length
func NewKey(dims []Dimension, values ...string) Key {
	return Key{Dims: slices.Clone(dims), Values: slices.Clone(values)}
}

func keyOf(dims []Dimension, r dataset.Record) Key {
	vals := make([]string, len(dims))
	for i, d := range dims {
		vals[i] = d.value(r)
	}
	return Key{Dims: dims, Values: vals}
}

// Get returns the value of dimension d, empty when the key does not carry it
func (k Key) Get(d Dimension) string {
	if i := slices.Index(k.Dims, d); i >= 0 && i < len(k.Values) {
		return k.Values[i]
	}
	return ""
}

// String renders crime_type=theft,unit=north
func (k Key) String() string {
	var b strings.Builder
	for i, d := range k.Dims {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(string(d))
		b.WriteByte('=')
		if i < len(k.Values) {
			b.WriteString(k.Values[i])
		}
	}
	return b.String()
}

// id is the map identity of k, values are length prefixed so separators inside labels
// cannot make two keys collide
func (k Key) id() string {
	var b strings.Builder
	for _, v := range k.Values {
		b.WriteString(strconv.Itoa(len(v)))
		b.WriteByte(':')
		b.WriteString(v)
	}
	return b.String()
}

// MarshalText encodes the key in its string form
func (k Key) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Compare orders keys lexically by value in dimension order
func (k Key) Compare(o Key) int {
	for i := 0; i < len(k.Values) && i < len(o.Values); i++ {
		if c := strings.Compare(k.Values[i], o.Values[i]); c != 0 {
			return c
		}
	}
	return len(k.Values) - len(o.Values)
}
