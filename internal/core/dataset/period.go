package dataset

import (
	"fmt"
	"time"

	perr "crimedash/internal/platform/errors"
)

// Period is a calendar month, the time axis of every aggregate and forecast
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf truncates t to its calendar month in t's own location
func PeriodOf(t time.Time) Period {
	y, m, _ := t.Date()
	return Period{Year: y, Month: m}
}

// PeriodAt returns the period with the given Index
func PeriodAt(idx int) Period {
	y, m := idx/12, idx%12
	if m < 0 {
		y, m = y-1, m+12
	}
	return Period{Year: y, Month: time.Month(m + 1)}
}

// ParsePeriod parses the YYYY-MM text form
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, perr.InvalidArgf("period %q: want YYYY-MM", s)
	}
	return PeriodOf(t), nil
}

// Index counts months since January of year 0
func (p Period) Index() int { return p.Year*12 + int(p.Month) - 1 }

// Add returns the period n months later, n may be negative
func (p Period) Add(n int) Period { return PeriodAt(p.Index() + n) }

// Next returns the following month
func (p Period) Next() Period { return p.Add(1) }

// Before reports whether p is strictly earlier than q
func (p Period) Before(q Period) bool { return p.Index() < q.Index() }

// After reports whether p is strictly later than q
func (p Period) After(q Period) bool { return p.Index() > q.Index() }

// Compare returns -1, 0 or +1 like cmp.Compare
func (p Period) Compare(q Period) int {
	switch a, b := p.Index(), q.Index(); {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// IsZero reports whether p is the zero Period
func (p Period) IsZero() bool { return p == Period{} }

// Start returns the first instant of the month in UTC
func (p Period) Start() time.Time { return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC) }

// String returns YYYY-MM
func (p Period) String() string { return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month)) }

// MarshalText encodes p as YYYY-MM
func (p Period) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText decodes YYYY-MM, an empty value leaves the zero Period
func (p *Period) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*p = Period{}
		return nil
	}
	v, err := ParsePeriod(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Span is an inclusive range of periods
type Span struct {
	From Period `json:"from"`
	To   Period `json:"to"`
}

// IsZero reports whether the span is unset, which is the case for an empty dataset
func (s Span) IsZero() bool { return s.From.IsZero() && s.To.IsZero() }

// Len is the number of periods covered, zero for an unset span
func (s Span) Len() int {
	if s.IsZero() || s.To.Before(s.From) {
		return 0
	}
	return s.To.Index() - s.From.Index() + 1
}

// Periods lists every period in the span in ascending order
func (s Span) Periods() []Period {
	n := s.Len()
	out := make([]Period, n)
	for i := range n {
		out[i] = s.From.Add(i)
	}
	return out
}

// Contains reports whether p falls inside the span
func (s Span) Contains(p Period) bool {
	return s.Len() > 0 && !p.Before(s.From) && !p.After(s.To)
}

// Offset returns the position of p within the span, -1 when outside
func (s Span) Offset(p Period) int {
	if !s.Contains(p) {
		return -1
	}
	return p.Index() - s.From.Index()
}
