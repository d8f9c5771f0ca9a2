// Package time contains time related helpers
package time

import "time"

// Clock is a seam over time.Now so expiry logic can be tested
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock
type ClockFunc func() time.Time

// Now implements Clock
func (f ClockFunc) Now() time.Time { return f() }

// System is the wall clock in UTC
var System Clock = ClockFunc(func() time.Time { return time.Now().UTC() })
