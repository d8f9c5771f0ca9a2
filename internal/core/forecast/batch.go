package forecast

import (
	"crimedash/internal/core/aggregate"
	perr "crimedash/internal/platform/errors"
)

// Failure is a key that could not be forecast
type Failure struct {
	Key   aggregate.Key `json:"key"`
	Error perr.Wire     `json:"error"`
	Err   error         `json:"-"`
}

// Batch holds the forecasts of a whole aggregate result, successes and failures
// both in key order
type Batch struct {
	Forecasts []Result  `json:"forecasts"`
	Failures  []Failure `json:"failures"`
}

// ForecastAll forecasts every series of res over h months, h <= 0 means the default
func (f *Forecaster) ForecastAll(res aggregate.Result, h int) Batch {
	if h <= 0 {
		h = f.horizon
	}
	b := Batch{Forecasts: []Result{}, Failures: []Failure{}}
	for _, s := range res.Series {
		r, err := f.ForecastHorizon(s, h)
		if err != nil {
			b.Failures = append(b.Failures, Failure{Key: s.Key, Error: perr.WireFrom(err), Err: err})
			continue
		}
		b.Forecasts = append(b.Forecasts, r)
	}
	return b
}
