// Package forecast fits a linear trend plus month of year offsets to a monthly series
// and extrapolates it
package forecast

import (
	"math"

	"crimedash/internal/core/aggregate"
	"crimedash/internal/core/dataset"
	perr "crimedash/internal/platform/errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/stat"
)

const (
	// Seasons is the length of the seasonal cycle in months
	Seasons = 12
	// MinHistory is the shortest series that can be fitted
	MinHistory = Seasons
	// DefaultHorizon is the number of months forecast when none is given
	DefaultHorizon = 12
	// MaxHorizon bounds a single request
	MaxHorizon = 120
)

// Point is one forecast month
type Point struct {
	Period         dataset.Period `json:"period"`
	PredictedCount float64        `json:"predicted_count"`
	Confidence     Label          `json:"confidence"`
}

// Model summarizes the fit
// Level is the fitted value at the first period before seasonality
type Model struct {
	Level    float64   `json:"level"`
	Slope    float64   `json:"slope"`
	Seasonal []float64 `json:"seasonal"` // January first, sums to zero
	Mean     float64   `json:"mean"`
	RMSE     float64   `json:"rmse"`
	Score    float64   `json:"score"`
}

// Result is the forecast for one key
type Result struct {
	Key        aggregate.Key `json:"key"`
	Horizon    int           `json:"horizon"`
	Confidence Label         `json:"confidence"`
	Points     []Point       `json:"points"`
	Model      Model         `json:"model"`
}

// Forecaster holds the default horizon and the label thresholds
type Forecaster struct {
	horizon    int
	thresholds Thresholds
}

// Option configures a Forecaster
type Option func(*Forecaster)

// WithHorizon sets the default horizon
func WithHorizon(h int) Option {
	return func(f *Forecaster) { f.horizon = h }
}

// WithThresholds sets the confidence thresholds
func WithThresholds(t Thresholds) Option {
	return func(f *Forecaster) { f.thresholds = t }
}

// New builds a Forecaster, invalid horizon or thresholds are rejected
func New(opts ...Option) (*Forecaster, error) {
	f := &Forecaster{horizon: DefaultHorizon, thresholds: DefaultThresholds()}
	for _, o := range opts {
		o(f)
	}
	if err := checkHorizon(f.horizon); err != nil {
		return nil, err
	}
	if err := f.thresholds.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Horizon returns the default horizon
func (f *Forecaster) Horizon() int { return f.horizon }

// Thresholds returns the label thresholds
func (f *Forecaster) Thresholds() Thresholds { return f.thresholds }

func checkHorizon(h int) error {
	if h < 1 || h > MaxHorizon {
		return perr.InvalidArgf("horizon %d: want 1..%d", h, MaxHorizon)
	}
	return nil
}

// Forecast extrapolates s over the default horizon
func (f *Forecaster) Forecast(s aggregate.Series) (Result, error) {
	return f.ForecastHorizon(s, f.horizon)
}

// ForecastHorizon extrapolates s over h months following its last period
func (f *Forecaster) ForecastHorizon(s aggregate.Series, h int) (Result, error) {
	if err := checkHorizon(h); err != nil {
		return Result{}, err
	}
	key := s.Key.String()
	n := len(s.Points)
	if n < MinHistory {
		return Result{}, &InsufficientHistoryError{Key: key, Have: n, Need: MinHistory}
	}

	y := s.Values()
	out := Result{Key: s.Key, Horizon: h, Points: make([]Point, h)}
	last := s.Last()

	if floats.Max(y) == 0 && floats.Min(y) == 0 {
		out.Confidence = High
		out.Model.Seasonal = make([]float64, Seasons)
		for i := range out.Points {
			out.Points[i] = Point{Period: last.Add(i + 1), Confidence: High}
		}
		return out, nil
	}

	m, err := fit(s, y)
	if err != nil {
		return Result{}, &ComputationError{Key: key, Reason: err.Error()}
	}
	out.Model = m
	out.Confidence = f.thresholds.Label(m.Score)

	for i := range out.Points {
		p := last.Add(i + 1)
		t := float64(n + i)
		v := m.Level + m.Slope*t + m.Seasonal[p.Month-1]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Result{}, &ComputationError{Key: key, Reason: "non-finite prediction for " + p.String()}
		}
		out.Points[i] = Point{Period: p, PredictedCount: scalar.Round(math.Max(v, 0), 2), Confidence: out.Confidence}
	}
	return out, nil
}

// fit estimates trend and seasonal offsets and scores the residuals
func fit(s aggregate.Series, y []float64) (Model, error) {
	n := len(y)
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}
	level, slope := stat.LinearRegression(x, y, nil, false)
	if !finite(level, slope) {
		return Model{}, errNonFinite("trend")
	}

	var sums, counts [Seasons]float64
	for i, p := range s.Points {
		m := p.Period.Month - 1
		sums[m] += y[i] - (level + slope*x[i])
		counts[m]++
	}
	seasonal := make([]float64, Seasons)
	for m := range seasonal {
		if counts[m] > 0 {
			seasonal[m] = sums[m] / counts[m]
		}
	}
	// uneven month counts leave a bias, move it from the offsets into the level
	bias := stat.Mean(seasonal, nil)
	floats.AddConst(-bias, seasonal)
	level += bias

	resid := make([]float64, n)
	for i, p := range s.Points {
		resid[i] = y[i] - (level + slope*x[i] + seasonal[p.Period.Month-1])
	}
	rmse := math.Sqrt(floats.Dot(resid, resid) / float64(n))
	mean := stat.Mean(y, nil)
	score := Score(rmse, mean)
	if !finite(rmse, mean, score) || !finite(seasonal...) {
		return Model{}, errNonFinite("residuals")
	}
	return Model{Level: level, Slope: slope, Seasonal: seasonal, Mean: mean, RMSE: rmse, Score: score}, nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type errNonFinite string

func (e errNonFinite) Error() string { return "non-finite " + string(e) }
