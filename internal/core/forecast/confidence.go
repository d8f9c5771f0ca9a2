package forecast

import (
	"math"

	perr "crimedash/internal/platform/errors"
)

// Label is a coarse reliability bucket, not a statistical interval
type Label string

const (
	// High is a close fit
	High Label = "high"
	// Medium is a usable fit
	Medium Label = "medium"
	// Low is a noisy fit
	Low Label = "low"
)

// rank orders labels from least to most confident
func (l Label) rank() int {
	switch l {
	case High:
		return 2
	case Medium:
		return 1
	}
	return 0
}

// Thresholds bound the relative error score of each label
// a score at or below High is high, at or below Medium is medium, above is low
type Thresholds struct {
	High   float64 `yaml:"high" json:"high"`
	Medium float64 `yaml:"medium" json:"medium"`
}

// DefaultThresholds are 10 and 25 percent relative error
func DefaultThresholds() Thresholds { return Thresholds{High: 0.10, Medium: 0.25} }

// Validate requires 0 <= High <= Medium with finite values
func (t Thresholds) Validate() error {
	if math.IsNaN(t.High) || math.IsNaN(t.Medium) || math.IsInf(t.Medium, 0) {
		return perr.InvalidArgf("thresholds must be finite")
	}
	if t.High < 0 || t.Medium < t.High {
		return perr.InvalidArgf("thresholds want 0 <= high <= medium, got high=%v medium=%v", t.High, t.Medium)
	}
	return nil
}

// Label buckets a score
func (t Thresholds) Label(score float64) Label {
	switch {
	case score <= t.High:
		return High
	case score <= t.Medium:
		return Medium
	}
	return Low
}

// Score is the residual RMSE relative to the series mean floored at 1
func Score(rmse, mean float64) float64 {
	return rmse / math.Max(mean, 1)
}
