package forecast

import (
	"cmp"
	"errors"
	"slices"
	"strings"

	"crimedash/internal/core/aggregate"
	"crimedash/internal/core/dataset"
	perr "crimedash/internal/platform/errors"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/stat"
)

// OutlookEntry is the prediction for one crime type of a unit at the target month
type OutlookEntry struct {
	CrimeType     string  `json:"crime_type"`
	Predicted     float64 `json:"predicted"`
	HistoricalAvg float64 `json:"historical_avg"` // same calendar month in the history
	Confidence    Label   `json:"confidence"`
	Share         float64 `json:"share"` // percent of the listed predictions
}

// Outlook ranks the crime types of one unit by their forecast at a target month
type Outlook struct {
	Unit    string         `json:"unit"`
	Target  dataset.Period `json:"target"`
	Horizon int            `json:"horizon"`
	Total   float64        `json:"total"`
	Entries []OutlookEntry `json:"entries"`
	Skipped []string       `json:"skipped"` // crime types with too little history
}

// Outlook forecasts every crime type of unit out to target and keeps the topN highest
// topN <= 0 keeps all of them. unit matches case insensitively, a name that matches
// units differing only in case is rejected
func (f *Forecaster) Outlook(ds *dataset.Dataset, unit string, target dataset.Period, topN int) (Outlook, error) {
	if ds == nil {
		return Outlook{}, perr.InvalidArgf("outlook: nil dataset")
	}
	sub, err := ds.Filter(dataset.Filter{Units: []string{unit}})
	if err != nil {
		return Outlook{}, err
	}
	if sub.Len() == 0 {
		return Outlook{}, perr.NotFoundf("unit %q is not in the dataset", unit)
	}
	units := sub.Units()
	if len(units) > 1 {
		return Outlook{}, perr.WithField(perr.InvalidArgf("unit %q is ambiguous, it matches %s", unit, strings.Join(units, ", ")), "unit")
	}
	res, err := aggregate.Aggregate(sub, aggregate.DimCrimeType)
	if err != nil {
		return Outlook{}, err
	}
	last := res.Span.To
	if !target.After(last) {
		return Outlook{}, perr.InvalidArgf("outlook target %s must be after the last period %s", target, last)
	}
	h := target.Index() - last.Index()
	if err := checkHorizon(h); err != nil {
		return Outlook{}, err
	}

	out := Outlook{Unit: units[0], Target: target, Horizon: h, Entries: []OutlookEntry{}, Skipped: []string{}}
	for _, s := range res.Series {
		ctype := s.Key.Get(aggregate.DimCrimeType)
		r, err := f.ForecastHorizon(s, h)
		if err != nil {
			var ih *InsufficientHistoryError
			if errors.As(err, &ih) {
				out.Skipped = append(out.Skipped, ctype)
				continue
			}
			return Outlook{}, err
		}
		out.Entries = append(out.Entries, OutlookEntry{
			CrimeType:     ctype,
			Predicted:     r.Points[h-1].PredictedCount,
			HistoricalAvg: sameMonthMean(s, target),
			Confidence:    r.Confidence,
		})
	}

	slices.SortFunc(out.Entries, func(a, b OutlookEntry) int {
		if c := cmp.Compare(b.Predicted, a.Predicted); c != 0 {
			return c
		}
		return cmp.Compare(a.CrimeType, b.CrimeType)
	})
	if topN > 0 && len(out.Entries) > topN {
		out.Entries = out.Entries[:topN]
	}

	for _, e := range out.Entries {
		out.Total += e.Predicted
	}
	out.Total = scalar.Round(out.Total, 2)
	for i := range out.Entries {
		if out.Total > 0 {
			out.Entries[i].Share = scalar.Round(out.Entries[i].Predicted/out.Total*100, 2)
		}
	}
	return out, nil
}

// sameMonthMean averages the history at the calendar month of target
func sameMonthMean(s aggregate.Series, target dataset.Period) float64 {
	var vs []float64
	for _, p := range s.Points {
		if p.Period.Month == target.Month {
			vs = append(vs, float64(p.Count))
		}
	}
	if len(vs) == 0 {
		return 0
	}
	return scalar.Round(stat.Mean(vs, nil), 2)
}
