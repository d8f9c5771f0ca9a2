package forecast

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"crimedash/internal/core/aggregate"
	"crimedash/internal/core/dataset"
	perr "crimedash/internal/platform/errors"

	json "github.com/goccy/go-json"
)

var start = dataset.Period{Year: 2021, Month: time.January}

func series(vals ...int64) aggregate.Series {
	pts := make([]aggregate.Point, len(vals))
	for i, v := range vals {
		pts[i] = aggregate.Point{Period: start.Add(i), Count: v}
	}
	return aggregate.Series{Key: aggregate.NewKey([]aggregate.Dimension{aggregate.DimCrimeType}, "theft"), Points: pts}
}

func repeat(v int64, n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func mustNew(t *testing.T, opts ...Option) *Forecaster {
	t.Helper()
	f, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f
}

func TestForecastConstantSeries(t *testing.T) {
	r, err := mustNew(t).Forecast(series(repeat(10, 24)...))
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if len(r.Points) != 12 || r.Confidence != High {
		t.Fatalf("points/confidence = %d/%s", len(r.Points), r.Confidence)
	}
	for i, p := range r.Points {
		if p.PredictedCount != 10 || p.Confidence != High {
			t.Fatalf("Points[%d] = %+v, want 10 high", i, p)
		}
		if want := start.Add(24 + i); p.Period != want {
			t.Fatalf("Points[%d].Period = %s, want %s", i, p.Period, want)
		}
	}
}

func TestForecastAllZero(t *testing.T) {
	r, err := mustNew(t).ForecastHorizon(series(repeat(0, 15)...), 6)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if len(r.Points) != 6 || r.Confidence != High {
		t.Fatalf("points/confidence = %d/%s", len(r.Points), r.Confidence)
	}
	for _, p := range r.Points {
		if p.PredictedCount != 0 || p.Confidence != High {
			t.Fatalf("point = %+v, want 0 high", p)
		}
	}
}

func TestForecastInsufficientHistory(t *testing.T) {
	_, err := mustNew(t).Forecast(series(repeat(3, 11)...))
	var ih *InsufficientHistoryError
	if !errors.As(err, &ih) {
		t.Fatalf("err = %v, want InsufficientHistoryError", err)
	}
	if ih.Have != 11 || ih.Need != 12 || ih.Key != "crime_type=theft" {
		t.Fatalf("err = %+v", ih)
	}
	if perr.CodeOf(err) != perr.ErrorCodeInsufficientHistory || perr.HTTPStatus(err) != 422 {
		t.Fatalf("code/status = %s/%d", perr.CodeOf(err), perr.HTTPStatus(err))
	}
}

func TestForecastTrendAndSeason(t *testing.T) {
	var vals []int64
	for i := range 36 {
		v := 20 + i
		if i%12 == 6 {
			v += 12
		}
		vals = append(vals, int64(v))
	}
	r, err := mustNew(t).Forecast(series(vals...))
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if r.Model.Slope < 0.9 || r.Model.Slope > 1.1 {
		t.Fatalf("slope = %v, want about 1", r.Model.Slope)
	}
	// July carries the spike
	jul := r.Points[6]
	if jul.Period.Month != time.July {
		t.Fatalf("Points[6] = %s, want July", jul.Period)
	}
	if jul.PredictedCount <= r.Points[5].PredictedCount+5 {
		t.Fatalf("July %v should stand out over June %v", jul.PredictedCount, r.Points[5].PredictedCount)
	}
	if got := floatsSum(r.Model.Seasonal); math.Abs(got) > 1e-9 {
		t.Fatalf("seasonal offsets sum to %v, want 0", got)
	}
	if r.Confidence != High {
		t.Fatalf("a clean trend plus season should be high, got %s (score %v)", r.Confidence, r.Model.Score)
	}
}

func TestForecastNeverNegative(t *testing.T) {
	var vals []int64
	for i := range 24 {
		vals = append(vals, int64(48-2*i))
	}
	r, err := mustNew(t).ForecastHorizon(series(vals...), 36)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	for _, p := range r.Points {
		if p.PredictedCount < 0 {
			t.Fatalf("negative prediction %+v", p)
		}
	}
	if r.Points[35].PredictedCount != 0 {
		t.Fatalf("falling trend should clamp to 0, got %v", r.Points[35].PredictedCount)
	}
}

func TestConfidenceMonotonicInNoise(t *testing.T) {
	f := mustNew(t)
	prevRank := 3
	prevScore := -1.0
	for _, amp := range []float64{0, 1, 3, 6, 12, 28} {
		rng := rand.New(rand.NewPCG(1, 2))
		vals := make([]int64, 36)
		for i := range vals {
			vals[i] = int64(math.Round(30 + amp*(2*rng.Float64()-1)))
		}
		r, err := f.Forecast(series(vals...))
		if err != nil {
			t.Fatalf("Forecast: %v", err)
		}
		if r.Model.Score < prevScore {
			t.Fatalf("amp %v: score %v dropped below %v", amp, r.Model.Score, prevScore)
		}
		if rk := r.Confidence.rank(); rk > prevRank {
			t.Fatalf("amp %v: label %s is more confident than the previous one", amp, r.Confidence)
		}
		prevRank, prevScore = r.Confidence.rank(), r.Model.Score
	}
	if prevRank != Low.rank() {
		t.Fatalf("the noisiest series should be low")
	}
}

func TestThresholds(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		score float64
		want  Label
	}{
		{0, High}, {0.10, High}, {0.1001, Medium}, {0.25, Medium}, {0.26, Low}, {5, Low},
	}
	for _, c := range cases {
		if got := th.Label(c.score); got != c.want {
			t.Fatalf("Label(%v) = %s, want %s", c.score, got, c.want)
		}
	}
	for _, bad := range []Thresholds{{High: -0.1, Medium: 0.2}, {High: 0.3, Medium: 0.2}, {High: math.NaN(), Medium: 1}} {
		if _, err := New(WithThresholds(bad)); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
			t.Fatalf("New(%+v) err = %v", bad, err)
		}
	}
	for _, h := range []int{0, -1, MaxHorizon + 1} {
		if _, err := New(WithHorizon(h)); err == nil {
			t.Fatalf("New(WithHorizon(%d)) should fail", h)
		}
	}
	strict := mustNew(t, WithThresholds(Thresholds{High: 0, Medium: 0}))
	r, _ := strict.Forecast(series(5, 9, 4, 8, 6, 7, 5, 9, 4, 8, 6, 7, 9, 3))
	if r.Confidence != Low {
		t.Fatalf("zero thresholds should label any residual low, got %s", r.Confidence)
	}
}

func TestForecastDeterministic(t *testing.T) {
	f := mustNew(t)
	s := series(3, 8, 2, 9, 4, 4, 7, 1, 0, 6, 5, 3, 8, 2, 6, 9)
	a, _ := f.Forecast(s)
	b, _ := f.Forecast(s)
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	if string(ja) != string(jb) {
		t.Fatalf("forecast is not deterministic:\n%s\n%s", ja, jb)
	}
}

func TestForecastAll(t *testing.T) {
	recs := []dataset.Record{}
	for i := range 14 {
		ts := start.Add(i).Start()
		recs = append(recs, dataset.Record{Timestamp: ts, CrimeType: "theft", Unit: "north", Count: 4})
	}
	recs = append(recs, dataset.Record{Timestamp: start.Add(13).Start(), CrimeType: "arson", Unit: "north", Count: 1})
	ds := dataset.New("batch", recs)
	sub, _ := ds.Filter(dataset.Filter{From: start.Add(8)})
	res, err := aggregate.Aggregate(sub, aggregate.DimCrimeType)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	b := mustNew(t).ForecastAll(res, 0)
	if len(b.Forecasts) != 0 || len(b.Failures) != 2 {
		t.Fatalf("6 months of history should fail both keys, got %+v", b)
	}

	res, _ = aggregate.Aggregate(ds, aggregate.DimCrimeType)
	b = mustNew(t).ForecastAll(res, 3)
	if len(b.Forecasts) != 2 || len(b.Failures) != 0 {
		t.Fatalf("batch = %+v", b)
	}
	if b.Forecasts[0].Key.String() != "crime_type=arson" || b.Forecasts[1].Horizon != 3 {
		t.Fatalf("batch order/horizon wrong: %+v", b.Forecasts)
	}
	if b.Forecasts[1].Points[0].PredictedCount != 4 {
		t.Fatalf("theft = %v, want 4", b.Forecasts[1].Points[0].PredictedCount)
	}
}

func floatsSum(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s
}
