package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"crimedash/internal/core/dataset"
	"crimedash/internal/core/forecast"
	perr "crimedash/internal/platform/errors"
	"crimedash/internal/platform/metrics"
	"crimedash/internal/platform/store"
	"crimedash/internal/platform/testkit"
	"crimedash/internal/services/api/dashboard/domain"
	"crimedash/internal/services/api/dashboard/repo"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// wideCSV has 24 months of constant theft in North and South, burglary only in
// the last 6 months of North
func wideCSV() string {
	var b strings.Builder
	b.WriteString("Date,Unit,Theft,Burglary\n")
	start := time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := range 24 {
		d := start.AddDate(0, i, 0).Format("2006-01-02")
		burglary := ""
		if i >= 18 {
			burglary = "2"
		}
		fmt.Fprintf(&b, "%s,North,10,%s\n", d, burglary)
		fmt.Fprintf(&b, "%s,South,%d,\n", d, 4+i%3)
	}
	return b.String()
}

func newSvc(t *testing.T, c Config) (*Svc, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	if c.Sessions == nil {
		c.Sessions = repo.NewMemory(repo.Options{Metrics: m})
	}
	c.Metrics = m
	return New(c), m
}

func load(t *testing.T, s *Svc) string {
	t.Helper()
	out, err := s.Load(context.Background(), domain.LoadInput{
		Name:   "city",
		Source: domain.SourceSpec{Kind: domain.SourceInline, Inline: wideCSV()},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return out.ID
}

func TestNew_RequiresSessions(t *testing.T) {
	testkit.MustPanic(t, func() { New(Config{}) })
}

func TestLoad_InlineAndDataset(t *testing.T) {
	s, m := newSvc(t, Config{})
	ctx := context.Background()

	out, err := s.Load(ctx, domain.LoadInput{
		Name:   "city",
		Source: domain.SourceSpec{Kind: domain.SourceInline, Inline: wideCSV()},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.ID == "" || out.Overview.Name != "city" {
		t.Fatalf("out = %+v", out)
	}
	if out.Report.Layout != dataset.LayoutWide || out.Report.Loaded != 54 {
		t.Fatalf("Report = %+v, want wide with 54 records", out.Report)
	}
	if out.Overview.Units != 2 || out.Overview.CrimeTypes != 2 || out.Overview.Months != 24 {
		t.Fatalf("Overview = %+v", out.Overview)
	}
	if v := testutil.ToFloat64(m.RowsLoaded); v != 54 {
		t.Fatalf("rows loaded = %v, want 54", v)
	}

	got, err := s.Dataset(ctx, out.ID)
	if err != nil {
		t.Fatalf("Dataset: %v", err)
	}
	if strings.Join(got.Units, ",") != "North,South" || strings.Join(got.CrimeTypes, ",") != "Burglary,Theft" {
		t.Fatalf("Dataset = %+v", got)
	}

	if err := s.Drop(ctx, out.ID); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if _, err := s.Dataset(ctx, out.ID); perr.CodeOf(err) != perr.ErrorCodeNotFound {
		t.Fatalf("Dataset after drop code = %v, want not_found", perr.CodeOf(err))
	}
}

func TestLoad_Policies(t *testing.T) {
	s, m := newSvc(t, Config{})
	ctx := context.Background()
	csv := "timestamp,crime_type,unit,count\n2024-01-01,theft,north,1\nnot-a-date,theft,north,1\n2024-02-01,,north,1\n"

	_, err := s.Load(ctx, domain.LoadInput{Source: domain.SourceSpec{Kind: domain.SourceInline, Inline: csv}})
	var pe *dataset.ParseError
	if !errors.As(err, &pe) || pe.Total != 2 {
		t.Fatalf("fail policy err = %v, want ParseError with 2 rows", err)
	}
	if perr.HTTPStatus(err) != 422 {
		t.Fatalf("status = %d, want 422", perr.HTTPStatus(err))
	}

	out, err := s.Load(ctx, domain.LoadInput{Policy: "drop", Source: domain.SourceSpec{Kind: domain.SourceInline, Inline: csv}})
	if err != nil {
		t.Fatalf("drop Load: %v", err)
	}
	if out.Report.Dropped != 2 || out.Report.Loaded != 1 || len(out.Report.Rows) != 2 {
		t.Fatalf("Report = %+v", out.Report)
	}
	if v := testutil.ToFloat64(m.RowsDropped); v != 2 {
		t.Fatalf("rows dropped = %v, want 2", v)
	}
}

func TestLoad_Sources(t *testing.T) {
	root := filepath.Dir(testkit.WriteFile(t, "crimes.csv", wideCSV()))
	ch := &fakeCH{}

	s, _ := newSvc(t, Config{FileRoot: root, CH: ch})
	ctx := context.Background()

	// the path is rooted, traversal stays inside root
	out, err := s.Load(ctx, domain.LoadInput{Source: domain.SourceSpec{Kind: domain.SourceFile, Path: "../../crimes.csv"}})
	if err != nil {
		t.Fatalf("file Load: %v", err)
	}
	if out.Overview.Name != "crimes" {
		t.Fatalf("Name = %q, want crimes", out.Overview.Name)
	}

	out, err = s.Load(ctx, domain.LoadInput{
		Source: domain.SourceSpec{Kind: domain.SourceCH, Table: &domain.TableRef{Name: "crimes"}},
	})
	if err != nil {
		t.Fatalf("ch Load: %v", err)
	}
	if out.Overview.Records != 1 || ch.query != "SELECT * FROM `crimes`" {
		t.Fatalf("ch Load = %+v, query %q", out.Overview, ch.query)
	}
}

func TestLoad_SourceErrors(t *testing.T) {
	s, _ := newSvc(t, Config{})
	tests := []struct {
		name  string
		spec  domain.SourceSpec
		code  perr.ErrorCode
		field string
	}{
		{"file disabled", domain.SourceSpec{Kind: domain.SourceFile, Path: "x.csv"}, perr.ErrorCodeInvalidArgument, "source.kind"},
		{"pg unconfigured", domain.SourceSpec{Kind: domain.SourcePG, Table: &domain.TableRef{Name: "t"}}, perr.ErrorCodeUnavailable, ""},
		{"ch unconfigured", domain.SourceSpec{Kind: domain.SourceCH, Table: &domain.TableRef{Name: "t"}}, perr.ErrorCodeUnavailable, ""},
		{"table missing", domain.SourceSpec{Kind: domain.SourcePG}, perr.ErrorCodeInvalidArgument, "source.table"},
		{"url disabled", domain.SourceSpec{Kind: domain.SourceURL, URL: "https://data.city.gov/crimes.csv"}, perr.ErrorCodeInvalidArgument, "source.kind"},
		{"unknown kind", domain.SourceSpec{Kind: "s3"}, perr.ErrorCodeInvalidArgument, "source.kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Load(context.Background(), domain.LoadInput{Source: tt.spec})
			e, ok := perr.As(err)
			if !ok || e.Code() != tt.code || e.Field() != tt.field {
				t.Fatalf("err = %v, want code %v field %q", err, tt.code, tt.field)
			}
		})
	}
}

func TestLoad_URLHosts(t *testing.T) {
	s, _ := newSvc(t, Config{URLHosts: []string{"data.city.gov"}})
	tests := []struct {
		name string
		url  string
	}{
		{"loopback", "http://127.0.0.1:8080/crimes.csv"},
		{"metadata", "http://169.254.169.254/latest/meta-data/"},
		{"internal", "http://db.internal/crimes.csv"},
		{"suffix trick", "https://data.city.gov.evil.net/crimes.csv"},
		{"not http", "ftp://data.city.gov/crimes.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Load(context.Background(), domain.LoadInput{Source: domain.SourceSpec{Kind: domain.SourceURL, URL: tt.url}})
			e, ok := perr.As(err)
			if !ok || e.Code() != perr.ErrorCodeInvalidArgument || e.Field() != "source.url" {
				t.Fatalf("err = %v, want invalid_argument on source.url", err)
			}
		})
	}
}

func TestAggregate(t *testing.T) {
	s, _ := newSvc(t, Config{})
	id := load(t, s)
	ctx := context.Background()

	res, err := s.Aggregate(ctx, domain.AggregateInput{
		Query: domain.Query{Dataset: id, Filter: domain.FilterInput{From: "2023-01"}},
		Keys:  []string{"crime_type", "unit"},
	})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(res.Series) != 3 {
		t.Fatalf("series = %d, want 3", len(res.Series))
	}
	for _, sr := range res.Series {
		if len(sr.Points) != 12 || sr.Points[0].Period.String() != "2023-01" {
			t.Fatalf("series %s has %d points from %s", sr.Key, len(sr.Points), sr.Points[0].Period)
		}
	}
	if got := res.Series[0].Key.String(); got != "crime_type=Burglary,unit=North" {
		t.Fatalf("first key = %s", got)
	}

	_, err = s.Aggregate(ctx, domain.AggregateInput{
		Query: domain.Query{Dataset: id, Filter: domain.FilterInput{From: "2023-05", To: "2023-01"}},
		Keys:  []string{"unit"},
	})
	if e, ok := perr.As(err); !ok || e.Field() != "filter" || e.Code() != perr.ErrorCodeInvalidArgument {
		t.Fatalf("inverted filter err = %v", err)
	}

	_, err = s.Aggregate(ctx, domain.AggregateInput{Query: domain.Query{Dataset: "missing"}, Keys: []string{"unit"}})
	if perr.CodeOf(err) != perr.ErrorCodeNotFound {
		t.Fatalf("missing dataset code = %v, want not_found", perr.CodeOf(err))
	}
}

func TestForecast(t *testing.T) {
	s, m := newSvc(t, Config{})
	id := load(t, s)

	out, err := s.Forecast(context.Background(), domain.ForecastInput{Query: domain.Query{Dataset: id}, Unit: "north"})
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if out.Horizon != forecast.DefaultHorizon {
		t.Fatalf("Horizon = %d, want default", out.Horizon)
	}
	// burglary is zero filled over the whole axis so it has enough history too
	if len(out.Forecasts) != 2 || len(out.Failures) != 0 {
		t.Fatalf("forecasts = %d failures = %d, want 2 and 0", len(out.Forecasts), len(out.Failures))
	}
	theft := out.Forecasts[1]
	if theft.Key.String() != "crime_type=Theft,unit=North" || theft.Confidence != forecast.High {
		t.Fatalf("theft = %s %s", theft.Key, theft.Confidence)
	}
	for _, p := range theft.Points {
		if p.PredictedCount != 10 {
			t.Fatalf("point %s = %v, want 10", p.Period, p.PredictedCount)
		}
	}

	// a six month window is too short for either type
	out, err = s.Forecast(context.Background(), domain.ForecastInput{
		Query:   domain.Query{Dataset: id, Filter: domain.FilterInput{From: "2023-07"}},
		Horizon: 3,
	})
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if len(out.Forecasts) != 0 || len(out.Failures) != 2 {
		t.Fatalf("forecasts = %d failures = %d, want 0 and 2", len(out.Forecasts), len(out.Failures))
	}
	if out.Failures[0].Error.Code != perr.ErrorCodeInsufficientHistory {
		t.Fatalf("failure code = %v", out.Failures[0].Error.Code)
	}
	if v := testutil.ToFloat64(m.ForecastFailures.WithLabelValues("insufficient_history")); v != 2 {
		t.Fatalf("failure counter = %v, want 2", v)
	}
	if v := testutil.ToFloat64(m.ForecastLabels.WithLabelValues("high")); v != 1 {
		t.Fatalf("high counter = %v, want 1", v)
	}
}

func TestSummaries(t *testing.T) {
	s, _ := newSvc(t, Config{})
	id := load(t, s)
	ctx := context.Background()
	q := domain.Query{Dataset: id}

	totals, err := s.Totals(ctx, domain.TotalsInput{Query: q, By: "unit"})
	if err != nil || len(totals) != 2 || totals[0].Value != "North" || totals[0].Count != 252 {
		t.Fatalf("Totals = %+v, %v", totals, err)
	}

	yearly, err := s.Yearly(ctx, domain.YearlyInput{Query: q})
	if err != nil || strings.Join(yearly.Rows, ",") != "2022,2023" {
		t.Fatalf("Yearly = %+v, %v", yearly, err)
	}

	heat, err := s.Heatmap(ctx, domain.HeatmapInput{Query: q, CrimeType: "burglary"})
	if err != nil || strings.Join(heat.Rows, ",") != "North" || heat.Cells[0][1] != 12 {
		t.Fatalf("Heatmap = %+v, %v", heat, err)
	}

	corr, err := s.Correlation(ctx, domain.CorrelationInput{Query: q})
	if err != nil || len(corr.Labels) != 2 {
		t.Fatalf("Correlation = %+v, %v", corr, err)
	}
	_, err = s.Correlation(ctx, domain.CorrelationInput{Query: q, CrimeTypes: []string{"theft"}})
	if e, ok := perr.As(err); !ok || e.Field() != "crime_types" {
		t.Fatalf("single type correlation err = %v", err)
	}

	cmp, err := s.CompareUnits(ctx, domain.CompareInput{Query: q, Units: []string{"south", "north"}})
	if err != nil || strings.Join(cmp.Rows, ",") != "North,South" {
		t.Fatalf("CompareUnits = %+v, %v", cmp, err)
	}

	out, err := s.Outlook(ctx, domain.OutlookInput{Query: q, Unit: "North", Target: "2024-03"})
	if err != nil {
		t.Fatalf("Outlook: %v", err)
	}
	if out.Horizon != 3 || len(out.Entries) != 2 || out.Entries[0].CrimeType != "Theft" {
		t.Fatalf("Outlook = %+v", out)
	}
	if _, err := s.Outlook(ctx, domain.OutlookInput{Query: q, Unit: "North", Target: "2023-03"}); perr.CodeOf(err) != perr.ErrorCodeInvalidArgument {
		t.Fatalf("past target code = %v, want invalid_argument", perr.CodeOf(err))
	}
}

type fakeRows struct{ done bool }

func (r *fakeRows) Next() bool {
	if r.done {
		return false
	}
	r.done = true
	return true
}
func (r *fakeRows) Scan(...any) error { return nil }
func (r *fakeRows) Values() ([]any, error) {
	return []any{time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC), "theft", "north", int64(3)}, nil
}
func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) Close()     {}
func (r *fakeRows) Columns() []string {
	return []string{"timestamp", "crime_type", "unit", "count"}
}

type fakeCH struct{ query string }

func (c *fakeCH) Query(_ context.Context, sql string, _ ...any) (store.Rows, error) {
	c.query = sql
	return &fakeRows{}, nil
}
func (c *fakeCH) Ping(context.Context) error { return nil }
func (c *fakeCH) Close() error               { return nil }
