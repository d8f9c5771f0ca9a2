// Package service contains the dashboard workflows: loading sessions and deriving views
package service

import (
	"context"
	"path/filepath"
	"slices"
	"time"

	"crimedash/internal/adapters/source"
	"crimedash/internal/core/aggregate"
	"crimedash/internal/core/dataset"
	"crimedash/internal/core/forecast"
	"crimedash/internal/modkit/repokit"
	perr "crimedash/internal/platform/errors"
	"crimedash/internal/platform/logger"
	"crimedash/internal/platform/metrics"
	pnet "crimedash/internal/platform/net"
	"crimedash/internal/platform/store"
	"crimedash/internal/services/api/dashboard/domain"
	"crimedash/internal/services/api/dashboard/repo"
)

// DefaultTop is the outlook size when the request leaves it unset
const DefaultTop = 5

// Service defines the dashboard service contract
type Service interface {
	domain.ServicePort
}

// Config carries the service collaborators, only Sessions is required
type Config struct {
	Sessions repo.Repo

	// sources
	Fetcher   *source.HTTPFetcher
	PG        repokit.TxRunner
	CH        store.Clickhouse
	FileRoot  string   // file sources are disabled when empty
	URLHosts  []string // url sources are disabled when empty
	PGTimeout time.Duration

	// pipeline defaults, usually from the dataset profile
	LoadDefaults []dataset.Option
	Forecaster   *forecast.Forecaster

	Metrics *metrics.Metrics
}

// Svc implements the dashboard service
type Svc struct {
	sessions  repo.Repo
	fetcher   *source.HTTPFetcher
	pg        repokit.TxRunner
	ch        store.Clickhouse
	fileRoot  string
	urlHosts  []string
	pgTimeout time.Duration
	loadOpts  []dataset.Option
	fc        *forecast.Forecaster
	metrics   *metrics.Metrics
}

// New constructs a dashboard service
func New(c Config) *Svc {
	if c.Sessions == nil {
		panic("dashboard.Service requires a non nil session repo")
	}
	if c.Forecaster == nil {
		fc, err := forecast.New()
		if err != nil {
			panic("dashboard.Service default forecaster: " + err.Error())
		}
		c.Forecaster = fc
	}
	if c.Fetcher == nil {
		c.Fetcher = source.NewHTTPFetcher(source.HTTPOptions{Hosts: slices.Clone(c.URLHosts), Metrics: c.Metrics})
	}
	return &Svc{
		sessions:  c.Sessions,
		fetcher:   c.Fetcher,
		pg:        c.PG,
		ch:        c.CH,
		fileRoot:  c.FileRoot,
		urlHosts:  slices.Clone(c.URLHosts),
		pgTimeout: c.PGTimeout,
		loadOpts:  slices.Clone(c.LoadDefaults),
		fc:        c.Forecaster,
		metrics:   c.Metrics,
	}
}

// Load reads a source into a new session
func (s *Svc) Load(ctx context.Context, in domain.LoadInput) (domain.LoadOutput, error) {
	src, name, err := s.source(in)
	if err != nil {
		return domain.LoadOutput{}, err
	}
	opts, err := s.loadOptions(in, name)
	if err != nil {
		return domain.LoadOutput{}, err
	}

	start := time.Now()
	ds, rep, err := dataset.Load(ctx, src, opts...)
	s.metrics.ObserveStage(metrics.StageLoad, start)
	s.metrics.ObserveLoad(rep.Loaded, rep.Dropped)
	if err != nil {
		logger.C(ctx).Debug().Err(err).Str("kind", in.Source.Kind).Int("read", rep.Read).Msg("dataset load failed")
		return domain.LoadOutput{Report: rep}, err
	}

	sess, err := s.sessions.Put(ctx, ds, rep)
	if err != nil {
		return domain.LoadOutput{}, err
	}
	ctx = pnet.WithDataset(ctx, sess.ID)
	logger.C(ctx).Info().
		Str("kind", in.Source.Kind).
		Str("name", ds.Name()).
		Int("records", ds.Len()).
		Int("dropped", rep.Dropped).
		Dur("elapsed", time.Since(start)).
		Msg("dataset loaded")

	return domain.LoadOutput{
		ID:        sess.ID,
		Overview:  aggregate.Summarize(ds),
		Report:    rep,
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

// Dataset describes a resident session
func (s *Svc) Dataset(ctx context.Context, id string) (domain.DatasetOutput, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return domain.DatasetOutput{}, err
	}
	ds := sess.Dataset
	return domain.DatasetOutput{
		ID:         sess.ID,
		Overview:   aggregate.Summarize(ds),
		CrimeTypes: ds.CrimeTypes(),
		Units:      ds.Units(),
		CreatedAt:  sess.CreatedAt,
		ExpiresAt:  sess.ExpiresAt,
	}, nil
}

// Drop removes a session
func (s *Svc) Drop(ctx context.Context, id string) error {
	return s.sessions.Delete(ctx, id)
}

// Aggregate builds one zero filled series per key
func (s *Svc) Aggregate(ctx context.Context, in domain.AggregateInput) (aggregate.Result, error) {
	ctx, ds, err := s.view(ctx, in.Query)
	if err != nil {
		return aggregate.Result{}, err
	}
	dims, err := aggregate.ParseDimensions(in.Keys)
	if err != nil {
		return aggregate.Result{}, perr.WithField(err, "keys")
	}
	start := time.Now()
	res, err := aggregate.Aggregate(ds, dims...)
	s.metrics.ObserveStage(metrics.StageAggregate, start)
	if err != nil {
		return aggregate.Result{}, err
	}
	logger.C(ctx).Debug().Int("series", len(res.Series)).Int("months", res.Span.Len()).Msg("aggregated")
	return res, nil
}

// Forecast forecasts every crime type, split per unit when a unit is given
func (s *Svc) Forecast(ctx context.Context, in domain.ForecastInput) (domain.ForecastOutput, error) {
	ctx, ds, err := s.view(ctx, in.Query)
	if err != nil {
		return domain.ForecastOutput{}, err
	}
	dims := []aggregate.Dimension{aggregate.DimCrimeType}
	sel := dataset.Filter{CrimeTypes: in.CrimeTypes}
	if in.Unit != "" {
		dims = append(dims, aggregate.DimUnit)
		sel.Units = []string{in.Unit}
	}
	if ds, err = ds.Filter(sel); err != nil {
		return domain.ForecastOutput{}, err
	}

	start := time.Now()
	res, err := aggregate.Aggregate(ds, dims...)
	if err != nil {
		return domain.ForecastOutput{}, err
	}
	h := in.Horizon
	if h == 0 {
		h = s.fc.Horizon()
	}
	batch := s.fc.ForecastAll(res, h)
	s.metrics.ObserveStage(metrics.StageForecast, start)

	for _, r := range batch.Forecasts {
		s.metrics.ObserveForecast(string(r.Confidence))
	}
	for _, f := range batch.Failures {
		s.metrics.ObserveForecastFailure(f.Error.Code.String())
	}
	logger.C(ctx).Debug().
		Int("forecasts", len(batch.Forecasts)).
		Int("failures", len(batch.Failures)).
		Int("horizon", h).
		Msg("forecast batch")
	return domain.ForecastOutput{Horizon: h, Batch: batch}, nil
}

// Totals sums counts per crime type or unit
func (s *Svc) Totals(ctx context.Context, in domain.TotalsInput) ([]aggregate.Total, error) {
	_, ds, err := s.view(ctx, in.Query)
	if err != nil {
		return nil, err
	}
	dim, err := aggregate.ParseDimension(in.By)
	if err != nil {
		return nil, perr.WithField(err, "by")
	}
	defer s.metrics.ObserveStage(metrics.StageSummary, time.Now())
	return aggregate.Totals(ds, dim)
}

// Yearly builds the year by crime type matrix
func (s *Svc) Yearly(ctx context.Context, in domain.YearlyInput) (aggregate.Matrix, error) {
	_, ds, err := s.view(ctx, in.Query)
	if err != nil {
		return aggregate.Matrix{}, err
	}
	defer s.metrics.ObserveStage(metrics.StageSummary, time.Now())
	return aggregate.Yearly(ds), nil
}

// Heatmap builds the row by year matrix, rows default to units
func (s *Svc) Heatmap(ctx context.Context, in domain.HeatmapInput) (aggregate.Matrix, error) {
	_, ds, err := s.view(ctx, in.Query)
	if err != nil {
		return aggregate.Matrix{}, err
	}
	rows := aggregate.DimUnit
	if in.Rows != "" {
		if rows, err = aggregate.ParseDimension(in.Rows); err != nil {
			return aggregate.Matrix{}, perr.WithField(err, "rows")
		}
	}
	defer s.metrics.ObserveStage(metrics.StageSummary, time.Now())
	return aggregate.Heatmap(ds, rows, in.CrimeType)
}

// Correlation correlates monthly crime type totals
func (s *Svc) Correlation(ctx context.Context, in domain.CorrelationInput) (aggregate.CorrelationMatrix, error) {
	_, ds, err := s.view(ctx, in.Query)
	if err != nil {
		return aggregate.CorrelationMatrix{}, err
	}
	defer s.metrics.ObserveStage(metrics.StageSummary, time.Now())
	m, err := aggregate.Correlation(ds, in.CrimeTypes)
	return m, perr.WithField(err, "crime_types")
}

// CompareUnits builds the unit by crime type totals matrix
func (s *Svc) CompareUnits(ctx context.Context, in domain.CompareInput) (aggregate.Matrix, error) {
	_, ds, err := s.view(ctx, in.Query)
	if err != nil {
		return aggregate.Matrix{}, err
	}
	defer s.metrics.ObserveStage(metrics.StageSummary, time.Now())
	return aggregate.CompareUnits(ds, in.Units, in.CrimeTypes)
}

// Outlook ranks the predicted crime types of a unit at the target month
func (s *Svc) Outlook(ctx context.Context, in domain.OutlookInput) (forecast.Outlook, error) {
	ctx, ds, err := s.view(ctx, in.Query)
	if err != nil {
		return forecast.Outlook{}, err
	}
	target, err := dataset.ParsePeriod(in.Target)
	if err != nil {
		return forecast.Outlook{}, perr.WithField(err, "target")
	}
	top := in.Top
	if top == 0 {
		top = DefaultTop
	}
	start := time.Now()
	out, err := s.fc.Outlook(ds, in.Unit, target, top)
	s.metrics.ObserveStage(metrics.StageForecast, start)
	if err != nil {
		return forecast.Outlook{}, err
	}
	logger.C(ctx).Debug().Str("unit", in.Unit).Stringer("target", target).Int("entries", len(out.Entries)).Msg("outlook")
	return out, nil
}

// view resolves the session and applies the request filter
func (s *Svc) view(ctx context.Context, q domain.Query) (context.Context, *dataset.Dataset, error) {
	sess, err := s.sessions.Get(ctx, q.Dataset)
	if err != nil {
		return ctx, nil, err
	}
	ctx = pnet.WithDataset(ctx, sess.ID)
	f, err := toFilter(q.Filter)
	if err != nil {
		return ctx, nil, err
	}
	ds, err := sess.Dataset.Filter(f)
	if err != nil {
		return ctx, nil, perr.WithField(err, "filter")
	}
	return ctx, ds, nil
}

func toFilter(in domain.FilterInput) (dataset.Filter, error) {
	f := dataset.Filter{Units: in.Units, CrimeTypes: in.CrimeTypes}
	var err error
	if in.From != "" {
		if f.From, err = dataset.ParsePeriod(in.From); err != nil {
			return f, perr.WithField(err, "filter.from")
		}
	}
	if in.To != "" {
		if f.To, err = dataset.ParsePeriod(in.To); err != nil {
			return f, perr.WithField(err, "filter.to")
		}
	}
	return f, nil
}

// source maps the request onto a dataset.Source and its default name
func (s *Svc) source(in domain.LoadInput) (dataset.Source, string, error) {
	spec := in.Source
	switch spec.Kind {
	case domain.SourceInline:
		return source.Inline(domain.SourceInline, spec.Inline), domain.SourceInline, nil
	case domain.SourceURL:
		if len(s.urlHosts) == 0 {
			return nil, "", perr.WithField(perr.InvalidArgf("url sources are disabled"), "source.kind")
		}
		if _, err := source.CheckURL(spec.URL, s.urlHosts); err != nil {
			return nil, "", perr.WithField(err, "source.url")
		}
		return s.fetcher.Source(spec.URL), "", nil
	case domain.SourceFile:
		if s.fileRoot == "" {
			return nil, "", perr.WithField(perr.InvalidArgf("file sources are disabled"), "source.kind")
		}
		// rooting the cleaned path keeps it below fileRoot
		p := filepath.Join(s.fileRoot, filepath.Clean("/"+spec.Path))
		return source.File(p), "", nil
	case domain.SourcePG, domain.SourceCH:
		if spec.Table == nil {
			return nil, "", perr.WithField(perr.InvalidArgf("%s source needs a table", spec.Kind), "source.table")
		}
		t := source.Table{Schema: spec.Table.Schema, Name: spec.Table.Name, Columns: spec.Table.Columns, Limit: spec.Table.Limit}
		if spec.Kind == domain.SourcePG {
			if s.pg == nil {
				return nil, "", perr.Unavailablef("postgres is not configured")
			}
			return source.PGTable(s.pg, t, s.pgTimeout), t.Name, nil
		}
		if s.ch == nil {
			return nil, "", perr.Unavailablef("clickhouse is not configured")
		}
		return source.CHTable(s.ch, t), t.Name, nil
	}
	return nil, "", perr.WithField(perr.InvalidArgf("unknown source kind %q", spec.Kind), "source.kind")
}

// loadOptions layers the request overrides on the profile defaults
func (s *Svc) loadOptions(in domain.LoadInput, name string) ([]dataset.Option, error) {
	opts := slices.Clone(s.loadOpts)
	if in.Name != "" {
		name = in.Name
	}
	if name != "" {
		opts = append(opts, dataset.WithName(name))
	}
	if in.Layout != "" {
		l, err := dataset.ParseLayout(in.Layout)
		if err != nil {
			return nil, perr.WithField(err, "layout")
		}
		opts = append(opts, dataset.WithLayout(l))
	}
	if in.Policy != "" {
		p, err := dataset.ParsePolicy(in.Policy)
		if err != nil {
			return nil, perr.WithField(err, "policy")
		}
		opts = append(opts, dataset.WithPolicy(p))
	}
	opts = append(opts, dataset.WithColumns(in.Columns), dataset.WithDateFormats(in.DateFormats...))
	return opts, nil
}
