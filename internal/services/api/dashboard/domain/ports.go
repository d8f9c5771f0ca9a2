package domain

import (
	"context"

	"crimedash/internal/core/aggregate"
	"crimedash/internal/core/forecast"
)

// ServicePort is consumed by handlers and other modules
type ServicePort interface {
	Load(ctx context.Context, in LoadInput) (LoadOutput, error)
	Dataset(ctx context.Context, id string) (DatasetOutput, error)
	Drop(ctx context.Context, id string) error

	Aggregate(ctx context.Context, in AggregateInput) (aggregate.Result, error)
	Forecast(ctx context.Context, in ForecastInput) (ForecastOutput, error)

	Totals(ctx context.Context, in TotalsInput) ([]aggregate.Total, error)
	Yearly(ctx context.Context, in YearlyInput) (aggregate.Matrix, error)
	Heatmap(ctx context.Context, in HeatmapInput) (aggregate.Matrix, error)
	Correlation(ctx context.Context, in CorrelationInput) (aggregate.CorrelationMatrix, error)
	CompareUnits(ctx context.Context, in CompareInput) (aggregate.Matrix, error)
	Outlook(ctx context.Context, in OutlookInput) (forecast.Outlook, error)
}
