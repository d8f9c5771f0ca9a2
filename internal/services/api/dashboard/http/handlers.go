// Package http provides HTTP transport for the crime dashboard
package http

import (
	stdhttp "net/http"

	"crimedash/internal/modkit/httpkit"
	phttp "crimedash/internal/platform/net/http"
	"crimedash/internal/services/api/dashboard/domain"
)

// Register mounts dashboard endpoints on the given router
// queries are POST with JSON bodies so filters compose without query string parsing
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}

	// dataset sessions
	httpkit.PostJSON[domain.LoadInput](r, "/datasets", h.load)
	httpkit.Get(r, "/datasets/{id}", h.dataset)
	httpkit.Delete(r, "/datasets/{id}", h.drop)

	// series and forecasts
	httpkit.PostJSON[domain.AggregateInput](r, "/aggregate", h.aggregate)
	httpkit.PostJSON[domain.ForecastInput](r, "/forecast", h.forecast)
	httpkit.PostJSON[domain.OutlookInput](r, "/outlook", h.outlook)

	// summaries
	httpkit.PostJSON[domain.TotalsInput](r, "/totals", h.totals)
	httpkit.PostJSON[domain.YearlyInput](r, "/yearly", h.yearly)
	httpkit.PostJSON[domain.HeatmapInput](r, "/heatmap", h.heatmap)
	httpkit.PostJSON[domain.CorrelationInput](r, "/correlation", h.correlation)
	httpkit.PostJSON[domain.CompareInput](r, "/units/compare", h.compareUnits)
}

type handlers struct{ svc domain.ServicePort }

// swagger:route POST /dashboard/datasets Dashboard dashboardLoad
// @Summary Load a dataset from a file, URL, inline CSV or database table
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param payload body domain.LoadInput true "Source"
// @Success 201 {object} domain.LoadOutput "created"
// @Failure 422 {object} net.Wire "source could not be parsed"
// @Router /dashboard/datasets [post]
func (h *handlers) load(r *stdhttp.Request, in domain.LoadInput) (any, error) {
	out, err := h.svc.Load(r.Context(), in)
	if err != nil {
		return nil, err
	}
	return httpkit.Created(out), nil
}

// swagger:route GET /dashboard/datasets/{id} Dashboard dashboardDataset
// @Summary Describe a loaded dataset
// @Tags Dashboard
// @Produce json
// @Param id path string true "Dataset id"
// @Success 200 {object} domain.DatasetOutput "ok"
// @Failure 404 {object} net.Wire "unknown or expired dataset"
// @Router /dashboard/datasets/{id} [get]
func (h *handlers) dataset(r *stdhttp.Request) (any, error) {
	return h.svc.Dataset(r.Context(), phttp.URLParam(r, "id"))
}

// swagger:route DELETE /dashboard/datasets/{id} Dashboard dashboardDrop
// @Summary Release a loaded dataset
// @Tags Dashboard
// @Param id path string true "Dataset id"
// @Success 204 "dropped"
// @Router /dashboard/datasets/{id} [delete]
func (h *handlers) drop(r *stdhttp.Request) (any, error) {
	if err := h.svc.Drop(r.Context(), phttp.URLParam(r, "id")); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}

// swagger:route POST /dashboard/aggregate Dashboard dashboardAggregate
// @Summary Monthly series grouped by crime type and or unit
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param payload body domain.AggregateInput true "Query"
// @Success 200 {object} aggregate.Result "ok"
// @Router /dashboard/aggregate [post]
func (h *handlers) aggregate(r *stdhttp.Request, in domain.AggregateInput) (any, error) {
	return h.svc.Aggregate(r.Context(), in)
}

// swagger:route POST /dashboard/forecast Dashboard dashboardForecast
// @Summary Forecast monthly counts per crime type
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param payload body domain.ForecastInput true "Query"
// @Success 200 {object} domain.ForecastOutput "ok"
// @Router /dashboard/forecast [post]
func (h *handlers) forecast(r *stdhttp.Request, in domain.ForecastInput) (any, error) {
	return h.svc.Forecast(r.Context(), in)
}

// swagger:route POST /dashboard/outlook Dashboard dashboardOutlook
// @Summary Ranked crime type predictions for one unit and month
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param payload body domain.OutlookInput true "Query"
// @Success 200 {object} forecast.Outlook "ok"
// @Router /dashboard/outlook [post]
func (h *handlers) outlook(r *stdhttp.Request, in domain.OutlookInput) (any, error) {
	return h.svc.Outlook(r.Context(), in)
}

// swagger:route POST /dashboard/totals Dashboard dashboardTotals
// @Summary Totals and shares per crime type or unit
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param payload body domain.TotalsInput true "Query"
// @Success 200 {array} aggregate.Total "ok"
// @Router /dashboard/totals [post]
func (h *handlers) totals(r *stdhttp.Request, in domain.TotalsInput) (any, error) {
	return h.svc.Totals(r.Context(), in)
}

// swagger:route POST /dashboard/yearly Dashboard dashboardYearly
// @Summary Year by crime type totals
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param payload body domain.YearlyInput true "Query"
// @Success 200 {object} aggregate.Matrix "ok"
// @Router /dashboard/yearly [post]
func (h *handlers) yearly(r *stdhttp.Request, in domain.YearlyInput) (any, error) {
	return h.svc.Yearly(r.Context(), in)
}

// swagger:route POST /dashboard/heatmap Dashboard dashboardHeatmap
// @Summary Unit or crime type by year heatmap
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param payload body domain.HeatmapInput true "Query"
// @Success 200 {object} aggregate.Matrix "ok"
// @Router /dashboard/heatmap [post]
func (h *handlers) heatmap(r *stdhttp.Request, in domain.HeatmapInput) (any, error) {
	return h.svc.Heatmap(r.Context(), in)
}

// swagger:route POST /dashboard/correlation Dashboard dashboardCorrelation
// @Summary Pearson correlation between monthly crime type totals
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param payload body domain.CorrelationInput true "Query"
// @Success 200 {object} aggregate.CorrelationMatrix "ok"
// @Router /dashboard/correlation [post]
func (h *handlers) correlation(r *stdhttp.Request, in domain.CorrelationInput) (any, error) {
	return h.svc.Correlation(r.Context(), in)
}

// swagger:route POST /dashboard/units/compare Dashboard dashboardCompareUnits
// @Summary Unit by crime type comparison
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param payload body domain.CompareInput true "Query"
// @Success 200 {object} aggregate.Matrix "ok"
// @Router /dashboard/units/compare [post]
func (h *handlers) compareUnits(r *stdhttp.Request, in domain.CompareInput) (any, error) {
	return h.svc.CompareUnits(r.Context(), in)
}
