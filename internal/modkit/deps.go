package modkit

import (
	"crimedash/internal/modkit/repokit"
	"crimedash/internal/platform/config"
	"crimedash/internal/platform/logger"
	"crimedash/internal/platform/metrics"
	"crimedash/internal/platform/store"
)

// Deps holds what the API hands every module, the zero value is usable
// PG and CH stay nil when their record source is not configured
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse

	// Metrics is optional, a nil value records nothing
	Metrics *metrics.Metrics
}

// HasDatabase reports whether any database record source is wired
func (d Deps) HasDatabase() bool { return d.PG != nil || d.CH != nil }
