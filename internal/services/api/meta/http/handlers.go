// Package http serves the process level meta endpoints
package http

import (
	stdctx "context"
	"net/http"
	"time"

	"crimedash/internal/core/version"
	"crimedash/internal/modkit/httpkit"
	"crimedash/internal/modkit/module"
)

// Pinger is satisfied by stores that can report readiness
type Pinger interface {
	Ping(stdctx.Context) error
}

// Deps are the handler dependencies, PG and CH may be nil
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	PG          any
	CH          any
}

const readyTimeout = 2 * time.Second

// ReadyCheck states
const (
	checkOK      = "ok"
	checkSkipped = "skipped"
	checkUnknown = "unknown"
	checkFail    = "fail"
)

// HealthResponse is the liveness payload
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Started string `json:"started"`
	Now     string `json:"now"`
}

// ReadyCheck is one record source probe
type ReadyCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ReadyResponse summarizes readiness as ok, degraded or fail
type ReadyResponse struct {
	Status string       `json:"status"`
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"`
}

// ServiceResponse describes the running process
type ServiceResponse struct {
	Name    string   `json:"name"`
	Started string   `json:"started"`
	Uptime  int64    `json:"uptime"`
	Modules []string `json:"modules"`
}

type handlers struct {
	Deps
	now func() time.Time
}

// Register mounts /health, /ready, /version and /service on r
func Register(r httpkit.Router, d Deps) {
	h := handlers{Deps: d, now: time.Now}

	for path, fn := range map[string]func(*http.Request) (any, error){
		"/health":  h.health,
		"/ready":   h.ready,
		"/version": h.version,
		"/service": h.service,
	} {
		httpkit.Get(r, path, fn)
	}
}

func rfc3339(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func (h handlers) health(*http.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: h.ServiceName,
		Started: rfc3339(h.StartedAt),
		Now:     rfc3339(h.now()),
	}, nil
}

func check(ctx stdctx.Context, name string, dep any) ReadyCheck {
	c := ReadyCheck{Name: name}
	switch p, ok := dep.(Pinger); {
	case dep == nil:
		c.Status = checkSkipped
	case !ok:
		c.Status = checkUnknown
	default:
		if err := p.Ping(ctx); err != nil {
			c.Status, c.Error = checkFail, err.Error()
		} else {
			c.Status = checkOK
		}
	}
	return c
}

// ready answers 503 when any configured store fails its ping
func (h handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := stdctx.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	checks := []ReadyCheck{check(ctx, "pg", h.PG), check(ctx, "ch", h.CH)}
	overall := checkOK
	for _, c := range checks {
		if c.Status == checkFail {
			overall = checkFail
			break
		}
		if c.Status == checkUnknown {
			overall = "degraded"
		}
	}

	body := ReadyResponse{Status: overall, Checks: checks, Now: rfc3339(h.now())}
	if overall == checkFail {
		return httpkit.Response{Status: http.StatusServiceUnavailable, Body: body}, nil
	}
	return body, nil
}

func (h handlers) version(*http.Request) (any, error) {
	return version.Info(h.ServiceName), nil
}

func (h handlers) service(*http.Request) (any, error) {
	return ServiceResponse{
		Name:    h.ServiceName,
		Started: rfc3339(h.StartedAt),
		Uptime:  int64(h.now().Sub(h.StartedAt) / time.Second),
		Modules: module.Names(),
	}, nil
}
