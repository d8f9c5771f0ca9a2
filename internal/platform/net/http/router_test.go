package http_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	phttp "crimedash/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

func TestAdaptChi_Routes(t *testing.T) {
	t.Parallel()
	r := phttp.AdaptChi(chi.NewRouter())

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Layer", "root")
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/datasets", func(sub phttp.Router) {
		sub.Get("/{id}", func(w http.ResponseWriter, req *http.Request) {
			_, _ = io.WriteString(w, phttp.URLParam(req, "id"))
		})
		sub.Post("/", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusCreated) })
		sub.Delete("/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	})
	r.Handle("/metrics", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "up 1")
	}))

	cases := []struct {
		method string
		path   string
		status int
		body   string
	}{
		{http.MethodGet, "/datasets/abc", http.StatusOK, "abc"},
		{http.MethodPost, "/datasets/", http.StatusCreated, ""},
		{http.MethodDelete, "/datasets/abc", http.StatusNoContent, ""},
		{http.MethodPut, "/datasets/abc", http.StatusMethodNotAllowed, ""},
		{http.MethodGet, "/metrics", http.StatusOK, "up 1"},
		{http.MethodGet, "/nope", http.StatusNotFound, ""},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.Mux().ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if tc.body != "" && rec.Body.String() != tc.body {
				t.Fatalf("body = %q, want %q", rec.Body.String(), tc.body)
			}
			if got := rec.Header().Get("X-Layer"); got != "root" {
				t.Fatalf("X-Layer = %q, want root", got)
			}
		})
	}
}

func TestURLParam_Absent(t *testing.T) {
	t.Parallel()
	if got := phttp.URLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id"); got != "" {
		t.Fatalf("URLParam = %q, want empty", got)
	}
}

func TestMountProfiler(t *testing.T) {
	t.Parallel()

	cases := []struct {
		enabled bool
		path    string
		status  int
	}{
		{true, "/debug/pprof/", http.StatusOK},
		{true, "/debug/pprof/cmdline", http.StatusOK},
		{false, "/debug/pprof/", http.StatusNotFound},
	}
	for _, tc := range cases {
		r := phttp.AdaptChi(chi.NewRouter())
		phttp.MountProfiler(r, "/debug", tc.enabled)

		rec := httptest.NewRecorder()
		r.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rec.Code != tc.status {
			t.Fatalf("enabled=%v %s = %d, want %d", tc.enabled, tc.path, rec.Code, tc.status)
		}
	}
}
