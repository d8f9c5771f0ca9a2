package source

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"crimedash/internal/core/dataset"
	perr "crimedash/internal/platform/errors"
	"crimedash/internal/platform/logger"
	"crimedash/internal/platform/metrics"

	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	defaultHTTPTimeout  = 30 * time.Second
	defaultMaxBytes     = 64 << 20
	defaultTripAfter    = 5
	defaultOpenFor      = time.Minute
	defaultBreakerName  = "remote-csv"
	defaultHTTPAgent    = "crimedash-source"
	halfOpenMaxRequests = 1
	maxRedirects        = 10
)

// HTTPOptions configures an HTTPFetcher, zero values take the defaults
type HTTPOptions struct {
	Client    *http.Client
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string

	// Hosts limits fetches to these hostnames, redirects included, nil allows any
	Hosts []string

	// TripAfter consecutive transport or 5xx failures open the breaker for OpenFor
	TripAfter uint32
	OpenFor   time.Duration

	Metrics *metrics.Metrics
}

// HTTPFetcher downloads remote csv behind a circuit breaker
// one fetcher is shared by every remote source so a dead host fails fast for all of them
type HTTPFetcher struct {
	client   *http.Client
	cb       *gobreaker.CircuitBreaker[[]byte]
	maxBytes int64
	agent    string
	hosts    []string
	log      logger.Logger
}

// NewHTTPFetcher creates an HTTPFetcher with defaults filled in
func NewHTTPFetcher(o HTTPOptions) *HTTPFetcher {
	if o.Timeout <= 0 {
		o.Timeout = defaultHTTPTimeout
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = defaultMaxBytes
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultHTTPAgent
	}
	if o.TripAfter == 0 {
		o.TripAfter = defaultTripAfter
	}
	if o.OpenFor <= 0 {
		o.OpenFor = defaultOpenFor
	}
	client := o.Client
	if client == nil {
		client = &http.Client{Timeout: o.Timeout}
	}
	if o.Hosts != nil {
		c := *client
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return perr.InvalidArgf("remote source stopped after %d redirects", maxRedirects)
			}
			if !hostAllowed(o.Hosts, req.URL) {
				return perr.WithField(perr.InvalidArgf("remote source redirected to %s, host not allowed", req.URL.Hostname()), "url")
			}
			return nil
		}
		client = &c
	}
	log := *logger.Named("source.http")
	m := o.Metrics
	m.SetBreakerOpen(defaultBreakerName, false)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        defaultBreakerName,
		MaxRequests: halfOpenMaxRequests,
		Timeout:     o.OpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= o.TripAfter
		},
		IsSuccessful: func(err error) bool {
			// a 404 or a bad url says nothing about the remote host
			return err == nil || perr.CodeOf(err) != perr.ErrorCodeUnavailable
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("source breaker state change")
			m.SetBreakerOpen(name, to == gobreaker.StateOpen)
		},
	})

	return &HTTPFetcher{client: client, cb: cb, maxBytes: o.MaxBytes, agent: o.UserAgent, hosts: o.Hosts, log: log}
}

// Source serves the csv at rawURL, .gz paths are decompressed
func (f *HTTPFetcher) Source(rawURL string) dataset.Source {
	return dataset.SourceFunc(func(ctx context.Context) (dataset.Frame, error) {
		u, err := CheckURL(rawURL, f.hosts)
		if err != nil {
			return dataset.Frame{}, err
		}
		name := strings.TrimSuffix(strings.TrimSuffix(path.Base(u.Path), ".gz"), ".csv")

		body, err := f.cb.Execute(func() ([]byte, error) { return f.fetch(ctx, u) })
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return dataset.Frame{Name: name}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "remote source %s is failing, retry later", u.Host)
			}
			return dataset.Frame{Name: name}, err
		}

		var r io.Reader = bytes.NewReader(body)
		if isGzip(u.Path) {
			gz, err := gzip.NewReader(r)
			if err != nil {
				return dataset.Frame{Name: name}, perr.Wrapf(err, perr.ErrorCodeDataFormat, "remote source %s is not gzip", u.Redacted())
			}
			defer func() { _ = gz.Close() }()
			r = gz
		}
		return ReadCSV(ctx, name, r)
	})
}

// fetch downloads the body, 5xx and transport errors are Unavailable so they count
// against the breaker
func (f *HTTPFetcher) fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "remote source request")
	}
	req.Header.Set("User-Agent", f.agent)
	req.Header.Set("Accept", "text/csv, */*")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		if e, ok := perr.As(err); ok && e.Code() == perr.ErrorCodeInvalidArgument {
			return nil, e
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "remote source %s unreachable", u.Host)
	}
	defer func() { _ = resp.Body.Close() }()

	f.log.Debug().
		Str("host", u.Host).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("remote source fetched")

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, perr.NotFoundf("remote source %s not found", u.Redacted())
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, perr.Newf(perr.ErrorCodeUnavailable, "remote source %s answered %d", u.Host, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, perr.InvalidArgf("remote source %s answered %d", u.Redacted(), resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "remote source %s read failed", u.Host)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, perr.InvalidArgf("remote source exceeds %d bytes", f.maxBytes)
	}
	return body, nil
}

// CheckURL accepts absolute http and https urls, and when hosts is non nil only
// those whose hostname is listed
func CheckURL(raw string, hosts []string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, perr.WithField(perr.Wrap(err, perr.ErrorCodeInvalidArgument, "remote source url"), "url")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, perr.WithField(perr.InvalidArgf("remote source url must be absolute http(s), got %q", raw), "url")
	}
	if hosts != nil && !hostAllowed(hosts, u) {
		return nil, perr.WithField(perr.InvalidArgf("remote source host %s is not allowed", u.Hostname()), "url")
	}
	return u, nil
}

func hostAllowed(hosts []string, u *url.URL) bool {
	h := u.Hostname()
	for _, allowed := range hosts {
		if strings.EqualFold(allowed, h) {
			return true
		}
	}
	return false
}
