// Package bind decodes and validates JSON request bodies
package bind

import (
	"bufio"
	"errors"
	"io"
	"net/http"

	perr "crimedash/internal/platform/errors"
	"crimedash/internal/platform/logger"

	json "github.com/goccy/go-json"
)

// Options tune ParseJSON. The zero value is strict with no size limit
type Options struct {
	MaxBytes     int64
	AllowUnknown bool
	AllowEmpty   bool
}

// Defaults leave room for inline CSV uploads
var Defaults = Options{MaxBytes: 8 << 20}

// ParseJSON decodes one JSON value from the body into T and validates it.
// GET and DELETE may send no body at all
func ParseJSON[T any](r *http.Request, opts ...Options) (T, error) {
	var out T
	o := Defaults
	if len(opts) > 0 {
		o = opts[0]
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			logger.C(r.Context()).Warn().Err(err).Msg("close request body")
		}
	}()

	var body io.Reader = r.Body
	if o.MaxBytes > 0 {
		body = http.MaxBytesReader(nil, r.Body, o.MaxBytes)
	}
	br := bufio.NewReader(body)
	if _, err := br.Peek(1); errors.Is(err, io.EOF) {
		if o.AllowEmpty || r.Method == http.MethodGet || r.Method == http.MethodDelete {
			return out, nil
		}
		return out, perr.JSONErrf("empty body")
	}

	dec := json.NewDecoder(br)
	if !o.AllowUnknown {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&out); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return out, perr.JSONErrf("body exceeds %d bytes", tooBig.Limit)
		}
		return out, perr.JSONErrf("invalid JSON: %v", err)
	}
	if dec.More() {
		return out, perr.JSONErrf("unexpected trailing data")
	}
	if err := Validate(out); err != nil {
		return out, err
	}
	return out, nil
}
