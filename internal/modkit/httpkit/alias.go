// Package httpkit is the handler toolkit modules build routes with, so they never
// touch internal/platform/net/http or chi directly
package httpkit

import (
	"net/http"

	phttp "crimedash/internal/platform/net/http"
	"crimedash/internal/platform/net/http/bind"
)

type (
	Response = phttp.Response
	Handler  = phttp.Handler
	Router   = phttp.Router
)

// Created answers 201 with data
func Created(data any) Response { return phttp.Created(data) }

// NoContent answers 204
func NoContent() Response { return phttp.NoContent() }

// Error maps err onto its status and envelope
func Error(err error) Response { return phttp.Error(err) }

// JSON decodes and validates T from the body before calling fn. fn may return a
// Response to pick its own status, anything else is sent as 200 data
func JSON[T any](fn func(*http.Request, T) (any, error)) Handler {
	return Handle(func(r *http.Request) Response {
		in, err := bind.ParseJSON[T](r)
		if err != nil {
			return phttp.Error(err)
		}
		return wrap(fn(r, in))
	})
}

// Call is JSON for handlers without a body
func Call(fn func(*http.Request) (any, error)) Handler {
	return phttp.Handle(func(r *http.Request) phttp.Response {
		return wrap(fn(r))
	})
}

// Handle adapts a function that always builds its own Response
func Handle(fn func(*http.Request) Response) Handler { return phttp.Handle(fn) }

func wrap(out any, err error) Response {
	if err != nil {
		return phttp.Error(err)
	}
	if resp, ok := out.(phttp.Response); ok {
		return resp
	}
	return phttp.OK(out)
}
