package http

import "net/http"

// Handler is the function shape every route registers
type Handler = func(http.ResponseWriter, *http.Request)

// Router is what modules mount against. chi stays behind AdaptChi
type Router interface {
	Get(path string, h Handler)
	Post(path string, h Handler)
	Delete(path string, h Handler)
	Handle(path string, h http.Handler)

	// Use must run before any route is added on the same router
	Use(mw ...func(http.Handler) http.Handler)
	Route(prefix string, fn func(Router))

	Mux() http.Handler
}
