// Package swaggerkit serves the OpenAPI document and the swagger UI
package swaggerkit

import (
	"net/http"

	"crimedash/internal/core/version"
	phttp "crimedash/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

const (
	uiPath  = "/api/docs"
	docPath = uiPath + "/doc.json"
)

// docReader yields the base document that mutators decorate
var docReader = func() string {
	return `{"openapi":"3.0.3","info":{"title":"crimedash API","version":"` + version.Short() + `"},"paths":{}}`
}

// Mount wires the UI under /api/docs when enabled
func Mount(r phttp.Router, enabled bool) {
	if !enabled {
		return
	}
	r.Get(uiPath, func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, uiPath+"/", http.StatusPermanentRedirect)
	})
	r.Get(docPath, serveSpec(docReader))
	r.Handle(uiPath+"/*", httpSwagger.Handler(
		httpSwagger.InstanceName("crimedash"),
		httpSwagger.URL(docPath),
		httpSwagger.DocExpansion("none"),
	))
}
