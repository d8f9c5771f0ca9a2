package httpkit

import (
	"net/http"
	"strings"
)

// APIPrefix returns the mount point for a version, "v1" and "/v1" both give /api/v1
func APIPrefix(version string) string {
	return "/api/" + strings.Trim(version, "/")
}

// MountAPI scopes mount under APIPrefix(version) with the given middleware
func MountAPI(r Router, version string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	r.Route(APIPrefix(version), func(api Router) {
		if len(mw) > 0 {
			api.Use(mw...)
		}
		mount(api)
	})
}

// MountAPIV1 mounts the dashboard's current API surface
func MountAPIV1(r Router, mw []func(http.Handler) http.Handler, mount func(Router)) {
	MountAPI(r, "v1", mw, mount)
}
