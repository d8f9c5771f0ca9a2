// Package version reports what was built. The vars are stamped with -ldflags -X
package version

// stamped at link time, e.g. -X crimedash/internal/core/version.version=v1.2.0
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// BuildInfo is served by the meta module
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info describes the named binary
func Info(service string) BuildInfo {
	return BuildInfo{Service: service, Version: version, Commit: commit, Date: date}
}

// Short is the bare version, used in user agents and client info
func Short() string { return version }
