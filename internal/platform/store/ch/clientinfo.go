package ch

import (
	"cmp"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// BuildClientInfo tags our queries in system.query_log with the binary, role and build
func BuildClientInfo(role, tag string) clickhouse.ClientInfo {
	host, _ := os.Hostname()
	product := func(name, v string) struct{ Name, Version string } {
		return struct{ Name, Version string }{name, cmp.Or(strings.TrimSpace(v), "unknown")}
	}
	return clickhouse.ClientInfo{Products: []struct{ Name, Version string }{
		product("crimedash", tag),
		product("role", role),
		product("go", runtime.Version()),
		product("commit", revision()),
		product("host", host),
	}}
}

// revision is the short vcs hash the toolchain embedded, if any
func revision() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return ""
}
