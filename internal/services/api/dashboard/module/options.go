package module

import (
	"time"

	"crimedash/internal/core/profile"
	"crimedash/internal/platform/config"
)

// Options tunes the dashboard sessions and sources
type Options struct {
	MaxDatasets int
	TTL         time.Duration
	SweepEvery  time.Duration
	FileRoot    string
	URLHosts    []string

	PGTimeout     time.Duration
	FetchTimeout  time.Duration
	FetchMaxBytes int64

	BreakerTripAfter int
	BreakerOpenFor   time.Duration

	// ProfilePath points at a YAML dataset profile, defaults apply when empty
	ProfilePath string
}

// FromConfig reads CORE_DASHBOARD_* and CRIMEDASH_PROFILE from the root config
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("CORE_DASHBOARD_")
	return Options{
		MaxDatasets:      c.MayInt("MAX_DATASETS", 32),
		TTL:              c.MayDuration("TTL", time.Hour),
		SweepEvery:       c.MayDuration("SWEEP_EVERY", time.Minute),
		FileRoot:         c.MayString("FILE_ROOT", ""),
		URLHosts:         c.MayCSV("URL_HOSTS", nil),
		PGTimeout:        c.MayDuration("PG_TIMEOUT", 30*time.Second),
		FetchTimeout:     c.MayDuration("FETCH_TIMEOUT", 30*time.Second),
		FetchMaxBytes:    int64(c.MayInt("FETCH_MAX_BYTES", 64<<20)),
		BreakerTripAfter: c.MayInt("BREAKER_TRIP_AFTER", 5),
		BreakerOpenFor:   c.MayDuration("BREAKER_OPEN_FOR", time.Minute),
		ProfilePath:      cfg.MayString("CRIMEDASH_PROFILE", ""),
	}
}

// loadProfile reads the profile at path, an empty path yields the defaults
func loadProfile(path string) (profile.Profile, error) {
	if path == "" {
		return profile.Parse(nil)
	}
	return profile.Load(path)
}
