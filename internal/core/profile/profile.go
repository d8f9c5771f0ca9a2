// Package profile reads a YAML dataset profile that tunes loading and forecasting
//
//	layout: wide
//	policy: drop
//	columns:
//	  timestamp: [date]
//	  unit: [unit, district]
//	date_formats: ["2006-01-02", "01/02/2006"]
//	ignore: [year, month]
//	forecast:
//	  horizon: 12
//	  thresholds: {high: 0.1, medium: 0.25}
package profile

import (
	"bytes"
	"errors"
	"io"
	"os"

	"crimedash/internal/core/dataset"
	"crimedash/internal/core/forecast"
	perr "crimedash/internal/platform/errors"

	"gopkg.in/yaml.v3"
)

// Profile holds dataset specific settings, unset fields keep the defaults
type Profile struct {
	Layout      string          `yaml:"layout"`
	Policy      string          `yaml:"policy"`
	Columns     dataset.Columns `yaml:"columns"`
	DateFormats []string        `yaml:"date_formats"`
	Ignore      []string        `yaml:"ignore"`
	Forecast    Forecast        `yaml:"forecast"`

	layout dataset.Layout
	policy dataset.Policy
}

// Forecast tunes the forecaster
type Forecast struct {
	Horizon    int                  `yaml:"horizon"`
	Thresholds *forecast.Thresholds `yaml:"thresholds"`
}

// Load reads and validates the profile at path
func Load(path string) (Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "read profile %s", path)
	}
	return Parse(b)
}

// Parse decodes and validates a profile, unknown keys are rejected
func Parse(b []byte) (Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Profile{}, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "decode profile")
	}
	if err := p.validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (p *Profile) validate() error {
	var err error
	if p.layout, err = dataset.ParseLayout(p.Layout); err != nil {
		return perr.WithField(err, "layout")
	}
	if p.policy, err = dataset.ParsePolicy(p.Policy); err != nil {
		return perr.WithField(err, "policy")
	}
	if p.Forecast.Horizon < 0 || p.Forecast.Horizon > forecast.MaxHorizon {
		return perr.WithField(perr.InvalidArgf("horizon %d: want 0..%d", p.Forecast.Horizon, forecast.MaxHorizon), "forecast.horizon")
	}
	if t := p.Forecast.Thresholds; t != nil {
		if err := t.Validate(); err != nil {
			return perr.WithField(err, "forecast.thresholds")
		}
	}
	return nil
}

// LoadOptions turns the profile into loader options
func (p Profile) LoadOptions() []dataset.Option {
	opts := []dataset.Option{
		dataset.WithLayout(p.layout),
		dataset.WithPolicy(p.policy),
		dataset.WithColumns(p.Columns),
		dataset.WithDateFormats(p.DateFormats...),
	}
	if p.Ignore != nil {
		opts = append(opts, dataset.WithIgnore(p.Ignore...))
	}
	return opts
}

// ForecastOptions turns the profile into forecaster options
func (p Profile) ForecastOptions() []forecast.Option {
	var opts []forecast.Option
	if p.Forecast.Horizon > 0 {
		opts = append(opts, forecast.WithHorizon(p.Forecast.Horizon))
	}
	if p.Forecast.Thresholds != nil {
		opts = append(opts, forecast.WithThresholds(*p.Forecast.Thresholds))
	}
	return opts
}
