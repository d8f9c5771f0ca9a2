// crimedash-forecast loads a crime CSV, aggregates it into monthly series and prints
// the forecasts as JSON
//
//	crimedash-forecast -in crimes.csv.gz -keys crime_type,unit -horizon 6
//	cat crimes.csv | crimedash-forecast -in - -layout wide
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"crimedash/internal/adapters/source"
	"crimedash/internal/core/aggregate"
	"crimedash/internal/core/dataset"
	"crimedash/internal/core/forecast"
	"crimedash/internal/core/profile"
	perr "crimedash/internal/platform/errors"
	"crimedash/internal/platform/logger"

	json "github.com/goccy/go-json"
)

// output is what the command prints
type output struct {
	Overview aggregate.Overview `json:"overview"`
	Report   dataset.Report     `json:"report"`
	Horizon  int                `json:"horizon"`
	forecast.Batch
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		logger.Get().Error().Err(err).Str("code", perr.CodeOf(err).String()).Msg("forecast failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("crimedash-forecast", flag.ContinueOnError)
	var (
		fIn      = fs.String("in", "", "csv file, .gz is decompressed, - reads stdin")
		fKeys    = fs.String("keys", "crime_type", "comma separated grouping keys: crime_type, unit")
		fHorizon = fs.Int("horizon", 0, "months to forecast, 0 uses the profile or 12")
		fPolicy  = fs.String("policy", "", "row parse policy: fail or drop")
		fLayout  = fs.String("layout", "", "csv layout: long, wide or auto")
		fProfile = fs.String("profile", os.Getenv("CRIMEDASH_PROFILE"), "YAML dataset profile")
	)
	if err := fs.Parse(args); err != nil {
		return perr.Wrap(err, perr.ErrorCodeInvalidArgument, "parse flags")
	}
	if *fIn == "" {
		return perr.WithField(perr.InvalidArgf("-in is required"), "in")
	}

	prof, err := readProfile(*fProfile)
	if err != nil {
		return err
	}
	opts := prof.LoadOptions()
	if *fLayout != "" {
		l, err := dataset.ParseLayout(*fLayout)
		if err != nil {
			return perr.WithField(err, "layout")
		}
		opts = append(opts, dataset.WithLayout(l))
	}
	if *fPolicy != "" {
		p, err := dataset.ParsePolicy(*fPolicy)
		if err != nil {
			return perr.WithField(err, "policy")
		}
		opts = append(opts, dataset.WithPolicy(p))
	}
	dims, err := aggregate.ParseDimensions(splitKeys(*fKeys))
	if err != nil {
		return perr.WithField(err, "keys")
	}
	fc, err := forecast.New(prof.ForecastOptions()...)
	if err != nil {
		return err
	}
	h := *fHorizon
	if h == 0 {
		h = fc.Horizon()
	}

	var src dataset.Source
	if *fIn == "-" {
		src = source.CSV("stdin", stdin)
	} else {
		src = source.File(*fIn)
	}
	ds, rep, err := dataset.Load(ctx, src, opts...)
	if err != nil {
		return err
	}
	res, err := aggregate.Aggregate(ds, dims...)
	if err != nil {
		return err
	}

	out := output{
		Overview: aggregate.Summarize(ds),
		Report:   rep,
		Horizon:  h,
		Batch:    fc.ForecastAll(res, h),
	}
	logger.C(ctx).Info().
		Str("dataset", ds.Name()).
		Int("records", ds.Len()).
		Int("forecasts", len(out.Forecasts)).
		Int("failures", len(out.Failures)).
		Msg("forecast done")

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func readProfile(path string) (profile.Profile, error) {
	if path == "" {
		return profile.Parse(nil)
	}
	return profile.Load(path)
}

func splitKeys(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
