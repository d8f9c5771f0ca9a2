package source

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"crimedash/internal/core/dataset"
	perr "crimedash/internal/platform/errors"
)

// File serves a csv file from disk, names ending in .gz are decompressed
func File(path string) dataset.Source {
	return dataset.SourceFunc(func(ctx context.Context) (dataset.Frame, error) {
		return readFile(ctx, path)
	})
}

func readFile(ctx context.Context, path string) (fr dataset.Frame, err error) {
	name := fileName(path)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return dataset.Frame{Name: name}, perr.Wrapf(err, perr.ErrorCodeNotFound, "source file %s not found", path)
		}
		return dataset.Frame{Name: name}, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "source file %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = perr.Wrap(cerr, perr.ErrorCodeUnknown, "source file close")
		}
	}()

	var r io.Reader = f
	if isGzip(path) {
		gz, gerr := gzip.NewReader(f)
		if gerr != nil {
			return dataset.Frame{Name: name}, perr.Wrapf(gerr, perr.ErrorCodeDataFormat, "source file %s is not gzip", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}
	return ReadCSV(ctx, name, r)
}

// fileName is the base name without .gz and .csv
func fileName(path string) string {
	base := filepath.Base(path)
	if isGzip(base) {
		base = base[:len(base)-len(".gz")]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isGzip(name string) bool { return strings.HasSuffix(strings.ToLower(name), ".gz") }
