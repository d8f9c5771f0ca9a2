package source

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"crimedash/internal/core/dataset"
	perr "crimedash/internal/platform/errors"
)

const bom = "\ufeff"

// ReadCSV reads a whole csv stream into a Frame
// ragged rows are kept as is, the loader reports what it cannot use
func ReadCSV(ctx context.Context, name string, r io.Reader) (dataset.Frame, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = false

	fr := dataset.Frame{Name: name}
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return fr, nil
	}
	if err != nil {
		return fr, csvErr(err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], bom)
	}
	fr.Header = header

	for n := 0; ; n++ {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return fr, perr.Wrap(err, perr.ErrorCodeUnavailable, "csv read canceled")
			}
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return fr, nil
		}
		if err != nil {
			return fr, csvErr(err)
		}
		fr.Rows = append(fr.Rows, row)
	}
}

// csvErr maps a reader failure onto the data format code
func csvErr(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return perr.Wrapf(err, perr.ErrorCodeDataFormat, "csv malformed at line %d", pe.Line)
	}
	return perr.Wrap(err, perr.ErrorCodeDataFormat, "csv read failed")
}

// CSV serves a csv stream, the reader is consumed by the first Frame call
func CSV(name string, r io.Reader) dataset.Source {
	return dataset.SourceFunc(func(ctx context.Context) (dataset.Frame, error) {
		return ReadCSV(ctx, name, r)
	})
}

// Inline serves csv text held in memory, every call reads it again
func Inline(name, text string) dataset.Source {
	return dataset.SourceFunc(func(ctx context.Context) (dataset.Frame, error) {
		return ReadCSV(ctx, name, strings.NewReader(text))
	})
}
