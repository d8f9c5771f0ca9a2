package dataset

import (
	"fmt"
	"strings"

	perr "crimedash/internal/platform/errors"
)

// MaxRowErrors caps the rows listed in a ParseError or Report
const MaxRowErrors = 100

// DataFormatError means the source schema cannot be used, no partial result is produced
type DataFormatError struct {
	Missing []string // canonical names of required columns that were not found
	Reason  string
}

// Error implements error
func (e *DataFormatError) Error() string {
	if len(e.Missing) > 0 {
		return "data format: missing columns " + strings.Join(e.Missing, ", ")
	}
	return "data format: " + e.Reason
}

// Unwrap exposes the coded form so perr.CodeOf maps it
func (e *DataFormatError) Unwrap() error {
	return perr.WithField(perr.New(perr.ErrorCodeDataFormat, e.Error()), strings.Join(e.Missing, ","))
}

// Detail is the client payload listing missing columns
func (e *DataFormatError) Detail() any {
	if len(e.Missing) == 0 {
		return nil
	}
	return map[string][]string{"missing": e.Missing}
}

// RowError describes one offending row
// Row is 1 based over data rows, the header does not count
type RowError struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

func (r RowError) String() string {
	return fmt.Sprintf("row %d column %s: %s %q", r.Row, r.Column, r.Reason, r.Value)
}

// ParseError lists rows that could not be turned into records
type ParseError struct {
	Rows  []RowError // first MaxRowErrors offending rows
	Total int        // every offending row
}

// Error implements error
func (e *ParseError) Error() string {
	if len(e.Rows) == 0 {
		return fmt.Sprintf("parse: %d rows failed", e.Total)
	}
	return fmt.Sprintf("parse: %d rows failed, first %s", e.Total, e.Rows[0])
}

// Unwrap exposes the coded form so perr.CodeOf maps it
func (e *ParseError) Unwrap() error { return perr.New(perr.ErrorCodeParse, e.Error()) }

// Detail is the client payload, the capped row list and the total
func (e *ParseError) Detail() any {
	return struct {
		Rows  []RowError `json:"rows"`
		Total int        `json:"total"`
	}{Rows: e.Rows, Total: e.Total}
}

// rowLog accumulates row errors up to the cap while counting all of them
type rowLog struct {
	rows  []RowError
	total int
}

func (l *rowLog) add(r RowError) {
	l.total++
	if len(l.rows) < MaxRowErrors {
		l.rows = append(l.rows, r)
	}
}
