package source

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"crimedash/internal/core/dataset"
	perr "crimedash/internal/platform/errors"
	"crimedash/internal/platform/logger"
	"crimedash/internal/platform/store"
)

var chIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CHTable reads a ClickHouse table, Schema is the database
func CHTable(db store.Clickhouse, t Table) dataset.Source {
	return dataset.SourceFunc(func(ctx context.Context) (dataset.Frame, error) {
		if db == nil {
			return dataset.Frame{}, perr.Unavailablef("clickhouse source is not configured")
		}
		sql, err := chSelect(t)
		if err != nil {
			return dataset.Frame{}, err
		}

		start := time.Now()
		rs, err := db.Query(ctx, sql)
		if err != nil {
			return dataset.Frame{Name: t.Name}, perr.Wrapf(err, perr.ErrorCodeDB, "clickhouse source %s", t.Name)
		}
		fr, err := drain(t.Name, rs)
		if err != nil {
			return dataset.Frame{Name: t.Name}, perr.Wrapf(err, perr.ErrorCodeDB, "clickhouse source %s", t.Name)
		}
		logger.C(ctx).Debug().
			Str("table", t.Name).
			Int("rows", len(fr.Rows)).
			Dur("elapsed", time.Since(start)).
			Msg("clickhouse source read")
		return fr, nil
	})
}

// chSelect builds the select for t, identifiers must be plain names
func chSelect(t Table) (string, error) {
	if !chIdent.MatchString(t.Name) {
		return "", perr.WithField(perr.InvalidArgf("table name %q is not a plain identifier", t.Name), "name")
	}
	if t.Schema != "" && !chIdent.MatchString(t.Schema) {
		return "", perr.WithField(perr.InvalidArgf("schema %q is not a plain identifier", t.Schema), "schema")
	}
	if t.Limit < 0 {
		return "", perr.WithField(perr.InvalidArgf("limit must be >= 0"), "limit")
	}
	cols := "*"
	if len(t.Columns) > 0 {
		q := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			if !chIdent.MatchString(c) {
				return "", perr.WithField(perr.InvalidArgf("column %q is not a plain identifier", c), "columns")
			}
			q[i] = "`" + c + "`"
		}
		cols = strings.Join(q, ", ")
	}
	from := "`" + t.Name + "`"
	if t.Schema != "" {
		from = "`" + t.Schema + "`." + from
	}
	sql := "SELECT " + cols + " FROM " + from
	if t.Limit > 0 {
		sql += " LIMIT " + strconv.Itoa(t.Limit)
	}
	return sql, nil
}
