package source

import (
	"context"
	"strconv"
	"strings"
	"time"

	"crimedash/internal/core/dataset"
	"crimedash/internal/modkit/repokit"
	perr "crimedash/internal/platform/errors"
	"crimedash/internal/platform/logger"

	"github.com/jackc/pgx/v5"
)

// PGTable reads a Postgres table inside a read only transaction
// timeout bounds the statement, zero leaves the server default
func PGTable(tx repokit.TxRunner, t Table, timeout time.Duration) dataset.Source {
	return dataset.SourceFunc(func(ctx context.Context) (dataset.Frame, error) {
		if tx == nil {
			return dataset.Frame{}, perr.Unavailablef("postgres source is not configured")
		}
		sql, err := pgSelect(t)
		if err != nil {
			return dataset.Frame{}, err
		}

		start := time.Now()
		var fr dataset.Frame
		ro := repokit.WithBeginHooks(tx, repokit.ReadOnly(timeout))
		err = ro.Tx(ctx, func(q repokit.Queryer) error {
			rs, err := q.Query(ctx, sql)
			if err != nil {
				return err
			}
			fr, err = drain(t.Name, rs)
			return err
		})
		if err != nil {
			return dataset.Frame{Name: t.Name}, perr.FromPostgres(err, "postgres source "+t.Name)
		}
		logger.C(ctx).Debug().
			Str("table", t.Name).
			Int("rows", len(fr.Rows)).
			Dur("elapsed", time.Since(start)).
			Msg("postgres source read")
		return fr, nil
	})
}

// pgSelect builds the select for t with every identifier quoted
func pgSelect(t Table) (string, error) {
	if strings.TrimSpace(t.Name) == "" {
		return "", perr.WithField(perr.InvalidArgf("table name is required"), "name")
	}
	if t.Limit < 0 {
		return "", perr.WithField(perr.InvalidArgf("limit must be >= 0"), "limit")
	}
	cols := "*"
	if len(t.Columns) > 0 {
		q := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			if strings.TrimSpace(c) == "" {
				return "", perr.WithField(perr.InvalidArgf("column %d is blank", i), "columns")
			}
			q[i] = pgx.Identifier{c}.Sanitize()
		}
		cols = strings.Join(q, ", ")
	}
	id := pgx.Identifier{t.Name}
	if t.Schema != "" {
		id = pgx.Identifier{t.Schema, t.Name}
	}
	sql := "SELECT " + cols + " FROM " + id.Sanitize()
	if t.Limit > 0 {
		sql += " LIMIT " + strconv.Itoa(t.Limit)
	}
	return sql, nil
}
