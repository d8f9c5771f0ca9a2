package source

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"crimedash/internal/core/dataset"
	"crimedash/internal/platform/store"
)

// Table names a database table and the columns to read, empty Columns reads all
type Table struct {
	Schema  string   `json:"schema,omitempty"`
	Name    string   `json:"name"`
	Columns []string `json:"columns,omitempty"`
	Limit   int      `json:"limit,omitempty"`
}

// Cell renders a driver value the way a csv export would
// dates at midnight UTC keep the date only
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return formatTime(x)
	case *time.Time:
		if x == nil {
			return ""
		}
		return formatTime(*x)
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return ""
		}
		return Cell(dv)
	case fmt.Stringer:
		return x.String()
	}
	// nullable clickhouse columns scan into pointers
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ""
		}
		return Cell(rv.Elem().Interface())
	}
	return fmt.Sprint(v)
}

func formatTime(t time.Time) string {
	u := t.UTC()
	if u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 && u.Nanosecond() == 0 {
		return u.Format(time.DateOnly)
	}
	return u.Format(time.RFC3339)
}

// drain reads every row of rs into a Frame and closes rs
func drain(name string, rs store.Rows) (dataset.Frame, error) {
	defer rs.Close()
	fr := dataset.Frame{Name: name, Header: rs.Columns()}
	for rs.Next() {
		vals, err := rs.Values()
		if err != nil {
			return fr, err
		}
		row := make([]string, len(vals))
		for i, v := range vals {
			row[i] = Cell(v)
		}
		fr.Rows = append(fr.Rows, row)
	}
	return fr, rs.Err()
}
