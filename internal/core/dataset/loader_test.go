package dataset

import (
	"context"
	"errors"
	"testing"

	perr "crimedash/internal/platform/errors"
)

func frame(header []string, rows ...[]string) Source {
	return Static(Frame{Name: "test.csv", Header: header, Rows: rows})
}

func TestLoadLong(t *testing.T) {
	src := frame([]string{"Date", "Crime Type", "District", "Count"},
		[]string{"2023-01-05", "Theft", "North", "3"},
		[]string{"2023-02-01T10:00:00Z", " theft ", "North", "2"},
		[]string{"03/15/2023", "Assault", "South", "1.0"},
		[]string{"", "", "", ""},
	)
	ds, rep, err := Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rep.Layout != LayoutLong || rep.Read != 4 || rep.Loaded != 3 || rep.Dropped != 0 {
		t.Fatalf("Report = %+v", rep)
	}
	if ds.Name() != "test.csv" || ds.Total() != 6 {
		t.Fatalf("Name/Total = %s/%d", ds.Name(), ds.Total())
	}
	if got := ds.CrimeTypes(); len(got) != 3 {
		t.Fatalf("case is preserved so theft and Theft stay distinct, got %v", got)
	}
	if ds.Span().Len() != 3 {
		t.Fatalf("Span = %v", ds.Span())
	}
}

func TestLoadLongDefaultsCountToOne(t *testing.T) {
	src := frame([]string{"timestamp", "category", "area"},
		[]string{"2023-01-05", "Theft", "North"},
		[]string{"2023-01-06", "Theft", "North"},
	)
	ds, _, err := Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Total() != 2 {
		t.Fatalf("Total = %d, want 2", ds.Total())
	}
}

func TestLoadWide(t *testing.T) {
	src := frame([]string{"Date", "Unit", "Year", "Month", "Theft", "Assault"},
		[]string{"2023-01-01", "North", "2023", "1", "4", "1"},
		[]string{"2023-02-01", "North", "2023", "2", "", "2"},
	)
	ds, rep, err := Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rep.Layout != LayoutWide || rep.Loaded != 3 {
		t.Fatalf("Report = %+v", rep)
	}
	types := ds.CrimeTypes()
	if len(types) != 2 || types[0] != "Assault" || types[1] != "Theft" {
		t.Fatalf("CrimeTypes = %v, year and month must be ignored", types)
	}
	if ds.Total() != 7 {
		t.Fatalf("Total = %d, want 7", ds.Total())
	}
}

func TestLoadDataFormatErrors(t *testing.T) {
	cases := []struct {
		name    string
		header  []string
		opts    []Option
		missing []string
	}{
		{name: "empty header", header: []string{" ", ""}},
		{name: "missing long columns", header: []string{"crime_type", "count"}, missing: []string{"timestamp", "unit"}},
		{name: "missing wide unit", header: []string{"date", "theft"}, missing: []string{"unit"}},
		{name: "long forced", header: []string{"date", "unit", "theft"}, opts: []Option{WithLayout(LayoutLong)}, missing: []string{"crime_type"}},
		{name: "wide without types", header: []string{"date", "unit", "year"}},
		{name: "unknown layout", header: []string{"date", "unit", "type"}, opts: []Option{WithLayout("tall")}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, _, err := Load(context.Background(), frame(c.header, []string{"2023-01-01", "x", "y"}), c.opts...)
			var dfe *DataFormatError
			if !errors.As(err, &dfe) {
				t.Fatalf("err = %v, want DataFormatError", err)
			}
			if perr.CodeOf(err) != perr.ErrorCodeDataFormat {
				t.Fatalf("CodeOf = %s, want data_format", perr.CodeOf(err))
			}
			if len(dfe.Missing) != len(c.missing) {
				t.Fatalf("Missing = %v, want %v", dfe.Missing, c.missing)
			}
			for i := range c.missing {
				if dfe.Missing[i] != c.missing[i] {
					t.Fatalf("Missing = %v, want %v", dfe.Missing, c.missing)
				}
			}
		})
	}
}

func badRows() Source {
	return frame([]string{"date", "type", "unit", "count"},
		[]string{"2023-01-01", "Theft", "North", "1"},
		[]string{"yesterday", "Theft", "North", "1"},
		[]string{"2023-01-02", "", "North", "1"},
		[]string{"2023-01-03", "Theft", "North", "-4"},
		[]string{"2023-01-04", "Theft", "North", "many"},
		[]string{"2023-01-05", "Theft", "", "1"},
		[]string{"2023-02-01", "Theft", "North", "2"},
	)
}

func TestLoadPolicyFail(t *testing.T) {
	ds, rep, err := Load(context.Background(), badRows())
	if ds != nil {
		t.Fatalf("fail policy must not return a dataset")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want ParseError", err)
	}
	if pe.Total != 5 || len(pe.Rows) != 5 {
		t.Fatalf("ParseError total/rows = %d/%d", pe.Total, len(pe.Rows))
	}
	want := []struct {
		row    int
		column string
		reason string
	}{
		{2, "date", "unparseable timestamp"},
		{3, "type", "empty crime type"},
		{4, "count", "negative count"},
		{5, "count", "bad count"},
		{6, "unit", "empty unit"},
	}
	for i, w := range want {
		got := pe.Rows[i]
		if got.Row != w.row || got.Column != w.column || got.Reason != w.reason {
			t.Fatalf("Rows[%d] = %+v, want %+v", i, got, w)
		}
	}
	if perr.HTTPStatus(err) != 422 {
		t.Fatalf("HTTPStatus = %d, want 422", perr.HTTPStatus(err))
	}
	if len(rep.Rows) != 5 || rep.Loaded != 0 {
		t.Fatalf("Report = %+v", rep)
	}
}

func TestLoadPolicyDrop(t *testing.T) {
	ds, rep, err := Load(context.Background(), badRows(), WithPolicy(PolicyDrop))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rep.Loaded != 2 || rep.Dropped != 5 || len(rep.Rows) != 5 {
		t.Fatalf("Report = %+v", rep)
	}
	if ds.Total() != 3 {
		t.Fatalf("Total = %d, want 3", ds.Total())
	}
}

func TestParseErrorCapsRows(t *testing.T) {
	rows := make([][]string, 0, MaxRowErrors+20)
	for range MaxRowErrors + 20 {
		rows = append(rows, []string{"nope", "Theft", "North"})
	}
	_, rep, err := Load(context.Background(), frame([]string{"date", "type", "unit"}, rows...))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want ParseError", err)
	}
	if pe.Total != MaxRowErrors+20 || len(pe.Rows) != MaxRowErrors || len(rep.Rows) != MaxRowErrors {
		t.Fatalf("total/rows = %d/%d", pe.Total, len(pe.Rows))
	}
}

func TestLoadOptions(t *testing.T) {
	src := frame([]string{"when", "kind", "beat", "n"},
		[]string{"05.01.2023", "Theft", "B1", "2"},
	)
	ds, _, err := Load(context.Background(), src,
		WithName("custom"),
		WithColumns(Columns{Timestamp: []string{"when"}, CrimeType: []string{"kind"}, Unit: []string{"beat"}, Count: []string{"n"}}),
		WithDateFormats("02.01.2006"),
	)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Name() != "custom" || ds.Span().From.String() != "2023-01" || ds.Total() != 2 {
		t.Fatalf("dataset = %s %v %d", ds.Name(), ds.Span(), ds.Total())
	}
}

func TestLoadSourceErrorAndCancel(t *testing.T) {
	boom := perr.Unavailablef("down")
	_, _, err := Load(context.Background(), SourceFunc(func(context.Context) (Frame, error) { return Frame{}, boom }))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want source error", err)
	}
	if _, _, err := Load(context.Background(), nil); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("nil source err = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := Load(ctx, badRows()); !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("canceled err = %v, want unavailable", err)
	}
}

func TestParseLayoutAndPolicy(t *testing.T) {
	if l, err := ParseLayout(" WIDE "); err != nil || l != LayoutWide {
		t.Fatalf("ParseLayout = %v, %v", l, err)
	}
	if l, _ := ParseLayout(""); l != LayoutAuto {
		t.Fatalf("blank layout = %v", l)
	}
	if _, err := ParseLayout("tall"); err == nil {
		t.Fatalf("want error")
	}
	if p, _ := ParsePolicy(""); p != PolicyFail {
		t.Fatalf("blank policy = %v", p)
	}
	if _, err := ParsePolicy("skip"); err == nil {
		t.Fatalf("want error")
	}
}

func TestParseCountBounds(t *testing.T) {
	cases := []struct {
		in     string
		want   int64
		reason string
	}{
		{"9223372036854775807", 9223372036854775807, ""},
		{"9223372036854775808", 0, "bad count"},
		{"9223372036854775808.0", 0, "bad count"},
		{"1e19", 0, "bad count"},
		{"12.0", 12, ""},
		{"-0.0", 0, ""},
		{"-3", 0, "negative count"},
	}
	for _, tc := range cases {
		got, reason := parseCount(tc.in)
		if got != tc.want || reason != tc.reason {
			t.Fatalf("parseCount(%q) = %d, %q, want %d, %q", tc.in, got, reason, tc.want, tc.reason)
		}
	}
}

func TestLoadRejectsOverflowingCount(t *testing.T) {
	src := frame([]string{"date", "crime_type", "unit", "count"},
		[]string{"2023-01-05", "Theft", "North", "9223372036854775808"},
	)
	_, _, err := Load(context.Background(), src)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want ParseError", err)
	}
	if pe.Rows[0].Column != "count" || pe.Rows[0].Reason != "bad count" {
		t.Fatalf("Rows[0] = %+v", pe.Rows[0])
	}
}
