package aggregate

import (
	"math/rand/v2"
	"testing"
	"time"

	"crimedash/internal/core/dataset"
	perr "crimedash/internal/platform/errors"
)

func rec(y int, m time.Month, ctype, unit string, n int64) dataset.Record {
	return dataset.Record{Timestamp: time.Date(y, m, 10, 0, 0, 0, 0, time.UTC), CrimeType: ctype, Unit: unit, Count: n}
}

func gappy() *dataset.Dataset {
	return dataset.New("gappy", []dataset.Record{
		rec(2023, time.January, "theft", "north", 2),
		rec(2023, time.April, "theft", "north", 3),
		rec(2023, time.April, "theft", "north", 1),
		rec(2023, time.February, "assault", "south", 5),
		rec(2023, time.March, "theft", "south", 7),
	})
}

func TestAggregateZeroFillsAndOrders(t *testing.T) {
	res, err := Aggregate(gappy(), DimCrimeType, DimUnit)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	want := []string{
		"crime_type=assault,unit=south",
		"crime_type=theft,unit=north",
		"crime_type=theft,unit=south",
	}
	if len(res.Series) != len(want) {
		t.Fatalf("series = %d, want %d", len(res.Series), len(want))
	}
	for i, s := range res.Series {
		if s.Key.String() != want[i] {
			t.Fatalf("Series[%d] = %s, want %s", i, s.Key, want[i])
		}
		if len(s.Points) != 4 {
			t.Fatalf("%s has %d points, want 4", s.Key, len(s.Points))
		}
	}
	north, ok := res.Lookup(NewKey([]Dimension{DimCrimeType, DimUnit}, "theft", "north"))
	if !ok {
		t.Fatalf("Lookup theft/north missing")
	}
	got := []int64{}
	for _, p := range north.Points {
		got = append(got, p.Count)
	}
	wantCounts := []int64{2, 0, 0, 4}
	for i := range wantCounts {
		if got[i] != wantCounts[i] {
			t.Fatalf("theft/north counts = %v, want %v", got, wantCounts)
		}
	}
	if _, ok := res.Lookup(NewKey([]Dimension{DimCrimeType, DimUnit}, "arson", "north")); ok {
		t.Fatalf("Lookup of an absent key should miss")
	}
}

func TestAggregateDimensionOrderDrivesSorting(t *testing.T) {
	res, err := Aggregate(gappy(), DimUnit, DimCrimeType)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if got := res.Series[0].Key.String(); got != "unit=north,crime_type=theft" {
		t.Fatalf("first key = %s", got)
	}
	if got := res.Series[0].Key.Get(DimCrimeType); got != "theft" {
		t.Fatalf("Get = %s", got)
	}
}

func TestAggregateInvalidDims(t *testing.T) {
	cases := [][]Dimension{
		nil,
		{DimUnit, DimUnit},
		{"district"},
	}
	for _, dims := range cases {
		if _, err := Aggregate(gappy(), dims...); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
			t.Fatalf("Aggregate(%v) err = %v, want invalid_argument", dims, err)
		}
	}
	if _, err := Aggregate(nil, DimUnit); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("nil dataset err = %v", err)
	}
	if _, err := ParseDimensions([]string{"crime_type", "Unit"}); err != nil {
		t.Fatalf("ParseDimensions: %v", err)
	}
	if _, err := ParseDimensions([]string{"crime_type", "crime_type"}); err == nil {
		t.Fatalf("duplicate dims should fail")
	}
}

func TestAggregateContiguityAndConservation(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	types := []string{"theft", "assault", "burglary", "fraud"}
	units := []string{"north", "south", "east"}
	var recs []dataset.Record
	for range 500 {
		m := rng.IntN(40)
		recs = append(recs, dataset.Record{
			Timestamp: time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, m, rng.IntN(27)),
			CrimeType: types[rng.IntN(len(types))],
			Unit:      units[rng.IntN(len(units))],
			Count:     int64(rng.IntN(9)),
		})
	}
	ds := dataset.New("random", recs)

	for _, dims := range [][]Dimension{{DimCrimeType}, {DimUnit}, {DimCrimeType, DimUnit}} {
		res, err := Aggregate(ds, dims...)
		if err != nil {
			t.Fatalf("Aggregate: %v", err)
		}
		var grand int64
		for _, s := range res.Series {
			if len(s.Points) != ds.Span().Len() {
				t.Fatalf("%s: %d points, want %d", s.Key, len(s.Points), ds.Span().Len())
			}
			for i := 1; i < len(s.Points); i++ {
				if s.Points[i].Period != s.Points[i-1].Period.Next() {
					t.Fatalf("%s: gap between %s and %s", s.Key, s.Points[i-1].Period, s.Points[i].Period)
				}
			}
			var want int64
			ds.Each(func(r dataset.Record) {
				if keyOf(dims, r).String() == s.Key.String() {
					want += r.Count
				}
			})
			if s.Total() != want {
				t.Fatalf("%s: total %d, want %d", s.Key, s.Total(), want)
			}
			grand += s.Total()
		}
		if grand != ds.Total() {
			t.Fatalf("%v: grand total %d, want %d", dims, grand, ds.Total())
		}
	}
}

func TestAggregateConstantTheft(t *testing.T) {
	var recs []dataset.Record
	for i := range 24 {
		recs = append(recs, dataset.Record{
			Timestamp: time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, i, 0),
			CrimeType: "theft", Unit: "central", Count: 10,
		})
	}
	res, err := Aggregate(dataset.New("flat", recs), DimCrimeType)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(res.Series) != 1 || len(res.Series[0].Points) != 24 {
		t.Fatalf("want one series of 24 points, got %+v", res.Series)
	}
	for _, p := range res.Series[0].Points {
		if p.Count != 10 {
			t.Fatalf("%s = %d, want 10", p.Period, p.Count)
		}
	}
}

func TestAggregateFilteredKeepsParentAxis(t *testing.T) {
	sub, err := gappy().Filter(dataset.Filter{Units: []string{"south"}})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	res, err := Aggregate(sub, DimUnit)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(res.Series) != 1 || len(res.Series[0].Points) != 4 || res.Series[0].Points[0].Count != 0 {
		t.Fatalf("filtered series should start at the parent span with zeros, got %+v", res.Series)
	}
}

func TestAggregateEmptyDataset(t *testing.T) {
	res, err := Aggregate(dataset.New("empty", nil), DimCrimeType)
	if err != nil || len(res.Series) != 0 {
		t.Fatalf("empty = %+v, %v", res, err)
	}
}

func TestAggregateSeparatorsInLabelsStayDistinct(t *testing.T) {
	ds := dataset.New("separators", []dataset.Record{
		rec(2023, time.January, "x,unit=y", "z", 3),
		rec(2023, time.January, "x", "y,unit=z", 4),
	})
	res, err := Aggregate(ds, DimCrimeType, DimUnit)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(res.Series) != 2 {
		t.Fatalf("series = %d, want 2", len(res.Series))
	}

	cases := []struct {
		ctype, unit string
		want        int64
	}{
		{"x,unit=y", "z", 3},
		{"x", "y,unit=z", 4},
	}
	for _, tc := range cases {
		s, ok := res.Lookup(NewKey([]Dimension{DimCrimeType, DimUnit}, tc.ctype, tc.unit))
		if !ok {
			t.Fatalf("Lookup(%q, %q) missing", tc.ctype, tc.unit)
		}
		if s.Total() != tc.want {
			t.Fatalf("Total(%q, %q) = %d, want %d", tc.ctype, tc.unit, s.Total(), tc.want)
		}
	}
}
