package repo

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"crimedash/internal/core/dataset"
	perr "crimedash/internal/platform/errors"
	"crimedash/internal/platform/metrics"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestRepo(max int, ttl time.Duration) (*Memory, *clock, *metrics.Metrics) {
	c := &clock{t: time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)}
	m := metrics.New()
	r := NewMemory(Options{MaxEntries: max, TTL: ttl, Metrics: m, Clock: c})
	n := 0
	r.newID = func() string { n++; return "s" + strconv.Itoa(n) }
	return r, c, m
}

func ds() *dataset.Dataset {
	return dataset.New("t", []dataset.Record{{
		Timestamp: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		CrimeType: "theft", Unit: "north", Count: 1,
	}})
}

func TestMemory_PutGetDelete(t *testing.T) {
	r, c, m := newTestRepo(4, time.Hour)
	ctx := context.Background()

	s, err := r.Put(ctx, ds(), dataset.Report{Loaded: 1})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if s.ID != "s1" || !s.ExpiresAt.Equal(c.t.Add(time.Hour)) {
		t.Fatalf("session = %+v", s)
	}
	got, err := r.Get(ctx, "s1")
	if err != nil || got.Dataset.Len() != 1 || got.Report.Loaded != 1 {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	if v := testutil.ToFloat64(m.DatasetsResident); v != 1 {
		t.Fatalf("resident gauge = %v, want 1", v)
	}

	if err := r.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := r.Get(ctx, "s1"); perr.CodeOf(err) != perr.ErrorCodeNotFound {
		t.Fatalf("Get after delete code = %v, want not_found", perr.CodeOf(err))
	}
	if err := r.Delete(ctx, "s1"); perr.CodeOf(err) != perr.ErrorCodeNotFound {
		t.Fatalf("second Delete code = %v, want not_found", perr.CodeOf(err))
	}
	if v := testutil.ToFloat64(m.DatasetsEvicted.WithLabelValues(ReasonDeleted)); v != 1 {
		t.Fatalf("deleted counter = %v, want 1", v)
	}
}

func TestMemory_NilDataset(t *testing.T) {
	r, _, _ := newTestRepo(1, time.Hour)
	if _, err := r.Put(context.Background(), nil, dataset.Report{}); perr.CodeOf(err) != perr.ErrorCodeInvalidArgument {
		t.Fatalf("code = %v, want invalid_argument", perr.CodeOf(err))
	}
}

func TestMemory_EvictsOldestAtCapacity(t *testing.T) {
	r, c, m := newTestRepo(2, time.Hour)
	ctx := context.Background()
	for range 3 {
		if _, err := r.Put(ctx, ds(), dataset.Report{}); err != nil {
			t.Fatalf("Put: %v", err)
		}
		c.advance(time.Minute)
	}
	if r.Len() != 2 {
		t.Fatalf("Len = %d, want 2", r.Len())
	}
	if _, err := r.Get(ctx, "s1"); err == nil {
		t.Fatal("oldest session should be evicted")
	}
	for _, id := range []string{"s2", "s3"} {
		if _, err := r.Get(ctx, id); err != nil {
			t.Fatalf("Get(%s): %v", id, err)
		}
	}
	if v := testutil.ToFloat64(m.DatasetsEvicted.WithLabelValues(ReasonCapacity)); v != 1 {
		t.Fatalf("capacity counter = %v, want 1", v)
	}
}

func TestMemory_Expiry(t *testing.T) {
	r, c, m := newTestRepo(4, 10*time.Minute)
	ctx := context.Background()
	_, _ = r.Put(ctx, ds(), dataset.Report{})
	c.advance(5 * time.Minute)
	_, _ = r.Put(ctx, ds(), dataset.Report{})

	c.advance(5 * time.Minute)
	if _, err := r.Get(ctx, "s1"); perr.CodeOf(err) != perr.ErrorCodeNotFound {
		t.Fatalf("expired Get code = %v, want not_found", perr.CodeOf(err))
	}
	if _, err := r.Get(ctx, "s2"); err != nil {
		t.Fatalf("live Get: %v", err)
	}

	c.advance(5 * time.Minute)
	if n := r.Sweep(ctx); n != 1 {
		t.Fatalf("Sweep = %d, want 1", n)
	}
	if r.Len() != 0 {
		t.Fatalf("Len = %d, want 0", r.Len())
	}
	if v := testutil.ToFloat64(m.DatasetsEvicted.WithLabelValues(ReasonExpired)); v != 2 {
		t.Fatalf("expired counter = %v, want 2", v)
	}
}

func TestMemory_ConcurrentSessionsAreIndependent(t *testing.T) {
	r := NewMemory(Options{MaxEntries: 64})
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]string, 16)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := r.Put(ctx, ds(), dataset.Report{Read: i})
			if err != nil {
				t.Errorf("Put: %v", err)
				return
			}
			ids[i] = s.ID
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for i, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			t.Fatalf("id %q is not a uuid: %v", id, err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
		s, err := r.Get(ctx, id)
		if err != nil || s.Report.Read != i {
			t.Fatalf("Get(%s) = %+v, %v", id, s, err)
		}
	}
}

func TestMemory_JanitorStopsWithContext(t *testing.T) {
	r, c, _ := newTestRepo(4, time.Minute)
	_, _ = r.Put(context.Background(), ds(), dataset.Report{})
	c.advance(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { r.Janitor(ctx, time.Millisecond); close(done) }()

	deadline := time.After(2 * time.Second)
	for r.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("janitor did not sweep")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	<-done
}
