// Package repo keeps loaded datasets in process memory, one entry per session
package repo

import (
	"container/list"
	"context"
	"sync"
	"time"

	"crimedash/internal/core/dataset"
	perr "crimedash/internal/platform/errors"
	"crimedash/internal/platform/logger"
	"crimedash/internal/platform/metrics"
	ptime "crimedash/internal/platform/time"

	"github.com/google/uuid"
)

// Eviction reasons reported to metrics
const (
	ReasonExpired  = "expired"
	ReasonCapacity = "capacity"
	ReasonDeleted  = "deleted"
)

// Session is one resident dataset
// the dataset is immutable so a Session can be shared by concurrent readers
type Session struct {
	ID        string
	Dataset   *dataset.Dataset
	Report    dataset.Report
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Repo is the persistence surface for dataset sessions
type Repo interface {
	Put(ctx context.Context, ds *dataset.Dataset, rep dataset.Report) (Session, error)
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
	Sweep(ctx context.Context) int
	Len() int
}

// Options bounds the store, zero values take the defaults
type Options struct {
	MaxEntries int
	TTL        time.Duration
	Metrics    *metrics.Metrics
	Clock      ptime.Clock
}

const (
	defaultMaxEntries = 32
	defaultTTL        = time.Hour
)

// Memory is a capacity and ttl bounded Repo, the oldest session is evicted first
type Memory struct {
	mu      sync.Mutex
	byID    map[string]*list.Element
	order   *list.List // front is oldest
	max     int
	ttl     time.Duration
	clock   ptime.Clock
	metrics *metrics.Metrics
	newID   func() string
}

// NewMemory creates an empty Memory repo
func NewMemory(o Options) *Memory {
	if o.MaxEntries <= 0 {
		o.MaxEntries = defaultMaxEntries
	}
	if o.TTL <= 0 {
		o.TTL = defaultTTL
	}
	if o.Clock == nil {
		o.Clock = ptime.System
	}
	return &Memory{
		byID:    map[string]*list.Element{},
		order:   list.New(),
		max:     o.MaxEntries,
		ttl:     o.TTL,
		clock:   o.Clock,
		metrics: o.Metrics,
		newID:   func() string { return uuid.NewString() },
	}
}

// Put stores ds under a fresh id, expired sessions go first then the oldest ones
// until there is room
func (m *Memory) Put(ctx context.Context, ds *dataset.Dataset, rep dataset.Report) (Session, error) {
	if ds == nil {
		return Session{}, perr.InvalidArgf("sessions: nil dataset")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	m.sweepLocked(ctx, now)
	for m.order.Len() >= m.max {
		m.removeLocked(ctx, m.order.Front(), ReasonCapacity)
	}

	s := Session{
		ID:        m.newID(),
		Dataset:   ds,
		Report:    rep,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	m.byID[s.ID] = m.order.PushBack(s)
	m.metrics.SetDatasets(m.order.Len())
	return s, nil
}

// Get returns the session for id, expired sessions are removed and reported missing
func (m *Memory) Get(ctx context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.byID[id]
	if !ok {
		return Session{}, notFound(id)
	}
	s := el.Value.(Session)
	if !m.clock.Now().Before(s.ExpiresAt) {
		m.removeLocked(ctx, el, ReasonExpired)
		return Session{}, notFound(id)
	}
	return s, nil
}

// Delete removes the session for id
func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.byID[id]
	if !ok {
		return notFound(id)
	}
	m.removeLocked(ctx, el, ReasonDeleted)
	return nil
}

// Sweep drops every expired session and returns how many went
func (m *Memory) Sweep(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(ctx, m.clock.Now())
}

// Len returns the number of resident sessions, expired ones included until swept
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

// Janitor sweeps every interval until ctx is done
func (m *Memory) Janitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Sweep(ctx)
		}
	}
}

func (m *Memory) sweepLocked(ctx context.Context, now time.Time) int {
	n := 0
	for el := m.order.Front(); el != nil; {
		next := el.Next()
		if !now.Before(el.Value.(Session).ExpiresAt) {
			m.removeLocked(ctx, el, ReasonExpired)
			n++
		}
		el = next
	}
	return n
}

func (m *Memory) removeLocked(ctx context.Context, el *list.Element, reason string) {
	s := m.order.Remove(el).(Session)
	delete(m.byID, s.ID)
	m.metrics.ObserveEviction(reason)
	m.metrics.SetDatasets(m.order.Len())
	logger.C(ctx).Debug().
		Str("dataset_id", s.ID).
		Str("reason", reason).
		Int("resident", m.order.Len()).
		Msg("dataset session removed")
}

func notFound(id string) error {
	return perr.WithField(perr.NotFoundf("dataset %s not found or expired", id), "dataset")
}
