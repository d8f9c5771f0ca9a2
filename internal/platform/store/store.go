// Package store opens the optional postgres and clickhouse record backends
package store

import (
	"context"
	"errors"
	"fmt"

	"crimedash/internal/platform/logger"
)

// Store holds whichever backends were enabled. A zero Store has none
type Store struct {
	Log logger.Logger

	PG TxRunner
	CH Clickhouse
}

// Open dials every enabled backend. On failure anything already opened is closed again
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}
	s.Log = s.Log.With().Str("component", "store").Logger()

	var err error
	if cfg.PG.Enabled {
		if s.PG, err = openPG(ctx, cfg, s); err != nil {
			return nil, err
		}
	}
	if cfg.CH.Enabled {
		if s.CH, err = openCH(ctx, cfg, s); err != nil {
			return nil, errors.Join(err, s.Close(ctx))
		}
	}
	s.Log.Debug().Bool("pg", s.PG != nil).Bool("ch", s.CH != nil).Msg("store open")
	return s, nil
}

// Guard pings each open backend, failures come back joined and labelled
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("store: not opened")
	}
	var errs []error
	ping := func(name string, p Pinger) {
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if p, ok := s.PG.(Pinger); ok {
		ping("pg", p)
	}
	if s.CH != nil {
		ping("ch", s.CH)
	}
	return errors.Join(errs...)
}

// Close releases every open backend
func (s *Store) Close(context.Context) error {
	var errs []error
	if c, ok := s.PG.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	if s.CH != nil {
		errs = append(errs, s.CH.Close())
	}
	return errors.Join(errs...)
}
