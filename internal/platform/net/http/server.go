package http

import (
	"context"
	"errors"
	"net"
	stdhttp "net/http"
	"time"

	"crimedash/internal/platform/config"
	"crimedash/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// Server owns the root chi mux and the listener lifecycle
type Server struct {
	addr  string
	grace time.Duration
	mux   *chi.Mux
	srv   *stdhttp.Server
}

// NewServer reads PORT, READ_TIMEOUT, WRITE_TIMEOUT and SHUTDOWN_GRACE from cfg
func NewServer(cfg config.Conf) *Server {
	mux := chi.NewRouter()
	s := &Server{
		addr:  cfg.MayString("PORT", ":4000"),
		grace: cfg.MayDuration("SHUTDOWN_GRACE", 10*time.Second),
		mux:   mux,
	}
	s.srv = &stdhttp.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.MayDuration("READ_TIMEOUT", time.Minute),
		WriteTimeout:      cfg.MayDuration("WRITE_TIMEOUT", 2*time.Minute),
	}
	return s
}

// Router is the root router modules mount on
func (s *Server) Router() Router { return AdaptChi(s.mux) }

// Addr is the configured listen address
func (s *Server) Addr() string { return s.addr }

// Run serves until ctx is cancelled, then drains within the grace period.
// A clean shutdown returns nil
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	log := logger.Named("http")
	log.Info().Str("addr", ln.Addr().String()).Msg("http listening")

	drained := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(drained)
		sctx, cancel := context.WithTimeout(context.Background(), s.grace)
		defer cancel()
		if err := s.srv.Shutdown(sctx); err != nil {
			log.Warn().Err(err).Dur("grace", s.grace).Msg("http shutdown")
		}
	})

	err := s.srv.Serve(ln)
	if !errors.Is(err, stdhttp.ErrServerClosed) {
		stop()
		return err
	}
	// closed by the AfterFunc, wait for in-flight requests
	<-drained
	return nil
}
