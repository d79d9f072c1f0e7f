// Package server exposes a journal over a local JSON API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/rustyeddy/tradeinsights/journal"
)

// Server serves one journal store.
type Server struct {
	store   *journal.Store
	mux     *http.ServeMux
	handler http.Handler
	log     *slog.Logger
	limiter *rate.Limiter
	now     func() time.Time

	readTimeout  time.Duration
	writeTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithRateLimit allows perSecond requests on average with bursts of up to
// burst. A zero rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithTimeouts sets the http.Server read and write timeouts.
func WithTimeouts(read, write time.Duration) Option {
	return func(s *Server) {
		s.readTimeout = read
		s.writeTimeout = write
	}
}

// WithClock overrides the clock used for "today" and date validation.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func New(store *journal.Store, opts ...Option) *Server {
	s := &Server{
		store:        store,
		mux:          http.NewServeMux(),
		log:          slog.Default(),
		now:          time.Now,
		readTimeout:  15 * time.Second,
		writeTimeout: 15 * time.Second,
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With("component", "server")
	s.routes()
	s.handler = s.requestID(s.accessLog(s.rateLimit(s.mux)))
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/trades", s.handleListTrades)
	s.mux.HandleFunc("POST /api/trades", s.handleCreateTrade)
	s.mux.HandleFunc("PUT /api/trades/{id}", s.handleUpdateTrade)
	s.mux.HandleFunc("DELETE /api/trades/{id}", s.handleDeleteTrade)

	s.mux.HandleFunc("GET /api/brokers", s.handleListBrokers)
	s.mux.HandleFunc("POST /api/brokers", s.handleCreateBroker)

	s.mux.HandleFunc("GET /api/days/{day}", s.handleDay)
	s.mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	s.mux.HandleFunc("GET /api/summary", s.handleSummary)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("server starting", "addr", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("server stopped")
	return nil
}
