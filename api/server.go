// Package api exposes the query engine over HTTP: POST /query, GET /info
// and GET /health. It owns the current snapshot behind an atomic pointer;
// rebuilds swap in a new snapshot without interrupting in-flight queries,
// which keep their own handle.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	silo "github.com/genspectrum/silo"
	"github.com/genspectrum/silo/internal/parallel"
	"github.com/genspectrum/silo/query"
)

// Options configures the server.
type Options struct {
	// Addr is the listen address, e.g. ":8081".
	Addr string
	// MaxQueriesPerSecond throttles /query. Zero disables throttling.
	MaxQueriesPerSecond float64
	// MaxConcurrentQueries bounds query execution workers. Zero defaults
	// to GOMAXPROCS.
	MaxConcurrentQueries int
	// Logger receives request and lifecycle logs. Nil disables logging.
	Logger *silo.Logger
}

// Server serves queries over the current database snapshot.
type Server struct {
	echo     *echo.Echo
	addr     string
	logger   *silo.Logger
	limiter  *rate.Limiter
	pool     *parallel.Pool
	snapshot atomic.Pointer[query.Engine]
}

// NewServer creates a server without a snapshot; queries fail with 503
// until SwapSnapshot installs one.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = silo.NoopLogger()
	}

	s := &Server{
		echo:   echo.New(),
		addr:   opts.Addr,
		logger: logger,
		pool:   parallel.NewPool(opts.MaxConcurrentQueries),
	}
	if opts.MaxQueriesPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.MaxQueriesPerSecond), int(opts.MaxQueriesPerSecond)+1)
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())

	s.echo.POST("/query", s.handleQuery)
	s.echo.GET("/info", s.handleInfo)
	s.echo.GET("/info/detailed", s.handleDetailedInfo)
	s.echo.GET("/health", s.handleHealth)

	return s
}

// SwapSnapshot atomically installs a new database snapshot. In-flight
// queries keep the engine they started with.
func (s *Server) SwapSnapshot(db *silo.Database) {
	s.snapshot.Store(query.NewEngine(db, s.logger))
	s.logger.Info("snapshot installed",
		"data_version", db.DataVersion,
		"sequences", db.SequenceCount(),
		"partitions", len(db.Partitions),
	)
}

// engine returns the current snapshot's engine, or nil before the first
// swap.
func (s *Server) engine() *query.Engine {
	return s.snapshot.Load()
}

// Start serves until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	s.echo.Listener = listener

	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.logger.Info("server started", "addr", listener.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.pool.Close()
		return s.echo.Shutdown(shutdownCtx)
	}
}

// Handler exposes the underlying HTTP handler for tests.
func (s *Server) Handler() http.Handler { return s.echo }
