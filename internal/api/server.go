// ABOUTME: Record store HTTP server: wiring, routes and lifecycle
// ABOUTME: Opens the SQLite store, builds auth and dedupe, serves until the context ends

// Package api serves the record store contract used by the wen CLI:
//
//	GET   /user/{id}        200 record | 404
//	POST  /user             200 record (existing record returned unchanged)
//	PATCH /user/{id}        200 record | 404
//	POST  /entry            201 entry | 404 unknown user | 409 day already recorded
//	GET   /history/{id}     200 entries, most recent first (?limit=N)
//	GET   /health           200, never authenticated
//
// Errors are JSON objects of the form {"error": "..."}.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/2389/wen/internal/auth"
	"github.com/2389/wen/internal/config"
	"github.com/2389/wen/internal/dedupe"
	"github.com/2389/wen/internal/store"
)

const maxBodyBytes = 64 << 10

// Server is the record store HTTP server.
type Server struct {
	config     *config.StoreConfig
	store      store.Store
	dedupe     *dedupe.Cache
	verifier   *auth.JWTVerifier
	httpServer *http.Server
	logger     *slog.Logger
	now        func() time.Time
}

// initStore opens the SQLite database named by the config, or by WEN_DB_PATH
// when set.
func initStore(cfg *config.StoreConfig) (store.Store, error) {
	dbPath := cfg.Database.Path
	if envPath := os.Getenv("WEN_DB_PATH"); envPath != "" {
		dbPath = envPath
	}

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return s, nil
}

// New opens the configured database and returns a ready Server.
func New(cfg *config.StoreConfig, logger *slog.Logger) (*Server, error) {
	st, err := initStore(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithStore(cfg, st, logger), nil
}

// NewWithStore returns a Server over an already opened store. The Server
// takes ownership of st and closes it on Shutdown.
func NewWithStore(cfg *config.StoreConfig, st store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "api")

	s := &Server{
		config: cfg,
		store:  st,
		dedupe: dedupe.New(cfg.Entries.DedupeTTL, cfg.Entries.DedupeSize, time.Minute),
		logger: logger,
		now:    time.Now,
	}

	if cfg.Auth.JWTSecret != "" {
		s.verifier = auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	} else {
		logger.Warn("auth.jwt_secret not set, record store is unauthenticated")
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	records := http.NewServeMux()
	records.HandleFunc("GET /user/{id}", s.handleGetUser)
	records.HandleFunc("POST /user", s.handleCreateUser)
	records.HandleFunc("PATCH /user/{id}", s.handlePatchUser)
	records.HandleFunc("POST /entry", s.handleCreateEntry)
	records.HandleFunc("GET /history/{id}", s.handleHistory)

	var verifier auth.TokenVerifier
	if s.verifier != nil {
		verifier = s.verifier
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("/", auth.Middleware(verifier, s.logger)(records))
	return s.logRequests(mux)
}

// IssueToken mints a bearer token for identity with the configured TTL.
func (s *Server) IssueToken(identity string) (string, error) {
	if s.verifier == nil {
		return "", fmt.Errorf("auth.jwt_secret is not configured")
	}
	return s.verifier.Generate(identity, s.config.Auth.TokenTTL)
}

// startServer starts the HTTP server in a goroutine, returning its error channel.
func (s *Server) startServer(ln net.Listener) chan error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	return errCh
}

// waitForShutdownSignal waits for context cancellation or server error.
func (s *Server) waitForShutdownSignal(ctx context.Context, errCh chan error) error {
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
		return nil
	case err := <-errCh:
		s.logger.Error("server error", "error", err)
		return err
	}
}

// Run listens on the configured address and blocks until ctx is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled, then shuts down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := s.startServer(ln)
	serverErr := s.waitForShutdownSignal(ctx, errCh)

	shutdownErr := s.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// The caller's context is already canceled at this point.
func (s *Server) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown stops the HTTP server and closes the store and the dedupe cache.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down record store")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", s.httpServer.Shutdown(ctx))
	errs = appendCloseError(errs, "store close", s.store.Close())
	s.dedupe.Close()

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
