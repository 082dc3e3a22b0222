package server

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"time"
)

// Server wires the persistence handles, the object store and the HTTP
// surface together. Everything is constructed here and passed in; there
// are no package-level singletons.
type Server struct {
	httpServer *http.Server

	cfg      Config
	db       *sql.DB
	users    userStore
	wallet   walletStore
	registry registryStore
	store    ObjectStore
}

func New(cfg Config, db *sql.DB, store ObjectStore) *Server {
	s := &Server{
		cfg:      cfg,
		db:       db,
		users:    &postgresUsers{db: db},
		wallet:   &postgresWallet{db: db},
		registry: &postgresRegistry{db: db},
		store:    store,
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// The three endpoints the original rate-limited stay rate-limited.
	rl := newRateLimiter(s.cfg.RateMax, s.cfg.RateWindow)

	mux.Handle("/api/presign", rl.middleware(http.HandlerFunc(s.handlePresign)))
	mux.HandleFunc("/api/commit", s.handleCommit)
	mux.Handle("/api/readlink", rl.middleware(http.HandlerFunc(s.handleReadlink)))
	mux.Handle("/api/list", rl.middleware(http.HandlerFunc(s.handleList)))
	mux.HandleFunc("/api/me/plan", s.handlePlan)
	mux.HandleFunc("/s/", s.handleShare)

	mux.HandleFunc("/salud", s.handleSalud)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/metrics", s.handleMetrics)

	// Wrap middleware: requestID -> logging -> mux
	var handler http.Handler = mux
	handler = loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

// Handler exposes the assembled HTTP surface so tests can serve it on
// an ephemeral listener.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Cleaner builds the lifecycle cleaner over this server's stores.
func (s *Server) Cleaner(interval time.Duration) *Cleaner {
	return &Cleaner{
		registry: s.registry,
		wallet:   s.wallet,
		store:    s.store,
		interval: interval,
		batch:    s.cfg.CleanupBatch,
	}
}
