// Package http exposes the JSON API. Caller identity comes from the
// X-User-ID header; session management lives in front of this service.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bindassguntupalli/hold-your-pocket/internal/budget"
	"github.com/bindassguntupalli/hold-your-pocket/internal/cache"
	"github.com/bindassguntupalli/hold-your-pocket/internal/services"
	"github.com/bindassguntupalli/hold-your-pocket/internal/store"
)

type Server struct {
	http.Server

	expenses    *services.ExpenseService
	store       store.Store
	reconciler  *budget.Reconciler
	rateLimiter *rateLimiter

	// Dashboard reads are the hot path; entries are invalidated on any
	// write that touches the same (user, year, month).
	dashCache *cache.LRUCache[dashboardResponse]
	cacheMgr  *cache.Manager

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, expenses *services.ExpenseService, st store.Store, reconciler *budget.Reconciler) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		expenses:    expenses,
		store:       st,
		reconciler:  reconciler,
		rateLimiter: newRateLimiter(),
		dashCache:   cache.NewLRUCache[dashboardResponse](200, 5*time.Minute),
		cacheMgr:    cache.NewManager(),
	}

	s.cacheMgr.Register(s.dashCache)
	s.cacheMgr.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /expenses", s.withMiddleware(s.handleCreateExpense))
	mux.HandleFunc("GET /expenses", s.withMiddleware(s.handleListExpenses))
	mux.HandleFunc("PUT /expenses/{id}", s.withMiddleware(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /expenses/{id}", s.withMiddleware(s.handleDeleteExpense))

	mux.HandleFunc("GET /dashboard", s.withMiddleware(s.handleDashboard))

	mux.HandleFunc("PUT /budget", s.withMiddleware(s.handleSetBudget))
	mux.HandleFunc("GET /budget", s.withMiddleware(s.handleGetBudget))

	mux.HandleFunc("GET /export/csv", s.withMiddleware(s.handleExportCSV))

	return s
}

// Shutdown stops background goroutines and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheMgr.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
