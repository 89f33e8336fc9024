// Package http exposes the JSON API: session auth, expense/bill/subscription
// CRUD, the dashboard and analytics views, and the operational endpoints.
package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/store"
)

// Options configures the HTTP server.
type Options struct {
	Addr            string
	SessionDuration time.Duration
	SecureCookies   bool
}

// Server is the HTTP front end. It owns the middleware stack and the
// response caches that mutations invalidate.
type Server struct {
	httpServer *http.Server
	store      store.Store
	logger     *log.Logger
	opts       Options

	dashboardCache *cache.LRUCache[dashboardJSON]
	analyticsCache *cache.LRUCache[analyticsJSON]
	cacheManager   *cache.Manager

	tracer     *trace.Middleware
	limiter    *ratelimit.Limiter
	ipResolver *security.ClientIPResolver
	headers    *security.HeadersMiddleware

	stopSweep chan struct{}
	stopOnce  sync.Once

	startedAt time.Time
}

// NewServer wires the middleware stack and routes. Start must be called to
// begin serving; Shutdown releases background goroutines.
func NewServer(st store.Store, logger *log.Logger, opts Options) *Server {
	s := &Server{
		store:  st,
		logger: logger.WithComponent(log.ComponentHTTP),
		opts:   opts,

		dashboardCache: cache.NewLRUCache[dashboardJSON](256, time.Minute),
		analyticsCache: cache.NewLRUCache[analyticsJSON](256, 5*time.Minute),
		cacheManager:   cache.NewManager(),

		ipResolver: security.NewClientIPResolver(),
		headers:    security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		limiter:    ratelimit.NewLimiter(ratelimit.DefaultConfig()),

		stopSweep: make(chan struct{}),
		startedAt: time.Now(),
	}
	s.tracer = trace.NewMiddleware(s.ipResolver.ExtractClientIP)

	s.cacheManager.Register(s.dashboardCache)
	s.cacheManager.Register(s.analyticsCache)

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.headers.Middleware(s.tracer.Middleware(s.routes())),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.Handle("POST /api/logout", s.requireAuth(s.handleLogout))

	mux.Handle("GET /api/expenses", s.requireAuth(s.handleListExpenses))
	mux.Handle("POST /api/expenses", s.requireAuth(s.handleCreateExpense))
	mux.Handle("GET /api/expenses/{id}", s.requireAuth(s.handleGetExpense))
	mux.Handle("PUT /api/expenses/{id}", s.requireAuth(s.handleUpdateExpense))
	mux.Handle("DELETE /api/expenses/{id}", s.requireAuth(s.handleDeleteExpense))

	mux.Handle("GET /api/bills", s.requireAuth(s.handleListBills))
	mux.Handle("POST /api/bills", s.requireAuth(s.handleCreateBill))
	mux.Handle("GET /api/bills/{id}", s.requireAuth(s.handleGetBill))
	mux.Handle("PUT /api/bills/{id}", s.requireAuth(s.handleUpdateBill))
	mux.Handle("DELETE /api/bills/{id}", s.requireAuth(s.handleDeleteBill))
	mux.Handle("POST /api/bills/{id}/pay", s.requireAuth(s.handlePayBill))

	mux.Handle("GET /api/subscriptions", s.requireAuth(s.handleListSubscriptions))
	mux.Handle("POST /api/subscriptions", s.requireAuth(s.handleCreateSubscription))
	mux.Handle("GET /api/subscriptions/{id}", s.requireAuth(s.handleGetSubscription))
	mux.Handle("PUT /api/subscriptions/{id}", s.requireAuth(s.handleUpdateSubscription))
	mux.Handle("DELETE /api/subscriptions/{id}", s.requireAuth(s.handleDeleteSubscription))

	mux.Handle("GET /api/dashboard", s.requireAuth(s.handleDashboard))
	mux.Handle("GET /api/analytics", s.requireAuth(s.handleAnalytics))

	limit := s.limiter.Middleware(s.ipResolver.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
	})
	return limit(mux)
}

// Start serves until the listener fails or Shutdown is called. It also runs
// the cache cleanup loop and a periodic sweep of expired sessions.
func (s *Server) Start() error {
	s.cacheManager.StartCleanup(time.Minute)
	go s.sweepSessions()

	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Handler exposes the full middleware-wrapped handler, used by tests to
// serve requests without a listener.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Shutdown drains in-flight requests and stops background goroutines.
// Safe to call whether or not Start ever ran, and safe to call twice.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() {
		close(s.stopSweep)
	})
	s.limiter.Stop()
	s.cacheManager.Stop()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) sweepSessions() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopSweep:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		n, err := s.store.DeleteExpiredSessions(ctx, time.Now())
		cancel()
		if err != nil {
			s.logger.Error("session sweep failed", log.FieldError, err.Error())
			continue
		}
		if n > 0 {
			s.logger.Info("expired sessions removed", log.FieldCount, n)
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports readiness only when the store answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleMetrics writes the counters in Prometheus-like plain text.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.tracer.GetMetrics()
	rm := s.limiter.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", tm.TotalRequests)

	fmt.Fprintf(w, "# HELP http_client_errors_total Responses with a 4xx status\n")
	fmt.Fprintf(w, "# TYPE http_client_errors_total counter\n")
	fmt.Fprintf(w, "http_client_errors_total %d\n\n", tm.ClientErrors)

	fmt.Fprintf(w, "# HELP http_server_errors_total Responses with a 5xx status\n")
	fmt.Fprintf(w, "# TYPE http_server_errors_total counter\n")
	fmt.Fprintf(w, "http_server_errors_total %d\n\n", tm.ServerErrors)

	fmt.Fprintf(w, "# HELP http_last_request_duration_ms Duration of the most recent request\n")
	fmt.Fprintf(w, "# TYPE http_last_request_duration_ms gauge\n")
	fmt.Fprintf(w, "http_last_request_duration_ms %d\n\n", tm.LastDurationMS)

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rm.LimitHits)

	fmt.Fprintf(w, "# HELP rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE rate_limit_clients gauge\n")
	fmt.Fprintf(w, "rate_limit_clients %d\n\n", rm.ClientCount)

	fmt.Fprintf(w, "# HELP cache_entries Current cache entries\n")
	fmt.Fprintf(w, "# TYPE cache_entries gauge\n")
	fmt.Fprintf(w, "cache_entries{type=\"dashboard\"} %d\n", s.dashboardCache.Size())
	fmt.Fprintf(w, "cache_entries{type=\"analytics\"} %d\n\n", s.analyticsCache.Size())

	fmt.Fprintf(w, "# HELP uptime_seconds Seconds since the server started\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %d\n", int64(time.Since(s.startedAt).Seconds()))
}

// invalidateUser drops the cached views a mutation makes stale.
func (s *Server) invalidateUser(userID int64) {
	s.dashboardCache.Delete(dashboardCacheKey(userID))
	s.analyticsCache.Delete(analyticsCacheKey(userID))
}
