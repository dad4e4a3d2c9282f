package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"contas/internal/cache"
	"contas/internal/config"
	"contas/internal/core"
	"contas/internal/log"
	"contas/internal/middleware/ratelimit"
	"contas/internal/middleware/security"
	"contas/internal/middleware/trace"
	"contas/internal/services"
)

// Server exposes the finance service as a JSON API. Monthly balances are
// the only derived responses expensive enough to cache; the cache is purged
// whenever a transaction write goes through this server.
type Server struct {
	httpServer *http.Server
	svc        *services.FinanceService
	logger     *log.Logger

	balanceCache *cache.LRUCache[core.MonthlyBalance]
	cacheManager *cache.Manager
	limiter      *ratelimit.Limiter
	detector     *security.Detector

	shutdownOnce sync.Once
}

func NewServer(cfg *config.Config, svc *services.FinanceService, logger *log.Logger) *Server {
	s := &Server{
		svc:          svc,
		logger:       logger,
		balanceCache: cache.NewLRUCache[core.MonthlyBalance](cfg.BalanceCacheSize, cfg.BalanceCacheTTL),
		cacheManager: cache.NewManager(),
		limiter:      ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:     security.NewDetector(),
	}

	s.cacheManager.Register(s.balanceCache)
	s.cacheManager.StartCleanup(time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("/api/categories", s.handleCategories)
	mux.HandleFunc("/api/categories/", s.handleCategoryByID)
	mux.HandleFunc("/api/credit-cards", s.handleCreditCards)
	mux.HandleFunc("/api/credit-cards/", s.handleCreditCardByID)
	mux.HandleFunc("/api/transactions", s.handleTransactions)
	mux.HandleFunc("/api/transactions/", s.handleTransactionByID)
	mux.HandleFunc("/api/balance", s.handleBalance)
	mux.HandleFunc("/api/limits", s.handleLimits)
	mux.HandleFunc("/api/limits/", s.handleLimitStatus)

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.middleware(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// middleware assembles the request pipeline: tracing outermost, then the
// request-scoped logger, write rate limiting and security headers.
func (s *Server) middleware(h http.Handler) http.Handler {
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	traced := trace.NewMiddleware(s.detector.ExtractClientIP)

	h = headers.Middleware(h)
	h = s.limitWrites(h)
	h = s.flagSuspicious(h)
	h = log.Middleware(s.logger)(h)
	h = log.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})(h)
	h = traced.Middleware(h)
	return h
}

// flagSuspicious logs requests that match known scanner patterns. They are
// served normally; the signal is for the operator, not the client.
func (s *Server) flagSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			log.FromContext(r.Context()).Warn("Suspicious request detected",
				"method", r.Method,
				"path", r.URL.Path,
				"client_ip", s.detector.ExtractClientIP(r),
				"user_agent", r.Header.Get("User-Agent"))
		}
		next.ServeHTTP(w, r)
	})
}

// limitWrites applies the rate limiter to mutating methods only; reads are
// cheap and cached.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, nil)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			limited.ServeHTTP(w, r)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.svc.Categories(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the background goroutines.
// Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.cacheManager.Stop()
		err = s.httpServer.Shutdown(ctx)
	})
	return err
}

// Handler exposes the assembled pipeline for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
