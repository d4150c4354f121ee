package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"budgetly/internal/log"
	"budgetly/internal/middleware/ratelimit"
	"budgetly/internal/middleware/security"
	"budgetly/internal/middleware/trace"
	"budgetly/internal/services"
	"budgetly/internal/storage"
)

// Config holds the server settings that do not come from the store.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	// TrustedProxies are extra CIDRs allowed to set forwarding headers.
	TrustedProxies []string
	Logger         *log.Logger
}

type Server struct {
	http.Server

	store        storage.Store
	transactions *services.TransactionService
	budgets      *services.BudgetService
	summary      *services.SummaryService

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
// events may be nil to disable record events.
func NewServer(cfg Config, store storage.Store, events services.EventPublisher) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.FromContext(context.Background())
	}

	detector := security.NewDetector()
	for _, cidr := range cfg.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}

	s := &Server{
		store:        store,
		transactions: services.NewTransactionService(store, events),
		budgets:      services.NewBudgetService(store, events),
		summary:      services.NewSummaryService(store),
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		detector:     detector,
		tracer:       trace.NewMiddleware(logger.WithComponent(log.ComponentHTTP), detector.ExtractClientIP),
		started:      time.Now(),
	}

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// routes builds the router wrapped in the middleware chain. The chain wraps
// the router itself so unmatched requests are traced too.
func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(handleNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(handleMethodNotAllowed)

	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)

	r.HandleFunc("/transaction", s.handleListTransactions).Methods(http.MethodGet)
	r.HandleFunc("/transaction", s.handleCreateTransaction).Methods(http.MethodPost)
	r.HandleFunc("/transaction/", handleMissingID(nounTransaction)).
		Methods(http.MethodGet, http.MethodPatch, http.MethodDelete)
	r.HandleFunc("/transaction/{id}", s.handleGetTransaction).Methods(http.MethodGet)
	r.HandleFunc("/transaction/{id}", s.handleUpdateTransaction).Methods(http.MethodPatch)
	r.HandleFunc("/transaction/{id}", s.handleDeleteTransaction).Methods(http.MethodDelete)

	r.HandleFunc("/budget", s.handleListBudgets).Methods(http.MethodGet)
	r.HandleFunc("/budget", s.handleCreateBudget).Methods(http.MethodPost)
	r.HandleFunc("/budget/", handleMissingID(nounBudget)).
		Methods(http.MethodGet, http.MethodPatch, http.MethodDelete)
	r.HandleFunc("/budget/{id}", s.handleGetBudget).Methods(http.MethodGet)
	r.HandleFunc("/budget/{id}", s.handleUpdateBudget).Methods(http.MethodPatch)
	r.HandleFunc("/budget/{id}", s.handleDeleteBudget).Methods(http.MethodDelete)

	r.HandleFunc("/summary/categories", s.handleCategorySummary).Methods(http.MethodGet)
	r.HandleFunc("/summary/monthly", s.handleMonthlySummary).Methods(http.MethodGet)
	r.HandleFunc("/summary/budget", s.handleBudgetSummary).Methods(http.MethodGet)
	r.HandleFunc("/summary/dashboard", s.handleDashboard).Methods(http.MethodGet)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var h http.Handler = r
	h = s.limiter.Middleware(s.detector.ExtractClientIP, handleRateLimited)(h)
	h = s.detector.Middleware(h)
	h = headers.Middleware(h)
	h = s.tracer.Middleware(h)
	return h
}

// Shutdown stops the limiter cleanup and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
