package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"budgetly/internal/core"
	"budgetly/internal/log"
)

const readyTimeout = 2 * time.Second

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports whether the store is reachable, connecting it if needed.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	err := s.store.Connect(ctx)
	if err == nil {
		err = s.store.Ping(ctx)
	}
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed",
			log.FieldComponent, log.ComponentStorage, log.FieldError, err.Error())
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleMetrics reports request, rate limit and security counters in the
// Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.tracer.GetMetrics()
	rateLimitMetrics := s.limiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	writeMetric(w, "http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	writeMetric(w, "http_server_errors_total", "counter", "Responses with a 5xx status", traceMetrics.ServerErrors)
	writeMetric(w, "http_last_response_time_microseconds", "gauge", "Duration of the last completed request", traceMetrics.AverageResponseTime)
	writeMetric(w, "rate_limit_rejected_total", "counter", "Writes rejected by the rate limiter", rateLimitMetrics.Rejected)
	writeMetric(w, "active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	writeMetric(w, "suspicious_requests_total", "counter", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	writeMetric(w, "uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.started).Seconds()))
}

func writeMetric(w http.ResponseWriter, name, kind, help string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(w, "%s %d\n\n", name, value)
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	NotFoundError("Not Found").Write(w)
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	MethodNotAllowedError().Write(w)
}

func handleRateLimited(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log.FromContext(ctx).WithComponent(log.ComponentRateLimit).WarnContext(ctx, "Write rate limit exceeded",
		log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
	TooManyRequestsError().Write(w)
}

// handleMissingID answers /{kind}/ with an empty identifier.
func handleMissingID(noun string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		BadRequestError(noun + " ID is required").Write(w)
	}
}

// pathID returns the {id} route variable.
func pathID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

// writeError maps err onto the response taxonomy. noun names the record kind
// in client messages. Unexpected errors are logged and answered generically.
func writeError(w http.ResponseWriter, r *http.Request, err error, noun, component, op string) {
	var reqErr *requestError
	var ve *core.ValidationError
	switch {
	case errors.As(err, &reqErr):
		ErrorResponse(reqErr.status, reqErr.msg).Write(w)
	case errors.As(err, &ve):
		BadRequestError(ve.Msg).Write(w)
	case errors.Is(err, core.ErrInvalidID):
		BadRequestError("Invalid " + noun + " ID").Write(w)
	case errors.Is(err, core.ErrNotFound):
		NotFoundError(noun + " not found").Write(w)
	default:
		ctx := r.Context()
		log.NewStructuredLogger(log.FromContext(ctx)).
			LogError(ctx, "Request failed", err, component, op, log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, "", "", ""))
		InternalServerError().Write(w)
	}
}
