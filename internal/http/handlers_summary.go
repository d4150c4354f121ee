package http

import (
	"net/http"
	"strings"

	"budgetly/internal/core"
	"budgetly/internal/log"
	"budgetly/internal/services"
)

// msgSummaryFailed accompanies the empty report when the records cannot be loaded.
const msgSummaryFailed = "Failed to load summary data"

type categoriesBody struct {
	services.CategoryReport
	Error string `json:"error,omitempty"`
}

type monthlyBody struct {
	services.MonthlyReport
	Error string `json:"error,omitempty"`
}

type budgetSummaryBody struct {
	services.BudgetReport
	Error string `json:"error,omitempty"`
}

type dashboardBody struct {
	core.DashboardSummary
	Error string `json:"error,omitempty"`
}

func (s *Server) handleCategorySummary(w http.ResponseWriter, r *http.Request) {
	report, err := s.summary.Categories(r.Context())
	if err != nil {
		summaryFailed(w, r, err, categoriesBody{CategoryReport: report, Error: msgSummaryFailed}, log.NewFields())
		return
	}
	NewJSONResponse().Body(categoriesBody{CategoryReport: report}).Write(w)
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r.URL.Query())
	if err != nil {
		writeError(w, r, err, "Summary", log.ComponentSummary, log.OpParse)
		return
	}

	report, err := s.summary.Monthly(r.Context(), year)
	if err != nil {
		summaryFailed(w, r, err, monthlyBody{MonthlyReport: report, Error: msgSummaryFailed}, log.NewFields().WithPeriod("", year))
		return
	}
	NewJSONResponse().Body(monthlyBody{MonthlyReport: report}).Write(w)
}

func (s *Server) handleBudgetSummary(w http.ResponseWriter, r *http.Request) {
	month := strings.TrimSpace(r.URL.Query().Get("month"))

	report, err := s.summary.Budget(r.Context(), month)
	if err != nil {
		summaryFailed(w, r, err, budgetSummaryBody{BudgetReport: report, Error: msgSummaryFailed}, log.NewFields().WithPeriod(month, 0))
		return
	}
	NewJSONResponse().Body(budgetSummaryBody{BudgetReport: report}).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := s.summary.Dashboard(r.Context())
	if err != nil {
		summaryFailed(w, r, err, dashboardBody{DashboardSummary: summary, Error: msgSummaryFailed}, log.NewFields())
		return
	}
	NewJSONResponse().Body(dashboardBody{DashboardSummary: summary}).Write(w)
}

// summaryFailed answers bad input with 400 and load failures with 500 plus the
// empty report in body.
func summaryFailed(w http.ResponseWriter, r *http.Request, err error, body any, fields log.LogFields) {
	if core.IsValidation(err) {
		writeError(w, r, err, "Summary", log.ComponentSummary, log.OpSummarize)
		return
	}

	ctx := r.Context()
	log.NewStructuredLogger(log.FromContext(ctx)).
		LogError(ctx, "Summary load failed", err, log.ComponentSummary, log.OpSummarize,
			fields.WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", ""))
	NewJSONResponse().Status(http.StatusInternalServerError).Body(body).Write(w)
}
