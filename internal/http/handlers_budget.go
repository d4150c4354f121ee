package http

import (
	"net/http"

	"budgetly/internal/core"
	"budgetly/internal/log"
)

const nounBudget = "Budget"

type budgetBody struct {
	Message string      `json:"message,omitempty"`
	Budget  core.Budget `json:"budget"`
}

type budgetsBody struct {
	Budgets []core.Budget `json:"budgets"`
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.budgets.List(r.Context())
	if err != nil {
		writeError(w, r, err, nounBudget, log.ComponentBudget, log.OpList)
		return
	}
	if budgets == nil {
		budgets = []core.Budget{}
	}
	NewJSONResponse().Body(budgetsBody{Budgets: budgets}).Write(w)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, nounBudget, log.ComponentBudget, log.OpParse)
		return
	}
	b, err := req.budget()
	if err != nil {
		writeError(w, r, err, nounBudget, log.ComponentBudget, log.OpCreate)
		return
	}

	created, err := s.budgets.Create(r.Context(), b)
	if err != nil {
		writeError(w, r, err, nounBudget, log.ComponentBudget, log.OpCreate)
		return
	}
	recordChanged(r, log.ComponentBudget, log.OpCreate, created.ID)

	NewJSONResponse().
		Status(http.StatusCreated).
		Body(budgetBody{Message: "Budget created", Budget: created}).
		Write(w)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	b, err := s.budgets.Get(r.Context(), pathID(r))
	if err != nil {
		writeError(w, r, err, nounBudget, log.ComponentBudget, log.OpRead)
		return
	}
	NewJSONResponse().Body(budgetBody{Budget: b}).Write(w)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, nounBudget, log.ComponentBudget, log.OpParse)
		return
	}

	updated, err := s.budgets.Update(r.Context(), pathID(r), req.patch())
	if err != nil {
		writeError(w, r, err, nounBudget, log.ComponentBudget, log.OpUpdate)
		return
	}
	recordChanged(r, log.ComponentBudget, log.OpUpdate, updated.ID)

	NewJSONResponse().
		Body(budgetBody{Message: "Budget updated", Budget: updated}).
		Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if err := s.budgets.Delete(r.Context(), id); err != nil {
		writeError(w, r, err, nounBudget, log.ComponentBudget, log.OpDelete)
		return
	}
	recordChanged(r, log.ComponentBudget, log.OpDelete, id)

	NewJSONResponse().Body(messageBody{Message: "Budget deleted"}).Write(w)
}
