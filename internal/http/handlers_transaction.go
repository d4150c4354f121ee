package http

import (
	"net/http"

	"budgetly/internal/core"
	"budgetly/internal/log"
)

const nounTransaction = "Transaction"

type transactionBody struct {
	Message     string           `json:"message,omitempty"`
	Transaction core.Transaction `json:"transaction"`
}

type transactionsBody struct {
	Transactions []core.Transaction `json:"transactions"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.transactions.List(r.Context())
	if err != nil {
		writeError(w, r, err, nounTransaction, log.ComponentTransaction, log.OpList)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	NewJSONResponse().Body(transactionsBody{Transactions: txs}).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, nounTransaction, log.ComponentTransaction, log.OpParse)
		return
	}
	t, err := req.transaction()
	if err != nil {
		writeError(w, r, err, nounTransaction, log.ComponentTransaction, log.OpCreate)
		return
	}

	created, err := s.transactions.Create(r.Context(), t)
	if err != nil {
		writeError(w, r, err, nounTransaction, log.ComponentTransaction, log.OpCreate)
		return
	}
	recordChanged(r, log.ComponentTransaction, log.OpCreate, created.ID)

	NewJSONResponse().
		Status(http.StatusCreated).
		Body(transactionBody{Message: "Transaction saved successfully", Transaction: created}).
		Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.transactions.Get(r.Context(), pathID(r))
	if err != nil {
		writeError(w, r, err, nounTransaction, log.ComponentTransaction, log.OpRead)
		return
	}
	NewJSONResponse().Body(transactionBody{Transaction: t}).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, nounTransaction, log.ComponentTransaction, log.OpParse)
		return
	}

	updated, err := s.transactions.Update(r.Context(), pathID(r), req.patch())
	if err != nil {
		writeError(w, r, err, nounTransaction, log.ComponentTransaction, log.OpUpdate)
		return
	}
	recordChanged(r, log.ComponentTransaction, log.OpUpdate, updated.ID)

	NewJSONResponse().
		Body(transactionBody{Message: "Transaction updated", Transaction: updated}).
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if err := s.transactions.Delete(r.Context(), id); err != nil {
		writeError(w, r, err, nounTransaction, log.ComponentTransaction, log.OpDelete)
		return
	}
	recordChanged(r, log.ComponentTransaction, log.OpDelete, id)

	NewJSONResponse().Body(messageBody{Message: "Transaction deleted"}).Write(w)
}

func recordChanged(r *http.Request, component, op, id string) {
	ctx := r.Context()
	log.NewStructuredLogger(log.FromContext(ctx)).LogRecordChanged(ctx, component, op, id)
}
