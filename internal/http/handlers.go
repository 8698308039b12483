package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"defter/internal/core"
	applog "defter/internal/log"
	"defter/internal/services"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"requests":  s.tracer.GetMetrics().TotalRequests,
		"throttled": s.rateLimiter.GetMetrics().TotalHits,
	}
	if s.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.ping(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Health check failed", applog.FieldError, err.Error())
			health["status"] = "unavailable"
			health["error"] = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, health)
			return
		}
	}
	writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.ledger.Summaries(r.Context())
	if err != nil {
		s.fail(w, r, applog.OpList, err)
		return
	}
	out := make([]summaryJSON, 0, len(summaries))
	for _, sum := range summaries {
		out = append(out, toSummaryJSON(sum))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateEntity(w http.ResponseWriter, r *http.Request) {
	var req entityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, applog.OpCreate, err)
		return
	}
	entity, err := s.ledger.CreateEntity(r.Context(), core.Entity{
		Name:        sanitizeInput(req.Name),
		PhoneNumber: sanitizeInput(req.PhoneNumber),
		Note:        sanitizeInput(req.Note),
	})
	if err != nil {
		s.fail(w, r, applog.OpCreate, err)
		return
	}
	w.Header().Set("Location", "/entities/"+strconv.FormatInt(entity.ID, 10))
	writeJSON(w, http.StatusCreated, toEntityJSON(entity))
}

func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, applog.OpRead, err)
		return
	}
	summary, err := s.ledger.Summary(r.Context(), id)
	if err != nil {
		s.fail(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryJSON(summary))
}

func (s *Server) handleDeleteEntity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, applog.OpDelete, err)
		return
	}
	if err := s.ledger.DeleteEntity(r.Context(), id); err != nil {
		s.fail(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, applog.OpList, err)
		return
	}
	txs, err := s.ledger.Transactions(r.Context(), id)
	if err != nil {
		s.fail(w, r, applog.OpList, err)
		return
	}
	loc := s.ledger.Locale()
	out := make([]transactionJSON, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionJSON(tx, loc))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, applog.OpRecord, err)
		return
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, applog.OpRecord, err)
		return
	}
	tx, err := s.ledger.RecordTransaction(r.Context(), services.RecordInput{
		EntityID: id,
		Type:     sanitizeInput(req.Type),
		Amount:   sanitizeInput(req.Amount),
		Date:     sanitizeInput(req.Date),
		Note:     sanitizeInput(req.Note),
	})
	if err != nil {
		s.fail(w, r, applog.OpRecord, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionJSON(tx, s.ledger.Locale()))
}

// handleClear resolves a settlement token into the credit that would clear
// the balance. Nothing is written.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, applog.OpSettle, err)
		return
	}
	prefill, err := s.ledger.SettlementPrefill(r.Context(), id, chi.URLParam(r, "token"))
	if err != nil {
		s.fail(w, r, applog.OpSettle, err)
		return
	}
	writeJSON(w, http.StatusOK, prefillJSON{
		Entity: toEntityJSON(prefill.Entity),
		Type:   prefill.Type,
		Amount: prefill.Amount.Decimal(),
		Date:   prefill.Date.Format("2006-01-02"),
	})
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, applog.OpSettle, err)
		return
	}
	var req settleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, applog.OpSettle, err)
		return
	}
	tx, err := s.ledger.Settle(r.Context(), id, sanitizeInput(req.Note))
	if err != nil {
		s.fail(w, r, applog.OpSettle, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionJSON(tx, s.ledger.Locale()))
}
