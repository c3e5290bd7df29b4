package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ogulcanaydogan/expense-tracker/pkg/model"
	"github.com/ogulcanaydogan/expense-tracker/pkg/storage"
	"github.com/shopspring/decimal"
)

// expenseRequest is the body of create and update calls. Update applies only
// the fields that are present.
type expenseRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Category    *string          `json:"category"`
	Description *string          `json:"description"`
	OccurredAt  *string          `json:"occurred_at"`
}

func (s *Server) decodeExpense(w http.ResponseWriter, r *http.Request) (expenseRequest, error) {
	var req expenseRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("invalid request body: %w", err)
	}
	return req, nil
}

// apply copies the present fields onto e.
func (s *Server) apply(req expenseRequest, e *model.Expense) error {
	if req.Amount != nil {
		e.Amount = req.Amount.Round(2)
		if !e.Amount.IsPositive() {
			return model.ErrInvalidAmount
		}
	}
	if req.Category != nil {
		c, err := model.ParseCategory(*req.Category)
		if err != nil {
			return err
		}
		e.Category = c
	}
	if req.Description != nil {
		e.Description = strings.TrimSpace(*req.Description)
	}
	if req.OccurredAt != nil {
		at, err := model.ParseTime(*req.OccurredAt, s.opts.Location)
		if err != nil {
			return err
		}
		e.OccurredAt = at
	}
	return nil
}

func isValidation(err error) bool {
	for _, target := range []error{
		model.ErrInvalidAmount,
		model.ErrInvalidCategory,
		model.ErrInvalidDescription,
		model.ErrMissingOccurredAt,
		model.ErrMissingOwner,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// storeError maps a store failure to a response.
func (s *Server) storeError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, "expense not found", http.StatusNotFound)
	case isValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.internalError(w, msg, err)
	}
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeExpense(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	e := model.Expense{OwnerID: s.owner(r), OccurredAt: s.opts.Now()}
	if err := s.apply(req, &e); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	if err := s.store.AddExpense(ctx, &e); err != nil {
		s.storeError(w, "add expense", err)
		return
	}
	s.logger.Info("expense added", "owner", e.OwnerID, "id", e.ID, "category", e.Category, "amount", e.Amount.String())
	s.writeJSONStatus(w, http.StatusCreated, e)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	e, err := s.store.GetExpense(ctx, s.owner(r), r.PathValue("id"))
	if err != nil {
		s.storeError(w, "get expense", err)
		return
	}
	s.writeJSON(w, e)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeExpense(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	e, err := s.store.GetExpense(ctx, s.owner(r), r.PathValue("id"))
	if err != nil {
		s.storeError(w, "get expense", err)
		return
	}
	if err := s.apply(req, e); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.store.UpdateExpense(ctx, e); err != nil {
		s.storeError(w, "update expense", err)
		return
	}
	s.writeJSON(w, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	if err := s.store.DeleteExpense(ctx, s.owner(r), r.PathValue("id")); err != nil {
		s.storeError(w, "delete expense", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	sum, err := s.reporter.Summary(ctx, s.owner(r))
	if err != nil {
		s.internalError(w, "expense summary", err)
		return
	}
	s.writeJSON(w, sum)
}
