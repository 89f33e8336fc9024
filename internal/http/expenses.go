package http

import (
	"net/http"
	"strconv"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type expenseRequest struct {
	Purpose     string        `json:"purpose"`
	Amount      string        `json:"amount"`
	Category    core.Category `json:"category"`
	Date        core.Date     `json:"date"`
	Description string        `json:"description"`
}

// toExpense parses the wire form into a domain record. The amount arrives
// as a decimal string and is converted to cents at this boundary.
func (req expenseRequest) toExpense(userID int64) (core.Expense, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	e := core.Expense{
		UserID:      userID,
		Purpose:     req.Purpose,
		Amount:      core.Money{Cents: cents},
		Category:    req.Category,
		Date:        req.Date,
		Description: req.Description,
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

// handleListExpenses lists the user's expenses, optionally filtered to one
// calendar month via ?year=2024&month=3.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	q := r.URL.Query()
	if q.Has("year") || q.Has("month") {
		year, errY := strconv.Atoi(q.Get("year"))
		month, errM := strconv.Atoi(q.Get("month"))
		if errY != nil || errM != nil || month < 1 || month > 12 {
			writeError(w, http.StatusUnprocessableEntity, "year and month must be numeric, month 1-12")
			return
		}
		expenses, err := s.store.ListExpensesByMonth(r.Context(), userID, year, month)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toExpenseList(expenses))
		return
	}

	expenses, err := s.store.ListExpenses(r.Context(), userID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseList(expenses))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	userID := userIDFrom(r.Context())
	expense, err := req.toExpense(userID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.store.CreateExpense(r.Context(), expense)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateUser(userID)
	s.logger.InfoContext(r.Context(), "expense created",
		log.FieldUserID, userID,
		log.FieldExpenseID, created.ID,
		log.FieldAmountCents, created.Amount.Cents)
	writeJSON(w, http.StatusCreated, toExpenseJSON(created))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	expense, err := s.store.GetExpense(r.Context(), userIDFrom(r.Context()), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseJSON(expense))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	userID := userIDFrom(r.Context())
	expense, err := req.toExpense(userID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	expense.ID = id

	if err := s.store.UpdateExpense(r.Context(), expense); err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateUser(userID)
	updated, err := s.store.GetExpense(r.Context(), userID, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseJSON(updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID := userIDFrom(r.Context())
	if err := s.store.DeleteExpense(r.Context(), userID, id); err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateUser(userID)
	w.WriteHeader(http.StatusNoContent)
}
