package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type billRequest struct {
	Name      string         `json:"name"`
	Amount    string         `json:"amount"`
	DueDate   core.Date      `json:"due_date"`
	Frequency core.Frequency `json:"frequency"`
	Category  core.Category  `json:"category"`
	IsActive  *bool          `json:"is_active"`
}

func (req billRequest) toBill(userID int64) (core.Bill, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Bill{}, err
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	b := core.Bill{
		UserID:    userID,
		Name:      req.Name,
		Amount:    core.Money{Cents: cents},
		DueDate:   req.DueDate,
		Frequency: req.Frequency,
		Category:  req.Category,
		IsActive:  active,
	}
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}
	return b, nil
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	bills, err := s.store.ListBills(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBillList(bills, time.Now()))
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	var req billRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	userID := userIDFrom(r.Context())
	bill, err := req.toBill(userID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.store.CreateBill(r.Context(), bill)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateUser(userID)
	s.logger.InfoContext(r.Context(), "bill created",
		log.FieldUserID, userID,
		log.FieldBillID, created.ID,
		log.FieldDueDate, created.DueDate.String())
	writeJSON(w, http.StatusCreated, toBillJSON(created, time.Now()))
}

func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bill, err := s.store.GetBill(r.Context(), userIDFrom(r.Context()), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBillJSON(bill, time.Now()))
}

func (s *Server) handleUpdateBill(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req billRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	userID := userIDFrom(r.Context())
	bill, err := req.toBill(userID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	bill.ID = id

	if err := s.store.UpdateBill(r.Context(), bill); err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateUser(userID)
	updated, err := s.store.GetBill(r.Context(), userID, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBillJSON(updated, time.Now()))
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID := userIDFrom(r.Context())
	if err := s.store.DeleteBill(r.Context(), userID, id); err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateUser(userID)
	w.WriteHeader(http.StatusNoContent)
}

type payBillRequest struct {
	PaidOn core.Date `json:"paid_on"`
}

// handlePayBill records a payment date on the bill. The due date stays
// where it is; advancing the bill into its next period is a separate edit.
func (s *Server) handlePayBill(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	paidOn := core.DateOf(time.Now())
	if r.ContentLength > 0 {
		var req payBillRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}
		if !req.PaidOn.IsZero() {
			paidOn = req.PaidOn
		}
	}

	userID := userIDFrom(r.Context())
	if err := s.store.MarkBillPaid(r.Context(), userID, id, paidOn); err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateUser(userID)
	s.logger.InfoContext(r.Context(), "bill marked paid",
		log.FieldUserID, userID,
		log.FieldBillID, id,
		"paid_on", paidOn.String())

	bill, err := s.store.GetBill(r.Context(), userID, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBillJSON(bill, time.Now()))
}
