package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type subscriptionRequest struct {
	Name         string         `json:"name"`
	Amount       string         `json:"amount"`
	BillingCycle core.Frequency `json:"billing_cycle"`
	NextPayment  core.Date      `json:"next_payment"`
	Category     core.Category  `json:"category"`
	IsActive     *bool          `json:"is_active"`
	Description  string         `json:"description"`
	Color        string         `json:"color"`
}

func (req subscriptionRequest) toSubscription(userID int64) (core.Subscription, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Subscription{}, err
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	sub := core.Subscription{
		UserID:       userID,
		Name:         req.Name,
		Amount:       core.Money{Cents: cents},
		BillingCycle: req.BillingCycle,
		NextPayment:  req.NextPayment,
		Category:     req.Category,
		IsActive:     active,
		Description:  req.Description,
		Color:        req.Color,
	}
	if err := sub.Validate(); err != nil {
		return core.Subscription{}, err
	}
	return sub, nil
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.store.ListSubscriptions(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionList(subs, time.Now()))
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req subscriptionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	userID := userIDFrom(r.Context())
	sub, err := req.toSubscription(userID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.store.CreateSubscription(r.Context(), sub)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateUser(userID)
	s.logger.InfoContext(r.Context(), "subscription created",
		log.FieldUserID, userID,
		log.FieldSubscriptionID, created.ID)
	writeJSON(w, http.StatusCreated, toSubscriptionJSON(created, time.Now()))
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := s.store.GetSubscription(r.Context(), userIDFrom(r.Context()), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionJSON(sub, time.Now()))
}

func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req subscriptionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	userID := userIDFrom(r.Context())
	sub, err := req.toSubscription(userID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	sub.ID = id

	if err := s.store.UpdateSubscription(r.Context(), sub); err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateUser(userID)
	updated, err := s.store.GetSubscription(r.Context(), userID, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionJSON(updated, time.Now()))
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID := userIDFrom(r.Context())
	if err := s.store.DeleteSubscription(r.Context(), userID, id); err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateUser(userID)
	w.WriteHeader(http.StatusNoContent)
}
