package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/giftcard-service/internal/giftcard"
	"github.com/vasiliy-maslov/giftcard-service/internal/supplier"
)

// GiftCardHandler handles HTTP requests for gift card fulfillment.
type GiftCardHandler struct {
	svc giftcard.Service
}

// NewGiftCardHandler creates a new GiftCardHandler.
func NewGiftCardHandler(svc giftcard.Service) *GiftCardHandler {
	return &GiftCardHandler{svc: svc}
}

// ApproveOrder runs the full fulfillment pipeline for an order. The request
// blocks until the supplier delivers the card or the polling deadline hits.
func (h *GiftCardHandler) ApproveOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	details, err := h.svc.ApproveOrder(r.Context(), orderID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, details)
}

// ResendGiftCard re-delivers redemption details, preferring cached metadata
// over a live supplier call.
func (h *GiftCardHandler) ResendGiftCard(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	details, err := h.svc.ResendGiftCard(r.Context(), orderID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, details)
}

// GetOrderDetails returns the order with any cached redemption artifact.
func (h *GiftCardHandler) GetOrderDetails(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	details, err := h.svc.GetOrderDetails(r.Context(), orderID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, details)
}

func (h *GiftCardHandler) orderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return uuid.Nil, false
	}

	id, err := uuid.FromString(raw)
	if err != nil {
		http.Error(w, "id must be a valid UUID", http.StatusBadRequest)
		return uuid.Nil, false
	}

	return id, true
}

func (h *GiftCardHandler) writeError(w http.ResponseWriter, err error) {
	var (
		valErr     *giftcard.ValidationError
		supErr     *supplier.Error
		timeoutErr *supplier.TimeoutError
	)

	switch {
	case errors.Is(err, giftcard.ErrOrderNotFound):
		http.Error(w, "order not found", http.StatusNotFound)
	case errors.Is(err, giftcard.ErrRedemptionNotAvailable):
		http.Error(w, "redemption details not available", http.StatusNotFound)
	case errors.Is(err, giftcard.ErrOrderAlreadyCompleted):
		http.Error(w, "order is already completed", http.StatusConflict)
	case errors.Is(err, giftcard.ErrInvalidStatusTransition):
		http.Error(w, "order is not in a fulfillable state", http.StatusConflict)
	case errors.As(err, &valErr):
		http.Error(w, valErr.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &timeoutErr):
		http.Error(w, "supplier did not deliver the card in time", http.StatusGatewayTimeout)
	case errors.As(err, &supErr):
		http.Error(w, "supplier rejected the request", http.StatusBadGateway)
	default:
		log.Error().Err(err).Msg("handler: fulfillment failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (h *GiftCardHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Info().Msgf("Failed to encode response: %v", err)
	}
}
