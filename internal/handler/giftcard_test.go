package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/vasiliy-maslov/giftcard-service/internal/giftcard"
	"github.com/vasiliy-maslov/giftcard-service/internal/supplier"
)

type mockGiftCardService struct {
	ApproveOrderFunc    func(ctx context.Context, orderID uuid.UUID) (*giftcard.OrderDetails, error)
	ResendGiftCardFunc  func(ctx context.Context, orderID uuid.UUID) (*giftcard.OrderDetails, error)
	GetOrderDetailsFunc func(ctx context.Context, orderID uuid.UUID) (*giftcard.OrderDetails, error)
}

func (m *mockGiftCardService) ApproveOrder(ctx context.Context, orderID uuid.UUID) (*giftcard.OrderDetails, error) {
	return m.ApproveOrderFunc(ctx, orderID)
}

func (m *mockGiftCardService) ResendGiftCard(ctx context.Context, orderID uuid.UUID) (*giftcard.OrderDetails, error) {
	return m.ResendGiftCardFunc(ctx, orderID)
}

func (m *mockGiftCardService) GetOrderDetails(ctx context.Context, orderID uuid.UUID) (*giftcard.OrderDetails, error) {
	return m.GetOrderDetailsFunc(ctx, orderID)
}

func newRouter(svc giftcard.Service) *chi.Mux {
	h := NewGiftCardHandler(svc)
	r := chi.NewRouter()
	r.Get("/orders/{id}", h.GetOrderDetails)
	r.Post("/orders/{id}/approve", h.ApproveOrder)
	r.Post("/orders/{id}/resend", h.ResendGiftCard)
	return r
}

func TestGiftCardHandler_ApproveOrder(t *testing.T) {
	orderID := uuid.Must(uuid.NewV4())

	tests := []struct {
		name           string
		target         string
		approve        func(ctx context.Context, orderID uuid.UUID) (*giftcard.OrderDetails, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "success",
			target: "/orders/" + orderID.String() + "/approve",
			approve: func(_ context.Context, id uuid.UUID) (*giftcard.OrderDetails, error) {
				return &giftcard.OrderDetails{
					Order:    &giftcard.Order{ID: id, Status: giftcard.StatusCompleted},
					Artifact: &giftcard.RedemptionArtifact{Code: "CODE-1"},
				}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "order_not_found",
			target: "/orders/" + orderID.String() + "/approve",
			approve: func(_ context.Context, _ uuid.UUID) (*giftcard.OrderDetails, error) {
				return nil, giftcard.ErrOrderNotFound
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   "order not found\n",
		},
		{
			name:   "validation_error",
			target: "/orders/" + orderID.String() + "/approve",
			approve: func(_ context.Context, _ uuid.UUID) (*giftcard.OrderDetails, error) {
				return nil, &giftcard.ValidationError{RequestedPrice: 1000, Min: 5, Max: 500}
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "validation: requested price 1000 is outside the accepted range [5, 500]\n",
		},
		{
			name:   "supplier_timeout",
			target: "/orders/" + orderID.String() + "/approve",
			approve: func(_ context.Context, _ uuid.UUID) (*giftcard.OrderDetails, error) {
				return nil, &supplier.TimeoutError{TransactionID: "tx-1"}
			},
			expectedStatus: http.StatusGatewayTimeout,
			expectedBody:   "supplier did not deliver the card in time\n",
		},
		{
			name:   "supplier_rejection",
			target: "/orders/" + orderID.String() + "/approve",
			approve: func(_ context.Context, _ uuid.UUID) (*giftcard.OrderDetails, error) {
				return nil, &supplier.Error{Status: 400, Code: "INVALID_PRODUCT"}
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   "supplier rejected the request\n",
		},
		{
			name:   "already_completed",
			target: "/orders/" + orderID.String() + "/approve",
			approve: func(_ context.Context, _ uuid.UUID) (*giftcard.OrderDetails, error) {
				return nil, giftcard.ErrOrderAlreadyCompleted
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   "order is already completed\n",
		},
		{
			name:           "invalid_uuid",
			target:         "/orders/not-a-uuid/approve",
			approve:        nil,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "id must be a valid UUID\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := &mockGiftCardService{ApproveOrderFunc: tt.approve}
			r := newRouter(mockSvc)

			req := httptest.NewRequest(http.MethodPost, tt.target, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.Equal(t, tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestGiftCardHandler_ResendGiftCard(t *testing.T) {
	orderID := uuid.Must(uuid.NewV4())

	tests := []struct {
		name           string
		resend         func(ctx context.Context, orderID uuid.UUID) (*giftcard.OrderDetails, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success_from_cache",
			resend: func(_ context.Context, id uuid.UUID) (*giftcard.OrderDetails, error) {
				return &giftcard.OrderDetails{
					Order:    &giftcard.Order{ID: id, Status: giftcard.StatusCompleted},
					Artifact: &giftcard.RedemptionArtifact{Code: "XYZ"},
				}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "nothing_to_resend",
			resend: func(_ context.Context, _ uuid.UUID) (*giftcard.OrderDetails, error) {
				return nil, giftcard.ErrRedemptionNotAvailable
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   "redemption details not available\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := &mockGiftCardService{ResendGiftCardFunc: tt.resend}
			r := newRouter(mockSvc)

			req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID.String()+"/resend", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.Equal(t, tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestGiftCardHandler_GetOrderDetails(t *testing.T) {
	orderID := uuid.Must(uuid.NewV4())

	mockSvc := &mockGiftCardService{
		GetOrderDetailsFunc: func(_ context.Context, id uuid.UUID) (*giftcard.OrderDetails, error) {
			return &giftcard.OrderDetails{
				Order: &giftcard.Order{ID: id, Status: giftcard.StatusApproved},
			}, nil
		},
	}
	r := newRouter(mockSvc)

	req := httptest.NewRequest(http.MethodGet, "/orders/"+orderID.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), orderID.String())
	assert.Contains(t, w.Body.String(), `"approved"`)
}
