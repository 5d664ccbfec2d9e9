package giftcard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/giftcard-service/internal/supplier"
)

// SupplierGateway is the slice of the supplier client the orchestrator uses
// directly; asynchronous card retrieval goes through CardAwaiter instead.
type SupplierGateway interface {
	PlaceOrder(ctx context.Context, req supplier.PurchaseRequest) (string, error)
	GetProduct(ctx context.Context, productID string) (*supplier.Product, error)
	RedeemInstructions(ctx context.Context, productID string) (string, error)
}

// CardAwaiter blocks until the supplier delivers a card or the polling
// deadline elapses.
type CardAwaiter interface {
	Await(ctx context.Context, transactionID string) (*supplier.Card, error)
}

type Service interface {
	// ApproveOrder runs the full fulfillment pipeline: validate the price
	// against supplier denominations, submit the purchase, poll for the
	// card, persist the artifact and notify the customer. Blocks the caller
	// for up to the polling deadline. On supplier failure the order stays
	// approved so an operator can retry via ResendGiftCard.
	ApproveOrder(ctx context.Context, orderID uuid.UUID) (*OrderDetails, error)

	// ResendGiftCard is the repair path: it prefers redemption details
	// already cached in order or transaction metadata and only falls back
	// to a live supplier fetch when no cache exists.
	ResendGiftCard(ctx context.Context, orderID uuid.UUID) (*OrderDetails, error)

	// GetOrderDetails reads the order together with whatever redemption
	// artifact is cached. Never calls the supplier.
	GetOrderDetails(ctx context.Context, orderID uuid.UUID) (*OrderDetails, error)
}

type OrderDetails struct {
	Order    *Order              `json:"order"`
	Items    []OrderItem         `json:"items"`
	Artifact *RedemptionArtifact `json:"artifact,omitempty"`
}

type service struct {
	repo     Repository
	gateway  SupplierGateway
	poller   CardAwaiter
	recorder *Recorder

	now func() time.Time
}

func NewService(repo Repository, gateway SupplierGateway, poller CardAwaiter, recorder *Recorder) Service {
	return &service{
		repo:     repo,
		gateway:  gateway,
		poller:   poller,
		recorder: recorder,
		now:      time.Now,
	}
}

func (s *service) ApproveOrder(ctx context.Context, orderID uuid.UUID) (*OrderDetails, error) {
	order, item, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status == StatusCompleted {
		return nil, ErrOrderAlreadyCompleted
	}
	if order.Status != StatusPending && order.Status != StatusApproved {
		return nil, fmt.Errorf("service: order %s in status %s: %w", orderID, order.Status, ErrInvalidStatusTransition)
	}

	product, err := s.gateway.GetProduct(ctx, item.SupplierProductID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to resolve product %s: %w", item.SupplierProductID, err)
	}

	// The country code comes strictly from the product record, never from
	// the order; without it the supplier rejects the purchase anyway.
	if product.CountryCode == "" {
		return nil, &ValidationError{Reason: fmt.Sprintf("product %s has no country code", item.SupplierProductID)}
	}

	price, err := NormalizePrice(item.UnitPrice, product)
	if err != nil {
		return nil, err
	}

	if order.Status == StatusPending {
		if err := s.repo.UpdateOrderStatus(ctx, orderID, StatusApproved); err != nil {
			return nil, fmt.Errorf("service: failed to approve order %s: %w", orderID, err)
		}
		order.Status = StatusApproved
	}

	externalID, err := s.gateway.PlaceOrder(ctx, supplier.PurchaseRequest{
		CustomIdentifier: fmt.Sprintf("%s-%d", orderID, s.now().Unix()),
		ProductID:        item.SupplierProductID,
		CountryCode:      product.CountryCode,
		Quantity:         item.Quantity,
		UnitPrice:        price,
		SenderName:       order.CustomerName,
		RecipientEmail:   order.CustomerEmail,
		PreOrder:         false,
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to submit order %s to supplier: %w", orderID, err)
	}

	tx := &Transaction{
		OrderID:        orderID,
		ExternalID:     externalID,
		Status:         TxStatusProcessing,
		Amount:         order.Amount,
		RecipientEmail: order.CustomerEmail,
		Metadata:       map[string]string{metaProductID: item.SupplierProductID},
	}
	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("service: failed to record submission for order %s: %w", orderID, err)
	}

	log.Info().
		Stringer("order_id", orderID).
		Str("external_id", externalID).
		Int64("unit_price", price).
		Msg("service: order submitted, awaiting card")

	card, err := s.poller.Await(ctx, externalID)
	if err != nil {
		// Order stays approved; the operator retries via the resend path.
		return nil, fmt.Errorf("service: card retrieval failed for order %s: %w", orderID, err)
	}

	artifact := s.artifactFromCard(ctx, card, item.SupplierProductID)
	if err := s.recorder.Record(ctx, order, artifact); err != nil {
		// The supplier has already issued a one-time code at this point.
		// There is no compensating action yet; log loudly so the code in
		// the error trail is not lost with the request.
		log.Error().
			Err(err).
			Stringer("order_id", orderID).
			Str("external_id", externalID).
			Msg("service: artifact delivered but persistence failed")
		return nil, err
	}

	return &OrderDetails{Order: order, Items: []OrderItem{*item}, Artifact: artifact}, nil
}

func (s *service) ResendGiftCard(ctx context.Context, orderID uuid.UUID) (*OrderDetails, error) {
	order, item, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != StatusApproved && order.Status != StatusCompleted {
		return nil, fmt.Errorf("service: order %s in status %s cannot be resent: %w", orderID, order.Status, ErrInvalidStatusTransition)
	}

	latestTx, err := s.repo.LatestTransactionByOrder(ctx, orderID)
	if err != nil && !errors.Is(err, ErrTransactionNotFound) {
		return nil, fmt.Errorf("service: failed to load transaction for order %s: %w", orderID, err)
	}

	artifact, err := ExtractCachedArtifact(order, latestTx)
	if err == nil {
		if err := s.recorder.Record(ctx, order, artifact); err != nil {
			return nil, err
		}
		return &OrderDetails{Order: order, Items: []OrderItem{*item}, Artifact: artifact}, nil
	}

	// No cached code anywhere. A live fetch is only possible when a prior
	// submission left us a supplier transaction handle.
	if latestTx == nil || latestTx.ExternalID == "" {
		return nil, ErrRedemptionNotAvailable
	}

	card, err := s.poller.Await(ctx, latestTx.ExternalID)
	if err != nil {
		log.Warn().
			Err(err).
			Stringer("order_id", orderID).
			Str("external_id", latestTx.ExternalID).
			Msg("service: live card retrieval failed during resend")
		return nil, fmt.Errorf("%w: %v", ErrRedemptionNotAvailable, err)
	}

	artifact = s.artifactFromCard(ctx, card, item.SupplierProductID)
	if err := s.recorder.Record(ctx, order, artifact); err != nil {
		return nil, err
	}

	return &OrderDetails{Order: order, Items: []OrderItem{*item}, Artifact: artifact}, nil
}

func (s *service) GetOrderDetails(ctx context.Context, orderID uuid.UUID) (*OrderDetails, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}

	latestTx, err := s.repo.LatestTransactionByOrder(ctx, orderID)
	if err != nil && !errors.Is(err, ErrTransactionNotFound) {
		return nil, fmt.Errorf("service: failed to load transaction for order %s: %w", orderID, err)
	}

	details := &OrderDetails{Order: order, Items: items}
	if artifact, err := ExtractCachedArtifact(order, latestTx); err == nil {
		details.Artifact = artifact
	}

	return details, nil
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*Order, *OrderItem, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, nil, ErrOrderNotFound
		}
		return nil, nil, fmt.Errorf("service: failed to fetch order %s: %w", orderID, err)
	}

	items, err := s.repo.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, nil, fmt.Errorf("service: failed to fetch items for order %s: %w", orderID, err)
	}
	if len(items) == 0 {
		return nil, nil, &ValidationError{Reason: fmt.Sprintf("order %s has no items", orderID)}
	}

	// Gift card orders carry a single line item.
	return order, &items[0], nil
}

func (s *service) artifactFromCard(ctx context.Context, card *supplier.Card, productID string) *RedemptionArtifact {
	return &RedemptionArtifact{
		Code:         card.CardNumber,
		PIN:          card.PinCode,
		Serial:       card.SerialNumber,
		Instructions: resolveInstructions(ctx, s.gateway, productID, card.Instructions),
		DeliveredAt:  s.now().UTC(),
	}
}
