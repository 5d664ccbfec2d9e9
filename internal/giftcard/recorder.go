package giftcard

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/giftcard-service/internal/notification"
)

// Recorder persists a delivered redemption artifact and advances the order's
// lifecycle. The write order matters: transaction first, then the order's
// metadata cache and status, then the customer notification. A notification
// failure never rolls fulfillment back; it only leaves email_sent unset so
// the resend path can retry delivery.
type Recorder struct {
	repo       Repository
	dispatcher notification.Dispatcher
}

func NewRecorder(repo Repository, dispatcher notification.Dispatcher) *Recorder {
	return &Recorder{repo: repo, dispatcher: dispatcher}
}

func (r *Recorder) Record(ctx context.Context, order *Order, artifact *RedemptionArtifact) error {
	if err := r.persistTransaction(ctx, order, artifact); err != nil {
		return err
	}

	// Cache the artifact on the order itself so redemption details survive a
	// supplier outage.
	orderMeta := MergeMetadata(order.Metadata, artifact.ToMetadata())
	if err := r.repo.UpdateOrderMetadata(ctx, order.ID, orderMeta); err != nil {
		return fmt.Errorf("recorder: failed to cache artifact on order %s: %w", order.ID, err)
	}
	order.Metadata = orderMeta

	if order.Status != StatusCompleted {
		if !CanTransition(order.Status, StatusCompleted) {
			return fmt.Errorf("recorder: order %s in status %s: %w", order.ID, order.Status, ErrInvalidStatusTransition)
		}
		if err := r.repo.UpdateOrderStatus(ctx, order.ID, StatusCompleted); err != nil {
			return fmt.Errorf("recorder: failed to complete order %s: %w", order.ID, err)
		}
		order.Status = StatusCompleted
	}

	r.notify(ctx, order, artifact)

	return nil
}

func (r *Recorder) persistTransaction(ctx context.Context, order *Order, artifact *RedemptionArtifact) error {
	latest, err := r.repo.LatestTransactionByOrder(ctx, order.ID)
	switch {
	case err == nil:
		latest.Status = TxStatusCompleted
		latest.Metadata = MergeMetadata(latest.Metadata, artifact.ToMetadata())
		if err := r.repo.UpdateTransaction(ctx, latest); err != nil {
			return fmt.Errorf("recorder: failed to update transaction %s: %w", latest.ID, err)
		}
		return nil
	case errors.Is(err, ErrTransactionNotFound):
		tx := &Transaction{
			OrderID:        order.ID,
			ExternalID:     artifact.Code,
			Status:         TxStatusCompleted,
			Amount:         order.Amount,
			RecipientEmail: order.CustomerEmail,
			Metadata:       artifact.ToMetadata(),
		}
		if err := r.repo.CreateTransaction(ctx, tx); err != nil {
			return fmt.Errorf("recorder: failed to create transaction for order %s: %w", order.ID, err)
		}
		return nil
	default:
		return fmt.Errorf("recorder: failed to load transaction for order %s: %w", order.ID, err)
	}
}

func (r *Recorder) notify(ctx context.Context, order *Order, artifact *RedemptionArtifact) {
	content := map[string]string{
		"redemption_code": artifact.Code,
		"instructions":    artifact.Instructions,
	}
	if artifact.PIN != "" {
		content["pin"] = artifact.PIN
	}
	if artifact.Serial != "" {
		content["serial"] = artifact.Serial
	}

	err := r.dispatcher.Send(ctx, order.CustomerEmail, "Your gift card is ready", content)
	if err != nil {
		log.Warn().
			Err(err).
			Stringer("order_id", order.ID).
			Msg("recorder: failed to send redemption email")
		return
	}

	if err := r.repo.SetOrderEmailSent(ctx, order.ID, true); err != nil {
		log.Warn().
			Err(err).
			Stringer("order_id", order.ID).
			Msg("recorder: failed to set email flag")
		return
	}
	order.EmailSent = true
}
