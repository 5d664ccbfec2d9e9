package giftcard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type Repository interface {
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus OrderStatus) error
	UpdateOrderMetadata(ctx context.Context, orderID uuid.UUID, metadata map[string]string) error
	SetOrderEmailSent(ctx context.Context, orderID uuid.UUID, sent bool) error
	LatestTransactionByOrder(ctx context.Context, orderID uuid.UUID) (*Transaction, error)
	CreateTransaction(ctx context.Context, tx *Transaction) error
	UpdateTransaction(ctx context.Context, tx *Transaction) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	query := `
		SELECT id, status, amount, currency, product_type, customer_name, customer_email, metadata, email_sent, created_at, updated_at
		FROM giftcard_service.orders
		WHERE id = $1
	`

	var (
		order   Order
		rawMeta []byte
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&order.ID,
		&order.Status,
		&order.Amount,
		&order.Currency,
		&order.ProductType,
		&order.CustomerName,
		&order.CustomerEmail,
		&rawMeta,
		&order.EmailSent,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", id, err)
	}

	if order.Metadata, err = decodeMetadata(rawMeta); err != nil {
		return nil, fmt.Errorf("repository: failed to decode metadata for order %s: %w", id, err)
	}

	return &order, nil
}

func (r *postgresRepository) GetOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	query := `
		SELECT id, order_id, name, quantity, unit_price, supplier_product_id, created_at
		FROM giftcard_service.order_items
		WHERE order_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query items for order %s: %w", orderID, err)
	}
	defer rows.Close()

	items := make([]OrderItem, 0)
	for rows.Next() {
		var item OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.Name,
			&item.Quantity,
			&item.UnitPrice,
			&item.SupplierProductID,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan item for order %s: %w", orderID, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating items for order %s: %w", orderID, err)
	}

	return items, nil
}

func (r *postgresRepository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus OrderStatus) error {
	query := `
		UPDATE giftcard_service.orders
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	cmdTag, err := r.db.Exec(ctx, query, string(newStatus), time.Now().UTC(), orderID)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Str("new_status", string(newStatus)).Msg("repository: failed to update order status")
		return fmt.Errorf("repository: failed to update status for order %s: %w", orderID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}

func (r *postgresRepository) UpdateOrderMetadata(ctx context.Context, orderID uuid.UUID, metadata map[string]string) error {
	rawMeta, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("repository: failed to encode metadata for order %s: %w", orderID, err)
	}

	query := `
		UPDATE giftcard_service.orders
		SET metadata = $1, updated_at = $2
		WHERE id = $3
	`

	cmdTag, err := r.db.Exec(ctx, query, rawMeta, time.Now().UTC(), orderID)
	if err != nil {
		return fmt.Errorf("repository: failed to update metadata for order %s: %w", orderID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}

func (r *postgresRepository) SetOrderEmailSent(ctx context.Context, orderID uuid.UUID, sent bool) error {
	query := `
		UPDATE giftcard_service.orders
		SET email_sent = $1, updated_at = $2
		WHERE id = $3
	`

	cmdTag, err := r.db.Exec(ctx, query, sent, time.Now().UTC(), orderID)
	if err != nil {
		return fmt.Errorf("repository: failed to update email flag for order %s: %w", orderID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}

func (r *postgresRepository) LatestTransactionByOrder(ctx context.Context, orderID uuid.UUID) (*Transaction, error) {
	query := `
		SELECT id, order_id, external_id, status, amount, recipient_email, metadata, created_at, updated_at
		FROM giftcard_service.transactions
		WHERE order_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var (
		tx      Transaction
		rawMeta []byte
	)
	err := r.db.QueryRow(ctx, query, orderID).Scan(
		&tx.ID,
		&tx.OrderID,
		&tx.ExternalID,
		&tx.Status,
		&tx.Amount,
		&tx.RecipientEmail,
		&rawMeta,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("repository: failed to select latest transaction for order %s: %w", orderID, err)
	}

	if tx.Metadata, err = decodeMetadata(rawMeta); err != nil {
		return nil, fmt.Errorf("repository: failed to decode metadata for transaction %s: %w", tx.ID, err)
	}

	return &tx, nil
}

func (r *postgresRepository) CreateTransaction(ctx context.Context, tx *Transaction) error {
	if tx.ID == uuid.Nil {
		genID, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate transaction ID: %w", err)
		}
		tx.ID = genID
	}

	rawMeta, err := json.Marshal(tx.Metadata)
	if err != nil {
		return fmt.Errorf("repository: failed to encode metadata for transaction %s: %w", tx.ID, err)
	}

	now := time.Now().UTC()
	tx.CreatedAt = now
	tx.UpdatedAt = now

	query := `
		INSERT INTO giftcard_service.transactions (id, order_id, external_id, status, amount, recipient_email, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.Exec(ctx, query,
		tx.ID,
		tx.OrderID,
		tx.ExternalID,
		string(tx.Status),
		tx.Amount,
		tx.RecipientEmail,
		rawMeta,
		tx.CreatedAt,
		tx.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert transaction for order %s: %w", tx.OrderID, err)
	}

	return nil
}

func (r *postgresRepository) UpdateTransaction(ctx context.Context, tx *Transaction) error {
	rawMeta, err := json.Marshal(tx.Metadata)
	if err != nil {
		return fmt.Errorf("repository: failed to encode metadata for transaction %s: %w", tx.ID, err)
	}

	tx.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE giftcard_service.transactions
		SET external_id = $1, status = $2, amount = $3, recipient_email = $4, metadata = $5, updated_at = $6
		WHERE id = $7
	`

	cmdTag, err := r.db.Exec(ctx, query,
		tx.ExternalID,
		string(tx.Status),
		tx.Amount,
		tx.RecipientEmail,
		rawMeta,
		tx.UpdatedAt,
		tx.ID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update transaction %s: %w", tx.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}

	return nil
}

func decodeMetadata(raw []byte) (map[string]string, error) {
	if len(raw) == 0 {
		return map[string]string{}, nil
	}
	md := make(map[string]string)
	if err := json.Unmarshal(raw, &md); err != nil {
		return nil, err
	}
	return md, nil
}
