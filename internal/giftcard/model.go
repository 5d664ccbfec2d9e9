package giftcard

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusApproved  OrderStatus = "approved"
	StatusCompleted OrderStatus = "completed"
	StatusRejected  OrderStatus = "rejected"
)

func (os OrderStatus) String() string {
	return string(os)
}

// Order status moves forward only. A completed or rejected order is final.
var allowedTransitions = map[OrderStatus]map[OrderStatus]bool{
	StatusPending: {
		StatusApproved: true,
		StatusRejected: true,
	},
	StatusApproved: {
		StatusCompleted: true,
		StatusRejected:  true,
	},
	StatusCompleted: {},
	StatusRejected:  {},
}

func CanTransition(from, to OrderStatus) bool {
	return allowedTransitions[from][to]
}

type TransactionStatus string

const (
	TxStatusProcessing TransactionStatus = "processing"
	TxStatusCompleted  TransactionStatus = "completed"
)

func (ts TransactionStatus) String() string {
	return string(ts)
}

// Order is owned by the checkout/approval workflow; this service only reads
// it and writes status, metadata and the email flag.
type Order struct {
	ID            uuid.UUID         `json:"id" db:"id"`
	Status        OrderStatus       `json:"status" db:"status"`
	Amount        int64             `json:"amount" db:"amount"`
	Currency      string            `json:"currency" db:"currency"`
	ProductType   string            `json:"product_type" db:"product_type"`
	CustomerName  string            `json:"customer_name" db:"customer_name"`
	CustomerEmail string            `json:"customer_email" db:"customer_email"`
	Metadata      map[string]string `json:"metadata" db:"metadata"`
	EmailSent     bool              `json:"email_sent" db:"email_sent"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" db:"updated_at"`
}

// OrderItem is immutable once created; UnitPrice is the price at time of sale.
type OrderItem struct {
	ID                uuid.UUID `json:"id" db:"id"`
	OrderID           uuid.UUID `json:"order_id" db:"order_id"`
	Name              string    `json:"name" db:"name"`
	Quantity          int       `json:"quantity" db:"quantity"`
	UnitPrice         int64     `json:"unit_price" db:"unit_price"`
	SupplierProductID string    `json:"supplier_product_id" db:"supplier_product_id"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// Transaction tracks one supplier-side purchase for an order. The most
// recently created transaction is the authoritative one.
type Transaction struct {
	ID             uuid.UUID         `json:"id" db:"id"`
	OrderID        uuid.UUID         `json:"order_id" db:"order_id"`
	ExternalID     string            `json:"external_id" db:"external_id"`
	Status         TransactionStatus `json:"status" db:"status"`
	Amount         int64             `json:"amount" db:"amount"`
	RecipientEmail string            `json:"recipient_email" db:"recipient_email"`
	Metadata       map[string]string `json:"metadata" db:"metadata"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at" db:"updated_at"`
}

// Metadata keys under which the redemption artifact is flattened into order
// and transaction records.
const (
	metaRedemptionCode = "redemption_code"
	metaPinCode        = "pin_code"
	metaSerialNumber   = "serial_number"
	metaInstructions   = "redeem_instructions"
	metaDeliveredAt    = "delivered_at"
	metaProductID      = "supplier_product_id"
)

// RedemptionArtifact is what the customer needs to redeem a gift card. It is
// decoded once at the supplier boundary and carried as a typed value from
// there on; the metadata maps are only its persisted form.
type RedemptionArtifact struct {
	Code         string    `json:"code"`
	PIN          string    `json:"pin,omitempty"`
	Serial       string    `json:"serial,omitempty"`
	Instructions string    `json:"instructions,omitempty"`
	DeliveredAt  time.Time `json:"delivered_at"`
}

func (a *RedemptionArtifact) ToMetadata() map[string]string {
	md := map[string]string{
		metaRedemptionCode: a.Code,
		metaPinCode:        a.PIN,
		metaSerialNumber:   a.Serial,
		metaInstructions:   a.Instructions,
	}
	if !a.DeliveredAt.IsZero() {
		md[metaDeliveredAt] = a.DeliveredAt.UTC().Format(time.RFC3339)
	}
	return md
}

// ArtifactFromMetadata rebuilds an artifact from a persisted metadata map.
// Returns false when the map holds no redemption code: an artifact without a
// code is not an artifact.
func ArtifactFromMetadata(md map[string]string) (*RedemptionArtifact, bool) {
	if md == nil || md[metaRedemptionCode] == "" {
		return nil, false
	}
	a := &RedemptionArtifact{
		Code:         md[metaRedemptionCode],
		PIN:          md[metaPinCode],
		Serial:       md[metaSerialNumber],
		Instructions: md[metaInstructions],
	}
	if ts := md[metaDeliveredAt]; ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			a.DeliveredAt = t
		}
	}
	return a, true
}

// MergeMetadata folds update into existing without clobbering: empty update
// values lose to whatever is already stored, and a persisted redemption code
// is immutable — a conflicting new code is dropped, never written over it.
func MergeMetadata(existing, update map[string]string) map[string]string {
	merged := make(map[string]string, len(existing)+len(update))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range update {
		if v == "" {
			continue
		}
		if k == metaRedemptionCode && merged[k] != "" && merged[k] != v {
			log.Warn().
				Str("key", k).
				Msg("metadata merge: refusing to overwrite existing redemption code")
			continue
		}
		merged[k] = v
	}
	return merged
}
