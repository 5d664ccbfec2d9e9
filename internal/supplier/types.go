package supplier

// PurchaseRequest is the body of POST /orders. CustomIdentifier is meant to
// let the supplier recognize duplicate submissions; the supplier does not
// currently enforce it.
type PurchaseRequest struct {
	CustomIdentifier string `json:"customIdentifier"`
	ProductID        string `json:"productId"`
	CountryCode      string `json:"countryCode"`
	Quantity         int    `json:"quantity"`
	UnitPrice        int64  `json:"unitPrice"`
	SenderName       string `json:"senderName"`
	RecipientEmail   string `json:"recipientEmail"`
	PreOrder         bool   `json:"preOrder"`
}

type purchaseResponse struct {
	TransactionID string `json:"transactionId"`
}

// Card is the redemption payload for a fulfilled transaction.
type Card struct {
	CardNumber   string `json:"cardNumber"`
	PinCode      string `json:"pinCode"`
	SerialNumber string `json:"serialNumber"`
	ProductID    string `json:"productId"`
	// Instructions come back inline for some products only; the resolver
	// falls back to the per-product endpoint, then to a generic template.
	Instructions string `json:"redeemInstructions"`
}

// Product describes a catalog entry as the supplier sees it. Exactly one of
// FixedDenominations or the Min/Max pair is populated for priced products.
type Product struct {
	ProductID          string
	CountryCode        string
	Currency           string
	FixedDenominations []int64
	MinAmount          *int64
	MaxAmount          *int64
}

type productResponse struct {
	ProductID string `json:"productId"`
	Country   struct {
		ISOName string `json:"isoName"`
	} `json:"country"`
	RecipientCurrencyCode       string  `json:"recipientCurrencyCode"`
	FixedRecipientDenominations []int64 `json:"fixedRecipientDenominations"`
	RecipientCurrencyMinAmount  *int64  `json:"recipientCurrencyMinAmount"`
	RecipientCurrencyMaxAmount  *int64  `json:"recipientCurrencyMaxAmount"`
}

type instructionsResponse struct {
	Content string `json:"content"`
}

type errorResponse struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}
