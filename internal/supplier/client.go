package supplier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/giftcard-service/internal/config"
)

// Client talks to the external gift card supplier over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func NewClient(cfg config.SupplierConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// PlaceOrder submits a purchase and returns the supplier's transaction
// handle. Every successful call creates a new order on the supplier side.
func (c *Client) PlaceOrder(ctx context.Context, req PurchaseRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("supplier: failed to encode purchase request: %w", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/orders", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("supplier: failed to place order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.decodeError(resp)
	}

	var pr purchaseResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return "", fmt.Errorf("supplier: failed to decode purchase response: %w", err)
	}

	log.Info().
		Str("custom_identifier", req.CustomIdentifier).
		Str("transaction_id", pr.TransactionID).
		Msg("supplier: order placed")

	return pr.TransactionID, nil
}

// GetCard fetches the redemption payload for a transaction. A 404 or a body
// without a card number means the supplier is still processing; that comes
// back as *ProcessingError so the poller can retry.
func (c *Client) GetCard(ctx context.Context, transactionID string) (*Card, error) {
	httpReq, err := c.newRequest(ctx, http.MethodGet, "/orders/transactions/"+transactionID+"/cards", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("supplier: failed to fetch card for transaction %s: %w", transactionID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &ProcessingError{TransactionID: transactionID}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.decodeError(resp)
	}

	var card Card
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, fmt.Errorf("supplier: failed to decode card for transaction %s: %w", transactionID, err)
	}
	if card.CardNumber == "" {
		return nil, &ProcessingError{TransactionID: transactionID}
	}

	return &card, nil
}

// GetProduct resolves catalog data for a product, including the country code
// and accepted denominations.
func (c *Client) GetProduct(ctx context.Context, productID string) (*Product, error) {
	httpReq, err := c.newRequest(ctx, http.MethodGet, "/products/"+productID, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("supplier: failed to fetch product %s: %w", productID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.decodeError(resp)
	}

	var pr productResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("supplier: failed to decode product %s: %w", productID, err)
	}

	return &Product{
		ProductID:          productID,
		CountryCode:        pr.Country.ISOName,
		Currency:           pr.RecipientCurrencyCode,
		FixedDenominations: pr.FixedRecipientDenominations,
		MinAmount:          pr.RecipientCurrencyMinAmount,
		MaxAmount:          pr.RecipientCurrencyMaxAmount,
	}, nil
}

// RedeemInstructions fetches the per-product redemption instructions. A 404
// is not an error here: the caller degrades to a generic template.
func (c *Client) RedeemInstructions(ctx context.Context, productID string) (string, error) {
	httpReq, err := c.newRequest(ctx, http.MethodGet, "/redeem-instructions/"+productID, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("supplier: failed to fetch redeem instructions for product %s: %w", productID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.decodeError(resp)
	}

	var ir instructionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&ir); err != nil {
		return "", fmt.Errorf("supplier: failed to decode redeem instructions for product %s: %w", productID, err)
	}

	return ir.Content, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("supplier: failed to build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	supErr := &Error{Status: resp.StatusCode, Details: string(raw)}

	var er errorResponse
	if err := json.Unmarshal(raw, &er); err == nil {
		supErr.Code = er.ErrorCode
		if er.Message != "" {
			supErr.Details = er.Message
		}
	}

	log.Warn().
		Int("status", resp.StatusCode).
		Str("code", supErr.Code).
		Msg("supplier: request rejected")

	return supErr
}
