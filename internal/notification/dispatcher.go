package notification

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

// Dispatcher delivers redemption details to the customer. Failures here are
// non-fatal to fulfillment: callers log them and move on.
type Dispatcher interface {
	Send(ctx context.Context, recipient, subject string, content map[string]string) error
}

// Error wraps a failed delivery attempt.
type Error struct {
	Recipient string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("notification: failed to notify %s: %v", e.Recipient, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPDispatcher posts messages to a mail relay service.
type HTTPDispatcher struct {
	relayURL string
	from     string
	httpc    *http.Client
}

func NewHTTPDispatcher(cfg config.NotificationConfig) *HTTPDispatcher {
	return &HTTPDispatcher{
		relayURL: cfg.RelayURL,
		from:     cfg.From,
		httpc:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (d *HTTPDispatcher) Send(ctx context.Context, recipient, subject string, content map[string]string) error {
	body, err := json.Marshal(map[string]any{
		"from":    d.from,
		"to":      recipient,
		"subject": subject,
		"content": content,
	})
	if err != nil {
		return &Error{Recipient: recipient, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.relayURL, bytes.NewReader(body))
	if err != nil {
		return &Error{Recipient: recipient, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpc.Do(req)
	if err != nil {
		return &Error{Recipient: recipient, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Recipient: recipient, Err: fmt.Errorf("relay returned status %d", resp.StatusCode)}
	}

	log.Info().Str("recipient", recipient).Str("subject", subject).Msg("notification sent")
	return nil
}

// LogDispatcher is used when no relay is configured; it records the message
// and reports success so local runs still complete fulfillment.
type LogDispatcher struct{}

func (LogDispatcher) Send(_ context.Context, recipient, subject string, _ map[string]string) error {
	log.Info().Str("recipient", recipient).Str("subject", subject).Msg("notification (log only)")
	return nil
}
