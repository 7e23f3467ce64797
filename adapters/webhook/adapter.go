// Package webhook delivers generated proposals to an outside system (CRM,
// e-mail relay) by posting a signed JSON notification.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"roofquote/internal/config"
	"roofquote/internal/logging"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body
const SignatureHeader = "X-Roofquote-Signature"

// Config configures webhook behavior
type Config struct {
	// Endpoint URL
	Endpoint string `json:"endpoint"`

	// Secret for the body signature; empty sends unsigned
	Secret string `json:"secret"`

	// Headers to include
	Headers map[string]string `json:"headers"`

	// Timeout for requests
	Timeout time.Duration `json:"timeout"`

	// RetryCount for failed requests
	RetryCount int `json:"retry_count"`

	// RetryDelay between retries
	RetryDelay time.Duration `json:"retry_delay"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig(endpoint string) *Config {
	return &Config{
		Endpoint:   endpoint,
		Timeout:    30 * time.Second,
		RetryCount: 3,
		RetryDelay: 1 * time.Second,
		Headers:    make(map[string]string),
	}
}

// FromDelivery builds a Config from the delivery section of the app config
func FromDelivery(d config.DeliveryConfig) *Config {
	cfg := DefaultConfig(d.Endpoint)
	cfg.Secret = d.Secret
	if d.TimeoutSecs > 0 {
		cfg.Timeout = time.Duration(d.TimeoutSecs) * time.Second
	}
	if d.RetryCount >= 0 {
		cfg.RetryCount = d.RetryCount
	}
	if d.RetryDelayMs > 0 {
		cfg.RetryDelay = time.Duration(d.RetryDelayMs) * time.Millisecond
	}
	return cfg
}

// Adapter is the webhook adapter. It implements the workflow's Sender.
type Adapter struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time
}

// New creates a new webhook adapter
func New(config *Config) *Adapter {
	return &Adapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logging.Named(logging.ComponentWebhook),
		now:    time.Now,
	}
}

// Payload is the webhook payload
type Payload struct {
	// Event type
	Event string `json:"event"`

	// ProposalID of the rendered proposal
	ProposalID string `json:"proposal_id"`

	// Recipient is the homeowner address
	Recipient string `json:"recipient"`

	// Timestamp
	Timestamp time.Time `json:"timestamp"`
}

// SendProposal notifies the endpoint that a proposal should go out. The
// proposal ID doubles as the idempotency key so a retried delivery is not
// sent twice by a well-behaved receiver.
func (a *Adapter) SendProposal(ctx context.Context, proposalID, recipient string) error {
	return a.Send(ctx, &Payload{
		Event:      "proposal.send",
		ProposalID: proposalID,
		Recipient:  recipient,
		Timestamp:  a.now().UTC(),
	})
}

// Send sends the webhook
func (a *Adapter) Send(ctx context.Context, payload *Payload) error {
	if a.config.Endpoint == "" {
		return fmt.Errorf("webhook endpoint not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to format payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= a.config.RetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(a.config.RetryDelay):
			}
		}

		retry, err := a.sendOnce(ctx, payload.ProposalID, body)
		if err == nil {
			return nil
		}
		lastErr = err
		a.logger.Warn("webhook attempt failed",
			zap.Int("attempt", attempt+1),
			logging.ProposalID(payload.ProposalID),
			zap.Error(err))
		if !retry {
			return err
		}
	}

	return fmt.Errorf("webhook failed after %d attempts: %w", a.config.RetryCount+1, lastErr)
}

// sendOnce reports whether a failure is worth retrying: network errors and
// 5xx/429 are, other 4xx are not.
func (a *Adapter) sendOnce(ctx context.Context, key string, body []byte) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", key)
	for k, v := range a.config.Headers {
		req.Header.Set(k, v)
	}
	if a.config.Secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+a.sign(body))
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		retry := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return retry, fmt.Errorf("webhook returned %d: %s", resp.StatusCode, string(msg))
	}
	return false, nil
}

func (a *Adapter) sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(a.config.Secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature verifies an incoming webhook signature
func VerifySignature(payload []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

// LogSender is a Sender for local use: it records the delivery in the log
// and never fails.
type LogSender struct {
	Logger *zap.Logger
}

// SendProposal implements the workflow's Sender
func (s LogSender) SendProposal(ctx context.Context, proposalID, recipient string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger := s.Logger
	if logger == nil {
		logger = logging.Named(logging.ComponentWebhook)
	}
	logger.Info("proposal queued for delivery",
		logging.ProposalID(proposalID),
		zap.String("recipient", recipient))
	return nil
}
