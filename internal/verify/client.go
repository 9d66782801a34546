package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/giftkart/giftkart/internal/config"
)

// ErrUnavailable indicates the verification provider could not be reached
// after all retry attempts.
var ErrUnavailable = errors.New("verification provider unavailable")

const maxAttempts = 3

// Result is the provider's verdict for a single document check.
type Result struct {
	Valid   bool   `json:"valid"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message,omitempty"`
}

// Client calls the identity/bank verification provider. Requests carry the
// shared-secret headers and are retried with exponential backoff doubling
// from the configured base delay.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	backoffBase  time.Duration
	httpc        *http.Client
	logger       *slog.Logger
}

// NewClient builds a verification client from configuration.
func NewClient(cfg config.VerifyConfig, logger *slog.Logger) *Client {
	backoff := cfg.BackoffBase
	if backoff <= 0 {
		backoff = time.Second
	}
	return &Client{
		baseURL:      cfg.BaseURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		backoffBase:  backoff,
		httpc:        &http.Client{Timeout: cfg.Timeout},
		logger:       logger,
	}
}

// VerifyPAN checks a PAN number against the provider.
func (c *Client) VerifyPAN(ctx context.Context, pan string) (Result, error) {
	return c.post(ctx, "/v1/verify/pan", map[string]string{"pan": pan})
}

// VerifyBank checks that the bank account exists and resolves the holder name.
func (c *Client) VerifyBank(ctx context.Context, accountNumber, ifsc string) (Result, error) {
	return c.post(ctx, "/v1/verify/bank", map[string]string{
		"account_number": accountNumber,
		"ifsc":           ifsc,
	})
}

// VerifyGSTIN checks a GST registration number against the provider.
func (c *Client) VerifyGSTIN(ctx context.Context, gstin string) (Result, error) {
	return c.post(ctx, "/v1/verify/gstin", map[string]string{"gstin": gstin})
}

func (c *Client) post(ctx context.Context, path string, payload map[string]string) (Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, err
	}

	delay := c.backoffBase
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		result, retryable, err := c.doOnce(ctx, path, body)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable {
			return Result{}, err
		}
		c.logger.Warn("verification attempt failed",
			slog.String("path", path), slog.Int("attempt", attempt), slog.Any("error", err))
	}
	return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func (c *Client) doOnce(ctx context.Context, path string, body []byte) (Result, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return Result{}, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Client-Id", c.clientID)
	req.Header.Set("X-Client-Secret", c.clientSecret)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Result{}, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return Result{}, true, fmt.Errorf("provider returned %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, false, fmt.Errorf("provider returned %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, false, fmt.Errorf("decode provider response: %w", err)
	}
	return result, false, nil
}
