package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/apotekcloud/pos-terminal/pkg/config"
	"github.com/apotekcloud/pos-terminal/pkg/logger"
)

const (
	submitPath           = "/v1/transactions"
	idempotencyKeyHeader = "Idempotency-Key"
	maxErrorBodyBytes    = 4 << 10
)

var errLoggerRequired = errors.New("cloud logger is required")

// TokenProvider supplies the per-request bearer token. Credential refresh is
// an external concern; the terminal only attaches what it is given.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// EnvTokenProvider reads the token from a fixed environment variable.
type EnvTokenProvider struct {
	Key string
}

// Token implements TokenProvider.
func (p EnvTokenProvider) Token(ctx context.Context) (string, error) {
	token := strings.TrimSpace(os.Getenv(p.Key))
	if token == "" {
		return "", fmt.Errorf("cloud token env %s is empty", p.Key)
	}
	return token, nil
}

// RejectionError reports that the authority received the submission and
// refused it. Rejections are not transport failures: resubmitting the same
// payload will fail again.
type RejectionError struct {
	StatusCode int
	Body       string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("cloud rejected submission: status %d: %s", e.StatusCode, e.Body)
}

// IsRejection reports whether err is a remote rejection rather than a
// transport failure.
func IsRejection(err error) bool {
	var rejection *RejectionError
	return errors.As(err, &rejection)
}

// Client submits finalized transactions to the cloud authority's idempotent
// endpoint. The Idempotency-Key header carries the record's unique key so a
// resubmission caused by a retry has exactly-once effect remotely.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	tokens     TokenProvider
	logger     *logger.Logger
}

// NewClient validates the configuration and builds the authority client.
func NewClient(cfg config.CloudConfig, tokens TokenProvider, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("cloud base URL is required")
	}
	if tokens == nil {
		tokens = EnvTokenProvider{Key: cfg.AuthTokenEnv}
	}
	timeout := cfg.SubmitTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		httpClient: &http.Client{},
		baseURL:    baseURL,
		timeout:    timeout,
		tokens:     tokens,
		logger:     logg,
	}, nil
}

// Submit posts one transaction payload under its idempotency key. A nil
// return means the authority accepted (or had already accepted) the record.
// Rejections come back as *RejectionError; anything else is a transport
// failure the caller may retry.
func (c *Client) Submit(ctx context.Context, idempotencyKey string, payload json.RawMessage) error {
	if strings.TrimSpace(idempotencyKey) == "" {
		return errors.New("idempotency key is required")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("resolving cloud token: %w", err)
	}

	submitCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(submitCtx, http.MethodPost, c.baseURL+submitPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building submission request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(idempotencyKeyHeader, idempotencyKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("submitting transaction: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusConflict:
		// The authority already holds this key: an earlier attempt landed.
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &RejectionError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	default:
		return fmt.Errorf("cloud submission failed with status %d", resp.StatusCode)
	}
}
