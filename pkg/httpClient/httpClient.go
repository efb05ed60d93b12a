// Package httpClient builds the retrying HTTP clients used to talk to the relay services
// and exchanges JSON documents over them.
package httpClient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Layr-Labs/multisig-go/pkg/logger"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

var (
	// ErrUnexpectedStatus is returned when the remote answers with a non 2xx status
	ErrUnexpectedStatus = errors.New("unexpected response status")
)

// Config holds the transport settings of a client.
type Config struct {
	// Timeout bounds a single attempt
	Timeout time.Duration
	// RetryMax is the number of retries after the first attempt; 0 disables retries
	RetryMax int
	// Component names the client in log lines
	Component string
}

// NewClient creates a retryablehttp client logging through l.
func NewClient(cfg *Config, l *zap.Logger) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.HTTPClient.Timeout = cfg.Timeout
	client.RetryMax = cfg.RetryMax
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.Logger = logger.NewLeveledLogger(l, cfg.Component)
	// surface the last response instead of a generic "giving up" error
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return client
}

// PostJSON posts body as JSON to url and decodes a JSON answer into T.
// An empty response body leaves T at its zero value.
func PostJSON[T any](ctx context.Context, client *retryablehttp.Client, url string, body any) (T, error) {
	var out T

	payload, err := json.Marshal(body)
	if err != nil {
		return out, fmt.Errorf("failed to marshal request json: %w", err)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return out, fmt.Errorf("failed to build http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return out, fmt.Errorf("failed to make http call: %w", err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return out, fmt.Errorf("failed to read response body: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return out, fmt.Errorf("%w: status_code: %d, res_body: %s", ErrUnexpectedStatus, res.StatusCode, string(resBody))
	}
	if len(bytes.TrimSpace(resBody)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(resBody, &out); err != nil {
		return out, fmt.Errorf("failed to unmarshal response json: %w", err)
	}
	return out, nil
}
