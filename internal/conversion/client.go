package conversion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/grovegear/storefront/internal/config"
	"github.com/grovegear/storefront/internal/errs"
	"github.com/sirupsen/logrus"
)

// Client forwards shaped payloads to the conversions API. Construction fails
// fast on missing endpoint or access token; no network call is ever made
// with incomplete configuration.
type Client struct {
	endpoint    string
	accessToken string
	httpClient  *http.Client
	logger      *logrus.Logger
}

func NewClient(cfg config.Conversion, logger *logrus.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		endpoint:    cfg.Endpoint,
		accessToken: cfg.AccessToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

// Send posts the payload and returns the provider's parsed response body.
// A transport failure, a non-2xx status, or a 2xx body carrying a non-zero
// provider error code all surface as ProviderError. No retry happens here;
// the provider deduplicates on event_id if the caller retries.
func (c *Client) Send(ctx context.Context, payload map[string]interface{}) (map[string]interface{}, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Access-Token", c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &errs.ProviderError{Message: "conversions API unreachable", Err: err}
	}
	defer resp.Body.Close()

	var body map[string]interface{}
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := fmt.Sprintf("conversions API returned status %d", resp.StatusCode)
		if m, ok := body["message"].(string); ok && m != "" {
			message = m
		}
		return nil, &errs.ProviderError{Code: providerCode(body), Message: message}
	}

	if decodeErr != nil {
		return nil, &errs.ProviderError{Message: "unreadable provider response", Err: decodeErr}
	}

	if code := providerCode(body); code != 0 {
		message, _ := body["message"].(string)
		return nil, &errs.ProviderError{Code: code, Message: message}
	}

	c.logger.WithFields(logrus.Fields{
		"event":    payload["event"],
		"event_id": payload["event_id"],
	}).Info("Conversion event delivered")

	return body, nil
}

// providerCode reads the provider's own error code field; zero means ok.
func providerCode(body map[string]interface{}) int64 {
	if code, ok := body["code"].(float64); ok {
		return int64(code)
	}
	return 0
}
