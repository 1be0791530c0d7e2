// Package http provides the HTTP client for the payments collaborator.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	otim "github.com/otimlabs/otim-go"
)

// PaymentsClient communicates with the payments API over HTTP.
// Implements otim.PaymentsAPI.
type PaymentsClient struct {
	url        string
	httpClient *http.Client
	apiKey     string
}

// PaymentsConfig configures the payments client
type PaymentsConfig struct {
	// URL is the base URL of the payments API
	URL string

	// APIKey is sent on every request
	APIKey string

	// HTTPClient is the HTTP client to use (optional)
	HTTPClient *http.Client

	// Timeout for requests (optional, defaults to 30s)
	Timeout time.Duration
}

// NewPaymentsClient creates a new payments API client
func NewPaymentsClient(config *PaymentsConfig) *PaymentsClient {
	if config == nil {
		config = &PaymentsConfig{}
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{
			Timeout: timeout,
		}
	}

	return &PaymentsClient{
		url:        config.URL,
		httpClient: httpClient,
		apiKey:     config.APIKey,
	}
}

// CurrentGasFees fetches the current fee estimates for a chain
func (c *PaymentsClient) CurrentGasFees(ctx context.Context, chainID uint64) (otim.GasFees, error) {
	body, err := c.get(ctx, fmt.Sprintf("/v1/chains/%d/fees", chainID))
	if err != nil {
		return otim.GasFees{}, err
	}

	var fees otim.GasFees
	if err := json.Unmarshal(body, &fees); err != nil {
		return otim.GasFees{}, fmt.Errorf("failed to decode gas fees response: %w", err)
	}
	return fees, nil
}

// BuildPayment builds an unsigned payment request for the given sweep
// parameters. The response is schema-validated before decoding.
func (c *PaymentsClient) BuildPayment(ctx context.Context, params otim.BuildPaymentParams) (*otim.PaymentRequest, error) {
	body, err := c.post(ctx, "/v1/payments/build", params)
	if err != nil {
		return nil, err
	}

	if err := ValidatePaymentRequest(body); err != nil {
		return nil, fmt.Errorf("invalid payment request from payments API: %w", err)
	}

	var request otim.PaymentRequest
	if err := json.Unmarshal(body, &request); err != nil {
		return nil, fmt.Errorf("failed to decode payment request: %w", err)
	}
	return &request, nil
}

// DelegateAddress resolves the delegate contract address for a chain
func (c *PaymentsClient) DelegateAddress(ctx context.Context, chainID uint64) (string, error) {
	body, err := c.get(ctx, fmt.Sprintf("/v1/chains/%d/delegate", chainID))
	if err != nil {
		return "", err
	}

	var response struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to decode delegate response: %w", err)
	}
	if response.Address == "" {
		return "", fmt.Errorf("payments API returned no delegate address")
	}
	return response.Address, nil
}

// SubmitPayment submits the signed payment request
func (c *PaymentsClient) SubmitPayment(ctx context.Context, submission otim.SubmitPaymentRequest) (*otim.SubmitPaymentResponse, error) {
	body, err := c.post(ctx, "/v1/payments/submit", submission)
	if err != nil {
		return nil, err
	}

	var response otim.SubmitPaymentResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to decode submit response: %w", err)
	}
	return &response, nil
}

func (c *PaymentsClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.url+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req)
}

func (c *PaymentsClient) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Idempotency-Key", uuid.NewString())
	return c.do(req)
}

func (c *PaymentsClient) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payments API request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("payments API %s failed (%d): %s", req.URL.Path, resp.StatusCode, string(responseBody))
	}

	return responseBody, nil
}
