// Package classifier talks to the remote skin severity classification service.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	httputil "github.com/mccedddy/EczApp/pkg/infrastructure/http"
)

var (
	// ErrConnectivity wraps transport failures where no response arrived.
	ErrConnectivity = errors.New("classification service unreachable")
	// ErrMalformedResponse means a 2xx body was not a JSON object.
	ErrMalformedResponse = errors.New("malformed classification response")
)

// Result is whatever JSON object the service returns. It is never interpreted here.
type Result map[string]interface{}

type predictRequest struct {
	Base64Image string `json:"base64Image"`
}

// Client is an API client for the predictImage endpoint
type Client struct {
	endpoint string
	client   *http.Client
}

// NewClient creates a client for endpoint. A nil httpClient uses http.DefaultClient,
// so only transport-level timeouts apply.
func NewClient(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		endpoint: endpoint,
		client:   httpClient,
	}
}

// Predict sends one POST with the encoded image. There are no retries.
// Non-2xx responses come back as *httputil.HTTPError.
func (c *Client) Predict(ctx context.Context, base64Image, bearerToken string) (Result, error) {
	jsonData, err := json.Marshal(predictRequest{Base64Image: base64Image})
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearerToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	defer resp.Body.Close()

	if err := httputil.ParseErrorResponse(resp); err != nil {
		return nil, err
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if result == nil {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	return result, nil
}
