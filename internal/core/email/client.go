package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

// apiClient is the JSON-over-HTTPS transport shared by the providers
type apiClient struct {
	provider string
	baseURL  string
	auth     func(h http.Header)
	http     *http.Client
	retry    retrypolicy.RetryPolicy[any]
}

func newAPIClient(provider, baseURL string, auth func(h http.Header)) apiClient {
	return apiClient{
		provider: provider,
		baseURL:  baseURL,
		auth:     auth,
		http:     &http.Client{Timeout: 15 * time.Second},
		retry:    newRetryPolicy(3, 200*time.Millisecond),
	}
}

// post sends body to path, retrying transient failures. Any 2xx is success.
func (c *apiClient) post(ctx context.Context, path string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", c.provider, err)
	}

	return sendWithRetry(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
		if err != nil {
			return fmt.Errorf("%s: build request: %w", c.provider, err)
		}
		req.Header.Set("Content-Type", "application/json")
		c.auth(req.Header)

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%s: %w", c.provider, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return &apiError{Provider: c.provider, Status: resp.StatusCode, Body: string(msg)}
		}
		return nil
	})
}
