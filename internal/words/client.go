package words

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Client asks a remote conversion service for the words. The service answers
// GET {base}/words?amount=123.450 with {"words": "..."}.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for baseURL with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type wordsResponse struct {
	Words string `json:"words"`
}

// Words implements Converter. Every failure is reported as ErrUnavailable.
func (c *Client) Words(ctx context.Context, amount decimal.Decimal) (string, error) {
	endpoint := c.baseURL + "/words?" + url.Values{"amount": {amount.StringFixed(3)}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: service returned %d", ErrUnavailable, resp.StatusCode)
	}
	var body wordsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if strings.TrimSpace(body.Words) == "" {
		return "", fmt.Errorf("%w: empty response", ErrUnavailable)
	}
	return body.Words, nil
}
