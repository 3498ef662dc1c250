package mobimatter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the MobiMatter partner API base URL.
const DefaultBaseURL = "https://api.mobimatter.com/mobimatter/api"

// Config configures a Client.
type Config struct {
	BaseURL    string
	APIKey     string
	MerchantID string
	Timeout    time.Duration
}

// Client is a minimal HTTP client for the MobiMatter wholesale API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	merchantID string
	debug      bool
}

// NewClient constructs a new MobiMatter client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		merchantID: cfg.MerchantID,
		debug:      os.Getenv("ENV") == "development",
	}
}

// GetProducts fetches the full product list. The raw response body is
// returned alongside the decoded products so callers can archive it.
func (c *Client) GetProducts(ctx context.Context) ([]Product, []byte, error) {
	body, err := c.doGet(ctx, "/v2/products")
	if err != nil {
		return nil, nil, err
	}
	products, err := decodeProducts(body)
	if err != nil {
		return nil, body, err
	}
	return products, body, nil
}

// decodeProducts accepts either a bare JSON array or a {"result": [...]} wrapper.
func decodeProducts(body []byte) ([]Product, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []Product
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return list, nil
	}
	var wrapper ProductsResponse
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return wrapper.Result, nil
}

func (c *Client) doGet(ctx context.Context, endpoint string) ([]byte, error) {
	if c.debug {
		log.Debug().Str("endpoint", c.baseURL+endpoint).Msg("[MOBIMATTER] Outgoing request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("merchantId", c.merchantID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if c.debug {
		log.Debug().
			Str("endpoint", endpoint).
			Int("status_code", resp.StatusCode).
			Int("bytes", len(respBody)).
			Msg("[MOBIMATTER] Incoming response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(respBody), 512)}
	}
	return respBody, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
