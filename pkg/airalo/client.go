package airalo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the Airalo partner API base URL.
const DefaultBaseURL = "https://partners-api.airalo.com"

const (
	pageSize = 100
	maxPages = 200
)

// Config configures a Client.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Client talks to the Airalo partner API using client-credentials OAuth.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	clientID     string
	clientSecret string
	debug        bool

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient constructs a new Airalo client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		debug:        os.Getenv("ENV") == "development",
	}
}

// GetPackages walks every page of the package list and returns the flattened
// packages plus the raw pages encoded as one JSON array.
func (c *Client) GetPackages(ctx context.Context) ([]FlatPackage, []byte, error) {
	var (
		all []Country
		raw []json.RawMessage
	)
	for page := 1; page <= maxPages; page++ {
		body, err := c.getPage(ctx, page)
		if err != nil {
			return nil, nil, err
		}
		var resp PackagesResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, nil, fmt.Errorf("failed to decode response: %w", err)
		}
		all = append(all, resp.Data...)
		raw = append(raw, body)
		if resp.Meta.LastPage <= page {
			break
		}
	}
	rawJSON, err := json.Marshal(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode raw pages: %w", err)
	}
	return Flatten(all), rawJSON, nil
}

func (c *Client) getPage(ctx context.Context, page int) ([]byte, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(pageSize))
	q.Set("page", strconv.Itoa(page))
	endpoint := c.baseURL + "/v2/packages?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	body, status, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		c.resetToken()
	}
	if status < 200 || status > 299 {
		return nil, &StatusError{StatusCode: status, Body: truncate(string(body), 512)}
	}
	return body, nil
}

// accessToken returns a cached token or requests a new one.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	body, status, err := c.do(req)
	if err != nil {
		return "", err
	}
	if status < 200 || status > 299 {
		return "", &StatusError{StatusCode: status, Body: truncate(string(body), 512)}
	}

	var tr TokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.Data.AccessToken == "" {
		return "", &StatusError{StatusCode: http.StatusUnauthorized, Body: "empty access token"}
	}

	ttl := time.Duration(tr.Data.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	c.token = tr.Data.AccessToken
	// Refresh a minute before the upstream expiry.
	c.tokenExpiry = time.Now().Add(ttl - time.Minute)
	return c.token, nil
}

func (c *Client) resetToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	if c.debug {
		log.Debug().Str("method", req.Method).Str("endpoint", req.URL.Path).Msg("[AIRALO] Outgoing request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}
	if c.debug {
		log.Debug().
			Str("endpoint", req.URL.Path).
			Int("status_code", resp.StatusCode).
			Int("bytes", len(body)).
			Msg("[AIRALO] Incoming response")
	}
	return body, resp.StatusCode, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
