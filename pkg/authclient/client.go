package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(authServiceURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(authServiceURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// APIError is returned for every non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("auth service: %d %s", e.Status, e.Message)
}

type UserInfo struct {
	Login     string `json:"login"`
	LoginType string `json:"login_type"`
}

type LatencyInfo struct {
	AverageLatency float64 `json:"average_latency"`
	MinLatency     float64 `json:"min_latency"`
	MaxLatency     float64 `json:"max_latency"`
	Attempts       int     `json:"attempts"`
	Failures       int     `json:"failures"`
}

type credentials struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (c *Client) SignUp(ctx context.Context, id, password string) (string, error) {
	var res tokenResponse
	if err := c.do(ctx, http.MethodPost, "/signup", "", credentials{ID: id, Password: password}, &res); err != nil {
		return "", err
	}
	return res.Token, nil
}

func (c *Client) SignIn(ctx context.Context, id, password string) (string, error) {
	var res tokenResponse
	if err := c.do(ctx, http.MethodPost, "/signin", "", credentials{ID: id, Password: password}, &res); err != nil {
		return "", err
	}
	return res.Token, nil
}

func (c *Client) Info(ctx context.Context, token string) (*UserInfo, error) {
	var res UserInfo
	if err := c.do(ctx, http.MethodGet, "/info", token, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// LogOut revokes token, or every token of its owner when all is set.
func (c *Client) LogOut(ctx context.Context, token string, all bool) error {
	path := "/logout"
	if all {
		path += "?" + url.Values{"all": {"true"}}.Encode()
	}
	return c.do(ctx, http.MethodGet, path, token, nil, nil)
}

func (c *Client) Latency(ctx context.Context) (*LatencyInfo, error) {
	var res LatencyInfo
	if err := c.do(ctx, http.MethodGet, "/latency", "", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var e struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Error != "" {
			apiErr.Message = e.Error
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
