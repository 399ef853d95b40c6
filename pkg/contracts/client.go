// Package contracts is the HTTP client for the backend contracts API, the
// system of record for user subscriptions and their auto-renewal settings.
// The portal never persists subscription data itself; it reads snapshots
// through this client and writes auto-renewal preferences back.
package contracts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/renewkit/renewkit/pkg/subs"
)

// Config holds the connection settings for the contracts API.
type Config struct {
	BaseURL string        `env:"CONTRACTS_API_URL,required"`
	Timeout time.Duration `env:"CONTRACTS_API_TIMEOUT" envDefault:"10s"`
}

// AutoRenewalResult is the response of the auto-renewal mutation. The API
// reports business failures in-band: the HTTP exchange succeeds and Errors
// carries the message. Callers must check Errors even on a nil error.
type AutoRenewalResult struct {
	Errors string `json:"errors,omitempty"`
}

// Client talks to the contracts API on behalf of one authenticated user.
// The zero value is not usable; construct it with NewClient.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client, mainly for tests and
// for injecting authentication transports.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a contracts API client from config.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Join(ErrInvalidBaseURL, err)
	}

	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetUserSubscriptions fetches the raw subscription records of the current
// user.
func (c *Client) GetUserSubscriptions(ctx context.Context) ([]subs.UserSubscription, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/v1/user-subscriptions"), nil)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Join(ErrUnexpectedStatus,
			fmt.Errorf("GET user-subscriptions: %s", resp.Status))
	}

	var records []subs.UserSubscription
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, errors.Join(ErrInvalidResponse, err)
	}
	return records, nil
}

// SetAutoRenewal persists the desired auto-renewal flags. The keys are
// consolidated billing subscription ids as rendered by the renewal form; the
// backend resolves them to the underlying contracts. A non-empty
// Errors field on the result is a business failure despite the nil error.
func (c *Client) SetAutoRenewal(ctx context.Context, settings map[string]bool) (AutoRenewalResult, error) {
	body, err := json.Marshal(settings)
	if err != nil {
		return AutoRenewalResult{}, errors.Join(ErrRequestFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint("/v1/user-subscriptions/auto-renewal"), bytes.NewReader(body))
	if err != nil {
		return AutoRenewalResult{}, errors.Join(ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return AutoRenewalResult{}, errors.Join(ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return AutoRenewalResult{}, errors.Join(ErrUnexpectedStatus,
			fmt.Errorf("POST auto-renewal: %s", resp.Status))
	}

	var result AutoRenewalResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return AutoRenewalResult{}, errors.Join(ErrInvalidResponse, err)
	}
	return result, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.JoinPath(path).String()
}
