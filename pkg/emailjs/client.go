// Package emailjs reads the contact count from the EmailJS REST API.
package emailjs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akeren/waitlist-api/pkg/circuitbreaker"
	apperrors "github.com/akeren/waitlist-api/pkg/errors"
	"github.com/go-resty/resty/v2"
)

const (
	DefaultContactsURL = "https://api.emailjs.com/api/v1.1/contacts"
	DefaultTimeout     = 10 * time.Second

	maxResponseBytes = 1 << 20
)

var ErrNotConfigured = errors.New("emailjs credentials are not configured")

type Config struct {
	APIKey      string
	AccountID   string
	ContactsURL string
	Timeout     time.Duration
	Breaker     *circuitbreaker.Config
}

func (c Config) IsConfigured() bool {
	return strings.TrimSpace(c.APIKey) != "" && strings.TrimSpace(c.AccountID) != ""
}

type Client struct {
	config  Config
	cli     *resty.Client
	breaker circuitbreaker.CircuitBreaker
}

// NewClient builds a client even without credentials; ContactCount then fails with
// ErrNotConfigured so callers have a single failure path to degrade on.
func NewClient(config Config, cli *resty.Client) *Client {
	if config.ContactsURL == "" {
		config.ContactsURL = DefaultContactsURL
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if cli == nil {
		cli = resty.New()
	}
	cli.SetTimeout(config.Timeout)
	cli.SetResponseBodyLimit(maxResponseBytes)
	cli.SetHeader("Accept", "application/json")

	return &Client{
		config:  config,
		cli:     cli,
		breaker: circuitbreaker.NewCircuitBreaker(config.Breaker),
	}
}

type contactCountResponse struct {
	Total *int64 `json:"total"`
	Count *int64 `json:"count"`
}

// ContactCount returns the number of contacts stored for the account. Every failure
// is an ExternalServiceError.
func (c *Client) ContactCount(ctx context.Context) (int64, error) {
	if !c.config.IsConfigured() {
		return 0, apperrors.NewExternalServiceError("contact service is not configured", ErrNotConfigured)
	}

	var count int64
	err := c.breaker.Call(ctx, func(ctx context.Context) error {
		var callErr error
		count, callErr = c.fetch(ctx)
		return callErr
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
			return 0, apperrors.NewExternalServiceError("contact service circuit is open", err)
		}
		return 0, apperrors.NewExternalServiceError("contact service request failed", err)
	}

	return count, nil
}

func (c *Client) BreakerState() circuitbreaker.CircuitState {
	return c.breaker.State()
}

func (c *Client) fetch(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var payload contactCountResponse
	resp, err := c.cli.R().
		SetContext(ctx).
		SetAuthToken(c.config.APIKey).
		SetQueryParam("account_id", c.config.AccountID).
		SetQueryParam("count_only", "true").
		ForceContentType("application/json").
		SetResult(&payload).
		Get(c.config.ContactsURL)
	if err != nil {
		return 0, fmt.Errorf("call contacts endpoint: %w", err)
	}

	if !resp.IsSuccess() {
		return 0, fmt.Errorf("contacts endpoint returned status %d", resp.StatusCode())
	}

	switch {
	case payload.Total != nil:
		return *payload.Total, nil
	case payload.Count != nil:
		return *payload.Count, nil
	default:
		return 0, errors.New("response carries neither total nor count")
	}
}
