package fallback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/MrSnakeDoc/shortlink/internal/domain"
	"github.com/MrSnakeDoc/shortlink/internal/logger"
	"github.com/MrSnakeDoc/shortlink/internal/utils"
)

const (
	// DefaultTimeout bounds every fallback request, connection included.
	DefaultTimeout = 5000 * time.Millisecond

	// UserAgent identifies this service to the fallback API.
	UserAgent = "ShortLink-Service/1.0"

	maxBodyBytes  = 1 << 20
	maxDrainBytes = 64 << 10
)

var (
	// ErrUnexpectedStatus is returned when the fallback API answers outside 2xx.
	ErrUnexpectedStatus = errors.New("fallback api returned non-success status")
	// ErrInvalidRecord is returned in strict mode when the body fails validation.
	ErrInvalidRecord = errors.New("fallback api returned an invalid short link")
)

// Client fetches short links from the authoritative fallback API.
//
// A Client with an empty base URL is disabled: Fetch returns absent without
// touching the network.
type Client struct {
	baseURL  string
	http     *http.Client
	timeout  time.Duration
	strict   bool
	validate *validator.Validate
	logger   logger.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithStrictRecords makes Fetch validate decoded bodies and drop incomplete ones.
func WithStrictRecords(strict bool) Option {
	return func(c *Client) { c.strict = strict }
}

// withTimeout overrides DefaultTimeout. Tests only.
func withTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a fallback client rooted at baseURL.
func New(baseURL string, log logger.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:     &http.Client{},
		timeout:  DefaultTimeout,
		validate: validator.New(),
		logger:   log,
	}
	for _, opt := range opts {
		opt(c)
	}

	if !c.Enabled() {
		log.Warn("FALLBACK_API_URL not configured, fallback lookups disabled")
	}
	return c
}

// Enabled reports whether a base URL is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// BaseURL returns the configured base URL (empty when disabled).
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Fetch retrieves the short link for id from {base}/{id}.
// Every failure is logged and reported as an absent lookup.
func (c *Client) Fetch(ctx context.Context, id string) domain.Lookup {
	if !c.Enabled() {
		c.logger.Debug("fallback disabled, skipping lookup",
			logger.String("key", id))
		return domain.Absent(nil)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + "/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		err = fmt.Errorf("failed to create fallback request: %w", err)
		c.logger.Error("fallback api fetch error",
			logger.String("key", id),
			logger.Error(err))
		return domain.Absent(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		err = fmt.Errorf("failed to reach fallback api: %w", err)
		c.logger.Error("fallback api fetch error",
			logger.String("key", id),
			logger.Duration("elapsed", time.Since(start)),
			logger.Error(err))
		return domain.Absent(err)
	}
	defer utils.DrainClose(resp.Body, maxDrainBytes)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("fallback api returned non-success status",
			logger.String("key", id),
			logger.Int("status", resp.StatusCode))
		return domain.Absent(fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		err = fmt.Errorf("failed to read fallback response: %w", err)
		c.logger.Error("fallback api fetch error",
			logger.String("key", id),
			logger.Error(err))
		return domain.Absent(err)
	}

	// A JSON null body means "no such link": absent, never cached.
	if bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		c.logger.Debug("fallback api returned null",
			logger.String("key", id))
		return domain.Absent(nil)
	}

	var link domain.ShortLink
	if err := json.Unmarshal(body, &link); err != nil {
		err = fmt.Errorf("failed to decode fallback response: %w", err)
		c.logger.Error("fallback api fetch error",
			logger.String("key", id),
			logger.Error(err))
		return domain.Absent(err)
	}

	if c.strict {
		if err := c.validate.Struct(link); err != nil {
			c.logger.Warn("fallback api returned incomplete short link",
				logger.String("key", id),
				logger.Error(err))
			return domain.Absent(fmt.Errorf("%w: %w", ErrInvalidRecord, err))
		}
	} else if !link.Status.Valid() {
		c.logger.Warn("fallback api returned unknown status, link will be treated as inactive",
			logger.String("key", id),
			logger.String("status", string(link.Status)))
	}

	c.logger.Debug("fallback api hit",
		logger.String("key", id),
		logger.Duration("elapsed", time.Since(start)))
	return domain.Found(link)
}
