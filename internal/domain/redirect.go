package domain

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// DefaultRedirectBaseURL is used when no redirect base is configured.
const DefaultRedirectBaseURL = "https://app.yourapp.com/r"

// Tracking query parameters added to every redirect.
const (
	ParamSessionID  = "sid"
	ParamMerchantID = "merchantId"
	ParamCampaignID = "campaignId"
)

// TokenSource produces a fresh correlation token on every call.
type TokenSource func() string

// RedirectBuilder composes outbound redirect URLs for resolved short links.
// It holds only immutable configuration and is safe for concurrent use.
type RedirectBuilder struct {
	baseURL  string
	newToken TokenSource
}

// RedirectOption customises a RedirectBuilder.
type RedirectOption func(*RedirectBuilder)

// WithTokenSource replaces the UUID generator used for the sid parameter.
func WithTokenSource(fn TokenSource) RedirectOption {
	return func(b *RedirectBuilder) {
		if fn != nil {
			b.newToken = fn
		}
	}
}

// NewRedirectBuilder creates a builder rooted at baseURL.
// An empty baseURL falls back to DefaultRedirectBaseURL.
func NewRedirectBuilder(baseURL string, opts ...RedirectOption) *RedirectBuilder {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultRedirectBaseURL
	}

	b := &RedirectBuilder{
		baseURL:  strings.TrimRight(baseURL, "/"),
		newToken: uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BaseURL returns the redirect base in use.
func (b *RedirectBuilder) BaseURL() string {
	return b.baseURL
}

// Build returns {base}/{slug} with sid, merchantId and campaignId set.
// Any parameter of the same name already present on the base is overwritten.
func (b *RedirectBuilder) Build(link ShortLink) (string, error) {
	base, err := url.Parse(b.baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse redirect base %q: %w", b.baseURL, err)
	}
	if !base.IsAbs() || base.Host == "" {
		return "", fmt.Errorf("redirect base %q is not absolute", b.baseURL)
	}

	u := base.JoinPath(link.Slug)

	q := u.Query()
	q.Set(ParamSessionID, b.newToken())
	q.Set(ParamMerchantID, link.MerchantID)
	q.Set(ParamCampaignID, link.CampaignID)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
