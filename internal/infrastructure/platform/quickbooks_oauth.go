package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/booksync/backend/internal/domain/accounting"
	"github.com/booksync/backend/internal/domain/credential"
)

// QuickBooksTokenEndpoint implements the OAuth token endpoint for QuickBooks
// Online. The authorization callback hands over the realm ID as the redirect
// state; it becomes the credential's tenant ID and later the company segment
// of every API path.
type QuickBooksTokenEndpoint struct {
	config     *QuickBooksConfig
	httpClient *http.Client
}

// NewQuickBooksTokenEndpoint creates a token endpoint client for QuickBooks
func NewQuickBooksTokenEndpoint(config *QuickBooksConfig) (*QuickBooksTokenEndpoint, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &QuickBooksTokenEndpoint{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// Platform returns the platform this endpoint serves
func (e *QuickBooksTokenEndpoint) Platform() accounting.Platform {
	return accounting.PlatformQuickBooks
}

// ExchangeCode trades an authorization code for tokens. redirectState carries
// the realmId query parameter from the authorization callback.
func (e *QuickBooksTokenEndpoint) ExchangeCode(ctx context.Context, code, redirectState string) (*credential.TokenPayload, error) {
	form := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {e.config.RedirectURI},
	}
	payload, err := e.exchange(ctx, form, credential.ErrAuthExchangeFailed)
	if err != nil {
		return nil, err
	}
	payload.TenantID = redirectState
	return payload, nil
}

// Refresh trades a refresh token for a fresh token pair. QuickBooks rotates
// the refresh token on every exchange.
func (e *QuickBooksTokenEndpoint) Refresh(ctx context.Context, refreshToken string) (*credential.TokenPayload, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	return e.exchange(ctx, form, credential.ErrAuthExpired)
}

// exchange posts a form-encoded grant to the token endpoint under client
// Basic auth, mapping any failure onto the given sentinel.
func (e *QuickBooksTokenEndpoint) exchange(ctx context.Context, form url.Values, sentinel error) (*credential.TokenPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sentinel, err)
	}
	req.SetBasicAuth(e.config.ClientID, e.config.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sentinel, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sentinel, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: token endpoint returned HTTP %d", sentinel, resp.StatusCode)
	}

	var token qbTokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("%w: malformed token response: %v", sentinel, err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response missing access token", sentinel)
	}
	return &credential.TokenPayload{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    token.ExpiresIn,
	}, nil
}

// Ensure QuickBooksTokenEndpoint implements credential.TokenEndpoint
var _ credential.TokenEndpoint = (*QuickBooksTokenEndpoint)(nil)
