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

// XeroTokenEndpoint implements the OAuth token endpoint for Xero. Unlike
// QuickBooks, the authorization callback carries no tenant identifier: after a
// code exchange the connections endpoint resolves which tenant the fresh token
// may act on.
type XeroTokenEndpoint struct {
	config     *XeroConfig
	httpClient *http.Client
}

// NewXeroTokenEndpoint creates a token endpoint client for Xero
func NewXeroTokenEndpoint(config *XeroConfig) (*XeroTokenEndpoint, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &XeroTokenEndpoint{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// Platform returns the platform this endpoint serves
func (e *XeroTokenEndpoint) Platform() accounting.Platform {
	return accounting.PlatformXero
}

// ExchangeCode trades an authorization code for tokens and resolves the tenant
// through the connections endpoint. redirectState is unused for Xero.
func (e *XeroTokenEndpoint) ExchangeCode(ctx context.Context, code, redirectState string) (*credential.TokenPayload, error) {
	form := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {e.config.RedirectURI},
	}
	payload, err := e.exchange(ctx, form, credential.ErrAuthExchangeFailed)
	if err != nil {
		return nil, err
	}

	tenantID, err := e.resolveTenant(ctx, payload.AccessToken)
	if err != nil {
		return nil, err
	}
	payload.TenantID = tenantID
	return payload, nil
}

// Refresh trades a refresh token for a fresh token pair. Xero rotates the
// refresh token on every exchange; the old one is dead once redeemed.
func (e *XeroTokenEndpoint) Refresh(ctx context.Context, refreshToken string) (*credential.TokenPayload, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	return e.exchange(ctx, form, credential.ErrAuthExpired)
}

func (e *XeroTokenEndpoint) exchange(ctx context.Context, form url.Values, sentinel error) (*credential.TokenPayload, error) {
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

	var token xeroTokenResponse
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
		Scope:        token.Scope,
	}, nil
}

// resolveTenant returns the tenant ID of the first organisation connection
// authorized for the token
func (e *XeroTokenEndpoint) resolveTenant(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.config.ConnectionsURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", credential.ErrAuthExchangeFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", credential.ErrAuthExchangeFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("%w: %v", credential.ErrAuthExchangeFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: connections endpoint returned HTTP %d", credential.ErrAuthExchangeFailed, resp.StatusCode)
	}

	var connections []xeroConnection
	if err := json.Unmarshal(body, &connections); err != nil {
		return "", fmt.Errorf("%w: malformed connections response: %v", credential.ErrAuthExchangeFailed, err)
	}
	if len(connections) == 0 {
		return "", fmt.Errorf("%w: authorization granted no tenant connections", credential.ErrAuthExchangeFailed)
	}
	return connections[0].TenantID, nil
}

// Ensure XeroTokenEndpoint implements credential.TokenEndpoint
var _ credential.TokenEndpoint = (*XeroTokenEndpoint)(nil)
