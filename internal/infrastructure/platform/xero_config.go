package platform

import (
	"errors"
)

// XeroConfig holds configuration for the Xero accounting API
type XeroConfig struct {
	// ClientID is the OAuth application client ID from the Xero developer portal
	ClientID string
	// ClientSecret is the OAuth application client secret
	ClientSecret string
	// RedirectURI is the registered OAuth redirect URI
	RedirectURI string
	// APIBaseURL is the base URL for the accounting API
	APIBaseURL string
	// TokenURL is the OAuth token endpoint
	TokenURL string
	// ConnectionsURL is the endpoint listing the tenants a token can access
	ConnectionsURL string
	// PageSize is the page size the Invoices and Contacts endpoints return
	PageSize int
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

const (
	// XeroAPIBaseURL is the accounting API endpoint
	XeroAPIBaseURL = "https://api.xero.com/api.xro/2.0"
	// XeroTokenURL is the OAuth2 token endpoint
	XeroTokenURL = "https://identity.xero.com/connect/token"
	// XeroConnectionsURL lists the tenant connections authorized for a token
	XeroConnectionsURL = "https://api.xero.com/connections"
)

// Errors for Xero configuration
var (
	ErrXeroConfigMissingClientID     = errors.New("xero: client ID is required")
	ErrXeroConfigMissingClientSecret = errors.New("xero: client secret is required")
)

// NewXeroConfig creates a Xero configuration with defaults
func NewXeroConfig(clientID, clientSecret, redirectURI string) *XeroConfig {
	return &XeroConfig{
		ClientID:       clientID,
		ClientSecret:   clientSecret,
		RedirectURI:    redirectURI,
		APIBaseURL:     XeroAPIBaseURL,
		TokenURL:       XeroTokenURL,
		ConnectionsURL: XeroConnectionsURL,
		PageSize:       100,
		TimeoutSeconds: 30,
	}
}

// Validate validates the Xero configuration, filling defaults for optional fields
func (c *XeroConfig) Validate() error {
	if c.ClientID == "" {
		return ErrXeroConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrXeroConfigMissingClientSecret
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = XeroAPIBaseURL
	}
	if c.TokenURL == "" {
		c.TokenURL = XeroTokenURL
	}
	if c.ConnectionsURL == "" {
		c.ConnectionsURL = XeroConnectionsURL
	}
	if c.PageSize <= 0 {
		c.PageSize = 100
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
