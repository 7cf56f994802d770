package platform

import (
	"errors"
)

// QuickBooksConfig holds configuration for the QuickBooks Online API
type QuickBooksConfig struct {
	// ClientID is the OAuth application client ID from the Intuit developer portal
	ClientID string
	// ClientSecret is the OAuth application client secret
	ClientSecret string
	// RedirectURI is the registered OAuth redirect URI
	RedirectURI string
	// APIBaseURL is the base URL for the accounting API (production or sandbox)
	APIBaseURL string
	// TokenURL is the OAuth token endpoint
	TokenURL string
	// PageSize is the MAXRESULTS value used when paging query results
	PageSize int
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

const (
	// QuickBooksProductionAPIURL is the production accounting API endpoint
	QuickBooksProductionAPIURL = "https://quickbooks.api.intuit.com"
	// QuickBooksSandboxAPIURL is the sandbox accounting API endpoint
	QuickBooksSandboxAPIURL = "https://sandbox-quickbooks.api.intuit.com"
	// QuickBooksTokenURL is the OAuth2 token endpoint
	QuickBooksTokenURL = "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer"
)

// Errors for QuickBooks configuration
var (
	ErrQuickBooksConfigMissingClientID     = errors.New("quickbooks: client ID is required")
	ErrQuickBooksConfigMissingClientSecret = errors.New("quickbooks: client secret is required")
)

// NewQuickBooksConfig creates a QuickBooks configuration with defaults
func NewQuickBooksConfig(clientID, clientSecret, redirectURI string) *QuickBooksConfig {
	return &QuickBooksConfig{
		ClientID:       clientID,
		ClientSecret:   clientSecret,
		RedirectURI:    redirectURI,
		APIBaseURL:     QuickBooksProductionAPIURL,
		TokenURL:       QuickBooksTokenURL,
		PageSize:       100,
		TimeoutSeconds: 30,
	}
}

// Validate validates the QuickBooks configuration, filling defaults for
// optional fields
func (c *QuickBooksConfig) Validate() error {
	if c.ClientID == "" {
		return ErrQuickBooksConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrQuickBooksConfigMissingClientSecret
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = QuickBooksProductionAPIURL
	}
	if c.TokenURL == "" {
		c.TokenURL = QuickBooksTokenURL
	}
	if c.PageSize <= 0 {
		c.PageSize = 100
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
