package credential

import (
	"time"

	"github.com/booksync/backend/internal/domain/accounting"
	"github.com/booksync/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Credential holds the OAuth tokens for one connected platform tenant.
// At most one active credential exists per platform; the repository enforces
// that invariant at write time.
type Credential struct {
	ID           uuid.UUID
	Platform     accounting.Platform
	TenantID     string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Scope        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TokenPayload is the result of a token-endpoint exchange (authorization code
// or refresh token grant).
type TokenPayload struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // seconds until the access token expires
	Scope        string
	TenantID     string // platform tenant identifier, when the grant carries one
}

// NewCredential builds a credential from a token payload
func NewCredential(platform accounting.Platform, payload *TokenPayload, now time.Time) (*Credential, error) {
	if !platform.IsValid() {
		return nil, shared.NewDomainError("INVALID_PLATFORM", "Credential platform is not valid")
	}
	if payload.AccessToken == "" || payload.RefreshToken == "" {
		return nil, shared.NewDomainError("INVALID_TOKEN", "Token payload is missing tokens")
	}
	return &Credential{
		ID:           uuid.New(),
		Platform:     platform,
		TenantID:     payload.TenantID,
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresAt:    now.Add(time.Duration(payload.ExpiresIn) * time.Second),
		Scope:        payload.Scope,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NeedsRefresh reports whether the access token is expired or expires within
// the given skew. The access token must never be used past ExpiresAt without a
// refresh attempt.
func (c *Credential) NeedsRefresh(now time.Time, skew time.Duration) bool {
	return !now.Before(c.ExpiresAt.Add(-skew))
}

// ApplyToken rotates the stored tokens in place after a successful refresh.
// Some platforms omit the refresh token on refresh responses; the previous one
// is kept in that case.
func (c *Credential) ApplyToken(payload *TokenPayload, now time.Time) {
	c.AccessToken = payload.AccessToken
	if payload.RefreshToken != "" {
		c.RefreshToken = payload.RefreshToken
	}
	if payload.Scope != "" {
		c.Scope = payload.Scope
	}
	c.ExpiresAt = now.Add(time.Duration(payload.ExpiresIn) * time.Second)
	c.UpdatedAt = now
}
