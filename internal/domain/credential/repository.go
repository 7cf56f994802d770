package credential

import (
	"context"

	"github.com/booksync/backend/internal/domain/accounting"
)

// Repository is the persistence port for platform credentials.
type Repository interface {
	// GetActive returns the single active credential for the platform,
	// or ErrAuthMissing when the platform is not connected.
	GetActive(ctx context.Context, platform accounting.Platform) (*Credential, error)
	// SaveActive stores the credential as the platform's active one, replacing
	// any previous credential in the same transaction so the single-active
	// invariant holds at write time.
	SaveActive(ctx context.Context, cred *Credential) error
	// Update persists rotated tokens atomically; no reader may observe a
	// half-updated credential.
	Update(ctx context.Context, cred *Credential) error
	// Delete removes the platform's credential (logout)
	Delete(ctx context.Context, platform accounting.Platform) error
}

// TokenEndpoint is the port for a platform's OAuth token endpoint. It knows
// only how to exchange grants; the redirect flow itself lives outside the core.
type TokenEndpoint interface {
	// Platform returns the platform this endpoint serves
	Platform() accounting.Platform
	// ExchangeCode trades an authorization code (plus the opaque redirect
	// state handed over by the authorization callback) for tokens
	ExchangeCode(ctx context.Context, code, redirectState string) (*TokenPayload, error)
	// Refresh trades a refresh token for a fresh token pair. Refresh tokens
	// rotate on most platforms: a token may only be redeemed once.
	Refresh(ctx context.Context, refreshToken string) (*TokenPayload, error)
}
