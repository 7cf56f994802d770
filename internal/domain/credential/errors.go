package credential

import "errors"

var (
	// ErrAuthMissing indicates no credential is stored for the platform;
	// the operator must connect the platform before syncing.
	ErrAuthMissing = errors.New("credential: no credential stored for platform")
	// ErrAuthExpired indicates the refresh-token exchange failed and a full
	// re-authorization through the external redirect flow is required.
	ErrAuthExpired = errors.New("credential: token refresh failed, re-authorization required")
	// ErrAuthExchangeFailed indicates the authorization-code exchange failed.
	ErrAuthExchangeFailed = errors.New("credential: authorization code exchange failed")
)
