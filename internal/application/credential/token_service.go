package credential

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/booksync/backend/internal/domain/accounting"
	"github.com/booksync/backend/internal/domain/credential"
	"go.uber.org/zap"
)

// RefreshSkew is how long before expiry a token is refreshed proactively, so
// callers never receive a token about to lapse mid-request.
const RefreshSkew = 60 * time.Second

// TokenService guarantees callers a non-expired access token per platform.
// The "check expiry -> refresh -> persist" sequence is serialized per platform:
// refresh tokens rotate, so two concurrent refreshes racing would invalidate
// each other and strand the session.
type TokenService struct {
	repo      credential.Repository
	endpoints map[accounting.Platform]credential.TokenEndpoint
	logger    *zap.Logger
	now       func() time.Time

	mu    sync.Mutex
	locks map[accounting.Platform]*sync.Mutex
}

// NewTokenService creates a TokenService over the given token endpoints
func NewTokenService(repo credential.Repository, endpoints []credential.TokenEndpoint, logger *zap.Logger) *TokenService {
	byPlatform := make(map[accounting.Platform]credential.TokenEndpoint, len(endpoints))
	for _, ep := range endpoints {
		byPlatform[ep.Platform()] = ep
	}
	return &TokenService{
		repo:      repo,
		endpoints: byPlatform,
		logger:    logger,
		now:       time.Now,
		locks:     make(map[accounting.Platform]*sync.Mutex),
	}
}

// lockFor returns the per-platform refresh mutex, creating it on first use
func (s *TokenService) lockFor(platform accounting.Platform) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[platform]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[platform] = lock
	}
	return lock
}

// GetValidCredential returns the platform's active credential, refreshing it
// first when it expires within RefreshSkew. Returns credential.ErrAuthMissing
// when the platform was never connected and credential.ErrAuthExpired when the
// refresh exchange fails (re-authorization is a human action; callers must not
// retry).
func (s *TokenService) GetValidCredential(ctx context.Context, platform accounting.Platform) (*credential.Credential, error) {
	lock := s.lockFor(platform)
	lock.Lock()
	defer lock.Unlock()

	cred, err := s.repo.GetActive(ctx, platform)
	if err != nil {
		return nil, err
	}
	if !cred.NeedsRefresh(s.now(), RefreshSkew) {
		return cred, nil
	}

	endpoint, ok := s.endpoints[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", credential.ErrAuthExpired, platform)
	}

	s.logger.Info("Refreshing access token",
		zap.String("platform", platform.String()),
		zap.Time("expires_at", cred.ExpiresAt))

	payload, err := endpoint.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		s.logger.Warn("Token refresh failed",
			zap.String("platform", platform.String()),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", credential.ErrAuthExpired, err)
	}

	cred.ApplyToken(payload, s.now())
	if err := s.repo.Update(ctx, cred); err != nil {
		return nil, err
	}
	return cred, nil
}

// ExchangeAuthorizationCode trades the code handed over by the authorization
// callback for tokens and stores the result as the platform's active
// credential. Failure surfaces as credential.ErrAuthExchangeFailed.
func (s *TokenService) ExchangeAuthorizationCode(ctx context.Context, platform accounting.Platform, code, redirectState string) (*credential.Credential, error) {
	endpoint, ok := s.endpoints[platform]
	if !ok {
		return nil, fmt.Errorf("%w: no token endpoint for %s", credential.ErrAuthExchangeFailed, platform)
	}

	payload, err := endpoint.ExchangeCode(ctx, code, redirectState)
	if err != nil {
		s.logger.Warn("Authorization code exchange failed",
			zap.String("platform", platform.String()),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", credential.ErrAuthExchangeFailed, err)
	}

	cred, err := credential.NewCredential(platform, payload, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", credential.ErrAuthExchangeFailed, err)
	}

	lock := s.lockFor(platform)
	lock.Lock()
	defer lock.Unlock()

	if err := s.repo.SaveActive(ctx, cred); err != nil {
		return nil, err
	}

	s.logger.Info("Platform connected",
		zap.String("platform", platform.String()),
		zap.String("tenant_id", cred.TenantID))
	return cred, nil
}

// Disconnect deletes the platform's credential (logout)
func (s *TokenService) Disconnect(ctx context.Context, platform accounting.Platform) error {
	lock := s.lockFor(platform)
	lock.Lock()
	defer lock.Unlock()

	if err := s.repo.Delete(ctx, platform); err != nil {
		return err
	}
	s.logger.Info("Platform disconnected", zap.String("platform", platform.String()))
	return nil
}
