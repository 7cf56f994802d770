package credential

import (
	"testing"
	"time"

	"github.com/booksync/backend/internal/domain/accounting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPayload() *TokenPayload {
	return &TokenPayload{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresIn:    3600,
		Scope:        "com.intuit.quickbooks.accounting",
		TenantID:     "realm-123",
	}
}

func TestNewCredential(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("builds credential from payload", func(t *testing.T) {
		cred, err := NewCredential(accounting.PlatformQuickBooks, testPayload(), now)

		require.NoError(t, err)
		assert.Equal(t, accounting.PlatformQuickBooks, cred.Platform)
		assert.Equal(t, "realm-123", cred.TenantID)
		assert.Equal(t, now.Add(time.Hour), cred.ExpiresAt)
	})

	t.Run("fails with invalid platform", func(t *testing.T) {
		_, err := NewCredential("WAVE", testPayload(), now)
		assert.Error(t, err)
	})

	t.Run("fails without tokens", func(t *testing.T) {
		payload := testPayload()
		payload.RefreshToken = ""

		_, err := NewCredential(accounting.PlatformXero, payload, now)
		assert.Error(t, err)
	})
}

func TestCredential_NeedsRefresh(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	skew := 60 * time.Second
	cred := &Credential{ExpiresAt: now.Add(time.Hour)}

	t.Run("fresh token does not need refresh", func(t *testing.T) {
		assert.False(t, cred.NeedsRefresh(now, skew))
	})

	t.Run("token expiring inside the skew needs refresh", func(t *testing.T) {
		assert.True(t, cred.NeedsRefresh(now.Add(time.Hour-30*time.Second), skew))
	})

	t.Run("boundary instant needs refresh", func(t *testing.T) {
		assert.True(t, cred.NeedsRefresh(now.Add(time.Hour-skew), skew))
	})

	t.Run("expired token needs refresh", func(t *testing.T) {
		assert.True(t, cred.NeedsRefresh(now.Add(2*time.Hour), skew))
	})
}

func TestCredential_ApplyToken(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("rotates both tokens", func(t *testing.T) {
		cred, err := NewCredential(accounting.PlatformXero, testPayload(), now)
		require.NoError(t, err)

		cred.ApplyToken(&TokenPayload{
			AccessToken:  "access-2",
			RefreshToken: "refresh-2",
			ExpiresIn:    1800,
		}, now.Add(30*time.Minute))

		assert.Equal(t, "access-2", cred.AccessToken)
		assert.Equal(t, "refresh-2", cred.RefreshToken)
		assert.Equal(t, now.Add(time.Hour), cred.ExpiresAt)
	})

	t.Run("keeps previous refresh token when response omits it", func(t *testing.T) {
		cred, err := NewCredential(accounting.PlatformXero, testPayload(), now)
		require.NoError(t, err)

		cred.ApplyToken(&TokenPayload{AccessToken: "access-2", ExpiresIn: 1800}, now)

		assert.Equal(t, "refresh-1", cred.RefreshToken)
	})
}
