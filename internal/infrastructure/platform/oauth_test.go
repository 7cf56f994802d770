package platform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/booksync/backend/internal/domain/credential"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuickBooksTokenEndpoint_ExchangeCode(t *testing.T) {
	ctx := context.Background()

	t.Run("posts the grant under client basic auth", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			require.True(t, ok)
			assert.Equal(t, "client-id", user)
			assert.Equal(t, "client-secret", pass)

			require.NoError(t, r.ParseForm())
			assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
			assert.Equal(t, "auth-code", r.PostForm.Get("code"))

			w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","expires_in":3600,"token_type":"bearer"}`))
		}))
		t.Cleanup(server.Close)

		endpoint, err := NewQuickBooksTokenEndpoint(&QuickBooksConfig{
			ClientID: "client-id", ClientSecret: "client-secret", TokenURL: server.URL,
		})
		require.NoError(t, err)

		payload, err := endpoint.ExchangeCode(ctx, "auth-code", "realm-42")

		require.NoError(t, err)
		assert.Equal(t, "at-1", payload.AccessToken)
		assert.Equal(t, "rt-1", payload.RefreshToken)
		assert.Equal(t, int64(3600), payload.ExpiresIn)
		// The callback's realmId becomes the tenant
		assert.Equal(t, "realm-42", payload.TenantID)
	})

	t.Run("a rejected exchange maps to ErrAuthExchangeFailed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		t.Cleanup(server.Close)

		endpoint, err := NewQuickBooksTokenEndpoint(&QuickBooksConfig{
			ClientID: "client-id", ClientSecret: "client-secret", TokenURL: server.URL,
		})
		require.NoError(t, err)

		_, err = endpoint.ExchangeCode(ctx, "bad-code", "realm-42")

		assert.ErrorIs(t, err, credential.ErrAuthExchangeFailed)
	})
}

func TestQuickBooksTokenEndpoint_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("rotates the token pair", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
			assert.Equal(t, "rt-1", r.PostForm.Get("refresh_token"))
			w.Write([]byte(`{"access_token":"at-2","refresh_token":"rt-2","expires_in":3600}`))
		}))
		t.Cleanup(server.Close)

		endpoint, err := NewQuickBooksTokenEndpoint(&QuickBooksConfig{
			ClientID: "client-id", ClientSecret: "client-secret", TokenURL: server.URL,
		})
		require.NoError(t, err)

		payload, err := endpoint.Refresh(ctx, "rt-1")

		require.NoError(t, err)
		assert.Equal(t, "at-2", payload.AccessToken)
		assert.Equal(t, "rt-2", payload.RefreshToken)
	})

	t.Run("a dead refresh token maps to ErrAuthExpired", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
		}))
		t.Cleanup(server.Close)

		endpoint, err := NewQuickBooksTokenEndpoint(&QuickBooksConfig{
			ClientID: "client-id", ClientSecret: "client-secret", TokenURL: server.URL,
		})
		require.NoError(t, err)

		_, err = endpoint.Refresh(ctx, "rt-dead")

		assert.ErrorIs(t, err, credential.ErrAuthExpired)
	})
}

func TestXeroTokenEndpoint_ExchangeCode(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves the tenant through the connections endpoint", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/connect/token", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","expires_in":1800,"scope":"accounting.transactions"}`))
		})
		mux.HandleFunc("/connections", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
			w.Write([]byte(`[{"id":"conn-1","tenantId":"tenant-abc","tenantType":"ORGANISATION","tenantName":"Demo Company"}]`))
		})
		server := httptest.NewServer(mux)
		t.Cleanup(server.Close)

		endpoint, err := NewXeroTokenEndpoint(&XeroConfig{
			ClientID: "client-id", ClientSecret: "client-secret",
			TokenURL:       server.URL + "/connect/token",
			ConnectionsURL: server.URL + "/connections",
		})
		require.NoError(t, err)

		payload, err := endpoint.ExchangeCode(ctx, "auth-code", "")

		require.NoError(t, err)
		assert.Equal(t, "tenant-abc", payload.TenantID)
		assert.Equal(t, "accounting.transactions", payload.Scope)
	})

	t.Run("an authorization with no connections fails the exchange", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/connect/token", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","expires_in":1800}`))
		})
		mux.HandleFunc("/connections", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		})
		server := httptest.NewServer(mux)
		t.Cleanup(server.Close)

		endpoint, err := NewXeroTokenEndpoint(&XeroConfig{
			ClientID: "client-id", ClientSecret: "client-secret",
			TokenURL:       server.URL + "/connect/token",
			ConnectionsURL: server.URL + "/connections",
		})
		require.NoError(t, err)

		_, err = endpoint.ExchangeCode(ctx, "auth-code", "")

		assert.ErrorIs(t, err, credential.ErrAuthExchangeFailed)
	})
}

func TestXeroTokenEndpoint_Refresh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		w.Write([]byte(`{"access_token":"at-2","refresh_token":"rt-2","expires_in":1800}`))
	}))
	t.Cleanup(server.Close)

	endpoint, err := NewXeroTokenEndpoint(&XeroConfig{
		ClientID: "client-id", ClientSecret: "client-secret",
		TokenURL:       server.URL,
		ConnectionsURL: server.URL + "/connections",
	})
	require.NoError(t, err)

	payload, err := endpoint.Refresh(context.Background(), "rt-1")

	require.NoError(t, err)
	assert.Equal(t, "rt-2", payload.RefreshToken)
}
