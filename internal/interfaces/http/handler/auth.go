package handler

import (
	"time"

	credapp "github.com/booksync/backend/internal/application/credential"
	"github.com/booksync/backend/internal/domain/credential"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles platform connection endpoints: the OAuth redirect
// callback, connection status, and disconnect.
type AuthHandler struct {
	BaseHandler
	tokenService *credapp.TokenService
	credentials  credential.Repository
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(tokenService *credapp.TokenService, credentials credential.Repository) *AuthHandler {
	return &AuthHandler{
		tokenService: tokenService,
		credentials:  credentials,
	}
}

// ConnectionResponse describes one platform connection
type ConnectionResponse struct {
	Platform    string    `json:"platform"`
	TenantID    string    `json:"tenant_id"`
	Scope       string    `json:"scope,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
	ConnectedAt time.Time `json:"connected_at"`
}

func newConnectionResponse(cred *credential.Credential) ConnectionResponse {
	return ConnectionResponse{
		Platform:    cred.Platform.String(),
		TenantID:    cred.TenantID,
		Scope:       cred.Scope,
		ExpiresAt:   cred.ExpiresAt,
		ConnectedAt: cred.CreatedAt,
	}
}

// Callback completes the OAuth authorization flow. The platform redirects here
// with an authorization code; QuickBooks additionally carries the realm ID,
// which becomes the credential's tenant.
func (h *AuthHandler) Callback(c *gin.Context) {
	platform, err := getPlatform(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	code := c.Query("code")
	if code == "" {
		h.BadRequest(c, "Missing authorization code")
		return
	}
	// QuickBooks hands the tenant over as realmId; other platforms use state
	redirectState := c.Query("realmId")
	if redirectState == "" {
		redirectState = c.Query("state")
	}

	cred, err := h.tokenService.ExchangeAuthorizationCode(c.Request.Context(), platform, code, redirectState)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, newConnectionResponse(cred))
}

// Status returns the platform's connection, or 401 when not connected
func (h *AuthHandler) Status(c *gin.Context) {
	platform, err := getPlatform(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	cred, err := h.credentials.GetActive(c.Request.Context(), platform)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, newConnectionResponse(cred))
}

// Disconnect removes the platform's credential
func (h *AuthHandler) Disconnect(c *gin.Context) {
	platform, err := getPlatform(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if err := h.tokenService.Disconnect(c.Request.Context(), platform); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
