package handler

import (
	"errors"
	"net/http"

	"github.com/booksync/backend/internal/domain/accounting"
	"github.com/booksync/backend/internal/domain/credential"
	"github.com/booksync/backend/internal/domain/integration"
	"github.com/booksync/backend/internal/domain/shared"
	"github.com/booksync/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getPlatform parses the :platform path parameter
func getPlatform(c *gin.Context) (accounting.Platform, error) {
	platform := accounting.Platform(c.Param("platform"))
	if !platform.IsValid() {
		return "", shared.NewDomainError("INVALID_PLATFORM", "Unknown platform code")
	}
	return platform, nil
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(code, message))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError converts domain, credential, and integration errors to HTTP
// responses. Unknown error types surface as 500 without leaking detail.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	}

	var conflictErr *integration.SyncConflictError
	if errors.As(err, &conflictErr) {
		h.Error(c, http.StatusConflict, dto.ErrCodeSyncConflict,
			"Record was modified on the platform; sync and retry")
		return
	}

	var remoteErr *integration.RemoteAPIError
	if errors.As(err, &remoteErr) {
		h.Error(c, http.StatusBadGateway, dto.ErrCodeRemoteAPI, remoteErr.Error())
		return
	}

	switch {
	case errors.Is(err, credential.ErrAuthMissing):
		h.Error(c, http.StatusUnauthorized, dto.ErrCodePlatformNotConnected,
			"Platform is not connected")
	case errors.Is(err, credential.ErrAuthExpired):
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeAuthExpired,
			"Platform authorization expired; reconnect the platform")
	case errors.Is(err, credential.ErrAuthExchangeFailed):
		h.Error(c, http.StatusBadGateway, dto.ErrCodeAuthExchangeFailed,
			"Authorization code exchange failed")
	case errors.Is(err, integration.ErrPlatformNotRegistered):
		h.NotFound(c, "Platform is not configured")
	default:
		h.InternalError(c, "An unexpected error occurred")
	}
}
