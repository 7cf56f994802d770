package handler

import (
	reconcileapp "github.com/booksync/backend/internal/application/reconcile"
	"github.com/booksync/backend/internal/domain/accounting"
	"github.com/gin-gonic/gin"
)

// VendorHandler handles vendor read and write-back endpoints
type VendorHandler struct {
	BaseHandler
	engine      *reconcileapp.Engine
	syncService *reconcileapp.SyncService
}

// NewVendorHandler creates a new VendorHandler
func NewVendorHandler(engine *reconcileapp.Engine, syncService *reconcileapp.SyncService) *VendorHandler {
	return &VendorHandler{
		engine:      engine,
		syncService: syncService,
	}
}

// UpdateVendorRequest represents a request to update a vendor. Only the fields
// present are changed; remote-owned fields not listed here cannot be edited
// locally.
type UpdateVendorRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,min=1,max=200" example:"Acme Corporation"`
	CompanyName *string `json:"company_name" binding:"omitempty,max=200" example:"Acme Corp."`
	Email       *string `json:"email" binding:"omitempty,email,max=200" example:"billing@acme.com"`
	Phone       *string `json:"phone" binding:"omitempty,max=50" example:"+1 555 0100"`
}

// VendorResponse represents a vendor in API responses
type VendorResponse struct {
	ID           string `json:"id"`
	Platform     string `json:"platform"`
	RemoteID     string `json:"remote_id"`
	DisplayName  string `json:"display_name"`
	CompanyName  string `json:"company_name,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Balance      string `json:"balance"`
	CurrencyCode string `json:"currency_code"`
	Active       bool   `json:"active"`
	TimestampResponseFields
}

// TimestampResponseFields carries the bookkeeping timestamps
type TimestampResponseFields struct {
	RemoteUpdatedAt string `json:"remote_updated_at,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

func newVendorResponse(v *accounting.Vendor) VendorResponse {
	resp := VendorResponse{
		ID:           v.ID.String(),
		Platform:     v.Platform.String(),
		RemoteID:     v.RemoteID,
		DisplayName:  v.DisplayName,
		CompanyName:  v.CompanyName,
		Email:        v.Email,
		Phone:        v.Phone,
		Balance:      v.Balance.String(),
		CurrencyCode: v.CurrencyCode,
		Active:       v.Active,
	}
	if !v.RemoteUpdatedAt.IsZero() {
		resp.RemoteUpdatedAt = v.RemoteUpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	if !v.UpdatedAt.IsZero() {
		resp.UpdatedAt = v.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

// Get returns one locally mirrored vendor
func (h *VendorHandler) Get(c *gin.Context) {
	platform, err := getPlatform(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	vendor, err := h.engine.GetVendor(c.Request.Context(), platform, c.Param("remote_id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, newVendorResponse(vendor))
}

// Update pushes a vendor edit to its platform and returns the accepted
// revision. A concurrent remote edit surfaces as 409; sync and retry.
func (h *VendorHandler) Update(c *gin.Context) {
	platform, err := getPlatform(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var req UpdateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	vendor, err := h.engine.GetVendor(c.Request.Context(), platform, c.Param("remote_id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if req.DisplayName != nil {
		vendor.DisplayName = *req.DisplayName
	}
	if req.CompanyName != nil {
		vendor.CompanyName = *req.CompanyName
	}
	if req.Email != nil {
		vendor.Email = *req.Email
	}
	if req.Phone != nil {
		vendor.Phone = *req.Phone
	}

	accepted, err := h.syncService.UpdateVendor(c.Request.Context(), platform, vendor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, newVendorResponse(accepted))
}
