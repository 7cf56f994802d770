package handler

import (
	reconcileapp "github.com/booksync/backend/internal/application/reconcile"
	"github.com/booksync/backend/internal/domain/accounting"
	"github.com/gin-gonic/gin"
)

// SyncHandler exposes the sync trigger endpoints. Each trigger runs the full
// fetch-map-reconcile cycle synchronously and returns the structured result.
type SyncHandler struct {
	BaseHandler
	syncService *reconcileapp.SyncService
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(syncService *reconcileapp.SyncService) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// SyncVendors mirrors the vendor list of every connected platform
func (h *SyncHandler) SyncVendors(c *gin.Context) {
	result, err := h.syncService.SyncVendors(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// SyncAccounts mirrors the chart of accounts of every connected platform
func (h *SyncHandler) SyncAccounts(c *gin.Context) {
	result, err := h.syncService.SyncAccounts(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// SyncProducts mirrors the product catalog of every connected platform.
// An optional kind query parameter narrows the fetch to one item class.
func (h *SyncHandler) SyncProducts(c *gin.Context) {
	kind := accounting.ProductKind(c.Query("kind"))
	result, err := h.syncService.SyncProducts(c.Request.Context(), kind)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// SyncInvoices mirrors the sales invoices of one platform
func (h *SyncHandler) SyncInvoices(c *gin.Context) {
	platform, err := getPlatform(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	result, err := h.syncService.SyncInvoices(c.Request.Context(), platform)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// SyncBills mirrors the vendor bills of every connected platform
func (h *SyncHandler) SyncBills(c *gin.Context) {
	result, err := h.syncService.SyncBills(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
