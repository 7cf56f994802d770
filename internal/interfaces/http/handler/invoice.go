package handler

import (
	"time"

	reconcileapp "github.com/booksync/backend/internal/application/reconcile"
	"github.com/booksync/backend/internal/domain/accounting"
	"github.com/gin-gonic/gin"
)

// InvoiceHandler handles invoice read and write-back endpoints
type InvoiceHandler struct {
	BaseHandler
	engine      *reconcileapp.Engine
	syncService *reconcileapp.SyncService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(engine *reconcileapp.Engine, syncService *reconcileapp.SyncService) *InvoiceHandler {
	return &InvoiceHandler{
		engine:      engine,
		syncService: syncService,
	}
}

// UpdateInvoiceRequest represents a request to update an invoice. LocalNote is
// local-only and never pushed to the platform.
type UpdateInvoiceRequest struct {
	DocNumber *string `json:"doc_number" binding:"omitempty,max=50" example:"INV-1042"`
	IssueDate *string `json:"issue_date" binding:"omitempty,datetime=2006-01-02" example:"2026-08-01"`
	DueDate   *string `json:"due_date" binding:"omitempty,datetime=2006-01-02" example:"2026-08-31"`
	LocalNote *string `json:"local_note" binding:"omitempty,max=2000" example:"Customer asked for net-30"`
}

// InvoiceLineResponse represents one invoice line in API responses
type InvoiceLineResponse struct {
	LineNumber      int    `json:"line_number"`
	ProductRemoteID string `json:"product_remote_id,omitempty"`
	Description     string `json:"description,omitempty"`
	Quantity        string `json:"quantity"`
	UnitPrice       string `json:"unit_price"`
	Amount          string `json:"amount"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID           string                `json:"id"`
	Platform     string                `json:"platform"`
	RemoteID     string                `json:"remote_id"`
	DocNumber    string                `json:"doc_number,omitempty"`
	CustomerName string                `json:"customer_name,omitempty"`
	CurrencyCode string                `json:"currency_code"`
	IssueDate    string                `json:"issue_date,omitempty"`
	DueDate      string                `json:"due_date,omitempty"`
	Subtotal     string                `json:"subtotal"`
	TaxTotal     string                `json:"tax_total"`
	Total        string                `json:"total"`
	Balance      string                `json:"balance"`
	Status       string                `json:"status"`
	LocalNote    string                `json:"local_note,omitempty"`
	Lines        []InvoiceLineResponse `json:"lines"`
	TimestampResponseFields
}

func newInvoiceResponse(inv *accounting.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:           inv.ID.String(),
		Platform:     inv.Platform.String(),
		RemoteID:     inv.RemoteID,
		DocNumber:    inv.DocNumber,
		CustomerName: inv.CustomerName,
		CurrencyCode: inv.CurrencyCode,
		Subtotal:     inv.Subtotal.String(),
		TaxTotal:     inv.TaxTotal.String(),
		Total:        inv.Total.String(),
		Balance:      inv.Balance.String(),
		Status:       inv.Status.String(),
		LocalNote:    inv.LocalNote,
		Lines:        make([]InvoiceLineResponse, 0, len(inv.Lines)),
	}
	if !inv.IssueDate.IsZero() {
		resp.IssueDate = inv.IssueDate.UTC().Format("2006-01-02")
	}
	if !inv.DueDate.IsZero() {
		resp.DueDate = inv.DueDate.UTC().Format("2006-01-02")
	}
	if !inv.RemoteUpdatedAt.IsZero() {
		resp.RemoteUpdatedAt = inv.RemoteUpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	if !inv.UpdatedAt.IsZero() {
		resp.UpdatedAt = inv.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	for _, line := range inv.Lines {
		resp.Lines = append(resp.Lines, InvoiceLineResponse{
			LineNumber:      line.LineNumber,
			ProductRemoteID: line.ProductRemoteID,
			Description:     line.Description,
			Quantity:        line.Quantity.String(),
			UnitPrice:       line.UnitPrice.String(),
			Amount:          line.Amount.String(),
		})
	}
	return resp
}

// Get returns one locally mirrored invoice with its lines
func (h *InvoiceHandler) Get(c *gin.Context) {
	platform, err := getPlatform(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	invoice, err := h.engine.GetInvoice(c.Request.Context(), platform, c.Param("remote_id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, newInvoiceResponse(invoice))
}

// Update pushes an invoice edit to its platform and returns the accepted
// revision. A pure local-note edit still round-trips through the platform so
// the held sync token is validated before anything is persisted.
func (h *InvoiceHandler) Update(c *gin.Context) {
	platform, err := getPlatform(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var req UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.engine.GetInvoice(c.Request.Context(), platform, c.Param("remote_id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if req.DocNumber != nil {
		invoice.DocNumber = *req.DocNumber
	}
	if req.IssueDate != nil {
		issueDate, err := time.Parse("2006-01-02", *req.IssueDate)
		if err != nil {
			h.BadRequest(c, "Invalid issue_date")
			return
		}
		invoice.IssueDate = issueDate
	}
	if req.DueDate != nil {
		dueDate, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			h.BadRequest(c, "Invalid due_date")
			return
		}
		invoice.DueDate = dueDate
	}
	accepted, err := h.syncService.UpdateInvoice(c.Request.Context(), platform, invoice)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if req.LocalNote != nil && *req.LocalNote != accepted.LocalNote {
		if err := h.engine.SetInvoiceNote(c.Request.Context(), platform, accepted.RemoteID, *req.LocalNote); err != nil {
			h.HandleError(c, err)
			return
		}
		accepted.LocalNote = *req.LocalNote
	}
	h.Success(c, newInvoiceResponse(accepted))
}

// Void voids the invoice on its platform and marks the local row voided
func (h *InvoiceHandler) Void(c *gin.Context) {
	platform, err := getPlatform(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	invoice, err := h.syncService.VoidInvoice(c.Request.Context(), platform, c.Param("remote_id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, newInvoiceResponse(invoice))
}
