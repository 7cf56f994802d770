package handler

import (
	reconcileapp "github.com/booksync/backend/internal/application/reconcile"
	"github.com/booksync/backend/internal/domain/accounting"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ProductHandler handles product read endpoints and the local price override
type ProductHandler struct {
	BaseHandler
	engine *reconcileapp.Engine
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(engine *reconcileapp.Engine) *ProductHandler {
	return &ProductHandler{engine: engine}
}

// SetPriceOverrideRequest represents a request to pin a local selling price.
// A null price clears the override and the remote price applies again.
type SetPriceOverrideRequest struct {
	Price *string `json:"price" binding:"omitempty" example:"19.99"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID             string `json:"id"`
	Platform       string `json:"platform"`
	RemoteID       string `json:"remote_id"`
	Name           string `json:"name"`
	SKU            string `json:"sku,omitempty"`
	Kind           string `json:"kind"`
	Description    string `json:"description,omitempty"`
	UnitPrice      string `json:"unit_price"`
	PurchaseCost   string `json:"purchase_cost"`
	QuantityOnHand string `json:"quantity_on_hand"`
	PriceOverride  string `json:"price_override,omitempty"`
	EffectivePrice string `json:"effective_price"`
	Active         bool   `json:"active"`
	TimestampResponseFields
}

func newProductResponse(p *accounting.Product) ProductResponse {
	resp := ProductResponse{
		ID:             p.ID.String(),
		Platform:       p.Platform.String(),
		RemoteID:       p.RemoteID,
		Name:           p.Name,
		SKU:            p.SKU,
		Kind:           p.Kind.String(),
		Description:    p.Description,
		UnitPrice:      p.UnitPrice.String(),
		PurchaseCost:   p.PurchaseCost.String(),
		QuantityOnHand: p.QuantityOnHand.String(),
		EffectivePrice: p.EffectivePrice().String(),
		Active:         p.Active,
	}
	if p.PriceOverride != nil {
		resp.PriceOverride = p.PriceOverride.String()
	}
	if !p.RemoteUpdatedAt.IsZero() {
		resp.RemoteUpdatedAt = p.RemoteUpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	if !p.UpdatedAt.IsZero() {
		resp.UpdatedAt = p.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

// Get returns one locally mirrored product
func (h *ProductHandler) Get(c *gin.Context) {
	platform, err := getPlatform(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	product, err := h.engine.GetProduct(c.Request.Context(), platform, c.Param("remote_id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, newProductResponse(product))
}

// SetPriceOverride pins or clears the local selling price. The override lives
// only in the canonical store and survives every sync.
func (h *ProductHandler) SetPriceOverride(c *gin.Context) {
	platform, err := getPlatform(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var req SetPriceOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var override *decimal.Decimal
	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil {
			h.BadRequest(c, "Invalid price")
			return
		}
		if price.IsNegative() {
			h.BadRequest(c, "Price must not be negative")
			return
		}
		override = &price
	}

	remoteID := c.Param("remote_id")
	if err := h.engine.SetProductPriceOverride(c.Request.Context(), platform, remoteID, override); err != nil {
		h.HandleError(c, err)
		return
	}

	product, err := h.engine.GetProduct(c.Request.Context(), platform, remoteID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, newProductResponse(product))
}
