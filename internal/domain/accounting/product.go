package accounting

import (
	"time"

	"github.com/booksync/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductKind classifies a product/service item
type ProductKind string

const (
	ProductKindInventory    ProductKind = "INVENTORY"
	ProductKindNonInventory ProductKind = "NON_INVENTORY"
	ProductKindService      ProductKind = "SERVICE"
)

// IsValid returns true if the product kind is valid
func (k ProductKind) IsValid() bool {
	switch k {
	case ProductKindInventory, ProductKindNonInventory, ProductKindService:
		return true
	default:
		return false
	}
}

// String returns the string representation of ProductKind
func (k ProductKind) String() string {
	return string(k)
}

// Product is a canonical product/service item mirrored from a platform.
// PriceOverride is local-only: operators may pin a selling price that must
// survive incremental merges against the remote snapshot.
type Product struct {
	ID              uuid.UUID
	Platform        Platform
	RemoteID        string
	SyncToken       string
	Name            string
	SKU             string
	Kind            ProductKind
	Description     string
	UnitPrice       decimal.Decimal
	PurchaseCost    decimal.Decimal
	QuantityOnHand  decimal.Decimal
	PriceOverride   *decimal.Decimal
	Active          bool
	RemoteUpdatedAt time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate checks the product's required fields
func (p *Product) Validate() error {
	if !p.Platform.IsValid() {
		return shared.NewDomainError("INVALID_PLATFORM", "Product platform is not valid")
	}
	if p.RemoteID == "" {
		return shared.NewDomainError("MISSING_REMOTE_ID", "Product remote ID is required")
	}
	if p.Name == "" {
		return shared.NewDomainError("MISSING_NAME", "Product name is required")
	}
	if !p.Kind.IsValid() {
		return shared.NewDomainError("INVALID_KIND", "Product kind is not valid")
	}
	return nil
}

// EffectivePrice returns the local override when set, otherwise the remote price
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.PriceOverride != nil {
		return *p.PriceOverride
	}
	return p.UnitPrice
}

// ApplyRemote overwrites the fields owned by the remote platform.
// PriceOverride is local-only and is deliberately left untouched.
func (p *Product) ApplyRemote(remote *Product) {
	p.SyncToken = remote.SyncToken
	p.Name = remote.Name
	p.SKU = remote.SKU
	p.Kind = remote.Kind
	p.Description = remote.Description
	p.UnitPrice = remote.UnitPrice
	p.PurchaseCost = remote.PurchaseCost
	p.QuantityOnHand = remote.QuantityOnHand
	p.Active = remote.Active
	p.RemoteUpdatedAt = remote.RemoteUpdatedAt
}
