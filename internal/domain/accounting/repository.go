package accounting

import (
	"context"

	"github.com/shopspring/decimal"
)

// VendorRepository is the persistence port for canonical vendors.
//
// Multi-row mutations (Upsert, ReplaceScope, SoftDeleteMissing) are expected to
// run inside the caller's transaction when obtained through a transaction
// scope; implementations must never partially apply a batch.
type VendorRepository interface {
	// FindByRemoteID finds a vendor by its natural key
	FindByRemoteID(ctx context.Context, platform Platform, remoteID string) (*Vendor, error)
	// FindByPlatform returns all vendors mirrored from a platform
	FindByPlatform(ctx context.Context, platform Platform) ([]Vendor, error)
	// Save creates or updates a single vendor
	Save(ctx context.Context, vendor *Vendor) error
	// Upsert inserts or overwrites vendors by natural key
	Upsert(ctx context.Context, vendors []*Vendor) error
	// ReplaceScope deletes all vendors for the platform and bulk-inserts the batch
	ReplaceScope(ctx context.Context, platform Platform, vendors []*Vendor) error
	// SoftDeleteMissing marks vendors inactive whose remote ID is not in keep;
	// returns the number of rows affected
	SoftDeleteMissing(ctx context.Context, platform Platform, keep []string) (int64, error)
}

// AccountRepository is the persistence port for canonical accounts.
type AccountRepository interface {
	FindByRemoteID(ctx context.Context, platform Platform, remoteID string) (*Account, error)
	FindByPlatform(ctx context.Context, platform Platform) ([]Account, error)
	Save(ctx context.Context, account *Account) error
	Upsert(ctx context.Context, accounts []*Account) error
	ReplaceScope(ctx context.Context, platform Platform, accounts []*Account) error
	SoftDeleteMissing(ctx context.Context, platform Platform, keep []string) (int64, error)
}

// ProductRepository is the persistence port for canonical products.
type ProductRepository interface {
	FindByRemoteID(ctx context.Context, platform Platform, remoteID string) (*Product, error)
	FindByPlatform(ctx context.Context, platform Platform) ([]Product, error)
	FindByKind(ctx context.Context, platform Platform, kind ProductKind) ([]Product, error)
	Save(ctx context.Context, product *Product) error
	Upsert(ctx context.Context, products []*Product) error
	ReplaceScope(ctx context.Context, platform Platform, products []*Product) error
	SoftDeleteMissing(ctx context.Context, platform Platform, keep []string) (int64, error)
	// SetPriceOverride sets or clears the local-only price override. Sync
	// writes never touch this column, so it has its own write path.
	SetPriceOverride(ctx context.Context, platform Platform, remoteID string, override *decimal.Decimal) error
}

// InvoiceRepository is the persistence port for the invoice aggregate.
// Reads return the invoice with its lines; writes persist parent and lines in
// the same transaction so no reader observes a parent without its children.
type InvoiceRepository interface {
	FindByRemoteID(ctx context.Context, platform Platform, remoteID string) (*Invoice, error)
	FindByPlatform(ctx context.Context, platform Platform) ([]Invoice, error)
	Save(ctx context.Context, invoice *Invoice) error
	Upsert(ctx context.Context, invoices []*Invoice) error
	ReplaceScope(ctx context.Context, platform Platform, invoices []*Invoice) error
	SoftDeleteMissing(ctx context.Context, platform Platform, keep []string) (int64, error)
	// SetLocalNote sets the local-only note. Sync writes never touch this
	// column, so it has its own write path.
	SetLocalNote(ctx context.Context, platform Platform, remoteID, note string) error
}

// BillRepository is the persistence port for the bill aggregate.
type BillRepository interface {
	FindByRemoteID(ctx context.Context, platform Platform, remoteID string) (*Bill, error)
	FindByPlatform(ctx context.Context, platform Platform) ([]Bill, error)
	Save(ctx context.Context, bill *Bill) error
	Upsert(ctx context.Context, bills []*Bill) error
	ReplaceScope(ctx context.Context, platform Platform, bills []*Bill) error
	SoftDeleteMissing(ctx context.Context, platform Platform, keep []string) (int64, error)
}
