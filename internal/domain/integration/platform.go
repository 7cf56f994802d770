package integration

import (
	"context"
	"encoding/json"

	"github.com/booksync/backend/internal/domain/accounting"
	"github.com/booksync/backend/internal/domain/credential"
)

// RawRecord is one unparsed remote record as returned by a platform endpoint.
type RawRecord = json.RawMessage

// Query describes one fetch against a platform endpoint.
type Query struct {
	// Kind selects the entity collection to fetch
	Kind accounting.EntityKind
	// ProductKind narrows a product fetch to one item class (optional)
	ProductKind accounting.ProductKind
}

// AccountingPlatform is the port for one external accounting platform. The two
// transport shapes (query-language endpoint with a named response container vs.
// a flat bulk-list endpoint) are hidden behind this contract.
//
// FetchRecords is finite and restartable: every call re-issues the query from
// scratch, following the platform's pagination until exhausted. Map* functions
// are pure; they perform no I/O and apply the documented cross-platform
// defaults for absent optional fields.
type AccountingPlatform interface {
	// Platform returns the platform code this adapter handles
	Platform() accounting.Platform

	// FetchRecords returns the raw records matching the query. A success
	// response whose expected container key is absent is an empty result, not
	// an error. Non-success statuses and transport failures surface as
	// *RemoteAPIError and abort the fetch.
	FetchRecords(ctx context.Context, cred *credential.Credential, q Query) ([]RawRecord, error)

	// MapVendor converts a raw vendor record into the canonical shape
	MapVendor(raw RawRecord) (*accounting.Vendor, error)
	// MapAccount converts a raw account record into the canonical shape
	MapAccount(raw RawRecord) (*accounting.Account, error)
	// MapProduct converts a raw product record into the canonical shape
	MapProduct(raw RawRecord) (*accounting.Product, error)
	// MapInvoice converts a raw invoice record into the canonical shape
	MapInvoice(raw RawRecord) (*accounting.Invoice, error)
	// MapBill converts a raw bill record into the canonical shape
	MapBill(raw RawRecord) (*accounting.Bill, error)

	// UpdateVendor pushes a vendor change to the platform, echoing the held
	// sync token verbatim. A stale token surfaces as *SyncConflictError.
	// The returned vendor carries the platform's new sync token.
	UpdateVendor(ctx context.Context, cred *credential.Credential, vendor *accounting.Vendor) (*accounting.Vendor, error)
	// UpdateInvoice pushes an invoice change to the platform under the same
	// sync-token contract.
	UpdateInvoice(ctx context.Context, cred *credential.Credential, invoice *accounting.Invoice) (*accounting.Invoice, error)
	// VoidInvoice voids the invoice on the platform, echoing the sync token.
	VoidInvoice(ctx context.Context, cred *credential.Credential, invoice *accounting.Invoice) error
}

// Registry provides access to the configured platform adapters, selected by
// platform code instead of branching scattered through the sync logic.
type Registry interface {
	// GetPlatform returns the adapter for the given platform code,
	// or ErrPlatformNotRegistered
	GetPlatform(platform accounting.Platform) (AccountingPlatform, error)
	// ListPlatforms returns all registered adapters
	ListPlatforms() []AccountingPlatform
}
