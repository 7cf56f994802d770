package accounting

import (
	"time"

	"github.com/booksync/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bill is the canonical vendor bill aggregate root. Like Invoice, it owns an
// ordered collection of line children that live and die with the parent.
type Bill struct {
	ID              uuid.UUID
	Platform        Platform
	RemoteID        string
	SyncToken       string
	DocNumber       string
	VendorName      string
	VendorRemoteID  string
	CurrencyCode    string
	IssueDate       time.Time
	DueDate         time.Time
	Subtotal        decimal.Decimal
	TaxTotal        decimal.Decimal
	Total           decimal.Decimal
	Balance         decimal.Decimal
	Status          DocumentStatus
	Lines           []BillLine
	RemoteUpdatedAt time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// BillLine is a child entity owned by exactly one Bill.
type BillLine struct {
	ID              uuid.UUID
	BillID          uuid.UUID
	LineNumber      int
	AccountRemoteID string
	Description     string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	Amount          decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate checks the bill's required fields
func (b *Bill) Validate() error {
	if !b.Platform.IsValid() {
		return shared.NewDomainError("INVALID_PLATFORM", "Bill platform is not valid")
	}
	if b.RemoteID == "" {
		return shared.NewDomainError("MISSING_REMOTE_ID", "Bill remote ID is required")
	}
	if !b.Status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Bill status is not valid")
	}
	return nil
}

// Deactivate soft-deletes the bill
func (b *Bill) Deactivate() error {
	if b.Status != DocumentStatusActive {
		return shared.ErrInvalidState
	}
	b.Status = DocumentStatusInactive
	return nil
}

// ApplyRemote overwrites the fields owned by the remote platform and replaces
// the line collection with the freshly mapped one.
func (b *Bill) ApplyRemote(remote *Bill) {
	b.SyncToken = remote.SyncToken
	b.DocNumber = remote.DocNumber
	b.VendorName = remote.VendorName
	b.VendorRemoteID = remote.VendorRemoteID
	b.CurrencyCode = remote.CurrencyCode
	b.IssueDate = remote.IssueDate
	b.DueDate = remote.DueDate
	b.Subtotal = remote.Subtotal
	b.TaxTotal = remote.TaxTotal
	b.Total = remote.Total
	b.Balance = remote.Balance
	b.Status = remote.Status
	b.RemoteUpdatedAt = remote.RemoteUpdatedAt
	b.Lines = make([]BillLine, len(remote.Lines))
	copy(b.Lines, remote.Lines)
	for n := range b.Lines {
		b.Lines[n].BillID = b.ID
	}
}
