package accounting

import (
	"time"

	"github.com/booksync/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentStatus is the lifecycle state of a canonical financial document.
// Transitions: Active -> Inactive (soft delete) or Active -> Voided (remote
// void). Neither terminal state re-activates except through a full refresh
// that finds the document live again remotely.
type DocumentStatus string

const (
	DocumentStatusActive   DocumentStatus = "ACTIVE"
	DocumentStatusInactive DocumentStatus = "INACTIVE"
	DocumentStatusVoided   DocumentStatus = "VOIDED"
)

// IsValid returns true if the status is valid
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusActive, DocumentStatusInactive, DocumentStatusVoided:
		return true
	default:
		return false
	}
}

// String returns the string representation of DocumentStatus
func (s DocumentStatus) String() string {
	return string(s)
}

// Invoice is the canonical sales invoice aggregate root. It owns an ordered
// collection of InvoiceLine children; lines are never shared across invoices
// and are persisted/deleted together with their parent.
// LocalNote is local-only and survives incremental merges.
type Invoice struct {
	ID              uuid.UUID
	Platform        Platform
	RemoteID        string
	SyncToken       string
	DocNumber       string
	CustomerName    string
	CurrencyCode    string
	IssueDate       time.Time
	DueDate         time.Time
	Subtotal        decimal.Decimal
	TaxTotal        decimal.Decimal
	Total           decimal.Decimal
	Balance         decimal.Decimal
	Status          DocumentStatus
	LocalNote       string
	Lines           []InvoiceLine
	RemoteUpdatedAt time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// InvoiceLine is a child entity owned by exactly one Invoice.
type InvoiceLine struct {
	ID              uuid.UUID
	InvoiceID       uuid.UUID
	LineNumber      int
	ProductRemoteID string
	Description     string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	Amount          decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate checks the invoice's required fields and line ownership
func (i *Invoice) Validate() error {
	if !i.Platform.IsValid() {
		return shared.NewDomainError("INVALID_PLATFORM", "Invoice platform is not valid")
	}
	if i.RemoteID == "" {
		return shared.NewDomainError("MISSING_REMOTE_ID", "Invoice remote ID is required")
	}
	if !i.Status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Invoice status is not valid")
	}
	return nil
}

// Deactivate soft-deletes the invoice. Only an active invoice can be
// deactivated; terminal states stay terminal.
func (i *Invoice) Deactivate() error {
	if i.Status != DocumentStatusActive {
		return shared.ErrInvalidState
	}
	i.Status = DocumentStatusInactive
	return nil
}

// Void marks the invoice voided after an explicit remote void.
func (i *Invoice) Void() error {
	if i.Status != DocumentStatusActive {
		return shared.ErrInvalidState
	}
	i.Status = DocumentStatusVoided
	return nil
}

// ApplyRemote overwrites the fields owned by the remote platform and replaces
// the line collection with the freshly mapped one. A record seen live remotely
// is active again regardless of prior soft-delete state; LocalNote is kept.
func (i *Invoice) ApplyRemote(remote *Invoice) {
	i.SyncToken = remote.SyncToken
	i.DocNumber = remote.DocNumber
	i.CustomerName = remote.CustomerName
	i.CurrencyCode = remote.CurrencyCode
	i.IssueDate = remote.IssueDate
	i.DueDate = remote.DueDate
	i.Subtotal = remote.Subtotal
	i.TaxTotal = remote.TaxTotal
	i.Total = remote.Total
	i.Balance = remote.Balance
	i.Status = remote.Status
	i.RemoteUpdatedAt = remote.RemoteUpdatedAt
	i.Lines = make([]InvoiceLine, len(remote.Lines))
	copy(i.Lines, remote.Lines)
	for n := range i.Lines {
		i.Lines[n].InvoiceID = i.ID
	}
}
