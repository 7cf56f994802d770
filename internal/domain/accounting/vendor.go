package accounting

import (
	"time"

	"github.com/booksync/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Vendor is the canonical supplier master record mirrored from a platform.
// It is keyed by the natural key (Platform, RemoteID); the surrogate ID is
// never exposed to the remote platform.
type Vendor struct {
	ID              uuid.UUID
	Platform        Platform
	RemoteID        string
	SyncToken       string
	DisplayName     string
	CompanyName     string
	Email           string
	Phone           string
	Balance         decimal.Decimal
	CurrencyCode    string
	Active          bool
	RemoteUpdatedAt time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate checks the vendor's required fields
func (v *Vendor) Validate() error {
	if !v.Platform.IsValid() {
		return shared.NewDomainError("INVALID_PLATFORM", "Vendor platform is not valid")
	}
	if v.RemoteID == "" {
		return shared.NewDomainError("MISSING_REMOTE_ID", "Vendor remote ID is required")
	}
	if v.DisplayName == "" {
		return shared.NewDomainError("MISSING_NAME", "Vendor display name is required")
	}
	return nil
}

// ApplyRemote overwrites the fields owned by the remote platform from a freshly
// mapped record, leaving surrogate identity and bookkeeping fields intact.
func (v *Vendor) ApplyRemote(remote *Vendor) {
	v.SyncToken = remote.SyncToken
	v.DisplayName = remote.DisplayName
	v.CompanyName = remote.CompanyName
	v.Email = remote.Email
	v.Phone = remote.Phone
	v.Balance = remote.Balance
	v.CurrencyCode = remote.CurrencyCode
	v.Active = remote.Active
	v.RemoteUpdatedAt = remote.RemoteUpdatedAt
}
