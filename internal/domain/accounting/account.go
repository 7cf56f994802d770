package accounting

import (
	"time"

	"github.com/booksync/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType classifies a chart-of-accounts entry
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// IsValid returns true if the account type is valid
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity,
		AccountTypeRevenue, AccountTypeExpense:
		return true
	default:
		return false
	}
}

// Account is a canonical chart-of-accounts entry mirrored from a platform.
type Account struct {
	ID              uuid.UUID
	Platform        Platform
	RemoteID        string
	SyncToken       string
	Name            string
	Code            string
	Type            AccountType
	CurrentBalance  decimal.Decimal
	CurrencyCode    string
	Active          bool
	RemoteUpdatedAt time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate checks the account's required fields
func (a *Account) Validate() error {
	if !a.Platform.IsValid() {
		return shared.NewDomainError("INVALID_PLATFORM", "Account platform is not valid")
	}
	if a.RemoteID == "" {
		return shared.NewDomainError("MISSING_REMOTE_ID", "Account remote ID is required")
	}
	if a.Name == "" {
		return shared.NewDomainError("MISSING_NAME", "Account name is required")
	}
	return nil
}

// ApplyRemote overwrites the fields owned by the remote platform
func (a *Account) ApplyRemote(remote *Account) {
	a.SyncToken = remote.SyncToken
	a.Name = remote.Name
	a.Code = remote.Code
	a.Type = remote.Type
	a.CurrentBalance = remote.CurrentBalance
	a.CurrencyCode = remote.CurrencyCode
	a.Active = remote.Active
	a.RemoteUpdatedAt = remote.RemoteUpdatedAt
}
