package models

import (
	"time"

	"github.com/booksync/backend/internal/domain/accounting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
// LocalNote is a locally owned column; sync writes preserve it.
// DocNumber additionally carries a partial unique index on
// (platform, doc_number) for live Xero rows, created in Migrate; gorm tags
// cannot express the condition.
type InvoiceModel struct {
	ID              uuid.UUID                 `gorm:"type:uuid;primary_key"`
	Platform        accounting.Platform       `gorm:"type:varchar(20);not null;uniqueIndex:idx_invoices_platform_remote,priority:1"`
	RemoteID        string                    `gorm:"type:varchar(100);not null;uniqueIndex:idx_invoices_platform_remote,priority:2"`
	SyncToken       string                    `gorm:"type:varchar(50)"`
	DocNumber       string                    `gorm:"type:varchar(50);index"`
	CustomerName    string                    `gorm:"type:varchar(200)"`
	CurrencyCode    string                    `gorm:"type:varchar(3);not null;default:'USD'"`
	IssueDate       time.Time                 `gorm:"index"`
	DueDate         time.Time                 `gorm:"index"`
	Subtotal        decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	TaxTotal        decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	Total           decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	Balance         decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	Status          accounting.DocumentStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	LocalNote       string                    `gorm:"type:text"`
	Lines           []InvoiceLineModel        `gorm:"foreignKey:InvoiceID;references:ID"`
	RemoteUpdatedAt time.Time
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// InvoiceLineModel is the persistence model for the InvoiceLine child entity.
type InvoiceLineModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNumber      int             `gorm:"not null"`
	ProductRemoteID string          `gorm:"type:varchar(100);index"`
	Description     string          `gorm:"type:varchar(500)"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceLineModel) TableName() string {
	return "invoice_lines"
}

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() *accounting.Invoice {
	inv := &accounting.Invoice{
		ID:              m.ID,
		Platform:        m.Platform,
		RemoteID:        m.RemoteID,
		SyncToken:       m.SyncToken,
		DocNumber:       m.DocNumber,
		CustomerName:    m.CustomerName,
		CurrencyCode:    m.CurrencyCode,
		IssueDate:       m.IssueDate,
		DueDate:         m.DueDate,
		Subtotal:        m.Subtotal,
		TaxTotal:        m.TaxTotal,
		Total:           m.Total,
		Balance:         m.Balance,
		Status:          m.Status,
		LocalNote:       m.LocalNote,
		RemoteUpdatedAt: m.RemoteUpdatedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		Lines:           make([]accounting.InvoiceLine, len(m.Lines)),
	}
	for i, line := range m.Lines {
		inv.Lines[i] = accounting.InvoiceLine{
			ID:              line.ID,
			InvoiceID:       line.InvoiceID,
			LineNumber:      line.LineNumber,
			ProductRemoteID: line.ProductRemoteID,
			Description:     line.Description,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
			Amount:          line.Amount,
			CreatedAt:       line.CreatedAt,
			UpdatedAt:       line.UpdatedAt,
		}
	}
	return inv
}

// FromDomain populates the persistence model from a domain Invoice
func (m *InvoiceModel) FromDomain(inv *accounting.Invoice) {
	m.ID = inv.ID
	m.Platform = inv.Platform
	m.RemoteID = inv.RemoteID
	m.SyncToken = inv.SyncToken
	m.DocNumber = inv.DocNumber
	m.CustomerName = inv.CustomerName
	m.CurrencyCode = inv.CurrencyCode
	m.IssueDate = inv.IssueDate
	m.DueDate = inv.DueDate
	m.Subtotal = inv.Subtotal
	m.TaxTotal = inv.TaxTotal
	m.Total = inv.Total
	m.Balance = inv.Balance
	m.Status = inv.Status
	m.LocalNote = inv.LocalNote
	m.RemoteUpdatedAt = inv.RemoteUpdatedAt
	m.CreatedAt = inv.CreatedAt
	m.UpdatedAt = inv.UpdatedAt
	m.Lines = make([]InvoiceLineModel, len(inv.Lines))
	for i, line := range inv.Lines {
		m.Lines[i] = InvoiceLineModel{
			ID:              line.ID,
			InvoiceID:       line.InvoiceID,
			LineNumber:      line.LineNumber,
			ProductRemoteID: line.ProductRemoteID,
			Description:     line.Description,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
			Amount:          line.Amount,
			CreatedAt:       line.CreatedAt,
			UpdatedAt:       line.UpdatedAt,
		}
	}
}

// InvoiceModelFromDomain creates a persistence model from a domain Invoice
func InvoiceModelFromDomain(inv *accounting.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// BillModel is the persistence model for the Bill aggregate root.
type BillModel struct {
	ID              uuid.UUID                 `gorm:"type:uuid;primary_key"`
	Platform        accounting.Platform       `gorm:"type:varchar(20);not null;uniqueIndex:idx_bills_platform_remote,priority:1"`
	RemoteID        string                    `gorm:"type:varchar(100);not null;uniqueIndex:idx_bills_platform_remote,priority:2"`
	SyncToken       string                    `gorm:"type:varchar(50)"`
	DocNumber       string                    `gorm:"type:varchar(50);index"`
	VendorName      string                    `gorm:"type:varchar(200)"`
	VendorRemoteID  string                    `gorm:"type:varchar(100);index"`
	CurrencyCode    string                    `gorm:"type:varchar(3);not null;default:'USD'"`
	IssueDate       time.Time                 `gorm:"index"`
	DueDate         time.Time                 `gorm:"index"`
	Subtotal        decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	TaxTotal        decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	Total           decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	Balance         decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	Status          accounting.DocumentStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	Lines           []BillLineModel           `gorm:"foreignKey:BillID;references:ID"`
	RemoteUpdatedAt time.Time
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BillModel) TableName() string {
	return "bills"
}

// BillLineModel is the persistence model for the BillLine child entity.
type BillLineModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	BillID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNumber      int             `gorm:"not null"`
	AccountRemoteID string          `gorm:"type:varchar(100);index"`
	Description     string          `gorm:"type:varchar(500)"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BillLineModel) TableName() string {
	return "bill_lines"
}

// ToDomain converts the persistence model to a domain Bill
func (m *BillModel) ToDomain() *accounting.Bill {
	bill := &accounting.Bill{
		ID:              m.ID,
		Platform:        m.Platform,
		RemoteID:        m.RemoteID,
		SyncToken:       m.SyncToken,
		DocNumber:       m.DocNumber,
		VendorName:      m.VendorName,
		VendorRemoteID:  m.VendorRemoteID,
		CurrencyCode:    m.CurrencyCode,
		IssueDate:       m.IssueDate,
		DueDate:         m.DueDate,
		Subtotal:        m.Subtotal,
		TaxTotal:        m.TaxTotal,
		Total:           m.Total,
		Balance:         m.Balance,
		Status:          m.Status,
		RemoteUpdatedAt: m.RemoteUpdatedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		Lines:           make([]accounting.BillLine, len(m.Lines)),
	}
	for i, line := range m.Lines {
		bill.Lines[i] = accounting.BillLine{
			ID:              line.ID,
			BillID:          line.BillID,
			LineNumber:      line.LineNumber,
			AccountRemoteID: line.AccountRemoteID,
			Description:     line.Description,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
			Amount:          line.Amount,
			CreatedAt:       line.CreatedAt,
			UpdatedAt:       line.UpdatedAt,
		}
	}
	return bill
}

// FromDomain populates the persistence model from a domain Bill
func (m *BillModel) FromDomain(b *accounting.Bill) {
	m.ID = b.ID
	m.Platform = b.Platform
	m.RemoteID = b.RemoteID
	m.SyncToken = b.SyncToken
	m.DocNumber = b.DocNumber
	m.VendorName = b.VendorName
	m.VendorRemoteID = b.VendorRemoteID
	m.CurrencyCode = b.CurrencyCode
	m.IssueDate = b.IssueDate
	m.DueDate = b.DueDate
	m.Subtotal = b.Subtotal
	m.TaxTotal = b.TaxTotal
	m.Total = b.Total
	m.Balance = b.Balance
	m.Status = b.Status
	m.RemoteUpdatedAt = b.RemoteUpdatedAt
	m.CreatedAt = b.CreatedAt
	m.UpdatedAt = b.UpdatedAt
	m.Lines = make([]BillLineModel, len(b.Lines))
	for i, line := range b.Lines {
		m.Lines[i] = BillLineModel{
			ID:              line.ID,
			BillID:          line.BillID,
			LineNumber:      line.LineNumber,
			AccountRemoteID: line.AccountRemoteID,
			Description:     line.Description,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
			Amount:          line.Amount,
			CreatedAt:       line.CreatedAt,
			UpdatedAt:       line.UpdatedAt,
		}
	}
}

// BillModelFromDomain creates a persistence model from a domain Bill
func BillModelFromDomain(b *accounting.Bill) *BillModel {
	m := &BillModel{}
	m.FromDomain(b)
	return m
}
