package models

import (
	"time"

	"github.com/booksync/backend/internal/domain/accounting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VendorModel is the persistence model for canonical vendors. The composite
// unique index on (platform, remote_id) is the natural key the sync upserts by.
type VendorModel struct {
	ID              uuid.UUID           `gorm:"type:uuid;primary_key"`
	Platform        accounting.Platform `gorm:"type:varchar(20);not null;uniqueIndex:idx_vendors_platform_remote,priority:1"`
	RemoteID        string              `gorm:"type:varchar(100);not null;uniqueIndex:idx_vendors_platform_remote,priority:2"`
	SyncToken       string              `gorm:"type:varchar(50)"`
	DisplayName     string              `gorm:"type:varchar(200);not null"`
	CompanyName     string              `gorm:"type:varchar(200)"`
	Email           string              `gorm:"type:varchar(200)"`
	Phone           string              `gorm:"type:varchar(50)"`
	Balance         decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	CurrencyCode    string              `gorm:"type:varchar(3);not null;default:'USD'"`
	Active          bool                `gorm:"not null;default:true;index"`
	RemoteUpdatedAt time.Time
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (VendorModel) TableName() string {
	return "vendors"
}

// ToDomain converts the persistence model to a domain Vendor
func (m *VendorModel) ToDomain() *accounting.Vendor {
	return &accounting.Vendor{
		ID:              m.ID,
		Platform:        m.Platform,
		RemoteID:        m.RemoteID,
		SyncToken:       m.SyncToken,
		DisplayName:     m.DisplayName,
		CompanyName:     m.CompanyName,
		Email:           m.Email,
		Phone:           m.Phone,
		Balance:         m.Balance,
		CurrencyCode:    m.CurrencyCode,
		Active:          m.Active,
		RemoteUpdatedAt: m.RemoteUpdatedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Vendor
func (m *VendorModel) FromDomain(v *accounting.Vendor) {
	m.ID = v.ID
	m.Platform = v.Platform
	m.RemoteID = v.RemoteID
	m.SyncToken = v.SyncToken
	m.DisplayName = v.DisplayName
	m.CompanyName = v.CompanyName
	m.Email = v.Email
	m.Phone = v.Phone
	m.Balance = v.Balance
	m.CurrencyCode = v.CurrencyCode
	m.Active = v.Active
	m.RemoteUpdatedAt = v.RemoteUpdatedAt
	m.CreatedAt = v.CreatedAt
	m.UpdatedAt = v.UpdatedAt
}

// VendorModelFromDomain creates a persistence model from a domain Vendor
func VendorModelFromDomain(v *accounting.Vendor) *VendorModel {
	m := &VendorModel{}
	m.FromDomain(v)
	return m
}

// AccountModel is the persistence model for chart-of-accounts entries.
type AccountModel struct {
	ID              uuid.UUID              `gorm:"type:uuid;primary_key"`
	Platform        accounting.Platform    `gorm:"type:varchar(20);not null;uniqueIndex:idx_accounts_platform_remote,priority:1"`
	RemoteID        string                 `gorm:"type:varchar(100);not null;uniqueIndex:idx_accounts_platform_remote,priority:2"`
	SyncToken       string                 `gorm:"type:varchar(50)"`
	Name            string                 `gorm:"type:varchar(200);not null"`
	Code            string                 `gorm:"type:varchar(50);index"`
	Type            accounting.AccountType `gorm:"type:varchar(20);not null"`
	CurrencyCode    string                 `gorm:"type:varchar(3);not null;default:'USD'"`
	CurrentBalance  decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	Active          bool                   `gorm:"not null;default:true;index"`
	RemoteUpdatedAt time.Time
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the persistence model to a domain Account
func (m *AccountModel) ToDomain() *accounting.Account {
	return &accounting.Account{
		ID:              m.ID,
		Platform:        m.Platform,
		RemoteID:        m.RemoteID,
		SyncToken:       m.SyncToken,
		Name:            m.Name,
		Code:            m.Code,
		Type:            m.Type,
		CurrencyCode:    m.CurrencyCode,
		CurrentBalance:  m.CurrentBalance,
		Active:          m.Active,
		RemoteUpdatedAt: m.RemoteUpdatedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Account
func (m *AccountModel) FromDomain(a *accounting.Account) {
	m.ID = a.ID
	m.Platform = a.Platform
	m.RemoteID = a.RemoteID
	m.SyncToken = a.SyncToken
	m.Name = a.Name
	m.Code = a.Code
	m.Type = a.Type
	m.CurrencyCode = a.CurrencyCode
	m.CurrentBalance = a.CurrentBalance
	m.Active = a.Active
	m.RemoteUpdatedAt = a.RemoteUpdatedAt
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
}

// AccountModelFromDomain creates a persistence model from a domain Account
func AccountModelFromDomain(a *accounting.Account) *AccountModel {
	m := &AccountModel{}
	m.FromDomain(a)
	return m
}

// ProductModel is the persistence model for canonical products. PriceOverride
// is a nullable column owned locally; sync writes never touch it.
type ProductModel struct {
	ID              uuid.UUID              `gorm:"type:uuid;primary_key"`
	Platform        accounting.Platform    `gorm:"type:varchar(20);not null;uniqueIndex:idx_products_platform_remote,priority:1"`
	RemoteID        string                 `gorm:"type:varchar(100);not null;uniqueIndex:idx_products_platform_remote,priority:2"`
	SyncToken       string                 `gorm:"type:varchar(50)"`
	Name            string                 `gorm:"type:varchar(200);not null"`
	SKU             string                 `gorm:"type:varchar(100);index"`
	Kind            accounting.ProductKind `gorm:"type:varchar(20);not null;index"`
	Description     string                 `gorm:"type:text"`
	UnitPrice       decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	PurchaseCost    decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	QuantityOnHand  decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	PriceOverride   *decimal.Decimal       `gorm:"type:decimal(18,4)"`
	Active          bool                   `gorm:"not null;default:true;index"`
	RemoteUpdatedAt time.Time
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *accounting.Product {
	return &accounting.Product{
		ID:              m.ID,
		Platform:        m.Platform,
		RemoteID:        m.RemoteID,
		SyncToken:       m.SyncToken,
		Name:            m.Name,
		SKU:             m.SKU,
		Kind:            m.Kind,
		Description:     m.Description,
		UnitPrice:       m.UnitPrice,
		PurchaseCost:    m.PurchaseCost,
		QuantityOnHand:  m.QuantityOnHand,
		PriceOverride:   m.PriceOverride,
		Active:          m.Active,
		RemoteUpdatedAt: m.RemoteUpdatedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Product
func (m *ProductModel) FromDomain(p *accounting.Product) {
	m.ID = p.ID
	m.Platform = p.Platform
	m.RemoteID = p.RemoteID
	m.SyncToken = p.SyncToken
	m.Name = p.Name
	m.SKU = p.SKU
	m.Kind = p.Kind
	m.Description = p.Description
	m.UnitPrice = p.UnitPrice
	m.PurchaseCost = p.PurchaseCost
	m.QuantityOnHand = p.QuantityOnHand
	m.PriceOverride = p.PriceOverride
	m.Active = p.Active
	m.RemoteUpdatedAt = p.RemoteUpdatedAt
	m.CreatedAt = p.CreatedAt
	m.UpdatedAt = p.UpdatedAt
}

// ProductModelFromDomain creates a persistence model from a domain Product
func ProductModelFromDomain(p *accounting.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
