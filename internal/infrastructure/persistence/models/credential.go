package models

import (
	"time"

	"github.com/booksync/backend/internal/domain/accounting"
	"github.com/booksync/backend/internal/domain/credential"
	"github.com/google/uuid"
)

// CredentialModel is the persistence model for one platform's OAuth session.
// The unique index on platform enforces at most one active credential per
// platform.
type CredentialModel struct {
	ID           uuid.UUID           `gorm:"type:uuid;primary_key"`
	Platform     accounting.Platform `gorm:"type:varchar(20);not null;uniqueIndex:idx_credentials_platform"`
	TenantID     string              `gorm:"type:varchar(100)"`
	AccessToken  string              `gorm:"type:text;not null"`
	RefreshToken string              `gorm:"type:text;not null"`
	ExpiresAt    time.Time           `gorm:"not null;index"`
	Scope        string              `gorm:"type:varchar(500)"`
	CreatedAt    time.Time           `gorm:"not null"`
	UpdatedAt    time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CredentialModel) TableName() string {
	return "platform_credentials"
}

// ToDomain converts the persistence model to a domain Credential
func (m *CredentialModel) ToDomain() *credential.Credential {
	return &credential.Credential{
		ID:           m.ID,
		Platform:     m.Platform,
		TenantID:     m.TenantID,
		AccessToken:  m.AccessToken,
		RefreshToken: m.RefreshToken,
		ExpiresAt:    m.ExpiresAt,
		Scope:        m.Scope,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Credential
func (m *CredentialModel) FromDomain(c *credential.Credential) {
	m.ID = c.ID
	m.Platform = c.Platform
	m.TenantID = c.TenantID
	m.AccessToken = c.AccessToken
	m.RefreshToken = c.RefreshToken
	m.ExpiresAt = c.ExpiresAt
	m.Scope = c.Scope
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
}

// CredentialModelFromDomain creates a persistence model from a domain Credential
func CredentialModelFromDomain(c *credential.Credential) *CredentialModel {
	m := &CredentialModel{}
	m.FromDomain(c)
	return m
}
