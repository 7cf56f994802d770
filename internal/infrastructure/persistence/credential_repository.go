package persistence

import (
	"context"
	"errors"

	"github.com/booksync/backend/internal/domain/accounting"
	"github.com/booksync/backend/internal/domain/credential"
	"github.com/booksync/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCredentialRepository implements credential.Repository using GORM
type GormCredentialRepository struct {
	db *gorm.DB
}

// NewGormCredentialRepository creates a new GormCredentialRepository
func NewGormCredentialRepository(db *gorm.DB) *GormCredentialRepository {
	return &GormCredentialRepository{db: db}
}

// GetActive returns the single active credential for the platform
func (r *GormCredentialRepository) GetActive(ctx context.Context, platform accounting.Platform) (*credential.Credential, error) {
	var model models.CredentialModel
	if err := r.db.WithContext(ctx).
		Where("platform = ?", platform).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, credential.ErrAuthMissing
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SaveActive stores the credential as the platform's active one, replacing any
// previous credential in the same transaction.
func (r *GormCredentialRepository) SaveActive(ctx context.Context, cred *credential.Credential) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("platform = ?", cred.Platform).
			Delete(&models.CredentialModel{}).Error; err != nil {
			return err
		}
		return tx.Create(models.CredentialModelFromDomain(cred)).Error
	})
}

// Update persists rotated tokens atomically
func (r *GormCredentialRepository) Update(ctx context.Context, cred *credential.Credential) error {
	result := r.db.WithContext(ctx).
		Model(&models.CredentialModel{}).
		Where("id = ?", cred.ID).
		Updates(map[string]any{
			"access_token":  cred.AccessToken,
			"refresh_token": cred.RefreshToken,
			"expires_at":    cred.ExpiresAt,
			"scope":         cred.Scope,
			"updated_at":    cred.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return credential.ErrAuthMissing
	}
	return nil
}

// Delete removes the platform's credential
func (r *GormCredentialRepository) Delete(ctx context.Context, platform accounting.Platform) error {
	result := r.db.WithContext(ctx).
		Where("platform = ?", platform).
		Delete(&models.CredentialModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return credential.ErrAuthMissing
	}
	return nil
}

// Ensure GormCredentialRepository implements credential.Repository
var _ credential.Repository = (*GormCredentialRepository)(nil)
