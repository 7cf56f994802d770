package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/booksync/backend/internal/domain/accounting"
	"github.com/booksync/backend/internal/domain/shared"
	"github.com/booksync/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAccountRepository implements accounting.AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindByRemoteID finds an account by its natural key
func (r *GormAccountRepository) FindByRemoteID(ctx context.Context, platform accounting.Platform, remoteID string) (*accounting.Account, error) {
	var model models.AccountModel
	if err := r.db.WithContext(ctx).
		Where("platform = ? AND remote_id = ?", platform, remoteID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPlatform returns all accounts mirrored from a platform
func (r *GormAccountRepository) FindByPlatform(ctx context.Context, platform accounting.Platform) ([]accounting.Account, error) {
	var rows []models.AccountModel
	if err := r.db.WithContext(ctx).
		Where("platform = ?", platform).
		Order("code ASC, name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	accounts := make([]accounting.Account, len(rows))
	for i := range rows {
		accounts[i] = *rows[i].ToDomain()
	}
	return accounts, nil
}

// Save creates or updates a single account
func (r *GormAccountRepository) Save(ctx context.Context, account *accounting.Account) error {
	return r.db.WithContext(ctx).Save(models.AccountModelFromDomain(account)).Error
}

// Upsert inserts or overwrites accounts by natural key
func (r *GormAccountRepository) Upsert(ctx context.Context, accounts []*accounting.Account) error {
	if len(accounts) == 0 {
		return nil
	}
	rows := make([]models.AccountModel, len(accounts))
	for i, a := range accounts {
		rows[i] = *models.AccountModelFromDomain(a)
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "platform"}, {Name: "remote_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"sync_token", "name", "code", "type", "currency_code",
			"current_balance", "active", "remote_updated_at", "updated_at",
		}),
	}).CreateInBatches(rows, 500).Error
}

// ReplaceScope deletes all accounts for the platform and bulk-inserts the batch
func (r *GormAccountRepository) ReplaceScope(ctx context.Context, platform accounting.Platform, accounts []*accounting.Account) error {
	if err := r.db.WithContext(ctx).
		Where("platform = ?", platform).
		Delete(&models.AccountModel{}).Error; err != nil {
		return err
	}
	if len(accounts) == 0 {
		return nil
	}
	rows := make([]models.AccountModel, len(accounts))
	for i, a := range accounts {
		rows[i] = *models.AccountModelFromDomain(a)
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, 500).Error
}

// SoftDeleteMissing marks accounts inactive whose remote ID is not in keep
func (r *GormAccountRepository) SoftDeleteMissing(ctx context.Context, platform accounting.Platform, keep []string) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.AccountModel{}).
		Where("platform = ? AND active = ?", platform, true)
	if len(keep) > 0 {
		query = query.Where("remote_id NOT IN ?", keep)
	}
	result := query.Updates(map[string]any{
		"active":     false,
		"updated_at": time.Now(),
	})
	return result.RowsAffected, result.Error
}

// Ensure GormAccountRepository implements AccountRepository
var _ accounting.AccountRepository = (*GormAccountRepository)(nil)
