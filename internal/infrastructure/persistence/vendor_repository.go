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

// GormVendorRepository implements accounting.VendorRepository using GORM
type GormVendorRepository struct {
	db *gorm.DB
}

// NewGormVendorRepository creates a new GormVendorRepository
func NewGormVendorRepository(db *gorm.DB) *GormVendorRepository {
	return &GormVendorRepository{db: db}
}

// FindByRemoteID finds a vendor by its natural key
func (r *GormVendorRepository) FindByRemoteID(ctx context.Context, platform accounting.Platform, remoteID string) (*accounting.Vendor, error) {
	var model models.VendorModel
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

// FindByPlatform returns all vendors mirrored from a platform
func (r *GormVendorRepository) FindByPlatform(ctx context.Context, platform accounting.Platform) ([]accounting.Vendor, error) {
	var rows []models.VendorModel
	if err := r.db.WithContext(ctx).
		Where("platform = ?", platform).
		Order("display_name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	vendors := make([]accounting.Vendor, len(rows))
	for i := range rows {
		vendors[i] = *rows[i].ToDomain()
	}
	return vendors, nil
}

// Save creates or updates a single vendor
func (r *GormVendorRepository) Save(ctx context.Context, vendor *accounting.Vendor) error {
	return r.db.WithContext(ctx).Save(models.VendorModelFromDomain(vendor)).Error
}

// Upsert inserts or overwrites vendors by natural key. The assignment list
// excludes the surrogate ID and created_at, so conflicting rows keep their
// identity and history.
func (r *GormVendorRepository) Upsert(ctx context.Context, vendors []*accounting.Vendor) error {
	if len(vendors) == 0 {
		return nil
	}
	rows := make([]models.VendorModel, len(vendors))
	for i, v := range vendors {
		rows[i] = *models.VendorModelFromDomain(v)
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "platform"}, {Name: "remote_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"sync_token", "display_name", "company_name", "email", "phone",
			"balance", "currency_code", "active", "remote_updated_at", "updated_at",
		}),
	}).CreateInBatches(rows, 500).Error
}

// ReplaceScope deletes all vendors for the platform and bulk-inserts the batch
func (r *GormVendorRepository) ReplaceScope(ctx context.Context, platform accounting.Platform, vendors []*accounting.Vendor) error {
	if err := r.db.WithContext(ctx).
		Where("platform = ?", platform).
		Delete(&models.VendorModel{}).Error; err != nil {
		return err
	}
	if len(vendors) == 0 {
		return nil
	}
	rows := make([]models.VendorModel, len(vendors))
	for i, v := range vendors {
		rows[i] = *models.VendorModelFromDomain(v)
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, 500).Error
}

// SoftDeleteMissing marks vendors inactive whose remote ID is not in keep
func (r *GormVendorRepository) SoftDeleteMissing(ctx context.Context, platform accounting.Platform, keep []string) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.VendorModel{}).
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

// Ensure GormVendorRepository implements VendorRepository
var _ accounting.VendorRepository = (*GormVendorRepository)(nil)
