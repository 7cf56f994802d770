package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/booksync/backend/internal/domain/accounting"
	"github.com/booksync/backend/internal/domain/shared"
	"github.com/booksync/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements accounting.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByRemoteID finds a product by its natural key
func (r *GormProductRepository) FindByRemoteID(ctx context.Context, platform accounting.Platform, remoteID string) (*accounting.Product, error) {
	var model models.ProductModel
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

// FindByPlatform returns all products mirrored from a platform
func (r *GormProductRepository) FindByPlatform(ctx context.Context, platform accounting.Platform) ([]accounting.Product, error) {
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("platform = ?", platform).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	products := make([]accounting.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, nil
}

// FindByKind returns all products of one kind mirrored from a platform
func (r *GormProductRepository) FindByKind(ctx context.Context, platform accounting.Platform, kind accounting.ProductKind) ([]accounting.Product, error) {
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("platform = ? AND kind = ?", platform, kind).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	products := make([]accounting.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, nil
}

// Save creates or updates a single product
func (r *GormProductRepository) Save(ctx context.Context, product *accounting.Product) error {
	return r.db.WithContext(ctx).Save(models.ProductModelFromDomain(product)).Error
}

// Upsert inserts or overwrites products by natural key. price_override is
// deliberately absent from the assignment list: it is owned locally and a sync
// write must never clobber it.
func (r *GormProductRepository) Upsert(ctx context.Context, products []*accounting.Product) error {
	if len(products) == 0 {
		return nil
	}
	rows := make([]models.ProductModel, len(products))
	for i, p := range products {
		rows[i] = *models.ProductModelFromDomain(p)
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "platform"}, {Name: "remote_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"sync_token", "name", "sku", "kind", "description", "unit_price",
			"purchase_cost", "quantity_on_hand", "active", "remote_updated_at", "updated_at",
		}),
	}).CreateInBatches(rows, 500).Error
}

// ReplaceScope deletes all products for the platform and bulk-inserts the batch
func (r *GormProductRepository) ReplaceScope(ctx context.Context, platform accounting.Platform, products []*accounting.Product) error {
	if err := r.db.WithContext(ctx).
		Where("platform = ?", platform).
		Delete(&models.ProductModel{}).Error; err != nil {
		return err
	}
	if len(products) == 0 {
		return nil
	}
	rows := make([]models.ProductModel, len(products))
	for i, p := range products {
		rows[i] = *models.ProductModelFromDomain(p)
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, 500).Error
}

// SoftDeleteMissing marks products inactive whose remote ID is not in keep
func (r *GormProductRepository) SoftDeleteMissing(ctx context.Context, platform accounting.Platform, keep []string) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
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

// SetPriceOverride sets or clears the local-only price override
func (r *GormProductRepository) SetPriceOverride(ctx context.Context, platform accounting.Platform, remoteID string, override *decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("platform = ? AND remote_id = ?", platform, remoteID).
		Updates(map[string]any{
			"price_override": override,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormProductRepository implements ProductRepository
var _ accounting.ProductRepository = (*GormProductRepository)(nil)
