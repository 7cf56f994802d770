package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/booksync/backend/internal/domain/accounting"
	"github.com/booksync/backend/internal/domain/shared"
	"github.com/booksync/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBillRepository implements accounting.BillRepository using GORM.
type GormBillRepository struct {
	db *gorm.DB
}

// NewGormBillRepository creates a new GormBillRepository
func NewGormBillRepository(db *gorm.DB) *GormBillRepository {
	return &GormBillRepository{db: db}
}

// FindByRemoteID finds a bill with its lines by natural key
func (r *GormBillRepository) FindByRemoteID(ctx context.Context, platform accounting.Platform, remoteID string) (*accounting.Bill, error) {
	var model models.BillModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_number ASC")
		}).
		Where("platform = ? AND remote_id = ?", platform, remoteID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPlatform returns all bills with their lines for a platform
func (r *GormBillRepository) FindByPlatform(ctx context.Context, platform accounting.Platform) ([]accounting.Bill, error) {
	var rows []models.BillModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_number ASC")
		}).
		Where("platform = ?", platform).
		Order("issue_date DESC, doc_number DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	bills := make([]accounting.Bill, len(rows))
	for i := range rows {
		bills[i] = *rows[i].ToDomain()
	}
	return bills, nil
}

// Save creates or updates a single bill with its lines
func (r *GormBillRepository) Save(ctx context.Context, bill *accounting.Bill) error {
	return r.Upsert(ctx, []*accounting.Bill{bill})
}

// Upsert inserts or overwrites bills by natural key, replacing each parent's
// line collection with the mapped snapshot.
func (r *GormBillRepository) Upsert(ctx context.Context, bills []*accounting.Bill) error {
	if len(bills) == 0 {
		return nil
	}
	parents := make([]models.BillModel, len(bills))
	parentIDs := make([]uuid.UUID, len(bills))
	var lines []models.BillLineModel
	for i, b := range bills {
		m := models.BillModelFromDomain(b)
		lines = append(lines, m.Lines...)
		m.Lines = nil
		parents[i] = *m
		parentIDs[i] = b.ID
	}

	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "platform"}, {Name: "remote_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"sync_token", "doc_number", "vendor_name", "vendor_remote_id",
			"currency_code", "issue_date", "due_date", "subtotal", "tax_total",
			"total", "balance", "status", "remote_updated_at", "updated_at",
		}),
	}).CreateInBatches(parents, 200).Error; err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).
		Where("bill_id IN ?", parentIDs).
		Delete(&models.BillLineModel{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(lines, 500).Error
}

// ReplaceScope deletes all bills and lines for the platform and bulk-inserts
// the batch
func (r *GormBillRepository) ReplaceScope(ctx context.Context, platform accounting.Platform, bills []*accounting.Bill) error {
	if err := r.db.WithContext(ctx).
		Where("bill_id IN (?)",
			r.db.Model(&models.BillModel{}).Select("id").Where("platform = ?", platform),
		).
		Delete(&models.BillLineModel{}).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).
		Where("platform = ?", platform).
		Delete(&models.BillModel{}).Error; err != nil {
		return err
	}
	if len(bills) == 0 {
		return nil
	}
	rows := make([]models.BillModel, len(bills))
	for i, b := range bills {
		rows[i] = *models.BillModelFromDomain(b)
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, 200).Error
}

// SoftDeleteMissing marks active bills inactive whose remote ID is not in keep
func (r *GormBillRepository) SoftDeleteMissing(ctx context.Context, platform accounting.Platform, keep []string) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.BillModel{}).
		Where("platform = ? AND status = ?", platform, accounting.DocumentStatusActive)
	if len(keep) > 0 {
		query = query.Where("remote_id NOT IN ?", keep)
	}
	result := query.Updates(map[string]any{
		"status":     accounting.DocumentStatusInactive,
		"updated_at": time.Now(),
	})
	return result.RowsAffected, result.Error
}

// Ensure GormBillRepository implements BillRepository
var _ accounting.BillRepository = (*GormBillRepository)(nil)
