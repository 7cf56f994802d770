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

// GormInvoiceRepository implements accounting.InvoiceRepository using GORM.
// Writes persist the parent and its lines together; multi-row operations are
// expected to run inside the caller's transaction scope.
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByRemoteID finds an invoice with its lines by natural key
func (r *GormInvoiceRepository) FindByRemoteID(ctx context.Context, platform accounting.Platform, remoteID string) (*accounting.Invoice, error) {
	var model models.InvoiceModel
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

// FindByPlatform returns all invoices with their lines for a platform
func (r *GormInvoiceRepository) FindByPlatform(ctx context.Context, platform accounting.Platform) ([]accounting.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_number ASC")
		}).
		Where("platform = ?", platform).
		Order("issue_date DESC, doc_number DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	invoices := make([]accounting.Invoice, len(rows))
	for i := range rows {
		invoices[i] = *rows[i].ToDomain()
	}
	return invoices, nil
}

// Save creates or updates a single invoice with its lines
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *accounting.Invoice) error {
	return r.Upsert(ctx, []*accounting.Invoice{invoice})
}

// Upsert inserts or overwrites invoices by natural key. Lines are replaced
// wholesale per parent: delete then reinsert keeps the collection exactly
// equal to the mapped snapshot on every run.
func (r *GormInvoiceRepository) Upsert(ctx context.Context, invoices []*accounting.Invoice) error {
	if len(invoices) == 0 {
		return nil
	}
	parents := make([]models.InvoiceModel, len(invoices))
	parentIDs := make([]uuid.UUID, len(invoices))
	var lines []models.InvoiceLineModel
	for i, inv := range invoices {
		m := models.InvoiceModelFromDomain(inv)
		lines = append(lines, m.Lines...)
		m.Lines = nil
		parents[i] = *m
		parentIDs[i] = inv.ID
	}

	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "platform"}, {Name: "remote_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"sync_token", "doc_number", "customer_name", "currency_code",
			"issue_date", "due_date", "subtotal", "tax_total", "total", "balance",
			"status", "remote_updated_at", "updated_at",
		}),
	}).CreateInBatches(parents, 200).Error; err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).
		Where("invoice_id IN ?", parentIDs).
		Delete(&models.InvoiceLineModel{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(lines, 500).Error
}

// ReplaceScope deletes all invoices and lines for the platform and bulk-inserts
// the batch
func (r *GormInvoiceRepository) ReplaceScope(ctx context.Context, platform accounting.Platform, invoices []*accounting.Invoice) error {
	if err := r.db.WithContext(ctx).
		Where("invoice_id IN (?)",
			r.db.Model(&models.InvoiceModel{}).Select("id").Where("platform = ?", platform),
		).
		Delete(&models.InvoiceLineModel{}).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).
		Where("platform = ?", platform).
		Delete(&models.InvoiceModel{}).Error; err != nil {
		return err
	}
	if len(invoices) == 0 {
		return nil
	}
	rows := make([]models.InvoiceModel, len(invoices))
	for i, inv := range invoices {
		rows[i] = *models.InvoiceModelFromDomain(inv)
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, 200).Error
}

// SoftDeleteMissing marks active invoices inactive whose remote ID is not in
// keep. Voided invoices keep their terminal status.
func (r *GormInvoiceRepository) SoftDeleteMissing(ctx context.Context, platform accounting.Platform, keep []string) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
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

// SetLocalNote sets the local-only note
func (r *GormInvoiceRepository) SetLocalNote(ctx context.Context, platform accounting.Platform, remoteID, note string) error {
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("platform = ? AND remote_id = ?", platform, remoteID).
		Updates(map[string]any{
			"local_note": note,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ accounting.InvoiceRepository = (*GormInvoiceRepository)(nil)
