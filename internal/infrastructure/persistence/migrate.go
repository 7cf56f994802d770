package persistence

import (
	"fmt"

	"github.com/booksync/backend/internal/infrastructure/persistence/models"
)

// Xero rejects duplicate invoice numbers among live sales invoices; the local
// schema mirrors that rule. Voided and soft-deleted rows are excluded because
// Xero allows their numbers to be reused. QuickBooks treats doc-number
// uniqueness as a per-company preference and neither platform enforces it for
// bills, so those carry no such constraint.
const uniqueXeroInvoiceDocNumberIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_xero_doc_number
ON invoices (platform, doc_number)
WHERE platform = 'XERO' AND status = 'ACTIVE' AND doc_number <> ''`

// Migrate runs schema auto-migration for all persistence models
func (d *Database) Migrate() error {
	if err := d.DB.AutoMigrate(
		&models.CredentialModel{},
		&models.VendorModel{},
		&models.AccountModel{},
		&models.ProductModel{},
		&models.InvoiceModel{},
		&models.InvoiceLineModel{},
		&models.BillModel{},
		&models.BillLineModel{},
	); err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}
	if err := d.DB.Exec(uniqueXeroInvoiceDocNumberIndex).Error; err != nil {
		return fmt.Errorf("failed to create invoice doc number index: %w", err)
	}
	return nil
}
