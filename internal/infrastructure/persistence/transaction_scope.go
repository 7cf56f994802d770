package persistence

import (
	"context"

	"github.com/booksync/backend/internal/application/reconcile"
	"github.com/booksync/backend/internal/domain/accounting"
	"gorm.io/gorm"
)

// GormTransactionScope implements reconcile.TransactionScope using GORM
// transactions. It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos reconcile.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Vendors returns the vendor repository scoped to the current transaction
func (r *gormTransactionalRepositories) Vendors() accounting.VendorRepository {
	return NewGormVendorRepository(r.tx)
}

// Accounts returns the account repository scoped to the current transaction
func (r *gormTransactionalRepositories) Accounts() accounting.AccountRepository {
	return NewGormAccountRepository(r.tx)
}

// Products returns the product repository scoped to the current transaction
func (r *gormTransactionalRepositories) Products() accounting.ProductRepository {
	return NewGormProductRepository(r.tx)
}

// Invoices returns the invoice repository scoped to the current transaction
func (r *gormTransactionalRepositories) Invoices() accounting.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// Bills returns the bill repository scoped to the current transaction
func (r *gormTransactionalRepositories) Bills() accounting.BillRepository {
	return NewGormBillRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ reconcile.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ reconcile.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
