package reconcile

import (
	"context"

	"github.com/booksync/backend/internal/domain/accounting"
)

// TransactionScope provides transactional access to the canonical store.
// Every multi-row mutation for one sync invocation runs inside one Execute
// call: if any row in the batch fails to persist, the entire scope's change is
// rolled back, so a parent document is never committed without its line items.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the canonical-entity
// repositories within a transaction. All repositories returned share the same
// underlying database transaction.
type TransactionalRepositories interface {
	// Vendors returns the vendor repository scoped to the current transaction
	Vendors() accounting.VendorRepository
	// Accounts returns the account repository scoped to the current transaction
	Accounts() accounting.AccountRepository
	// Products returns the product repository scoped to the current transaction
	Products() accounting.ProductRepository
	// Invoices returns the invoice repository scoped to the current transaction
	Invoices() accounting.InvoiceRepository
	// Bills returns the bill repository scoped to the current transaction
	Bills() accounting.BillRepository
}

// ScopeLocker serializes reconciliation runs for one (platform, entity kind)
// scope. Overlapping full refreshes would interleave their delete and insert
// phases, leaving a window with zero or duplicate rows.
type ScopeLocker interface {
	// Acquire blocks until the scope lock is held or ctx is done. The returned
	// function releases the lock.
	Acquire(ctx context.Context, scope string) (func(), error)
}

// NoOpTransactionScope runs the function against fixed repositories without a
// real transaction. Useful for tests.
type NoOpTransactionScope struct {
	vendors  accounting.VendorRepository
	accounts accounting.AccountRepository
	products accounting.ProductRepository
	invoices accounting.InvoiceRepository
	bills    accounting.BillRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	vendors accounting.VendorRepository,
	accounts accounting.AccountRepository,
	products accounting.ProductRepository,
	invoices accounting.InvoiceRepository,
	bills accounting.BillRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		vendors:  vendors,
		accounts: accounts,
		products: products,
		invoices: invoices,
		bills:    bills,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Vendors returns the vendor repository.
func (s *NoOpTransactionScope) Vendors() accounting.VendorRepository { return s.vendors }

// Accounts returns the account repository.
func (s *NoOpTransactionScope) Accounts() accounting.AccountRepository { return s.accounts }

// Products returns the product repository.
func (s *NoOpTransactionScope) Products() accounting.ProductRepository { return s.products }

// Invoices returns the invoice repository.
func (s *NoOpTransactionScope) Invoices() accounting.InvoiceRepository { return s.invoices }

// Bills returns the bill repository.
func (s *NoOpTransactionScope) Bills() accounting.BillRepository { return s.bills }

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
