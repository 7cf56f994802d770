package reconcile

import (
	"context"

	"github.com/booksync/backend/internal/domain/accounting"
	"github.com/booksync/backend/internal/domain/integration"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Engine applies one batch of freshly mapped entities to the canonical store
// under the strategy declared for the (platform, kind) scope. Full refreshes
// run under the scope lock so two overlapping runs cannot interleave their
// delete and rebuild phases; incremental merges upsert by natural key and are
// safe to retry as-is.
//
// The engine never talks to a remote platform. Idempotency is structural:
// applying the same snapshot twice changes nothing but row timestamps.
type Engine struct {
	scope  TransactionScope
	locker ScopeLocker
	logger *zap.Logger
}

// NewEngine creates a reconciliation engine
func NewEngine(scope TransactionScope, locker ScopeLocker, logger *zap.Logger) *Engine {
	return &Engine{scope: scope, locker: locker, logger: logger}
}

// dedupLastWins collapses duplicate natural keys within one batch, keeping the
// last occurrence. Platforms occasionally return the same record twice in a
// paginated fetch; the later page carries the fresher revision.
func dedupLastWins[T any](in []*T, key func(*T) string) []*T {
	index := make(map[string]int, len(in))
	out := make([]*T, 0, len(in))
	for _, item := range in {
		if i, ok := index[key(item)]; ok {
			out[i] = item
			continue
		}
		index[key(item)] = len(out)
		out = append(out, item)
	}
	return out
}

func (e *Engine) acquireForFullRefresh(ctx context.Context, platform accounting.Platform, kind accounting.EntityKind) (func(), error) {
	scope := accounting.Scope{Platform: platform, Kind: kind}
	release, err := e.locker.Acquire(ctx, scope.String())
	if err != nil {
		return nil, err
	}
	e.logger.Debug("Scope lock acquired", zap.String("scope", scope.String()))
	return release, nil
}

// ReconcileVendors applies a mapped vendor batch for one platform.
func (e *Engine) ReconcileVendors(ctx context.Context, platform accounting.Platform, incoming []*accounting.Vendor) error {
	incoming = dedupLastWins(incoming, func(v *accounting.Vendor) string { return v.RemoteID })
	strategy := integration.StrategyFor(platform, accounting.KindVendor)

	if strategy == integration.StrategyFullRefresh {
		release, err := e.acquireForFullRefresh(ctx, platform, accounting.KindVendor)
		if err != nil {
			return err
		}
		defer release()
	}

	return e.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		repo := repos.Vendors()
		if strategy == integration.StrategyFullRefresh {
			for _, v := range incoming {
				if v.ID == uuid.Nil {
					v.ID = uuid.New()
				}
			}
			return repo.ReplaceScope(ctx, platform, incoming)
		}

		existing, err := repo.FindByPlatform(ctx, platform)
		if err != nil {
			return err
		}
		byKey := make(map[string]*accounting.Vendor, len(existing))
		for i := range existing {
			byKey[existing[i].RemoteID] = &existing[i]
		}

		merged := make([]*accounting.Vendor, 0, len(incoming))
		keep := make([]string, 0, len(incoming))
		for _, in := range incoming {
			if ex, ok := byKey[in.RemoteID]; ok {
				ex.ApplyRemote(in)
				merged = append(merged, ex)
			} else {
				in.ID = uuid.New()
				merged = append(merged, in)
			}
			keep = append(keep, in.RemoteID)
		}
		if err := repo.Upsert(ctx, merged); err != nil {
			return err
		}
		_, err = repo.SoftDeleteMissing(ctx, platform, keep)
		return err
	})
}

// ReconcileAccounts applies a mapped account batch for one platform.
func (e *Engine) ReconcileAccounts(ctx context.Context, platform accounting.Platform, incoming []*accounting.Account) error {
	incoming = dedupLastWins(incoming, func(a *accounting.Account) string { return a.RemoteID })
	strategy := integration.StrategyFor(platform, accounting.KindAccount)

	if strategy == integration.StrategyFullRefresh {
		release, err := e.acquireForFullRefresh(ctx, platform, accounting.KindAccount)
		if err != nil {
			return err
		}
		defer release()
	}

	return e.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		repo := repos.Accounts()
		if strategy == integration.StrategyFullRefresh {
			for _, a := range incoming {
				if a.ID == uuid.Nil {
					a.ID = uuid.New()
				}
			}
			return repo.ReplaceScope(ctx, platform, incoming)
		}

		existing, err := repo.FindByPlatform(ctx, platform)
		if err != nil {
			return err
		}
		byKey := make(map[string]*accounting.Account, len(existing))
		for i := range existing {
			byKey[existing[i].RemoteID] = &existing[i]
		}

		merged := make([]*accounting.Account, 0, len(incoming))
		keep := make([]string, 0, len(incoming))
		for _, in := range incoming {
			if ex, ok := byKey[in.RemoteID]; ok {
				ex.ApplyRemote(in)
				merged = append(merged, ex)
			} else {
				in.ID = uuid.New()
				merged = append(merged, in)
			}
			keep = append(keep, in.RemoteID)
		}
		if err := repo.Upsert(ctx, merged); err != nil {
			return err
		}
		_, err = repo.SoftDeleteMissing(ctx, platform, keep)
		return err
	})
}

// ReconcileProducts applies a mapped product batch for one platform. Products
// carry a local-only price override, so the merge path loads existing rows and
// folds the remote snapshot into them instead of replacing the scope.
func (e *Engine) ReconcileProducts(ctx context.Context, platform accounting.Platform, incoming []*accounting.Product) error {
	incoming = dedupLastWins(incoming, func(p *accounting.Product) string { return p.RemoteID })
	strategy := integration.StrategyFor(platform, accounting.KindProduct)

	if strategy == integration.StrategyFullRefresh {
		release, err := e.acquireForFullRefresh(ctx, platform, accounting.KindProduct)
		if err != nil {
			return err
		}
		defer release()
	}

	return e.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		repo := repos.Products()
		if strategy == integration.StrategyFullRefresh {
			for _, p := range incoming {
				if p.ID == uuid.Nil {
					p.ID = uuid.New()
				}
			}
			return repo.ReplaceScope(ctx, platform, incoming)
		}

		existing, err := repo.FindByPlatform(ctx, platform)
		if err != nil {
			return err
		}
		byKey := make(map[string]*accounting.Product, len(existing))
		for i := range existing {
			byKey[existing[i].RemoteID] = &existing[i]
		}

		merged := make([]*accounting.Product, 0, len(incoming))
		keep := make([]string, 0, len(incoming))
		for _, in := range incoming {
			if ex, ok := byKey[in.RemoteID]; ok {
				ex.ApplyRemote(in)
				merged = append(merged, ex)
			} else {
				in.ID = uuid.New()
				merged = append(merged, in)
			}
			keep = append(keep, in.RemoteID)
		}
		if err := repo.Upsert(ctx, merged); err != nil {
			return err
		}
		_, err = repo.SoftDeleteMissing(ctx, platform, keep)
		return err
	})
}

// ReconcileInvoices applies a mapped invoice batch for one platform. Line
// children are re-parented onto the surviving aggregate ID before persisting.
func (e *Engine) ReconcileInvoices(ctx context.Context, platform accounting.Platform, incoming []*accounting.Invoice) error {
	incoming = dedupLastWins(incoming, func(i *accounting.Invoice) string { return i.RemoteID })
	strategy := integration.StrategyFor(platform, accounting.KindInvoice)

	if strategy == integration.StrategyFullRefresh {
		release, err := e.acquireForFullRefresh(ctx, platform, accounting.KindInvoice)
		if err != nil {
			return err
		}
		defer release()
	}

	return e.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		repo := repos.Invoices()
		if strategy == integration.StrategyFullRefresh {
			for _, inv := range incoming {
				adoptInvoiceLines(inv)
			}
			return repo.ReplaceScope(ctx, platform, incoming)
		}

		existing, err := repo.FindByPlatform(ctx, platform)
		if err != nil {
			return err
		}
		byKey := make(map[string]*accounting.Invoice, len(existing))
		for i := range existing {
			byKey[existing[i].RemoteID] = &existing[i]
		}

		merged := make([]*accounting.Invoice, 0, len(incoming))
		keep := make([]string, 0, len(incoming))
		for _, in := range incoming {
			if ex, ok := byKey[in.RemoteID]; ok {
				ex.ApplyRemote(in)
				adoptInvoiceLines(ex)
				merged = append(merged, ex)
			} else {
				adoptInvoiceLines(in)
				merged = append(merged, in)
			}
			keep = append(keep, in.RemoteID)
		}
		if err := repo.Upsert(ctx, merged); err != nil {
			return err
		}
		_, err = repo.SoftDeleteMissing(ctx, platform, keep)
		return err
	})
}

// ReconcileBills applies a mapped bill batch for one platform.
func (e *Engine) ReconcileBills(ctx context.Context, platform accounting.Platform, incoming []*accounting.Bill) error {
	incoming = dedupLastWins(incoming, func(b *accounting.Bill) string { return b.RemoteID })
	strategy := integration.StrategyFor(platform, accounting.KindBill)

	if strategy == integration.StrategyFullRefresh {
		release, err := e.acquireForFullRefresh(ctx, platform, accounting.KindBill)
		if err != nil {
			return err
		}
		defer release()
	}

	return e.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		repo := repos.Bills()
		if strategy == integration.StrategyFullRefresh {
			for _, b := range incoming {
				adoptBillLines(b)
			}
			return repo.ReplaceScope(ctx, platform, incoming)
		}

		existing, err := repo.FindByPlatform(ctx, platform)
		if err != nil {
			return err
		}
		byKey := make(map[string]*accounting.Bill, len(existing))
		for i := range existing {
			byKey[existing[i].RemoteID] = &existing[i]
		}

		merged := make([]*accounting.Bill, 0, len(incoming))
		keep := make([]string, 0, len(incoming))
		for _, in := range incoming {
			if ex, ok := byKey[in.RemoteID]; ok {
				ex.ApplyRemote(in)
				adoptBillLines(ex)
				merged = append(merged, ex)
			} else {
				adoptBillLines(in)
				merged = append(merged, in)
			}
			keep = append(keep, in.RemoteID)
		}
		if err := repo.Upsert(ctx, merged); err != nil {
			return err
		}
		_, err = repo.SoftDeleteMissing(ctx, platform, keep)
		return err
	})
}

// adoptInvoiceLines assigns surrogate IDs to the aggregate and its lines and
// parents every line onto the aggregate.
func adoptInvoiceLines(inv *accounting.Invoice) {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	for n := range inv.Lines {
		if inv.Lines[n].ID == uuid.Nil {
			inv.Lines[n].ID = uuid.New()
		}
		inv.Lines[n].InvoiceID = inv.ID
	}
}

func adoptBillLines(b *accounting.Bill) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	for n := range b.Lines {
		if b.Lines[n].ID == uuid.Nil {
			b.Lines[n].ID = uuid.New()
		}
		b.Lines[n].BillID = b.ID
	}
}

// SaveVendor persists a single vendor inside a transaction.
func (e *Engine) SaveVendor(ctx context.Context, vendor *accounting.Vendor) error {
	return e.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return repos.Vendors().Save(ctx, vendor)
	})
}

// SaveInvoice persists a single invoice aggregate inside a transaction.
func (e *Engine) SaveInvoice(ctx context.Context, invoice *accounting.Invoice) error {
	adoptInvoiceLines(invoice)
	return e.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return repos.Invoices().Save(ctx, invoice)
	})
}

// GetVendor loads one vendor by natural key.
func (e *Engine) GetVendor(ctx context.Context, platform accounting.Platform, remoteID string) (*accounting.Vendor, error) {
	var vendor *accounting.Vendor
	err := e.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		vendor, err = repos.Vendors().FindByRemoteID(ctx, platform, remoteID)
		return err
	})
	return vendor, err
}

// GetInvoice loads one invoice aggregate by natural key.
func (e *Engine) GetInvoice(ctx context.Context, platform accounting.Platform, remoteID string) (*accounting.Invoice, error) {
	var invoice *accounting.Invoice
	err := e.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		invoice, err = repos.Invoices().FindByRemoteID(ctx, platform, remoteID)
		return err
	})
	return invoice, err
}

// GetProduct loads one product by natural key.
func (e *Engine) GetProduct(ctx context.Context, platform accounting.Platform, remoteID string) (*accounting.Product, error) {
	var product *accounting.Product
	err := e.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		product, err = repos.Products().FindByRemoteID(ctx, platform, remoteID)
		return err
	})
	return product, err
}

// SetInvoiceNote writes the local-only invoice note through its dedicated
// column path, bypassing the sync-owned columns entirely.
func (e *Engine) SetInvoiceNote(ctx context.Context, platform accounting.Platform, remoteID, note string) error {
	return e.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return repos.Invoices().SetLocalNote(ctx, platform, remoteID, note)
	})
}

// SetProductPriceOverride sets or clears the local-only price override.
func (e *Engine) SetProductPriceOverride(ctx context.Context, platform accounting.Platform, remoteID string, override *decimal.Decimal) error {
	return e.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return repos.Products().SetPriceOverride(ctx, platform, remoteID, override)
	})
}
