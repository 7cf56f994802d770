package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/booksync/backend/internal/domain/accounting"
	"github.com/booksync/backend/internal/domain/credential"
	"github.com/booksync/backend/internal/domain/integration"
	"github.com/booksync/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CredentialSource supplies a non-expired credential per platform.
type CredentialSource interface {
	GetValidCredential(ctx context.Context, platform accounting.Platform) (*credential.Credential, error)
}

// SyncService orchestrates one sync invocation end to end: obtain a valid
// credential, fetch the raw remote snapshot, map each record, and hand the
// mapped batch to the engine.
//
// Error policy per scope:
//   - a platform that was never connected (credential.ErrAuthMissing) is
//     skipped in the fan-out operations and surfaced in the targeted ones;
//   - credential.ErrAuthExpired and *integration.RemoteAPIError abort the
//     invocation and surface to the caller;
//   - a *integration.MappingError skips only the offending record, which is
//     listed in the result's failures.
type SyncService struct {
	creds    CredentialSource
	registry integration.Registry
	engine   *Engine
	logger   *zap.Logger
	now      func() time.Time
}

// NewSyncService creates a SyncService
func NewSyncService(creds CredentialSource, registry integration.Registry, engine *Engine, logger *zap.Logger) *SyncService {
	return &SyncService{
		creds:    creds,
		registry: registry,
		engine:   engine,
		logger:   logger,
		now:      time.Now,
	}
}

// SyncVendors mirrors the vendor list of every connected platform.
func (s *SyncService) SyncVendors(ctx context.Context) (*integration.SyncResult, error) {
	result := integration.NewSyncResult()
	for _, adapter := range s.registry.ListPlatforms() {
		scoped, err := s.syncVendorScope(ctx, adapter)
		if errors.Is(err, credential.ErrAuthMissing) {
			s.logger.Debug("Platform not connected, skipping",
				zap.String("platform", adapter.Platform().String()),
				zap.String("kind", accounting.KindVendor.String()))
			continue
		}
		if err != nil {
			return nil, err
		}
		result.Merge(scoped)
	}
	return result.Finish(s.now()), nil
}

// SyncAccounts mirrors the chart of accounts of every connected platform.
func (s *SyncService) SyncAccounts(ctx context.Context) (*integration.SyncResult, error) {
	result := integration.NewSyncResult()
	for _, adapter := range s.registry.ListPlatforms() {
		scoped, err := s.syncAccountScope(ctx, adapter)
		if errors.Is(err, credential.ErrAuthMissing) {
			s.logger.Debug("Platform not connected, skipping",
				zap.String("platform", adapter.Platform().String()),
				zap.String("kind", accounting.KindAccount.String()))
			continue
		}
		if err != nil {
			return nil, err
		}
		result.Merge(scoped)
	}
	return result.Finish(s.now()), nil
}

// SyncProducts mirrors the product catalog of every connected platform.
// A non-empty kind narrows the fetch to one item class.
func (s *SyncService) SyncProducts(ctx context.Context, kind accounting.ProductKind) (*integration.SyncResult, error) {
	if kind != "" && !kind.IsValid() {
		return nil, fmt.Errorf("%w: product kind %q", shared.ErrInvalidInput, kind)
	}
	result := integration.NewSyncResult()
	for _, adapter := range s.registry.ListPlatforms() {
		scoped, err := s.syncProductScope(ctx, adapter, kind)
		if errors.Is(err, credential.ErrAuthMissing) {
			s.logger.Debug("Platform not connected, skipping",
				zap.String("platform", adapter.Platform().String()),
				zap.String("kind", accounting.KindProduct.String()))
			continue
		}
		if err != nil {
			return nil, err
		}
		result.Merge(scoped)
	}
	return result.Finish(s.now()), nil
}

// SyncInvoices mirrors the sales invoices of one platform. Unlike the fan-out
// operations, a missing credential surfaces here: the caller named the
// platform explicitly.
func (s *SyncService) SyncInvoices(ctx context.Context, platform accounting.Platform) (*integration.SyncResult, error) {
	adapter, err := s.registry.GetPlatform(platform)
	if err != nil {
		return nil, err
	}
	scoped, err := s.syncInvoiceScope(ctx, adapter)
	if err != nil {
		return nil, err
	}
	return scoped.Finish(s.now()), nil
}

// SyncBills mirrors the vendor bills of every connected platform.
func (s *SyncService) SyncBills(ctx context.Context) (*integration.SyncResult, error) {
	result := integration.NewSyncResult()
	for _, adapter := range s.registry.ListPlatforms() {
		scoped, err := s.syncBillScope(ctx, adapter)
		if errors.Is(err, credential.ErrAuthMissing) {
			s.logger.Debug("Platform not connected, skipping",
				zap.String("platform", adapter.Platform().String()),
				zap.String("kind", accounting.KindBill.String()))
			continue
		}
		if err != nil {
			return nil, err
		}
		result.Merge(scoped)
	}
	return result.Finish(s.now()), nil
}

func (s *SyncService) syncVendorScope(ctx context.Context, adapter integration.AccountingPlatform) (*integration.SyncResult, error) {
	cred, err := s.creds.GetValidCredential(ctx, adapter.Platform())
	if err != nil {
		return nil, err
	}
	raws, err := adapter.FetchRecords(ctx, cred, integration.Query{Kind: accounting.KindVendor})
	if err != nil {
		return nil, err
	}

	result := integration.NewSyncResult()
	result.TotalCount = len(raws)
	vendors := make([]*accounting.Vendor, 0, len(raws))
	for _, raw := range raws {
		v, err := adapter.MapVendor(raw)
		if err != nil {
			if failure, ok := asMappingFailure(err); ok {
				result.AddFailure(failure.Identifier, failure.Error())
				continue
			}
			return nil, err
		}
		vendors = append(vendors, v)
	}

	if err := s.engine.ReconcileVendors(ctx, adapter.Platform(), vendors); err != nil {
		return nil, err
	}
	result.SucceededCount = len(vendors)
	s.logScope(adapter.Platform(), accounting.KindVendor, result)
	return result, nil
}

func (s *SyncService) syncAccountScope(ctx context.Context, adapter integration.AccountingPlatform) (*integration.SyncResult, error) {
	cred, err := s.creds.GetValidCredential(ctx, adapter.Platform())
	if err != nil {
		return nil, err
	}
	raws, err := adapter.FetchRecords(ctx, cred, integration.Query{Kind: accounting.KindAccount})
	if err != nil {
		return nil, err
	}

	result := integration.NewSyncResult()
	result.TotalCount = len(raws)
	accounts := make([]*accounting.Account, 0, len(raws))
	for _, raw := range raws {
		a, err := adapter.MapAccount(raw)
		if err != nil {
			if failure, ok := asMappingFailure(err); ok {
				result.AddFailure(failure.Identifier, failure.Error())
				continue
			}
			return nil, err
		}
		accounts = append(accounts, a)
	}

	if err := s.engine.ReconcileAccounts(ctx, adapter.Platform(), accounts); err != nil {
		return nil, err
	}
	result.SucceededCount = len(accounts)
	s.logScope(adapter.Platform(), accounting.KindAccount, result)
	return result, nil
}

func (s *SyncService) syncProductScope(ctx context.Context, adapter integration.AccountingPlatform, kind accounting.ProductKind) (*integration.SyncResult, error) {
	cred, err := s.creds.GetValidCredential(ctx, adapter.Platform())
	if err != nil {
		return nil, err
	}
	raws, err := adapter.FetchRecords(ctx, cred, integration.Query{Kind: accounting.KindProduct, ProductKind: kind})
	if err != nil {
		return nil, err
	}

	result := integration.NewSyncResult()
	result.TotalCount = len(raws)
	products := make([]*accounting.Product, 0, len(raws))
	for _, raw := range raws {
		p, err := adapter.MapProduct(raw)
		if err != nil {
			if failure, ok := asMappingFailure(err); ok {
				result.AddFailure(failure.Identifier, failure.Error())
				continue
			}
			return nil, err
		}
		products = append(products, p)
	}

	if err := s.engine.ReconcileProducts(ctx, adapter.Platform(), products); err != nil {
		return nil, err
	}
	result.SucceededCount = len(products)
	s.logScope(adapter.Platform(), accounting.KindProduct, result)
	return result, nil
}

func (s *SyncService) syncInvoiceScope(ctx context.Context, adapter integration.AccountingPlatform) (*integration.SyncResult, error) {
	cred, err := s.creds.GetValidCredential(ctx, adapter.Platform())
	if err != nil {
		return nil, err
	}
	raws, err := adapter.FetchRecords(ctx, cred, integration.Query{Kind: accounting.KindInvoice})
	if err != nil {
		return nil, err
	}

	result := integration.NewSyncResult()
	result.TotalCount = len(raws)
	invoices := make([]*accounting.Invoice, 0, len(raws))
	for _, raw := range raws {
		inv, err := adapter.MapInvoice(raw)
		if err != nil {
			if failure, ok := asMappingFailure(err); ok {
				result.AddFailure(failure.Identifier, failure.Error())
				continue
			}
			return nil, err
		}
		invoices = append(invoices, inv)
	}

	if err := s.engine.ReconcileInvoices(ctx, adapter.Platform(), invoices); err != nil {
		return nil, err
	}
	result.SucceededCount = len(invoices)
	s.logScope(adapter.Platform(), accounting.KindInvoice, result)
	return result, nil
}

func (s *SyncService) syncBillScope(ctx context.Context, adapter integration.AccountingPlatform) (*integration.SyncResult, error) {
	cred, err := s.creds.GetValidCredential(ctx, adapter.Platform())
	if err != nil {
		return nil, err
	}
	raws, err := adapter.FetchRecords(ctx, cred, integration.Query{Kind: accounting.KindBill})
	if err != nil {
		return nil, err
	}

	result := integration.NewSyncResult()
	result.TotalCount = len(raws)
	bills := make([]*accounting.Bill, 0, len(raws))
	for _, raw := range raws {
		b, err := adapter.MapBill(raw)
		if err != nil {
			if failure, ok := asMappingFailure(err); ok {
				result.AddFailure(failure.Identifier, failure.Error())
				continue
			}
			return nil, err
		}
		bills = append(bills, b)
	}

	if err := s.engine.ReconcileBills(ctx, adapter.Platform(), bills); err != nil {
		return nil, err
	}
	result.SucceededCount = len(bills)
	s.logScope(adapter.Platform(), accounting.KindBill, result)
	return result, nil
}

func (s *SyncService) logScope(platform accounting.Platform, kind accounting.EntityKind, result *integration.SyncResult) {
	s.logger.Info("Scope synced",
		zap.String("platform", platform.String()),
		zap.String("kind", kind.String()),
		zap.Int("total", result.TotalCount),
		zap.Int("succeeded", result.SucceededCount),
		zap.Int("failed", result.FailedCount))
}

func asMappingFailure(err error) (*integration.MappingError, bool) {
	var mapErr *integration.MappingError
	if errors.As(err, &mapErr) {
		return mapErr, true
	}
	return nil, false
}
