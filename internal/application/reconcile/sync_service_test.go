package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/booksync/backend/internal/domain/accounting"
	"github.com/booksync/backend/internal/domain/credential"
	"github.com/booksync/backend/internal/domain/integration"
	"github.com/booksync/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func rawRecord(id, name string) integration.RawRecord {
	return integration.RawRecord(`{"id":"` + id + `","name":"` + name + `"}`)
}

func connectedCredential(platform accounting.Platform) *credential.Credential {
	return &credential.Credential{
		ID:          uuid.New(),
		Platform:    platform,
		TenantID:    "tenant-1",
		AccessToken: "access-0",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func newTestSyncService(t *testing.T, creds *fakeCredSource, adapters ...integration.AccountingPlatform) (*SyncService, *testStore) {
	t.Helper()
	store := newTestStore()
	engine := NewEngine(store.scope, store.locker, zap.NewNop())
	svc := NewSyncService(creds, &fakeRegistry{adapters: adapters}, engine, zap.NewNop())
	return svc, store
}

func TestSyncService_SyncVendors(t *testing.T) {
	ctx := context.Background()

	t.Run("skips unconnected platforms in the fan-out", func(t *testing.T) {
		qb := &fakeAdapter{
			platform: accounting.PlatformQuickBooks,
			records: map[accounting.EntityKind][]integration.RawRecord{
				accounting.KindVendor: {rawRecord("1", "Acme Tools"), rawRecord("2", "Globex")},
			},
		}
		xero := &fakeAdapter{platform: accounting.PlatformXero}
		creds := &fakeCredSource{creds: map[accounting.Platform]*credential.Credential{
			accounting.PlatformQuickBooks: connectedCredential(accounting.PlatformQuickBooks),
		}}
		svc, store := newTestSyncService(t, creds, qb, xero)

		result, err := svc.SyncVendors(ctx)

		require.NoError(t, err)
		assert.Equal(t, integration.SyncStatusSuccess, result.Status)
		assert.Equal(t, 2, result.TotalCount)
		assert.Equal(t, 2, result.SucceededCount)

		rows, err := store.vendors.FindByPlatform(ctx, accounting.PlatformQuickBooks)
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("a record that fails mapping is listed, not fatal", func(t *testing.T) {
		qb := &fakeAdapter{
			platform: accounting.PlatformQuickBooks,
			records: map[accounting.EntityKind][]integration.RawRecord{
				accounting.KindVendor: {rawRecord("1", "Acme Tools"), rawRecord("2", "BROKEN")},
			},
		}
		creds := &fakeCredSource{creds: map[accounting.Platform]*credential.Credential{
			accounting.PlatformQuickBooks: connectedCredential(accounting.PlatformQuickBooks),
		}}
		svc, store := newTestSyncService(t, creds, qb)

		result, err := svc.SyncVendors(ctx)

		require.NoError(t, err)
		assert.Equal(t, integration.SyncStatusPartial, result.Status)
		assert.Equal(t, 1, result.SucceededCount)
		require.Len(t, result.Failures, 1)
		assert.Equal(t, "2", result.Failures[0].Identifier)

		rows, err := store.vendors.FindByPlatform(ctx, accounting.PlatformQuickBooks)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("a remote API failure aborts the invocation", func(t *testing.T) {
		qb := &fakeAdapter{
			platform: accounting.PlatformQuickBooks,
			fetchErr: &integration.RemoteAPIError{Status: 500, Body: "internal error"},
		}
		creds := &fakeCredSource{creds: map[accounting.Platform]*credential.Credential{
			accounting.PlatformQuickBooks: connectedCredential(accounting.PlatformQuickBooks),
		}}
		svc, _ := newTestSyncService(t, creds, qb)

		_, err := svc.SyncVendors(ctx)

		var apiErr *integration.RemoteAPIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 500, apiErr.Status)
	})

	t.Run("an expired credential aborts the invocation", func(t *testing.T) {
		qb := &fakeAdapter{platform: accounting.PlatformQuickBooks}
		creds := &fakeCredSource{errs: map[accounting.Platform]error{
			accounting.PlatformQuickBooks: credential.ErrAuthExpired,
		}}
		svc, _ := newTestSyncService(t, creds, qb)

		_, err := svc.SyncVendors(ctx)

		assert.ErrorIs(t, err, credential.ErrAuthExpired)
	})

	t.Run("no connected platforms is an empty success", func(t *testing.T) {
		svc, _ := newTestSyncService(t, &fakeCredSource{},
			&fakeAdapter{platform: accounting.PlatformQuickBooks},
			&fakeAdapter{platform: accounting.PlatformXero})

		result, err := svc.SyncVendors(ctx)

		require.NoError(t, err)
		assert.Equal(t, integration.SyncStatusSuccess, result.Status)
		assert.Equal(t, 0, result.TotalCount)
	})
}

func TestSyncService_SyncProducts(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects an invalid product kind", func(t *testing.T) {
		svc, _ := newTestSyncService(t, &fakeCredSource{})

		_, err := svc.SyncProducts(ctx, "BUNDLE")

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("merges the catalog of connected platforms", func(t *testing.T) {
		xero := &fakeAdapter{
			platform: accounting.PlatformXero,
			records: map[accounting.EntityKind][]integration.RawRecord{
				accounting.KindProduct: {rawRecord("item-1", "Widget")},
			},
		}
		creds := &fakeCredSource{creds: map[accounting.Platform]*credential.Credential{
			accounting.PlatformXero: connectedCredential(accounting.PlatformXero),
		}}
		svc, store := newTestSyncService(t, creds, xero)

		result, err := svc.SyncProducts(ctx, accounting.ProductKindService)

		require.NoError(t, err)
		assert.Equal(t, 1, result.SucceededCount)

		row, err := store.products.FindByRemoteID(ctx, accounting.PlatformXero, "item-1")
		require.NoError(t, err)
		assert.Equal(t, "Widget", row.Name)
	})
}

func TestSyncService_SyncInvoices(t *testing.T) {
	ctx := context.Background()

	t.Run("targets one platform and persists its invoices", func(t *testing.T) {
		xero := &fakeAdapter{
			platform: accounting.PlatformXero,
			records: map[accounting.EntityKind][]integration.RawRecord{
				accounting.KindInvoice: {rawRecord("inv-1", "INV-001")},
			},
		}
		creds := &fakeCredSource{creds: map[accounting.Platform]*credential.Credential{
			accounting.PlatformXero: connectedCredential(accounting.PlatformXero),
		}}
		svc, store := newTestSyncService(t, creds, xero)

		result, err := svc.SyncInvoices(ctx, accounting.PlatformXero)

		require.NoError(t, err)
		assert.Equal(t, integration.SyncStatusSuccess, result.Status)

		_, err = store.invoices.FindByRemoteID(ctx, accounting.PlatformXero, "inv-1")
		assert.NoError(t, err)
	})

	t.Run("a missing credential surfaces on the targeted operation", func(t *testing.T) {
		svc, _ := newTestSyncService(t, &fakeCredSource{}, &fakeAdapter{platform: accounting.PlatformXero})

		_, err := svc.SyncInvoices(ctx, accounting.PlatformXero)

		assert.ErrorIs(t, err, credential.ErrAuthMissing)
	})

	t.Run("unregistered platform fails", func(t *testing.T) {
		svc, _ := newTestSyncService(t, &fakeCredSource{}, &fakeAdapter{platform: accounting.PlatformXero})

		_, err := svc.SyncInvoices(ctx, accounting.PlatformQuickBooks)

		assert.ErrorIs(t, err, integration.ErrPlatformNotRegistered)
	})
}

func TestSyncService_UpdateVendor(t *testing.T) {
	ctx := context.Background()

	seedVendor := func(t *testing.T, store *testStore) uuid.UUID {
		t.Helper()
		id := uuid.New()
		require.NoError(t, store.vendors.Save(ctx, &accounting.Vendor{
			ID: id, Platform: accounting.PlatformQuickBooks, RemoteID: "56",
			SyncToken: "3", DisplayName: "Acme Tools", Active: true,
		}))
		return id
	}

	t.Run("persists the accepted revision with the new sync token", func(t *testing.T) {
		qb := &fakeAdapter{platform: accounting.PlatformQuickBooks}
		creds := &fakeCredSource{creds: map[accounting.Platform]*credential.Credential{
			accounting.PlatformQuickBooks: connectedCredential(accounting.PlatformQuickBooks),
		}}
		svc, store := newTestSyncService(t, creds, qb)
		id := seedVendor(t, store)

		edited := &accounting.Vendor{
			Platform: accounting.PlatformQuickBooks, RemoteID: "56",
			SyncToken: "3", DisplayName: "Acme Tools Inc.", Active: true,
		}
		accepted, err := svc.UpdateVendor(ctx, accounting.PlatformQuickBooks, edited)

		require.NoError(t, err)
		assert.Equal(t, "3+1", accepted.SyncToken)
		assert.Equal(t, id, accepted.ID)

		stored, err := store.vendors.FindByRemoteID(ctx, accounting.PlatformQuickBooks, "56")
		require.NoError(t, err)
		assert.Equal(t, "Acme Tools Inc.", stored.DisplayName)
		assert.Equal(t, "3+1", stored.SyncToken)
	})

	t.Run("a stale sync token leaves the local row untouched", func(t *testing.T) {
		qb := &fakeAdapter{
			platform:      accounting.PlatformQuickBooks,
			updateVendErr: &integration.SyncConflictError{},
		}
		creds := &fakeCredSource{creds: map[accounting.Platform]*credential.Credential{
			accounting.PlatformQuickBooks: connectedCredential(accounting.PlatformQuickBooks),
		}}
		svc, store := newTestSyncService(t, creds, qb)
		seedVendor(t, store)

		edited := &accounting.Vendor{
			Platform: accounting.PlatformQuickBooks, RemoteID: "56",
			SyncToken: "2", DisplayName: "Acme Tools Inc.", Active: true,
		}
		_, err := svc.UpdateVendor(ctx, accounting.PlatformQuickBooks, edited)

		var conflict *integration.SyncConflictError
		assert.ErrorAs(t, err, &conflict)

		stored, err := store.vendors.FindByRemoteID(ctx, accounting.PlatformQuickBooks, "56")
		require.NoError(t, err)
		assert.Equal(t, "Acme Tools", stored.DisplayName)
		assert.Equal(t, "3", stored.SyncToken)
	})

	t.Run("invalid vendor fails before any remote call", func(t *testing.T) {
		qb := &fakeAdapter{platform: accounting.PlatformQuickBooks}
		svc, _ := newTestSyncService(t, &fakeCredSource{}, qb)

		_, err := svc.UpdateVendor(ctx, accounting.PlatformQuickBooks, &accounting.Vendor{
			Platform: accounting.PlatformQuickBooks, RemoteID: "56",
		})

		assert.Error(t, err)
	})

	t.Run("a storage read failure surfaces instead of saving", func(t *testing.T) {
		qb := &fakeAdapter{platform: accounting.PlatformQuickBooks}
		creds := &fakeCredSource{creds: map[accounting.Platform]*credential.Credential{
			accounting.PlatformQuickBooks: connectedCredential(accounting.PlatformQuickBooks),
		}}
		svc, store := newTestSyncService(t, creds, qb)
		seedVendor(t, store)

		readErr := errors.New("connection reset")
		store.vendors.findErr = readErr

		edited := &accounting.Vendor{
			Platform: accounting.PlatformQuickBooks, RemoteID: "56",
			SyncToken: "3", DisplayName: "Acme Tools Inc.", Active: true,
		}
		_, err := svc.UpdateVendor(ctx, accounting.PlatformQuickBooks, edited)

		assert.ErrorIs(t, err, readErr)

		store.vendors.findErr = nil
		stored, err := store.vendors.FindByRemoteID(ctx, accounting.PlatformQuickBooks, "56")
		require.NoError(t, err)
		assert.Equal(t, "Acme Tools", stored.DisplayName)
		assert.Equal(t, "3", stored.SyncToken)
	})
}

func TestSyncService_UpdateInvoice(t *testing.T) {
	ctx := context.Background()

	qbCreds := func() *fakeCredSource {
		return &fakeCredSource{creds: map[accounting.Platform]*credential.Credential{
			accounting.PlatformQuickBooks: connectedCredential(accounting.PlatformQuickBooks),
		}}
	}

	t.Run("persists the accepted revision onto the existing row", func(t *testing.T) {
		qb := &fakeAdapter{platform: accounting.PlatformQuickBooks}
		svc, store := newTestSyncService(t, qbCreds(), qb)

		id := uuid.New()
		require.NoError(t, store.invoices.Save(ctx, &accounting.Invoice{
			ID: id, Platform: accounting.PlatformQuickBooks, RemoteID: "130",
			SyncToken: "2", DocNumber: "INV-130", Status: accounting.DocumentStatusActive,
		}))

		edited := &accounting.Invoice{
			Platform: accounting.PlatformQuickBooks, RemoteID: "130",
			SyncToken: "2", DocNumber: "INV-130-R", Status: accounting.DocumentStatusActive,
		}
		accepted, err := svc.UpdateInvoice(ctx, accounting.PlatformQuickBooks, edited)

		require.NoError(t, err)
		assert.Equal(t, id, accepted.ID)
		assert.Equal(t, "2+1", accepted.SyncToken)
	})

	t.Run("a storage read failure surfaces instead of saving", func(t *testing.T) {
		qb := &fakeAdapter{platform: accounting.PlatformQuickBooks}
		svc, store := newTestSyncService(t, qbCreds(), qb)

		readErr := errors.New("connection reset")
		store.invoices.findErr = readErr

		edited := &accounting.Invoice{
			Platform: accounting.PlatformQuickBooks, RemoteID: "130",
			SyncToken: "2", DocNumber: "INV-130", Status: accounting.DocumentStatusActive,
		}
		_, err := svc.UpdateInvoice(ctx, accounting.PlatformQuickBooks, edited)

		assert.ErrorIs(t, err, readErr)

		store.invoices.findErr = nil
		_, err = store.invoices.FindByRemoteID(ctx, accounting.PlatformQuickBooks, "130")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestSyncService_VoidInvoice(t *testing.T) {
	ctx := context.Background()

	seedInvoice := func(t *testing.T, store *testStore, status accounting.DocumentStatus) {
		t.Helper()
		require.NoError(t, store.invoices.Save(ctx, &accounting.Invoice{
			ID: uuid.New(), Platform: accounting.PlatformQuickBooks, RemoteID: "145",
			SyncToken: "3", DocNumber: "INV-1042", Status: status,
		}))
	}

	t.Run("voids remotely then locally", func(t *testing.T) {
		qb := &fakeAdapter{platform: accounting.PlatformQuickBooks}
		creds := &fakeCredSource{creds: map[accounting.Platform]*credential.Credential{
			accounting.PlatformQuickBooks: connectedCredential(accounting.PlatformQuickBooks),
		}}
		svc, store := newTestSyncService(t, creds, qb)
		seedInvoice(t, store, accounting.DocumentStatusActive)

		voided, err := svc.VoidInvoice(ctx, accounting.PlatformQuickBooks, "145")

		require.NoError(t, err)
		assert.Equal(t, accounting.DocumentStatusVoided, voided.Status)
		assert.Equal(t, 1, qb.voidCalls)

		stored, err := store.invoices.FindByRemoteID(ctx, accounting.PlatformQuickBooks, "145")
		require.NoError(t, err)
		assert.Equal(t, accounting.DocumentStatusVoided, stored.Status)
	})

	t.Run("an already voided invoice fails without a remote call", func(t *testing.T) {
		qb := &fakeAdapter{platform: accounting.PlatformQuickBooks}
		creds := &fakeCredSource{creds: map[accounting.Platform]*credential.Credential{
			accounting.PlatformQuickBooks: connectedCredential(accounting.PlatformQuickBooks),
		}}
		svc, store := newTestSyncService(t, creds, qb)
		seedInvoice(t, store, accounting.DocumentStatusVoided)

		_, err := svc.VoidInvoice(ctx, accounting.PlatformQuickBooks, "145")

		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.Equal(t, 0, qb.voidCalls)
	})

	t.Run("unknown invoice fails", func(t *testing.T) {
		qb := &fakeAdapter{platform: accounting.PlatformQuickBooks}
		svc, _ := newTestSyncService(t, &fakeCredSource{}, qb)

		_, err := svc.VoidInvoice(ctx, accounting.PlatformQuickBooks, "145")

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("remote rejection keeps the local row active", func(t *testing.T) {
		qb := &fakeAdapter{
			platform: accounting.PlatformQuickBooks,
			voidErr:  &integration.SyncConflictError{},
		}
		creds := &fakeCredSource{creds: map[accounting.Platform]*credential.Credential{
			accounting.PlatformQuickBooks: connectedCredential(accounting.PlatformQuickBooks),
		}}
		svc, store := newTestSyncService(t, creds, qb)
		seedInvoice(t, store, accounting.DocumentStatusActive)

		_, err := svc.VoidInvoice(ctx, accounting.PlatformQuickBooks, "145")

		var conflict *integration.SyncConflictError
		assert.ErrorAs(t, err, &conflict)

		stored, err := store.invoices.FindByRemoteID(ctx, accounting.PlatformQuickBooks, "145")
		require.NoError(t, err)
		assert.Equal(t, accounting.DocumentStatusActive, stored.Status)
	})
}
