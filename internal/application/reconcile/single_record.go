package reconcile

import (
	"context"
	"errors"

	"github.com/booksync/backend/internal/domain/accounting"
	"github.com/booksync/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Single-record write-back operations. The remote platform is the system of
// record: the remote call goes first, carrying the locally held sync token
// verbatim, and the local row is only updated after the platform accepted the
// change. A stale token surfaces as *integration.SyncConflictError and leaves
// the local row untouched; the next sync resolves the divergence.

// UpdateVendor pushes a vendor edit to its platform and persists the accepted
// revision, including the platform's new sync token.
func (s *SyncService) UpdateVendor(ctx context.Context, platform accounting.Platform, vendor *accounting.Vendor) (*accounting.Vendor, error) {
	if err := vendor.Validate(); err != nil {
		return nil, err
	}
	adapter, err := s.registry.GetPlatform(platform)
	if err != nil {
		return nil, err
	}
	cred, err := s.creds.GetValidCredential(ctx, platform)
	if err != nil {
		return nil, err
	}

	accepted, err := adapter.UpdateVendor(ctx, cred, vendor)
	if err != nil {
		return nil, err
	}

	// The row may be absent locally (never synced); any other read failure is
	// a real storage error and must not be mistaken for absence.
	current, err := s.engine.GetVendor(ctx, platform, accepted.RemoteID)
	switch {
	case err == nil:
		current.ApplyRemote(accepted)
		accepted = current
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}
	if err := s.engine.SaveVendor(ctx, accepted); err != nil {
		return nil, err
	}

	s.logger.Info("Vendor updated",
		zap.String("platform", platform.String()),
		zap.String("remote_id", accepted.RemoteID))
	return accepted, nil
}

// UpdateInvoice pushes an invoice edit to its platform under the same
// sync-token contract and persists the accepted revision.
func (s *SyncService) UpdateInvoice(ctx context.Context, platform accounting.Platform, invoice *accounting.Invoice) (*accounting.Invoice, error) {
	if err := invoice.Validate(); err != nil {
		return nil, err
	}
	adapter, err := s.registry.GetPlatform(platform)
	if err != nil {
		return nil, err
	}
	cred, err := s.creds.GetValidCredential(ctx, platform)
	if err != nil {
		return nil, err
	}

	accepted, err := adapter.UpdateInvoice(ctx, cred, invoice)
	if err != nil {
		return nil, err
	}

	current, err := s.engine.GetInvoice(ctx, platform, accepted.RemoteID)
	switch {
	case err == nil:
		current.ApplyRemote(accepted)
		accepted = current
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}
	if err := s.engine.SaveInvoice(ctx, accepted); err != nil {
		return nil, err
	}

	s.logger.Info("Invoice updated",
		zap.String("platform", platform.String()),
		zap.String("remote_id", accepted.RemoteID))
	return accepted, nil
}

// VoidInvoice voids the invoice on its platform, then marks the local row
// voided. Voiding a non-active invoice fails with shared.ErrInvalidState
// before any remote call is made.
func (s *SyncService) VoidInvoice(ctx context.Context, platform accounting.Platform, remoteID string) (*accounting.Invoice, error) {
	adapter, err := s.registry.GetPlatform(platform)
	if err != nil {
		return nil, err
	}
	invoice, err := s.engine.GetInvoice(ctx, platform, remoteID)
	if err != nil {
		return nil, err
	}
	if err := invoice.Void(); err != nil {
		return nil, err
	}
	cred, err := s.creds.GetValidCredential(ctx, platform)
	if err != nil {
		return nil, err
	}

	if err := adapter.VoidInvoice(ctx, cred, invoice); err != nil {
		return nil, err
	}
	if err := s.engine.SaveInvoice(ctx, invoice); err != nil {
		return nil, err
	}

	s.logger.Info("Invoice voided",
		zap.String("platform", platform.String()),
		zap.String("remote_id", remoteID))
	return invoice, nil
}
