package accounting

import (
	"testing"
	"time"

	"github.com/booksync/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestInvoice() *Invoice {
	return &Invoice{
		ID:        uuid.New(),
		Platform:  PlatformQuickBooks,
		RemoteID:  "145",
		SyncToken: "3",
		DocNumber: "INV-1042",
		Status:    DocumentStatusActive,
		Total:     decimal.NewFromFloat(110.00),
		TaxTotal:  decimal.NewFromFloat(10.00),
	}
}

func TestInvoice_Validate(t *testing.T) {
	t.Run("valid invoice passes", func(t *testing.T) {
		assert.NoError(t, createTestInvoice().Validate())
	})

	t.Run("fails with unknown platform", func(t *testing.T) {
		inv := createTestInvoice()
		inv.Platform = "FRESHBOOKS"

		err := inv.Validate()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "platform")
	})

	t.Run("fails without remote ID", func(t *testing.T) {
		inv := createTestInvoice()
		inv.RemoteID = ""

		assert.Error(t, inv.Validate())
	})

	t.Run("fails with invalid status", func(t *testing.T) {
		inv := createTestInvoice()
		inv.Status = "PENDING"

		assert.Error(t, inv.Validate())
	})
}

func TestInvoice_Void(t *testing.T) {
	t.Run("voids an active invoice", func(t *testing.T) {
		inv := createTestInvoice()

		require.NoError(t, inv.Void())
		assert.Equal(t, DocumentStatusVoided, inv.Status)
	})

	t.Run("voiding a voided invoice fails", func(t *testing.T) {
		inv := createTestInvoice()
		require.NoError(t, inv.Void())

		err := inv.Void()

		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.Equal(t, DocumentStatusVoided, inv.Status)
	})

	t.Run("voiding an inactive invoice fails", func(t *testing.T) {
		inv := createTestInvoice()
		require.NoError(t, inv.Deactivate())

		assert.ErrorIs(t, inv.Void(), shared.ErrInvalidState)
	})
}

func TestInvoice_Deactivate(t *testing.T) {
	t.Run("deactivates an active invoice", func(t *testing.T) {
		inv := createTestInvoice()

		require.NoError(t, inv.Deactivate())
		assert.Equal(t, DocumentStatusInactive, inv.Status)
	})

	t.Run("terminal states stay terminal", func(t *testing.T) {
		inv := createTestInvoice()
		require.NoError(t, inv.Void())

		assert.ErrorIs(t, inv.Deactivate(), shared.ErrInvalidState)
	})
}

func TestInvoice_ApplyRemote(t *testing.T) {
	t.Run("overwrites remote-owned fields and keeps local note", func(t *testing.T) {
		inv := createTestInvoice()
		inv.LocalNote = "net-30 agreed by phone"
		originalID := inv.ID

		remote := createTestInvoice()
		remote.SyncToken = "4"
		remote.Total = decimal.NewFromFloat(220.00)
		remote.LocalNote = "should never propagate"
		remote.Lines = []InvoiceLine{
			{ID: uuid.New(), LineNumber: 1, Amount: decimal.NewFromFloat(220.00)},
		}

		inv.ApplyRemote(remote)

		assert.Equal(t, originalID, inv.ID)
		assert.Equal(t, "4", inv.SyncToken)
		assert.True(t, decimal.NewFromFloat(220.00).Equal(inv.Total))
		assert.Equal(t, "net-30 agreed by phone", inv.LocalNote)
	})

	t.Run("adopts replacement lines under the surviving parent ID", func(t *testing.T) {
		inv := createTestInvoice()
		remote := createTestInvoice()
		remote.Lines = []InvoiceLine{
			{ID: uuid.New(), LineNumber: 1},
			{ID: uuid.New(), LineNumber: 2},
		}

		inv.ApplyRemote(remote)

		require.Len(t, inv.Lines, 2)
		for _, line := range inv.Lines {
			assert.Equal(t, inv.ID, line.InvoiceID)
		}
	})

	t.Run("a record live remotely reactivates a soft-deleted row", func(t *testing.T) {
		inv := createTestInvoice()
		require.NoError(t, inv.Deactivate())

		remote := createTestInvoice()
		remote.RemoteUpdatedAt = time.Now()

		inv.ApplyRemote(remote)

		assert.Equal(t, DocumentStatusActive, inv.Status)
	})
}
