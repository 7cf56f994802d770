package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/booksync/backend/internal/domain/accounting"
	"github.com/booksync/backend/internal/domain/credential"
	"github.com/booksync/backend/internal/domain/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func xeroTestCredential() *credential.Credential {
	return &credential.Credential{
		Platform:    accounting.PlatformXero,
		TenantID:    "tenant-abc",
		AccessToken: "test-access-token",
	}
}

func newTestXeroAdapter(t *testing.T, pageSize int, handler http.HandlerFunc) *XeroAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter, err := NewXeroAdapter(&XeroConfig{
		ClientID:       "client-id",
		ClientSecret:   "client-secret",
		APIBaseURL:     server.URL,
		TokenURL:       server.URL + "/connect/token",
		ConnectionsURL: server.URL + "/connections",
		PageSize:       pageSize,
	})
	require.NoError(t, err)
	return adapter
}

func TestXeroAdapter_FetchRecords(t *testing.T) {
	ctx := context.Background()

	t.Run("pages contacts with the supplier filter until a short page", func(t *testing.T) {
		var requests []*http.Request
		adapter := newTestXeroAdapter(t, 2, func(w http.ResponseWriter, r *http.Request) {
			requests = append(requests, r.Clone(context.Background()))
			assert.Equal(t, "tenant-abc", r.Header.Get("Xero-Tenant-Id"))
			assert.Equal(t, "Bearer test-access-token", r.Header.Get("Authorization"))

			if r.URL.Query().Get("page") == "1" {
				w.Write([]byte(`{"Contacts":[{"ContactID":"c1"},{"ContactID":"c2"}]}`))
				return
			}
			w.Write([]byte(`{"Contacts":[{"ContactID":"c3"}]}`))
		})

		records, err := adapter.FetchRecords(ctx, xeroTestCredential(), integration.Query{Kind: accounting.KindVendor})

		require.NoError(t, err)
		assert.Len(t, records, 3)
		require.Len(t, requests, 2)
		assert.Equal(t, "/Contacts", requests[0].URL.Path)
		assert.Equal(t, "IsSupplier==true", requests[0].URL.Query().Get("where"))
		assert.Equal(t, "2", requests[1].URL.Query().Get("page"))
	})

	t.Run("accounts are fetched in one unpaged request", func(t *testing.T) {
		var calls int
		adapter := newTestXeroAdapter(t, 1, func(w http.ResponseWriter, r *http.Request) {
			calls++
			assert.Equal(t, "/Accounts", r.URL.Path)
			assert.Empty(t, r.URL.Query().Get("page"))
			w.Write([]byte(`{"Accounts":[{"AccountID":"a1"},{"AccountID":"a2"},{"AccountID":"a3"}]}`))
		})

		records, err := adapter.FetchRecords(ctx, xeroTestCredential(), integration.Query{Kind: accounting.KindAccount})

		require.NoError(t, err)
		assert.Len(t, records, 3)
		assert.Equal(t, 1, calls)
	})

	t.Run("bills use the ACCPAY filter on the invoices collection", func(t *testing.T) {
		var where string
		adapter := newTestXeroAdapter(t, 100, func(w http.ResponseWriter, r *http.Request) {
			where = r.URL.Query().Get("where")
			assert.Equal(t, "/Invoices", r.URL.Path)
			w.Write([]byte(`{"Invoices":[]}`))
		})

		_, err := adapter.FetchRecords(ctx, xeroTestCredential(), integration.Query{Kind: accounting.KindBill})

		require.NoError(t, err)
		assert.Equal(t, `Type=="ACCPAY"`, where)
	})

	t.Run("a product kind filters items client-side", func(t *testing.T) {
		adapter := newTestXeroAdapter(t, 100, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"Items":[
				{"ItemID":"i1","IsTrackedAsInventory":true},
				{"ItemID":"i2","IsPurchased":true},
				{"ItemID":"i3","IsSold":true}
			]}`))
		})

		records, err := adapter.FetchRecords(ctx, xeroTestCredential(), integration.Query{
			Kind:        accounting.KindProduct,
			ProductKind: accounting.ProductKindService,
		})

		require.NoError(t, err)
		require.Len(t, records, 1)
		var rec xeroItem
		require.NoError(t, json.Unmarshal(records[0], &rec))
		assert.Equal(t, "i3", rec.ItemID)
	})

	t.Run("a non-success status surfaces as a remote API error", func(t *testing.T) {
		adapter := newTestXeroAdapter(t, 100, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"Type":"UnauthorisedException","Message":"token rejected"}`))
		})

		_, err := adapter.FetchRecords(ctx, xeroTestCredential(), integration.Query{Kind: accounting.KindVendor})

		var apiErr *integration.RemoteAPIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	})
}

func TestClassifyXeroItem(t *testing.T) {
	tests := []struct {
		name string
		item xeroItem
		want accounting.ProductKind
	}{
		{"tracked items are inventory", xeroItem{IsTrackedAsInventory: true, IsPurchased: true}, accounting.ProductKindInventory},
		{"untracked purchased items are non-inventory", xeroItem{IsPurchased: true, IsSold: true}, accounting.ProductKindNonInventory},
		{"sold-only items are services", xeroItem{IsSold: true}, accounting.ProductKindService},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyXeroItem(&tt.item))
		})
	}
}

func TestParseXeroDate(t *testing.T) {
	t.Run("parses the legacy millisecond encoding", func(t *testing.T) {
		got, err := parseXeroDate("c1", "UpdatedDateUTC", "/Date(1518685950940+0000)/")

		require.NoError(t, err)
		assert.Equal(t, time.UnixMilli(1518685950940).UTC(), got)
	})

	t.Run("parses RFC3339", func(t *testing.T) {
		got, err := parseXeroDate("c1", "UpdatedDateUTC", "2026-08-01T09:30:00Z")

		require.NoError(t, err)
		assert.Equal(t, 2026, got.Year())
	})

	t.Run("empty maps to the zero time", func(t *testing.T) {
		got, err := parseXeroDate("c1", "UpdatedDateUTC", "")

		require.NoError(t, err)
		assert.True(t, got.IsZero())
	})

	t.Run("garbage fails mapping", func(t *testing.T) {
		_, err := parseXeroDate("c1", "UpdatedDateUTC", "/Date(notanumber)/")

		var mapErr *integration.MappingError
		assert.ErrorAs(t, err, &mapErr)
	})
}

func TestXeroAdapter_MapVendor(t *testing.T) {
	adapter := newTestXeroAdapter(t, 100, func(w http.ResponseWriter, r *http.Request) {})

	t.Run("maps a contact and keeps the update stamp as the sync token", func(t *testing.T) {
		raw := integration.RawRecord(`{
			"ContactID": "c1", "ContactStatus": "ACTIVE", "Name": "Acme Tools",
			"EmailAddress": "ap@acme.example", "IsSupplier": true,
			"Phones": [{"PhoneType": "DEFAULT", "PhoneNumber": "555-0100"}],
			"Balances": {"AccountsPayable": {"Outstanding": 1200.50}},
			"DefaultCurrency": "NZD",
			"UpdatedDateUTC": "/Date(1518685950940+0000)/"
		}`)

		vendor, err := adapter.MapVendor(raw)

		require.NoError(t, err)
		assert.Equal(t, "c1", vendor.RemoteID)
		assert.Equal(t, "/Date(1518685950940+0000)/", vendor.SyncToken)
		assert.Equal(t, "555-0100", vendor.Phone)
		assert.Equal(t, "NZD", vendor.CurrencyCode)
		assert.Equal(t, "1200.5", vendor.Balance.String())
		assert.True(t, vendor.Active)
	})

	t.Run("archived contacts map inactive", func(t *testing.T) {
		vendor, err := adapter.MapVendor(integration.RawRecord(
			`{"ContactID": "c1", "ContactStatus": "ARCHIVED", "Name": "Old Supplier"}`))

		require.NoError(t, err)
		assert.False(t, vendor.Active)
		assert.Equal(t, "USD", vendor.CurrencyCode)
	})

	t.Run("a missing ContactID fails mapping", func(t *testing.T) {
		_, err := adapter.MapVendor(integration.RawRecord(`{"Name": "Acme"}`))

		var mapErr *integration.MappingError
		require.ErrorAs(t, err, &mapErr)
		assert.Equal(t, "ContactID", mapErr.Field)
	})
}

func TestXeroAdapter_MapAccount(t *testing.T) {
	adapter := newTestXeroAdapter(t, 100, func(w http.ResponseWriter, r *http.Request) {})

	t.Run("maps the class", func(t *testing.T) {
		account, err := adapter.MapAccount(integration.RawRecord(
			`{"AccountID": "a1", "Code": "090", "Name": "Business Account", "Status": "ACTIVE", "Class": "ASSET", "CurrencyCode": "NZD"}`))

		require.NoError(t, err)
		assert.Equal(t, accounting.AccountTypeAsset, account.Type)
		assert.Equal(t, "090", account.Code)
	})

	t.Run("an unknown class fails mapping", func(t *testing.T) {
		_, err := adapter.MapAccount(integration.RawRecord(
			`{"AccountID": "a1", "Name": "Mystery", "Class": "OTHER"}`))

		var mapErr *integration.MappingError
		require.ErrorAs(t, err, &mapErr)
		assert.Equal(t, "Class", mapErr.Field)
	})
}

func TestXeroAdapter_MapInvoice(t *testing.T) {
	adapter := newTestXeroAdapter(t, 100, func(w http.ResponseWriter, r *http.Request) {})

	t.Run("maps an ACCREC invoice with lines", func(t *testing.T) {
		raw := integration.RawRecord(`{
			"InvoiceID": "inv-1", "Type": "ACCREC", "InvoiceNumber": "INV-001",
			"Contact": {"ContactID": "c9", "Name": "Globex"},
			"Status": "AUTHORISED", "CurrencyCode": "NZD",
			"Date": "/Date(1751328000000+0000)/", "DueDate": "/Date(1753920000000+0000)/",
			"SubTotal": 100.00, "TotalTax": 15.00, "Total": 115.00, "AmountDue": 115.00,
			"LineItems": [
				{"Description": "Widgets", "Quantity": 4, "UnitAmount": 25.00, "LineAmount": 100.00, "ItemCode": "WID"}
			],
			"UpdatedDateUTC": "/Date(1751328000000+0000)/"
		}`)

		invoice, err := adapter.MapInvoice(raw)

		require.NoError(t, err)
		assert.Equal(t, "Globex", invoice.CustomerName)
		assert.Equal(t, accounting.DocumentStatusActive, invoice.Status)
		assert.Equal(t, "100", invoice.Subtotal.String())
		require.Len(t, invoice.Lines, 1)
		assert.Equal(t, "WID", invoice.Lines[0].ProductRemoteID)
		assert.Equal(t, 1, invoice.Lines[0].LineNumber)
	})

	t.Run("voided and deleted statuses map to the canonical lifecycle", func(t *testing.T) {
		voided, err := adapter.MapInvoice(integration.RawRecord(`{"InvoiceID": "inv-1", "Status": "VOIDED"}`))
		require.NoError(t, err)
		assert.Equal(t, accounting.DocumentStatusVoided, voided.Status)

		deleted, err := adapter.MapInvoice(integration.RawRecord(`{"InvoiceID": "inv-1", "Status": "DELETED"}`))
		require.NoError(t, err)
		assert.Equal(t, accounting.DocumentStatusInactive, deleted.Status)
	})
}

func TestXeroAdapter_MapBill(t *testing.T) {
	adapter := newTestXeroAdapter(t, 100, func(w http.ResponseWriter, r *http.Request) {})

	raw := integration.RawRecord(`{
		"InvoiceID": "bill-1", "Type": "ACCPAY", "InvoiceNumber": "BILL-77",
		"Contact": {"ContactID": "c1", "Name": "Acme Tools"},
		"Status": "AUTHORISED",
		"SubTotal": 500.00, "TotalTax": 0, "Total": 500.00, "AmountDue": 500.00,
		"LineItems": [
			{"Description": "Freight", "Quantity": 1, "UnitAmount": 500.00, "LineAmount": 500.00, "AccountCode": "400"}
		]
	}`)

	bill, err := adapter.MapBill(raw)

	require.NoError(t, err)
	assert.Equal(t, "c1", bill.VendorRemoteID)
	assert.Equal(t, "Acme Tools", bill.VendorName)
	require.Len(t, bill.Lines, 1)
	assert.Equal(t, "400", bill.Lines[0].AccountRemoteID)
}

func TestXeroAdapter_UpdateVendor(t *testing.T) {
	ctx := context.Background()

	t.Run("posts the batch envelope and maps the echoed contact", func(t *testing.T) {
		adapter := newTestXeroAdapter(t, 100, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/Contacts", r.URL.Path)

			var envelope map[string][]map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&envelope))
			require.Len(t, envelope["Contacts"], 1)
			assert.Equal(t, "c1", envelope["Contacts"][0]["ContactID"])

			w.Write([]byte(`{"Contacts":[{"ContactID":"c1","Name":"Acme Tools Inc.","UpdatedDateUTC":"/Date(1751328000000+0000)/"}]}`))
		})

		accepted, err := adapter.UpdateVendor(ctx, xeroTestCredential(), &accounting.Vendor{
			RemoteID: "c1", DisplayName: "Acme Tools Inc.",
		})

		require.NoError(t, err)
		assert.Equal(t, "Acme Tools Inc.", accepted.DisplayName)
		assert.Equal(t, "/Date(1751328000000+0000)/", accepted.SyncToken)
	})

	t.Run("a validation rejection surfaces as a conflict", func(t *testing.T) {
		adapter := newTestXeroAdapter(t, 100, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"ErrorNumber":10,"Type":"ValidationException","Message":"A validation exception occurred"}`))
		})

		_, err := adapter.UpdateVendor(ctx, xeroTestCredential(), &accounting.Vendor{
			RemoteID: "c1", DisplayName: "Acme Tools Inc.",
		})

		var conflict *integration.SyncConflictError
		assert.ErrorAs(t, err, &conflict)
	})
}

func TestXeroAdapter_VoidInvoice(t *testing.T) {
	ctx := context.Background()

	var posted map[string][]map[string]any
	adapter := newTestXeroAdapter(t, 100, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
		fmt.Fprint(w, `{"Invoices":[{"InvoiceID":"inv-1","Status":"VOIDED"}]}`)
	})

	err := adapter.VoidInvoice(ctx, xeroTestCredential(), &accounting.Invoice{RemoteID: "inv-1"})

	require.NoError(t, err)
	require.Len(t, posted["Invoices"], 1)
	assert.Equal(t, "VOIDED", posted["Invoices"][0]["Status"])
	assert.Equal(t, "ACCREC", posted["Invoices"][0]["Type"])
}
