package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/booksync/backend/internal/domain/accounting"
	"github.com/booksync/backend/internal/domain/credential"
	"github.com/booksync/backend/internal/domain/integration"
)

// QuickBooksAdapter implements the AccountingPlatform port for QuickBooks
// Online. QuickBooks exposes one query-language endpoint: every fetch is a
// SELECT against /v3/company/{realm}/query, paged with STARTPOSITION and
// MAXRESULTS, with the results under a named key inside "QueryResponse".
type QuickBooksAdapter struct {
	config     *QuickBooksConfig
	httpClient *http.Client
}

// NewQuickBooksAdapter creates a new QuickBooks adapter with the given configuration
func NewQuickBooksAdapter(config *QuickBooksConfig) (*QuickBooksAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &QuickBooksAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// Platform returns the platform code this adapter handles
func (a *QuickBooksAdapter) Platform() accounting.Platform {
	return accounting.PlatformQuickBooks
}

// qbEntityName maps an entity kind to the QuickBooks entity (and container key)
func qbEntityName(kind accounting.EntityKind) string {
	switch kind {
	case accounting.KindVendor:
		return "Vendor"
	case accounting.KindAccount:
		return "Account"
	case accounting.KindProduct:
		return "Item"
	case accounting.KindInvoice:
		return "Invoice"
	case accounting.KindBill:
		return "Bill"
	default:
		return ""
	}
}

// qbItemType maps a canonical product kind to QuickBooks' Item.Type value
func qbItemType(kind accounting.ProductKind) string {
	switch kind {
	case accounting.ProductKindInventory:
		return "Inventory"
	case accounting.ProductKindNonInventory:
		return "NonInventory"
	case accounting.ProductKindService:
		return "Service"
	default:
		return ""
	}
}

// FetchRecords pages through the query endpoint until the result set is
// exhausted. Every call restarts from position 1; no cursor state is kept.
func (a *QuickBooksAdapter) FetchRecords(ctx context.Context, cred *credential.Credential, q integration.Query) ([]integration.RawRecord, error) {
	entity := qbEntityName(q.Kind)
	if entity == "" {
		return nil, fmt.Errorf("quickbooks: unsupported entity kind %q", q.Kind)
	}

	where := ""
	if q.Kind == accounting.KindProduct && q.ProductKind != "" {
		where = fmt.Sprintf(" WHERE Type = '%s'", qbItemType(q.ProductKind))
	}

	var all []integration.RawRecord
	position := 1
	for {
		query := fmt.Sprintf("SELECT * FROM %s%s STARTPOSITION %d MAXRESULTS %d",
			entity, where, position, a.config.PageSize)
		body, err := a.doQuery(ctx, cred, query)
		if err != nil {
			return nil, err
		}

		var envelope qbQueryEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, &integration.RemoteAPIError{Body: fmt.Sprintf("malformed query response: %v", err)}
		}
		page, err := envelope.records(entity)
		if err != nil {
			return nil, &integration.RemoteAPIError{Body: fmt.Sprintf("malformed %s container: %v", entity, err)}
		}

		for _, raw := range page {
			all = append(all, integration.RawRecord(raw))
		}
		if len(page) < a.config.PageSize {
			return all, nil
		}
		position += len(page)
	}
}

// doQuery issues one query-endpoint request
func (a *QuickBooksAdapter) doQuery(ctx context.Context, cred *credential.Credential, query string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/v3/company/%s/query?query=%s&minorversion=65",
		a.config.APIBaseURL, url.PathEscape(cred.TenantID), url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("quickbooks: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("Accept", "application/json")

	return a.do(req)
}

// doEntityPost issues one mutation request against an entity endpoint
func (a *QuickBooksAdapter) doEntityPost(ctx context.Context, cred *credential.Credential, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("quickbooks: failed to encode request body: %w", err)
	}
	endpoint := fmt.Sprintf("%s/v3/company/%s/%s", a.config.APIBaseURL, url.PathEscape(cred.TenantID), path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("quickbooks: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	return a.do(req)
}

// do executes the request under the error taxonomy: transport failures carry
// Status 0, non-2xx statuses carry the status and body. A 400 whose fault is
// the stale-object code surfaces as *integration.SyncConflictError.
func (a *QuickBooksAdapter) do(req *http.Request) ([]byte, error) {
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, &integration.RemoteAPIError{Body: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &integration.RemoteAPIError{Body: fmt.Sprintf("failed to read response: %v", err)}
	}

	if resp.StatusCode >= 400 {
		var envelope qbQueryEnvelope
		if json.Unmarshal(body, &envelope) == nil && envelope.Fault.hasStaleObjectFault() {
			return nil, &integration.SyncConflictError{}
		}
		return nil, &integration.RemoteAPIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// MapVendor converts a raw QuickBooks vendor into the canonical shape
func (a *QuickBooksAdapter) MapVendor(raw integration.RawRecord) (*accounting.Vendor, error) {
	var rec qbVendor
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, &integration.MappingError{Field: "Vendor", RawValue: truncate(raw)}
	}
	if rec.ID == "" {
		return nil, &integration.MappingError{Field: "Id", RawValue: truncate(raw)}
	}

	balance, err := parseDecimal(rec.ID, "Balance", rec.Balance)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseISODate(rec.ID, "MetaData.LastUpdatedTime", rec.MetaData.LastUpdatedTime)
	if err != nil {
		return nil, err
	}

	vendor := &accounting.Vendor{
		Platform:        accounting.PlatformQuickBooks,
		RemoteID:        rec.ID,
		SyncToken:       rec.SyncToken,
		DisplayName:     rec.DisplayName,
		CompanyName:     rec.CompanyName,
		Balance:         balance,
		CurrencyCode:    currencyOrDefault(rec.CurrencyRef),
		Active:          activeOrDefault(rec.Active),
		RemoteUpdatedAt: updatedAt,
	}
	if rec.PrimaryEmailAddr != nil {
		vendor.Email = rec.PrimaryEmailAddr.Address
	}
	if rec.PrimaryPhone != nil {
		vendor.Phone = rec.PrimaryPhone.FreeFormNumber
	}
	return vendor, nil
}

// MapAccount converts a raw QuickBooks account into the canonical shape
func (a *QuickBooksAdapter) MapAccount(raw integration.RawRecord) (*accounting.Account, error) {
	var rec qbAccount
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, &integration.MappingError{Field: "Account", RawValue: truncate(raw)}
	}
	if rec.ID == "" {
		return nil, &integration.MappingError{Field: "Id", RawValue: truncate(raw)}
	}

	balance, err := parseDecimal(rec.ID, "CurrentBalance", rec.CurrentBalance)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseISODate(rec.ID, "MetaData.LastUpdatedTime", rec.MetaData.LastUpdatedTime)
	if err != nil {
		return nil, err
	}
	accountType, err := mapQBClassification(rec.ID, rec.Classification)
	if err != nil {
		return nil, err
	}

	return &accounting.Account{
		Platform:        accounting.PlatformQuickBooks,
		RemoteID:        rec.ID,
		SyncToken:       rec.SyncToken,
		Name:            rec.Name,
		Code:            rec.AcctNum,
		Type:            accountType,
		CurrentBalance:  balance,
		CurrencyCode:    currencyOrDefault(rec.CurrencyRef),
		Active:          activeOrDefault(rec.Active),
		RemoteUpdatedAt: updatedAt,
	}, nil
}

// MapProduct converts a raw QuickBooks item into the canonical shape
func (a *QuickBooksAdapter) MapProduct(raw integration.RawRecord) (*accounting.Product, error) {
	var rec qbItem
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, &integration.MappingError{Field: "Item", RawValue: truncate(raw)}
	}
	if rec.ID == "" {
		return nil, &integration.MappingError{Field: "Id", RawValue: truncate(raw)}
	}

	unitPrice, err := parseDecimal(rec.ID, "UnitPrice", rec.UnitPrice)
	if err != nil {
		return nil, err
	}
	purchaseCost, err := parseDecimal(rec.ID, "PurchaseCost", rec.PurchaseCost)
	if err != nil {
		return nil, err
	}
	qty, err := parseDecimal(rec.ID, "QtyOnHand", rec.QtyOnHand)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseISODate(rec.ID, "MetaData.LastUpdatedTime", rec.MetaData.LastUpdatedTime)
	if err != nil {
		return nil, err
	}
	kind, err := mapQBItemType(rec.ID, rec.Type)
	if err != nil {
		return nil, err
	}

	return &accounting.Product{
		Platform:        accounting.PlatformQuickBooks,
		RemoteID:        rec.ID,
		SyncToken:       rec.SyncToken,
		Name:            rec.Name,
		SKU:             rec.Sku,
		Kind:            kind,
		Description:     rec.Description,
		UnitPrice:       unitPrice,
		PurchaseCost:    purchaseCost,
		QuantityOnHand:  qty,
		Active:          activeOrDefault(rec.Active),
		RemoteUpdatedAt: updatedAt,
	}, nil
}

// MapInvoice converts a raw QuickBooks invoice into the canonical shape.
// Only detail lines become canonical line items; QuickBooks mixes subtotal
// summary lines into the same array.
func (a *QuickBooksAdapter) MapInvoice(raw integration.RawRecord) (*accounting.Invoice, error) {
	var rec qbInvoice
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, &integration.MappingError{Field: "Invoice", RawValue: truncate(raw)}
	}
	if rec.ID == "" {
		return nil, &integration.MappingError{Field: "Id", RawValue: truncate(raw)}
	}

	total, err := parseDecimal(rec.ID, "TotalAmt", rec.TotalAmt)
	if err != nil {
		return nil, err
	}
	balance, err := parseDecimal(rec.ID, "Balance", rec.Balance)
	if err != nil {
		return nil, err
	}
	taxTotal := decimalZero()
	if rec.TxnTaxDetail != nil {
		taxTotal, err = parseDecimal(rec.ID, "TxnTaxDetail.TotalTax", rec.TxnTaxDetail.TotalTax)
		if err != nil {
			return nil, err
		}
	}
	issueDate, err := parseISODate(rec.ID, "TxnDate", rec.TxnDate)
	if err != nil {
		return nil, err
	}
	dueDate, err := parseISODate(rec.ID, "DueDate", rec.DueDate)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseISODate(rec.ID, "MetaData.LastUpdatedTime", rec.MetaData.LastUpdatedTime)
	if err != nil {
		return nil, err
	}

	invoice := &accounting.Invoice{
		Platform:        accounting.PlatformQuickBooks,
		RemoteID:        rec.ID,
		SyncToken:       rec.SyncToken,
		DocNumber:       rec.DocNumber,
		CurrencyCode:    currencyOrDefault(rec.CurrencyRef),
		IssueDate:       issueDate,
		DueDate:         dueDate,
		TaxTotal:        taxTotal,
		Total:           total,
		Balance:         balance,
		Status:          accounting.DocumentStatusActive,
		RemoteUpdatedAt: updatedAt,
	}
	if rec.CustomerRef != nil {
		invoice.CustomerName = rec.CustomerRef.Name
	}
	invoice.Subtotal = total.Sub(taxTotal)

	lineNumber := 0
	for _, line := range rec.Line {
		if line.DetailType != "SalesItemLineDetail" || line.SalesItemLineDetail == nil {
			continue
		}
		lineNumber++
		amount, err := parseDecimal(rec.ID, "Line.Amount", line.Amount)
		if err != nil {
			return nil, err
		}
		qty, err := parseDecimal(rec.ID, "Line.SalesItemLineDetail.Qty", line.SalesItemLineDetail.Qty)
		if err != nil {
			return nil, err
		}
		unitPrice, err := parseDecimal(rec.ID, "Line.SalesItemLineDetail.UnitPrice", line.SalesItemLineDetail.UnitPrice)
		if err != nil {
			return nil, err
		}
		canonical := accounting.InvoiceLine{
			LineNumber:  lineNumber,
			Description: line.Description,
			Quantity:    qty,
			UnitPrice:   unitPrice,
			Amount:      amount,
		}
		if line.SalesItemLineDetail.ItemRef != nil {
			canonical.ProductRemoteID = line.SalesItemLineDetail.ItemRef.Value
		}
		invoice.Lines = append(invoice.Lines, canonical)
	}
	return invoice, nil
}

// MapBill converts a raw QuickBooks bill into the canonical shape
func (a *QuickBooksAdapter) MapBill(raw integration.RawRecord) (*accounting.Bill, error) {
	var rec qbBill
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, &integration.MappingError{Field: "Bill", RawValue: truncate(raw)}
	}
	if rec.ID == "" {
		return nil, &integration.MappingError{Field: "Id", RawValue: truncate(raw)}
	}

	total, err := parseDecimal(rec.ID, "TotalAmt", rec.TotalAmt)
	if err != nil {
		return nil, err
	}
	balance, err := parseDecimal(rec.ID, "Balance", rec.Balance)
	if err != nil {
		return nil, err
	}
	taxTotal := decimalZero()
	if rec.TxnTaxDetail != nil {
		taxTotal, err = parseDecimal(rec.ID, "TxnTaxDetail.TotalTax", rec.TxnTaxDetail.TotalTax)
		if err != nil {
			return nil, err
		}
	}
	issueDate, err := parseISODate(rec.ID, "TxnDate", rec.TxnDate)
	if err != nil {
		return nil, err
	}
	dueDate, err := parseISODate(rec.ID, "DueDate", rec.DueDate)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseISODate(rec.ID, "MetaData.LastUpdatedTime", rec.MetaData.LastUpdatedTime)
	if err != nil {
		return nil, err
	}

	bill := &accounting.Bill{
		Platform:        accounting.PlatformQuickBooks,
		RemoteID:        rec.ID,
		SyncToken:       rec.SyncToken,
		DocNumber:       rec.DocNumber,
		CurrencyCode:    currencyOrDefault(rec.CurrencyRef),
		IssueDate:       issueDate,
		DueDate:         dueDate,
		TaxTotal:        taxTotal,
		Total:           total,
		Balance:         balance,
		Status:          accounting.DocumentStatusActive,
		RemoteUpdatedAt: updatedAt,
	}
	if rec.VendorRef != nil {
		bill.VendorName = rec.VendorRef.Name
		bill.VendorRemoteID = rec.VendorRef.Value
	}
	bill.Subtotal = total.Sub(taxTotal)

	lineNumber := 0
	for _, line := range rec.Line {
		if line.DetailType != "AccountBasedExpenseLineDetail" || line.AccountBasedExpenseLineDetail == nil {
			continue
		}
		lineNumber++
		amount, err := parseDecimal(rec.ID, "Line.Amount", line.Amount)
		if err != nil {
			return nil, err
		}
		qty, err := parseDecimal(rec.ID, "Line.Qty", line.AccountBasedExpenseLineDetail.Qty)
		if err != nil {
			return nil, err
		}
		unitPrice, err := parseDecimal(rec.ID, "Line.UnitPrice", line.AccountBasedExpenseLineDetail.UnitPrice)
		if err != nil {
			return nil, err
		}
		canonical := accounting.BillLine{
			LineNumber:  lineNumber,
			Description: line.Description,
			Quantity:    qty,
			UnitPrice:   unitPrice,
			Amount:      amount,
		}
		if line.AccountBasedExpenseLineDetail.AccountRef != nil {
			canonical.AccountRemoteID = line.AccountBasedExpenseLineDetail.AccountRef.Value
		}
		bill.Lines = append(bill.Lines, canonical)
	}
	return bill, nil
}

// UpdateVendor pushes a vendor change, echoing the held SyncToken verbatim.
// A stale token surfaces as *integration.SyncConflictError from the transport
// layer; the returned vendor carries the platform's new token.
func (a *QuickBooksAdapter) UpdateVendor(ctx context.Context, cred *credential.Credential, vendor *accounting.Vendor) (*accounting.Vendor, error) {
	payload := map[string]any{
		"Id":          vendor.RemoteID,
		"SyncToken":   vendor.SyncToken,
		"sparse":      true,
		"DisplayName": vendor.DisplayName,
		"CompanyName": vendor.CompanyName,
		"PrimaryEmailAddr": map[string]string{"Address": vendor.Email},
		"PrimaryPhone":     map[string]string{"FreeFormNumber": vendor.Phone},
	}
	body, err := a.doEntityPost(ctx, cred, "vendor", payload)
	if err != nil {
		return nil, err
	}

	var envelope qbEntityEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Vendor == nil {
		return nil, &integration.RemoteAPIError{Body: "malformed vendor update response"}
	}
	return a.MapVendor(integration.RawRecord(envelope.Vendor))
}

// UpdateInvoice pushes an invoice change under the same sync-token contract
func (a *QuickBooksAdapter) UpdateInvoice(ctx context.Context, cred *credential.Credential, invoice *accounting.Invoice) (*accounting.Invoice, error) {
	payload := map[string]any{
		"Id":        invoice.RemoteID,
		"SyncToken": invoice.SyncToken,
		"sparse":    true,
		"DocNumber": invoice.DocNumber,
		"TxnDate":   invoice.IssueDate.Format("2006-01-02"),
		"DueDate":   invoice.DueDate.Format("2006-01-02"),
	}
	body, err := a.doEntityPost(ctx, cred, "invoice", payload)
	if err != nil {
		return nil, err
	}

	var envelope qbEntityEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Invoice == nil {
		return nil, &integration.RemoteAPIError{Body: "malformed invoice update response"}
	}
	return a.MapInvoice(integration.RawRecord(envelope.Invoice))
}

// VoidInvoice voids the invoice on the platform, echoing the sync token
func (a *QuickBooksAdapter) VoidInvoice(ctx context.Context, cred *credential.Credential, invoice *accounting.Invoice) error {
	payload := map[string]any{
		"Id":        invoice.RemoteID,
		"SyncToken": invoice.SyncToken,
	}
	_, err := a.doEntityPost(ctx, cred, "invoice?operation=void", payload)
	return err
}

// mapQBClassification maps QuickBooks' account classification to the canonical type
func mapQBClassification(identifier, classification string) (accounting.AccountType, error) {
	switch classification {
	case "Asset":
		return accounting.AccountTypeAsset, nil
	case "Liability":
		return accounting.AccountTypeLiability, nil
	case "Equity":
		return accounting.AccountTypeEquity, nil
	case "Revenue":
		return accounting.AccountTypeRevenue, nil
	case "Expense":
		return accounting.AccountTypeExpense, nil
	default:
		return "", &integration.MappingError{Identifier: identifier, Field: "Classification", RawValue: classification}
	}
}

// mapQBItemType maps QuickBooks' item type to the canonical product kind
func mapQBItemType(identifier, itemType string) (accounting.ProductKind, error) {
	switch itemType {
	case "Inventory":
		return accounting.ProductKindInventory, nil
	case "NonInventory":
		return accounting.ProductKindNonInventory, nil
	case "Service":
		return accounting.ProductKindService, nil
	default:
		return "", &integration.MappingError{Identifier: identifier, Field: "Type", RawValue: itemType}
	}
}

// Ensure QuickBooksAdapter implements AccountingPlatform
var _ integration.AccountingPlatform = (*QuickBooksAdapter)(nil)
