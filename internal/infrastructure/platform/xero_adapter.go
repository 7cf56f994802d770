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
	"github.com/shopspring/decimal"
)

// XeroAdapter implements the AccountingPlatform port for Xero. Xero exposes
// flat per-collection endpoints ({base}/Contacts, {base}/Invoices, ...) scoped
// to a tenant through the Xero-Tenant-Id header. Sales invoices and vendor
// bills live in the same Invoices collection split by Type, and vendors are
// Contacts flagged IsSupplier.
type XeroAdapter struct {
	config     *XeroConfig
	httpClient *http.Client
}

// NewXeroAdapter creates a new Xero adapter with the given configuration
func NewXeroAdapter(config *XeroConfig) (*XeroAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &XeroAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// Platform returns the platform code this adapter handles
func (a *XeroAdapter) Platform() accounting.Platform {
	return accounting.PlatformXero
}

// FetchRecords pages through the entity's collection endpoint. Contacts and
// Invoices honor the page parameter; Accounts and Items return the whole
// collection in one response and are fetched once.
func (a *XeroAdapter) FetchRecords(ctx context.Context, cred *credential.Credential, q integration.Query) ([]integration.RawRecord, error) {
	switch q.Kind {
	case accounting.KindVendor:
		return a.fetchPaged(ctx, cred, "Contacts", `IsSupplier==true`)
	case accounting.KindAccount:
		return a.fetchAll(ctx, cred, "Accounts")
	case accounting.KindProduct:
		records, err := a.fetchAll(ctx, cred, "Items")
		if err != nil {
			return nil, err
		}
		return filterXeroItems(records, q.ProductKind), nil
	case accounting.KindInvoice:
		return a.fetchPaged(ctx, cred, "Invoices", `Type=="ACCREC"`)
	case accounting.KindBill:
		return a.fetchPaged(ctx, cred, "Invoices", `Type=="ACCPAY"`)
	default:
		return nil, fmt.Errorf("xero: unsupported entity kind %q", q.Kind)
	}
}

// fetchPaged follows page=1,2,... until a short page
func (a *XeroAdapter) fetchPaged(ctx context.Context, cred *credential.Credential, container, where string) ([]integration.RawRecord, error) {
	var all []integration.RawRecord
	for page := 1; ; page++ {
		endpoint := fmt.Sprintf("%s/%s?page=%d&where=%s",
			a.config.APIBaseURL, container, page, url.QueryEscape(where))
		records, err := a.fetch(ctx, cred, endpoint, container)
		if err != nil {
			return nil, err
		}
		for _, raw := range records {
			all = append(all, integration.RawRecord(raw))
		}
		if len(records) < a.config.PageSize {
			return all, nil
		}
	}
}

// fetchAll issues a single unpaged collection request
func (a *XeroAdapter) fetchAll(ctx context.Context, cred *credential.Credential, container string) ([]integration.RawRecord, error) {
	endpoint := fmt.Sprintf("%s/%s", a.config.APIBaseURL, container)
	records, err := a.fetch(ctx, cred, endpoint, container)
	if err != nil {
		return nil, err
	}
	out := make([]integration.RawRecord, 0, len(records))
	for _, raw := range records {
		out = append(out, integration.RawRecord(raw))
	}
	return out, nil
}

func (a *XeroAdapter) fetch(ctx context.Context, cred *credential.Credential, endpoint, container string) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("xero: failed to create request: %w", err)
	}
	body, err := a.do(req, cred)
	if err != nil {
		return nil, err
	}

	var envelope xeroEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &integration.RemoteAPIError{Body: fmt.Sprintf("malformed %s response: %v", container, err)}
	}
	return envelope.records(container), nil
}

// post issues a mutation against a collection endpoint, wrapping the payload
// in Xero's batch envelope
func (a *XeroAdapter) post(ctx context.Context, cred *credential.Credential, container string, record any) ([]byte, error) {
	body, err := json.Marshal(map[string]any{container: []any{record}})
	if err != nil {
		return nil, fmt.Errorf("xero: failed to encode request body: %w", err)
	}
	endpoint := fmt.Sprintf("%s/%s", a.config.APIBaseURL, container)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("xero: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return a.do(req, cred)
}

// do executes the request with tenant scoping. Xero has no sync tokens; a
// validation rejection on a write is its concurrency-conflict signal and
// surfaces as *integration.SyncConflictError.
func (a *XeroAdapter) do(req *http.Request, cred *credential.Credential) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("Xero-Tenant-Id", cred.TenantID)
	req.Header.Set("Accept", "application/json")

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
		var apiErr xeroAPIError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Type == xeroValidationExceptionType {
			return nil, &integration.SyncConflictError{}
		}
		return nil, &integration.RemoteAPIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// filterXeroItems narrows raw items to one product kind. The Items endpoint
// has no server-side kind filter, so classification happens here.
func filterXeroItems(records []integration.RawRecord, kind accounting.ProductKind) []integration.RawRecord {
	if kind == "" {
		return records
	}
	var out []integration.RawRecord
	for _, raw := range records {
		var rec xeroItem
		if err := json.Unmarshal(raw, &rec); err != nil {
			// Keep the malformed record; the mapper reports it properly
			out = append(out, raw)
			continue
		}
		if classifyXeroItem(&rec) == kind {
			out = append(out, raw)
		}
	}
	return out
}

// classifyXeroItem derives the canonical product kind. Xero has no explicit
// item type: tracked items are inventory, untracked purchased items are
// non-inventory goods, and sold-only untracked items are services.
func classifyXeroItem(rec *xeroItem) accounting.ProductKind {
	if rec.IsTrackedAsInventory {
		return accounting.ProductKindInventory
	}
	if rec.IsPurchased {
		return accounting.ProductKindNonInventory
	}
	return accounting.ProductKindService
}

// MapVendor converts a raw Xero contact into the canonical vendor shape
func (a *XeroAdapter) MapVendor(raw integration.RawRecord) (*accounting.Vendor, error) {
	var rec xeroContact
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, &integration.MappingError{Field: "Contact", RawValue: truncate(raw)}
	}
	if rec.ContactID == "" {
		return nil, &integration.MappingError{Field: "ContactID", RawValue: truncate(raw)}
	}

	balance := decimalZero()
	if rec.Balances != nil {
		var err error
		balance, err = parseDecimal(rec.ContactID, "Balances.AccountsPayable.Outstanding", rec.Balances.AccountsPayable.Outstanding)
		if err != nil {
			return nil, err
		}
	}
	updatedAt, err := parseXeroDate(rec.ContactID, "UpdatedDateUTC", rec.UpdatedDateUTC)
	if err != nil {
		return nil, err
	}

	vendor := &accounting.Vendor{
		Platform:        accounting.PlatformXero,
		RemoteID:        rec.ContactID,
		SyncToken:       rec.UpdatedDateUTC,
		DisplayName:     rec.Name,
		CompanyName:     rec.Name,
		Email:           rec.EmailAddress,
		Balance:         balance,
		CurrencyCode:    currencyCodeOrDefault(rec.DefaultCurrency),
		Active:          rec.ContactStatus != "ARCHIVED",
		RemoteUpdatedAt: updatedAt,
	}
	for _, phone := range rec.Phones {
		if phone.PhoneNumber != "" {
			vendor.Phone = phone.PhoneNumber
			break
		}
	}
	return vendor, nil
}

// MapAccount converts a raw Xero account into the canonical shape
func (a *XeroAdapter) MapAccount(raw integration.RawRecord) (*accounting.Account, error) {
	var rec xeroAccount
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, &integration.MappingError{Field: "Account", RawValue: truncate(raw)}
	}
	if rec.AccountID == "" {
		return nil, &integration.MappingError{Field: "AccountID", RawValue: truncate(raw)}
	}

	accountType, err := mapXeroClass(rec.AccountID, rec.Class)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseXeroDate(rec.AccountID, "UpdatedDateUTC", rec.UpdatedDateUTC)
	if err != nil {
		return nil, err
	}

	return &accounting.Account{
		Platform:        accounting.PlatformXero,
		RemoteID:        rec.AccountID,
		SyncToken:       rec.UpdatedDateUTC,
		Name:            rec.Name,
		Code:            rec.Code,
		Type:            accountType,
		CurrencyCode:    currencyCodeOrDefault(rec.CurrencyCode),
		Active:          rec.Status != "ARCHIVED",
		RemoteUpdatedAt: updatedAt,
	}, nil
}

// MapProduct converts a raw Xero item into the canonical shape
func (a *XeroAdapter) MapProduct(raw integration.RawRecord) (*accounting.Product, error) {
	var rec xeroItem
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, &integration.MappingError{Field: "Item", RawValue: truncate(raw)}
	}
	if rec.ItemID == "" {
		return nil, &integration.MappingError{Field: "ItemID", RawValue: truncate(raw)}
	}

	unitPrice := decimalZero()
	if rec.SalesDetails != nil {
		var err error
		unitPrice, err = parseDecimal(rec.ItemID, "SalesDetails.UnitPrice", rec.SalesDetails.UnitPrice)
		if err != nil {
			return nil, err
		}
	}
	purchaseCost := decimalZero()
	if rec.PurchaseDetails != nil {
		var err error
		purchaseCost, err = parseDecimal(rec.ItemID, "PurchaseDetails.UnitPrice", rec.PurchaseDetails.UnitPrice)
		if err != nil {
			return nil, err
		}
	}
	qty, err := parseDecimal(rec.ItemID, "QuantityOnHand", rec.QuantityOnHand)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseXeroDate(rec.ItemID, "UpdatedDateUTC", rec.UpdatedDateUTC)
	if err != nil {
		return nil, err
	}

	return &accounting.Product{
		Platform:        accounting.PlatformXero,
		RemoteID:        rec.ItemID,
		SyncToken:       rec.UpdatedDateUTC,
		Name:            rec.Name,
		SKU:             rec.Code,
		Kind:            classifyXeroItem(&rec),
		Description:     rec.Description,
		UnitPrice:       unitPrice,
		PurchaseCost:    purchaseCost,
		QuantityOnHand:  qty,
		Active:          true,
		RemoteUpdatedAt: updatedAt,
	}, nil
}

// MapInvoice converts a raw ACCREC invoice into the canonical shape
func (a *XeroAdapter) MapInvoice(raw integration.RawRecord) (*accounting.Invoice, error) {
	rec, doc, err := a.mapDocument(raw)
	if err != nil {
		return nil, err
	}

	invoice := &accounting.Invoice{
		Platform:        accounting.PlatformXero,
		RemoteID:        rec.InvoiceID,
		SyncToken:       rec.UpdatedDateUTC,
		DocNumber:       rec.InvoiceNumber,
		CurrencyCode:    doc.currency,
		IssueDate:       doc.issueDate,
		DueDate:         doc.dueDate,
		Subtotal:        doc.subtotal,
		TaxTotal:        doc.taxTotal,
		Total:           doc.total,
		Balance:         doc.balance,
		Status:          doc.status,
		RemoteUpdatedAt: doc.updatedAt,
	}
	if rec.Contact != nil {
		invoice.CustomerName = rec.Contact.Name
	}
	for n, line := range rec.LineItems {
		qty, unitPrice, amount, err := a.mapLineAmounts(rec.InvoiceID, line)
		if err != nil {
			return nil, err
		}
		invoice.Lines = append(invoice.Lines, accounting.InvoiceLine{
			LineNumber:      n + 1,
			ProductRemoteID: line.ItemCode,
			Description:     line.Description,
			Quantity:        qty,
			UnitPrice:       unitPrice,
			Amount:          amount,
		})
	}
	return invoice, nil
}

// MapBill converts a raw ACCPAY invoice into the canonical bill shape
func (a *XeroAdapter) MapBill(raw integration.RawRecord) (*accounting.Bill, error) {
	rec, doc, err := a.mapDocument(raw)
	if err != nil {
		return nil, err
	}

	bill := &accounting.Bill{
		Platform:        accounting.PlatformXero,
		RemoteID:        rec.InvoiceID,
		SyncToken:       rec.UpdatedDateUTC,
		DocNumber:       rec.InvoiceNumber,
		CurrencyCode:    doc.currency,
		IssueDate:       doc.issueDate,
		DueDate:         doc.dueDate,
		Subtotal:        doc.subtotal,
		TaxTotal:        doc.taxTotal,
		Total:           doc.total,
		Balance:         doc.balance,
		Status:          doc.status,
		RemoteUpdatedAt: doc.updatedAt,
	}
	if rec.Contact != nil {
		bill.VendorName = rec.Contact.Name
		bill.VendorRemoteID = rec.Contact.ContactID
	}
	for n, line := range rec.LineItems {
		qty, unitPrice, amount, err := a.mapLineAmounts(rec.InvoiceID, line)
		if err != nil {
			return nil, err
		}
		bill.Lines = append(bill.Lines, accounting.BillLine{
			LineNumber:      n + 1,
			AccountRemoteID: line.AccountCode,
			Description:     line.Description,
			Quantity:        qty,
			UnitPrice:       unitPrice,
			Amount:          amount,
		})
	}
	return bill, nil
}

// xeroDocumentFields carries the parsed fields shared by invoices and bills
type xeroDocumentFields struct {
	currency  string
	issueDate time.Time
	dueDate   time.Time
	subtotal  decimal.Decimal
	taxTotal  decimal.Decimal
	total     decimal.Decimal
	balance   decimal.Decimal
	status    accounting.DocumentStatus
	updatedAt time.Time
}

func (a *XeroAdapter) mapDocument(raw integration.RawRecord) (*xeroInvoice, *xeroDocumentFields, error) {
	var rec xeroInvoice
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, nil, &integration.MappingError{Field: "Invoice", RawValue: truncate(raw)}
	}
	if rec.InvoiceID == "" {
		return nil, nil, &integration.MappingError{Field: "InvoiceID", RawValue: truncate(raw)}
	}

	subtotal, err := parseDecimal(rec.InvoiceID, "SubTotal", rec.SubTotal)
	if err != nil {
		return nil, nil, err
	}
	taxTotal, err := parseDecimal(rec.InvoiceID, "TotalTax", rec.TotalTax)
	if err != nil {
		return nil, nil, err
	}
	total, err := parseDecimal(rec.InvoiceID, "Total", rec.Total)
	if err != nil {
		return nil, nil, err
	}
	balance, err := parseDecimal(rec.InvoiceID, "AmountDue", rec.AmountDue)
	if err != nil {
		return nil, nil, err
	}
	issueDate, err := parseXeroDate(rec.InvoiceID, "Date", rec.Date)
	if err != nil {
		return nil, nil, err
	}
	dueDate, err := parseXeroDate(rec.InvoiceID, "DueDate", rec.DueDate)
	if err != nil {
		return nil, nil, err
	}
	updatedAt, err := parseXeroDate(rec.InvoiceID, "UpdatedDateUTC", rec.UpdatedDateUTC)
	if err != nil {
		return nil, nil, err
	}

	return &rec, &xeroDocumentFields{
		currency:  currencyCodeOrDefault(rec.CurrencyCode),
		issueDate: issueDate,
		dueDate:   dueDate,
		subtotal:  subtotal,
		taxTotal:  taxTotal,
		total:     total,
		balance:   balance,
		status:    mapXeroInvoiceStatus(rec.Status),
		updatedAt: updatedAt,
	}, nil
}

func (a *XeroAdapter) mapLineAmounts(identifier string, line xeroLineItem) (qty, unitPrice, amount decimal.Decimal, err error) {
	qty, err = parseDecimal(identifier, "LineItems.Quantity", line.Quantity)
	if err != nil {
		return
	}
	unitPrice, err = parseDecimal(identifier, "LineItems.UnitAmount", line.UnitAmount)
	if err != nil {
		return
	}
	amount, err = parseDecimal(identifier, "LineItems.LineAmount", line.LineAmount)
	return
}

// mapXeroInvoiceStatus maps Xero's document status to the canonical lifecycle
func mapXeroInvoiceStatus(status string) accounting.DocumentStatus {
	switch status {
	case "VOIDED":
		return accounting.DocumentStatusVoided
	case "DELETED":
		return accounting.DocumentStatusInactive
	default:
		return accounting.DocumentStatusActive
	}
}

// mapXeroClass maps Xero's account class to the canonical account type
func mapXeroClass(identifier, class string) (accounting.AccountType, error) {
	switch class {
	case "ASSET":
		return accounting.AccountTypeAsset, nil
	case "LIABILITY":
		return accounting.AccountTypeLiability, nil
	case "EQUITY":
		return accounting.AccountTypeEquity, nil
	case "REVENUE":
		return accounting.AccountTypeRevenue, nil
	case "EXPENSE":
		return accounting.AccountTypeExpense, nil
	default:
		return "", &integration.MappingError{Identifier: identifier, Field: "Class", RawValue: class}
	}
}

// UpdateVendor pushes a contact change to Xero. Xero's batch envelope carries
// a single record; the response echoes the updated contact.
func (a *XeroAdapter) UpdateVendor(ctx context.Context, cred *credential.Credential, vendor *accounting.Vendor) (*accounting.Vendor, error) {
	record := map[string]any{
		"ContactID":    vendor.RemoteID,
		"Name":         vendor.DisplayName,
		"EmailAddress": vendor.Email,
	}
	if vendor.Phone != "" {
		record["Phones"] = []map[string]string{{"PhoneType": "DEFAULT", "PhoneNumber": vendor.Phone}}
	}
	body, err := a.post(ctx, cred, "Contacts", record)
	if err != nil {
		return nil, err
	}

	var envelope xeroEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Contacts) == 0 {
		return nil, &integration.RemoteAPIError{Body: "malformed contact update response"}
	}
	return a.MapVendor(integration.RawRecord(envelope.Contacts[0]))
}

// UpdateInvoice pushes an invoice change to Xero
func (a *XeroAdapter) UpdateInvoice(ctx context.Context, cred *credential.Credential, invoice *accounting.Invoice) (*accounting.Invoice, error) {
	record := map[string]any{
		"InvoiceID":     invoice.RemoteID,
		"Type":          "ACCREC",
		"InvoiceNumber": invoice.DocNumber,
		"Date":          invoice.IssueDate.Format("2006-01-02"),
		"DueDate":       invoice.DueDate.Format("2006-01-02"),
	}
	body, err := a.post(ctx, cred, "Invoices", record)
	if err != nil {
		return nil, err
	}

	var envelope xeroEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Invoices) == 0 {
		return nil, &integration.RemoteAPIError{Body: "malformed invoice update response"}
	}
	return a.MapInvoice(integration.RawRecord(envelope.Invoices[0]))
}

// VoidInvoice voids the invoice by posting a VOIDED status update
func (a *XeroAdapter) VoidInvoice(ctx context.Context, cred *credential.Credential, invoice *accounting.Invoice) error {
	record := map[string]any{
		"InvoiceID": invoice.RemoteID,
		"Type":      "ACCREC",
		"Status":    "VOIDED",
	}
	_, err := a.post(ctx, cred, "Invoices", record)
	return err
}

// Ensure XeroAdapter implements AccountingPlatform
var _ integration.AccountingPlatform = (*XeroAdapter)(nil)
