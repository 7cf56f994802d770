package platform

import (
	"encoding/json"
)

// Xero wraps every collection response in a flat envelope named after the
// entity: {"Contacts": [...]}, {"Invoices": [...]}. Sales invoices and vendor
// bills share the Invoices collection, split by the Type field (ACCREC vs
// ACCPAY). Record arrays are kept raw so FetchRecords can hand individual
// records to the mappers unparsed.
type xeroEnvelope struct {
	Contacts []json.RawMessage `json:"Contacts"`
	Accounts []json.RawMessage `json:"Accounts"`
	Items    []json.RawMessage `json:"Items"`
	Invoices []json.RawMessage `json:"Invoices"`
}

// records returns the raw array for the given container key. An absent key is
// an empty result, not an error.
func (e *xeroEnvelope) records(container string) []json.RawMessage {
	switch container {
	case "Contacts":
		return e.Contacts
	case "Accounts":
		return e.Accounts
	case "Items":
		return e.Items
	case "Invoices":
		return e.Invoices
	default:
		return nil
	}
}

// xeroAPIError is Xero's error envelope for rejected requests
type xeroAPIError struct {
	ErrorNumber int    `json:"ErrorNumber"`
	Type        string `json:"Type"`
	Message     string `json:"Message"`
}

// xeroValidationExceptionType marks a rejected write; Xero has no sync tokens,
// so a validation rejection on an update is its concurrency-conflict signal.
const xeroValidationExceptionType = "ValidationException"

// xeroContact is the raw Xero contact record. Vendors are contacts flagged
// IsSupplier.
type xeroContact struct {
	ContactID       string       `json:"ContactID"`
	ContactStatus   string       `json:"ContactStatus"` // ACTIVE or ARCHIVED
	Name            string       `json:"Name"`
	EmailAddress    string       `json:"EmailAddress"`
	IsSupplier      bool         `json:"IsSupplier"`
	Phones          []xeroPhone  `json:"Phones"`
	Balances        *xeroBalances `json:"Balances"`
	DefaultCurrency string       `json:"DefaultCurrency"`
	UpdatedDateUTC  string       `json:"UpdatedDateUTC"`
}

type xeroPhone struct {
	PhoneType   string `json:"PhoneType"`
	PhoneNumber string `json:"PhoneNumber"`
}

type xeroBalances struct {
	AccountsPayable xeroBalance `json:"AccountsPayable"`
}

type xeroBalance struct {
	Outstanding json.Number `json:"Outstanding"`
}

// xeroAccount is the raw Xero chart-of-accounts record
type xeroAccount struct {
	AccountID      string `json:"AccountID"`
	Code           string `json:"Code"`
	Name           string `json:"Name"`
	Status         string `json:"Status"` // ACTIVE or ARCHIVED
	Class          string `json:"Class"`  // ASSET, EQUITY, EXPENSE, LIABILITY, REVENUE
	CurrencyCode   string `json:"CurrencyCode"`
	UpdatedDateUTC string `json:"UpdatedDateUTC"`
}

// xeroItem is the raw Xero product/service record
type xeroItem struct {
	ItemID               string           `json:"ItemID"`
	Code                 string           `json:"Code"`
	Name                 string           `json:"Name"`
	Description          string           `json:"Description"`
	IsTrackedAsInventory bool             `json:"IsTrackedAsInventory"`
	IsSold               bool             `json:"IsSold"`
	IsPurchased          bool             `json:"IsPurchased"`
	QuantityOnHand       json.Number      `json:"QuantityOnHand"`
	SalesDetails         *xeroItemDetails `json:"SalesDetails"`
	PurchaseDetails      *xeroItemDetails `json:"PurchaseDetails"`
	UpdatedDateUTC       string           `json:"UpdatedDateUTC"`
}

type xeroItemDetails struct {
	UnitPrice json.Number `json:"UnitPrice"`
}

// xeroInvoice is the raw Xero invoice record, covering both ACCREC (sales
// invoice) and ACCPAY (vendor bill).
type xeroInvoice struct {
	InvoiceID      string         `json:"InvoiceID"`
	Type           string         `json:"Type"` // ACCREC or ACCPAY
	InvoiceNumber  string         `json:"InvoiceNumber"`
	Contact        *xeroContactRef `json:"Contact"`
	Status         string         `json:"Status"` // DRAFT, SUBMITTED, AUTHORISED, PAID, VOIDED, DELETED
	CurrencyCode   string         `json:"CurrencyCode"`
	Date           string         `json:"Date"`
	DueDate        string         `json:"DueDate"`
	SubTotal       json.Number    `json:"SubTotal"`
	TotalTax       json.Number    `json:"TotalTax"`
	Total          json.Number    `json:"Total"`
	AmountDue      json.Number    `json:"AmountDue"`
	LineItems      []xeroLineItem `json:"LineItems"`
	UpdatedDateUTC string         `json:"UpdatedDateUTC"`
}

type xeroContactRef struct {
	ContactID string `json:"ContactID"`
	Name      string `json:"Name"`
}

// xeroLineItem is one invoice/bill line
type xeroLineItem struct {
	LineItemID  string      `json:"LineItemID"`
	Description string      `json:"Description"`
	Quantity    json.Number `json:"Quantity"`
	UnitAmount  json.Number `json:"UnitAmount"`
	LineAmount  json.Number `json:"LineAmount"`
	ItemCode    string      `json:"ItemCode"`
	AccountCode string      `json:"AccountCode"`
}

// xeroTokenResponse is the OAuth token endpoint response
type xeroTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
}

// xeroConnection is one entry in the connections response; it resolves the
// tenant a freshly authorized token may act on.
type xeroConnection struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenantId"`
	TenantType string `json:"tenantType"`
	TenantName string `json:"tenantName"`
}
