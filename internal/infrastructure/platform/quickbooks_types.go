package platform

import (
	"encoding/json"
)

// qbQueryEnvelope is the outer shape of a QuickBooks query response. The inner
// entity arrays are kept raw: FetchRecords hands individual records to the
// mappers unparsed.
type qbQueryEnvelope struct {
	QueryResponse map[string]json.RawMessage `json:"QueryResponse"`
	Fault         *qbFault                   `json:"Fault"`
}

// records returns the raw entity array under the given container key.
// A success response without the key is an empty result, not an error.
func (e *qbQueryEnvelope) records(entity string) ([]json.RawMessage, error) {
	raw, ok := e.QueryResponse[entity]
	if !ok {
		return nil, nil
	}
	var out []json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// qbFault is QuickBooks' error envelope
type qbFault struct {
	Error []qbFaultError `json:"Error"`
	Type  string         `json:"type"`
}

// qbFaultError is one entry in a fault envelope. Code 5010 is "stale object
// error": the SyncToken sent did not match the platform's current revision.
type qbFaultError struct {
	Message string `json:"Message"`
	Detail  string `json:"Detail"`
	Code    string `json:"code"`
}

const qbStaleObjectFaultCode = "5010"

// hasStaleObjectFault reports whether the fault carries the stale-token code
func (f *qbFault) hasStaleObjectFault() bool {
	if f == nil {
		return false
	}
	for _, e := range f.Error {
		if e.Code == qbStaleObjectFaultCode {
			return true
		}
	}
	return false
}

// qbEntityEnvelope wraps a single-entity mutation response,
// e.g. {"Vendor": {...}} or {"Invoice": {...}}
type qbEntityEnvelope struct {
	Vendor  json.RawMessage `json:"Vendor"`
	Invoice json.RawMessage `json:"Invoice"`
	Fault   *qbFault        `json:"Fault"`
}

// qbMetaData carries the remote bookkeeping timestamps
type qbMetaData struct {
	CreateTime      string `json:"CreateTime"`
	LastUpdatedTime string `json:"LastUpdatedTime"`
}

// qbRef is QuickBooks' reference shape {"value": "123", "name": "..."}
type qbRef struct {
	Value string `json:"value"`
	Name  string `json:"name"`
}

// qbVendor is the raw QuickBooks vendor record
type qbVendor struct {
	ID               string      `json:"Id"`
	SyncToken        string      `json:"SyncToken"`
	DisplayName      string      `json:"DisplayName"`
	CompanyName      string      `json:"CompanyName"`
	PrimaryEmailAddr *qbEmail    `json:"PrimaryEmailAddr"`
	PrimaryPhone     *qbPhone    `json:"PrimaryPhone"`
	Balance          json.Number `json:"Balance"`
	CurrencyRef      *qbRef      `json:"CurrencyRef"`
	Active           *bool       `json:"Active"`
	MetaData         qbMetaData  `json:"MetaData"`
}

type qbEmail struct {
	Address string `json:"Address"`
}

type qbPhone struct {
	FreeFormNumber string `json:"FreeFormNumber"`
}

// qbAccount is the raw QuickBooks account record
type qbAccount struct {
	ID             string      `json:"Id"`
	SyncToken      string      `json:"SyncToken"`
	Name           string      `json:"Name"`
	AcctNum        string      `json:"AcctNum"`
	Classification string      `json:"Classification"`
	CurrentBalance json.Number `json:"CurrentBalance"`
	CurrencyRef    *qbRef      `json:"CurrencyRef"`
	Active         *bool       `json:"Active"`
	MetaData       qbMetaData  `json:"MetaData"`
}

// qbItem is the raw QuickBooks product/service record
type qbItem struct {
	ID          string      `json:"Id"`
	SyncToken   string      `json:"SyncToken"`
	Name        string      `json:"Name"`
	Sku         string      `json:"Sku"`
	Type        string      `json:"Type"` // Inventory, NonInventory, Service
	Description string      `json:"Description"`
	UnitPrice   json.Number `json:"UnitPrice"`
	PurchaseCost json.Number `json:"PurchaseCost"`
	QtyOnHand   json.Number `json:"QtyOnHand"`
	Active      *bool       `json:"Active"`
	MetaData    qbMetaData  `json:"MetaData"`
}

// qbInvoice is the raw QuickBooks invoice record
type qbInvoice struct {
	ID           string      `json:"Id"`
	SyncToken    string      `json:"SyncToken"`
	DocNumber    string      `json:"DocNumber"`
	CustomerRef  *qbRef      `json:"CustomerRef"`
	CurrencyRef  *qbRef      `json:"CurrencyRef"`
	TxnDate      string      `json:"TxnDate"`
	DueDate      string      `json:"DueDate"`
	TotalAmt     json.Number `json:"TotalAmt"`
	TxnTaxDetail *qbTaxDetail `json:"TxnTaxDetail"`
	Balance      json.Number `json:"Balance"`
	Line         []qbLine    `json:"Line"`
	MetaData     qbMetaData  `json:"MetaData"`
}

type qbTaxDetail struct {
	TotalTax json.Number `json:"TotalTax"`
}

// qbLine is one invoice/bill line. QuickBooks mixes detail lines and summary
// lines (SubTotalLineDetail etc.) in the same array; only detail lines map to
// canonical line items.
type qbLine struct {
	ID                  string          `json:"Id"`
	LineNum             int             `json:"LineNum"`
	Description         string          `json:"Description"`
	Amount              json.Number     `json:"Amount"`
	DetailType          string          `json:"DetailType"`
	SalesItemLineDetail *qbItemDetail   `json:"SalesItemLineDetail"`
	AccountBasedExpenseLineDetail *qbExpenseDetail `json:"AccountBasedExpenseLineDetail"`
}

type qbItemDetail struct {
	ItemRef   *qbRef      `json:"ItemRef"`
	Qty       json.Number `json:"Qty"`
	UnitPrice json.Number `json:"UnitPrice"`
}

type qbExpenseDetail struct {
	AccountRef *qbRef      `json:"AccountRef"`
	Qty        json.Number `json:"Qty"`
	UnitPrice  json.Number `json:"UnitPrice"`
}

// qbBill is the raw QuickBooks bill record
type qbBill struct {
	ID          string      `json:"Id"`
	SyncToken   string      `json:"SyncToken"`
	DocNumber   string      `json:"DocNumber"`
	VendorRef   *qbRef      `json:"VendorRef"`
	CurrencyRef *qbRef      `json:"CurrencyRef"`
	TxnDate     string      `json:"TxnDate"`
	DueDate     string      `json:"DueDate"`
	TotalAmt    json.Number `json:"TotalAmt"`
	TxnTaxDetail *qbTaxDetail `json:"TxnTaxDetail"`
	Balance     json.Number `json:"Balance"`
	Line        []qbLine    `json:"Line"`
	MetaData    qbMetaData  `json:"MetaData"`
}

// qbTokenResponse is the OAuth token endpoint response
type qbTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}
