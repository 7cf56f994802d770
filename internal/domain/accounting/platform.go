package accounting

// Platform identifies an external accounting platform acting as the system of
// record for financial entities.
type Platform string

const (
	// PlatformQuickBooks represents QuickBooks Online (query-language API)
	PlatformQuickBooks Platform = "QUICKBOOKS"
	// PlatformXero represents Xero (flat bulk-list API)
	PlatformXero Platform = "XERO"
)

// IsValid returns true if the platform code is valid
func (p Platform) IsValid() bool {
	switch p {
	case PlatformQuickBooks, PlatformXero:
		return true
	default:
		return false
	}
}

// String returns the string representation of Platform
func (p Platform) String() string {
	return string(p)
}

// Platforms returns all supported platform codes
func Platforms() []Platform {
	return []Platform{PlatformQuickBooks, PlatformXero}
}

// EntityKind identifies a canonical entity kind that can be synchronized
type EntityKind string

const (
	// KindVendor is the vendor/supplier master record
	KindVendor EntityKind = "VENDOR"
	// KindAccount is the chart-of-accounts entry
	KindAccount EntityKind = "ACCOUNT"
	// KindProduct is the product/service item
	KindProduct EntityKind = "PRODUCT"
	// KindInvoice is the sales invoice aggregate
	KindInvoice EntityKind = "INVOICE"
	// KindBill is the vendor bill aggregate
	KindBill EntityKind = "BILL"
)

// IsValid returns true if the entity kind is valid
func (k EntityKind) IsValid() bool {
	switch k {
	case KindVendor, KindAccount, KindProduct, KindInvoice, KindBill:
		return true
	default:
		return false
	}
}

// String returns the string representation of EntityKind
func (k EntityKind) String() string {
	return string(k)
}

// Scope is the unit of reconciliation: one (platform, entity kind) pair.
type Scope struct {
	Platform Platform
	Kind     EntityKind
}

// String returns a stable identifier usable as a lock key
func (s Scope) String() string {
	return string(s.Platform) + ":" + string(s.Kind)
}
