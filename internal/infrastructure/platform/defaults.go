package platform

import (
	"github.com/shopspring/decimal"
)

// defaultCurrencyCode is applied when a remote record omits its currency
const defaultCurrencyCode = "USD"

// truncateLimit bounds the raw payload carried inside a mapping error
const truncateLimit = 256

// currencyOrDefault resolves a currency reference, defaulting when absent
func currencyOrDefault(ref *qbRef) string {
	if ref == nil || ref.Value == "" {
		return defaultCurrencyCode
	}
	return ref.Value
}

// currencyCodeOrDefault resolves a plain currency code string
func currencyCodeOrDefault(code string) string {
	if code == "" {
		return defaultCurrencyCode
	}
	return code
}

// activeOrDefault treats an absent active flag as active
func activeOrDefault(active *bool) bool {
	if active == nil {
		return true
	}
	return *active
}

func decimalZero() decimal.Decimal {
	return decimal.Zero
}

// truncate bounds a raw record for inclusion in an error message
func truncate(raw []byte) string {
	if len(raw) > truncateLimit {
		return string(raw[:truncateLimit]) + "..."
	}
	return string(raw)
}
