package platform

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/booksync/backend/internal/domain/integration"
	"github.com/shopspring/decimal"
)

// maxResponseSize is the maximum allowed response size from a platform API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// parseDecimal converts a remote numeric value into a decimal. A malformed
// financial value fails with *integration.MappingError rather than defaulting:
// an incorrect amount is worse than a visible failure.
func parseDecimal(identifier, field string, raw json.Number) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Zero, &integration.MappingError{
			Identifier: identifier,
			Field:      field,
			RawValue:   raw.String(),
		}
	}
	return d, nil
}

// parseISODate parses an RFC3339 timestamp, also accepting the date-only form
// QuickBooks uses for TxnDate. An empty value maps to the zero time.
func parseISODate(identifier, field, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, &integration.MappingError{
		Identifier: identifier,
		Field:      field,
		RawValue:   raw,
	}
}

// parseXeroDate parses Xero's legacy "/Date(1518685950940+0000)/" encoding,
// falling back to RFC3339 for endpoints already returning ISO timestamps.
func parseXeroDate(identifier, field, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if strings.HasPrefix(raw, "/Date(") && strings.HasSuffix(raw, ")/") {
		inner := strings.TrimSuffix(strings.TrimPrefix(raw, "/Date("), ")/")
		// Strip the timezone suffix; the millisecond value is already UTC
		if i := strings.IndexAny(inner, "+-"); i > 0 {
			inner = inner[:i]
		}
		var millis int64
		if err := json.Unmarshal([]byte(inner), &millis); err != nil {
			return time.Time{}, &integration.MappingError{
				Identifier: identifier,
				Field:      field,
				RawValue:   raw,
			}
		}
		return time.UnixMilli(millis).UTC(), nil
	}
	return parseISODate(identifier, field, raw)
}
