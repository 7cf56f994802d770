package integration

import (
	"errors"
	"fmt"
)

var (
	// ErrPlatformNotRegistered indicates no adapter is registered for the platform
	ErrPlatformNotRegistered = errors.New("integration: platform not registered")
	// ErrPlatformNotConfigured indicates the adapter has no usable configuration
	ErrPlatformNotConfigured = errors.New("integration: platform not configured")
	// ErrRecordNotFound indicates the remote platform has no such record
	ErrRecordNotFound = errors.New("integration: remote record not found")
)

// RemoteAPIError is returned when a platform call fails at the transport level
// or with a non-success HTTP status. Transport errors (timeouts, connection
// failures) carry Status 0.
type RemoteAPIError struct {
	Status int
	Body   string
}

// Error implements the error interface
func (e *RemoteAPIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("integration: remote call failed: %s", e.Body)
	}
	return fmt.Sprintf("integration: remote API returned HTTP %d: %s", e.Status, e.Body)
}

// MappingError is returned when a single raw remote record cannot be converted
// to its canonical shape. A malformed financial value must fail visibly rather
// than silently default.
type MappingError struct {
	Identifier string // remote ID of the offending record, when known
	Field      string
	RawValue   string
}

// Error implements the error interface
func (e *MappingError) Error() string {
	return fmt.Sprintf("integration: cannot map field %q from value %q (record %s)",
		e.Field, e.RawValue, e.Identifier)
}

// SyncConflictError is returned when a mutating call carried a stale sync
// token. The conflict is surfaced to the caller; it is never silently
// overwritten.
type SyncConflictError struct {
	ExpectedToken string
	ActualToken   string
}

// Error implements the error interface
func (e *SyncConflictError) Error() string {
	return fmt.Sprintf("integration: sync token conflict (sent %q, platform holds %q)",
		e.ExpectedToken, e.ActualToken)
}
