package integration

import (
	"time"

	"github.com/booksync/backend/internal/domain/accounting"
)

// SyncStatus represents the outcome of a sync invocation
type SyncStatus string

const (
	// SyncStatusSuccess indicates every record was applied
	SyncStatusSuccess SyncStatus = "SUCCESS"
	// SyncStatusPartial indicates some records failed mapping but the rest committed
	SyncStatusPartial SyncStatus = "PARTIAL"
	// SyncStatusFailed indicates nothing was applied
	SyncStatusFailed SyncStatus = "FAILED"
)

// IsValid returns true if the status is valid
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusSuccess, SyncStatusPartial, SyncStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of SyncStatus
func (s SyncStatus) String() string {
	return string(s)
}

// SyncFailure records one record that could not be applied.
type SyncFailure struct {
	// Identifier is the remote ID of the failed record
	Identifier string `json:"identifier"`
	// Reason is the human-readable failure description
	Reason string `json:"reason"`
}

// SyncResult is the structured outcome of one sync invocation. It lets an
// operator distinguish "nothing synced" (whole scope aborted) from "N of M
// records failed mapping" (partial success).
type SyncResult struct {
	Status         SyncStatus    `json:"status"`
	TotalCount     int           `json:"total_count"`
	SucceededCount int           `json:"succeeded_count"`
	FailedCount    int           `json:"failed_count"`
	Failures       []SyncFailure `json:"failures"`
	SyncedAt       time.Time     `json:"synced_at"`
}

// NewSyncResult creates an empty result
func NewSyncResult() *SyncResult {
	return &SyncResult{Failures: make([]SyncFailure, 0)}
}

// AddFailure records a failed record
func (r *SyncResult) AddFailure(identifier, reason string) {
	r.FailedCount++
	r.Failures = append(r.Failures, SyncFailure{Identifier: identifier, Reason: reason})
}

// Merge folds another result into this one
func (r *SyncResult) Merge(other *SyncResult) {
	r.TotalCount += other.TotalCount
	r.SucceededCount += other.SucceededCount
	r.FailedCount += other.FailedCount
	r.Failures = append(r.Failures, other.Failures...)
}

// Finish stamps the result and derives the overall status
func (r *SyncResult) Finish(now time.Time) *SyncResult {
	r.SyncedAt = now
	switch {
	case r.FailedCount == 0:
		r.Status = SyncStatusSuccess
	case r.SucceededCount > 0:
		r.Status = SyncStatusPartial
	default:
		r.Status = SyncStatusFailed
	}
	return r
}

// Strategy selects how a scope is reconciled against the remote snapshot.
type Strategy string

const (
	// StrategyFullRefresh discards and rebuilds the entire local scope
	StrategyFullRefresh Strategy = "FULL_REFRESH"
	// StrategyIncrementalMerge upserts by natural key and soft-deletes rows
	// missing remotely, preserving local-only fields
	StrategyIncrementalMerge Strategy = "INCREMENTAL_MERGE"
)

// StrategyFor declares, per scope, which reconciliation strategy applies.
// Entity kinds with no local-only fields take the full refresh; kinds carrying
// local-only state (product price overrides, invoice notes on Xero, bill
// history) take the incremental merge so that state survives.
func StrategyFor(platform accounting.Platform, kind accounting.EntityKind) Strategy {
	switch kind {
	case accounting.KindVendor, accounting.KindAccount:
		return StrategyFullRefresh
	case accounting.KindInvoice:
		if platform == accounting.PlatformQuickBooks {
			return StrategyFullRefresh
		}
		return StrategyIncrementalMerge
	default:
		return StrategyIncrementalMerge
	}
}
