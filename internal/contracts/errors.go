package contracts

import "errors"

// ⭐ SSOT: 도메인 에러는 여기서만 정의. 분류는 errors.Is로.

// Soft failures: one fund is excluded, the build continues.
var (
	// ErrInsufficientData NAV history shorter than the minimum observation count
	ErrInsufficientData = errors.New("insufficient data")

	// ErrFetchFailed provider exhausted retries for one fund
	ErrFetchFailed = errors.New("fetch failed")

	// ErrNotFound unknown fund code or record
	ErrNotFound = errors.New("not found")
)

// Hard failures: the build stops and the snapshot (if any) is marked failed.
var (
	ErrBenchmarkUnavailable = errors.New("benchmark unavailable")
	ErrNoCandidates         = errors.New("no candidate funds")
	ErrNoQualifiedFunds     = errors.New("no qualified funds")
	ErrStorageFailure       = errors.New("storage failure")
)

var (
	// ErrBusy a build is already in progress
	ErrBusy = errors.New("snapshot build already in progress")

	// ErrSnapshotImmutable records of a successful snapshot cannot change
	ErrSnapshotImmutable = errors.New("snapshot is immutable")

	// ErrSnapshotClosed snapshot already failed (e.g. swept as stale) and
	// accepts no further writes
	ErrSnapshotClosed = errors.New("snapshot is no longer running")
)

// IsSoftFailure reports whether err only excludes a single fund from a build
func IsSoftFailure(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrFetchFailed) ||
		errors.Is(err, ErrNotFound)
}
