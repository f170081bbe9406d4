package tool

import "errors"

// Sentinel errors callers branch on with errors.Is. Per-target failures in a
// batch wrap one of these (or the underlying I/O error) and never escalate to
// abort sibling targets.
var (
	// ErrNotFound marks a missing read target or fact id. Reported as a
	// structured not-found payload, not used for control flow.
	ErrNotFound = errors.New("not found")

	// ErrAccessDenied marks a path rejected by the access policy.
	ErrAccessDenied = errors.New("access denied")

	// ErrCancelled marks a target aborted by the caller's cancellation
	// signal before or between I/O steps.
	ErrCancelled = errors.New("operation cancelled")
)
