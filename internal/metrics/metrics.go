// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Authentication pipeline
	IncAuthSuccess()
	IncAuthFailure(reason string) // reason: missing_bearer_header, malformed_token, expired_token, user_not_found
	IncLogin(status string)       // status: "success" or "failure"

	// Authorization
	IncOwnershipDenied()

	// Content mutations
	IncBookMutation(op string) // op: "created", "updated", "deleted"
	IncPageMutation(op string)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}

// Snapshot is a point-in-time view of recorded counters.
type Snapshot struct {
	AuthSuccess     int64            `json:"auth_success"`
	AuthFailures    map[string]int64 `json:"auth_failures"`
	Logins          map[string]int64 `json:"logins"`
	OwnershipDenied int64            `json:"ownership_denied"`
	BookMutations   map[string]int64 `json:"book_mutations"`
	PageMutations   map[string]int64 `json:"page_mutations"`
}
