package middleware

const (
	// DegradedHeader marks availability answers served from the fail-open fallback.
	DegradedHeader = "X-Availability-Degraded"

	IdempotencyKeyHeader = "Idempotency-Key"
	// ReplayedHeader marks a response rebuilt from an earlier request with the same key.
	ReplayedHeader = "Idempotent-Replayed"
)
