package internaldefs

import (
	boardAuth "github.com/MrEthical07/boardAuth"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   boardAuth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for export.
type HistogramDef struct {
	ID   boardAuth.MetricID
	Name string
	Help string
}

// AuditDroppedName and AuditDroppedHelp describe the dispatcher drop counter,
// which is read from the engine rather than from a snapshot.
const (
	AuditDroppedName = "boardauth_audit_dropped_total"
	AuditDroppedHelp = "Audit events dropped due to dispatcher backpressure or sink panics."
)

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: boardAuth.MetricLoginSuccess, Name: "boardauth_login_success_total", Help: "Successful logins."},
	{ID: boardAuth.MetricLoginFailure, Name: "boardauth_login_failure_total", Help: "Failed logins."},
	{ID: boardAuth.MetricRefreshSuccess, Name: "boardauth_refresh_success_total", Help: "Access tokens issued from a refresh token."},
	{ID: boardAuth.MetricRefreshFailure, Name: "boardauth_refresh_failure_total", Help: "Failed refresh attempts."},
	{ID: boardAuth.MetricRefreshNotFound, Name: "boardauth_refresh_not_found_total", Help: "Refresh attempts with an unknown or revoked refresh token."},
	{ID: boardAuth.MetricLogout, Name: "boardauth_logout_total", Help: "Logout operations."},
	{ID: boardAuth.MetricAuthenticateSuccess, Name: "boardauth_authenticate_success_total", Help: "Requests authenticated with a valid access token."},
	{ID: boardAuth.MetricAuthenticateMissingToken, Name: "boardauth_authenticate_missing_token_total", Help: "Authentication failures: missing token."},
	{ID: boardAuth.MetricAuthenticateMalformedToken, Name: "boardauth_authenticate_malformed_token_total", Help: "Authentication failures: malformed token."},
	{ID: boardAuth.MetricAuthenticateExpiredToken, Name: "boardauth_authenticate_expired_token_total", Help: "Authentication failures: expired token."},
	{ID: boardAuth.MetricAuthenticateUnsupportedToken, Name: "boardauth_authenticate_unsupported_token_total", Help: "Authentication failures: unsupported token."},
	{ID: boardAuth.MetricAuthenticateInvalidSignature, Name: "boardauth_authenticate_invalid_signature_total", Help: "Authentication failures: invalid signature."},
	{ID: boardAuth.MetricAuthenticateUnknownFailure, Name: "boardauth_authenticate_unknown_failure_total", Help: "Authentication failures that could not be classified."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: boardAuth.MetricAuthenticateLatency, Name: "boardauth_authenticate_latency_seconds", Help: "Access token authentication latency."},
}

// BucketCount is the number of buckets an engine histogram snapshot carries,
// the last one being the +Inf overflow.
const BucketCount = 8

// UpperBounds are the finite bucket bounds in seconds. The engine's final
// bucket has no finite bound.
var UpperBounds = [BucketCount - 1]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// BoundSuffix renders each bucket bound as a metric-name-safe suffix.
var BoundSuffix = [BucketCount]string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, truncating or
// zero-filling as needed.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}

// ApproximateSum estimates the observed total in seconds by charging each
// sample its bucket's upper bound. Overflow samples are charged the largest
// finite bound.
func ApproximateSum(raw [BucketCount]uint64) float64 {
	var sum float64
	for i, v := range raw {
		bound := UpperBounds[len(UpperBounds)-1]
		if i < len(UpperBounds) {
			bound = UpperBounds[i]
		}
		sum += float64(v) * bound
	}
	return sum
}
