package internaldefs

import (
	"github.com/huiapp/huiauth"
)

// CounterDef names one engine counter.
type CounterDef struct {
	ID   huiauth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine latency histogram.
type HistogramDef struct {
	ID   huiauth.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "huiauth_audit_dropped_total"

// AuditDroppedHelp describes AuditDroppedName.
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

var CounterDefs = []CounterDef{
	{ID: huiauth.MetricRegisterSuccess, Name: "huiauth_register_success_total", Help: "Successful registrations."},
	{ID: huiauth.MetricRegisterDuplicate, Name: "huiauth_register_duplicate_total", Help: "Registrations rejected because the email or phone exists."},
	{ID: huiauth.MetricRegisterWeakPassword, Name: "huiauth_register_weak_password_total", Help: "Registrations rejected by the password policy."},
	{ID: huiauth.MetricLoginSuccess, Name: "huiauth_login_success_total", Help: "Successful login attempts."},
	{ID: huiauth.MetricLoginFailure, Name: "huiauth_login_failure_total", Help: "Failed login attempts."},
	{ID: huiauth.MetricLoginRateLimited, Name: "huiauth_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: huiauth.MetricLogout, Name: "huiauth_logout_total", Help: "Single-session logout operations."},
	{ID: huiauth.MetricLogoutAll, Name: "huiauth_logout_all_total", Help: "Logout-all operations."},
	{ID: huiauth.MetricPasswordChangeSuccess, Name: "huiauth_password_change_success_total", Help: "Successful password changes."},
	{ID: huiauth.MetricPasswordChangeInvalidOld, Name: "huiauth_password_change_invalid_old_total", Help: "Password change attempts with a wrong old password."},
	{ID: huiauth.MetricPasswordChangeReuseRejected, Name: "huiauth_password_change_reuse_rejected_total", Help: "Password change attempts rejected for reuse."},
	{ID: huiauth.MetricSessionCreated, Name: "huiauth_session_created_total", Help: "Created sessions."},
	{ID: huiauth.MetricSessionExtended, Name: "huiauth_session_extended_total", Help: "Sessions whose expiry slid forward."},
	{ID: huiauth.MetricSessionInvalidated, Name: "huiauth_session_invalidated_total", Help: "Invalidated sessions."},
	{ID: huiauth.MetricTokenRejected, Name: "huiauth_token_rejected_total", Help: "Bearer tokens that failed verification."},
	{ID: huiauth.MetricPermissionDenied, Name: "huiauth_permission_denied_total", Help: "Requests rejected by a permission gate."},
	{ID: huiauth.MetricRateLimitHit, Name: "huiauth_rate_limit_hit_total", Help: "Rate-limit checks that denied requests."},
}

var HistogramDefs = []HistogramDef{
	{ID: huiauth.MetricValidateLatency, Name: "huiauth_validate_latency_seconds", Help: "Identity resolution latency."},
}

// HistogramBounds are the upper bounds of the engine's eight buckets in
// seconds. The last bucket is unbounded.
var HistogramBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket for exporters without native
// histograms.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the eight engine buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
