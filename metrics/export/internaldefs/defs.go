package internaldefs

import (
	agroSession "github.com/HarvestERP/agroSession"
)

// CounterDef defines a public type used by agroSession APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   agroSession.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the session coordinator.
var CounterDefs = []CounterDef{
	{ID: agroSession.MetricRenewSuccess, Name: "agrosession_renew_success_total", Help: "Successful credential renewals."},
	{ID: agroSession.MetricRenewFailure, Name: "agrosession_renew_failure_total", Help: "Failed credential renewals."},
	{ID: agroSession.MetricRenewQueued, Name: "agrosession_renew_queued_total", Help: "Requests queued behind an in-flight renewal."},
	{ID: agroSession.MetricRenewAhead, Name: "agrosession_renew_ahead_total", Help: "Renewals triggered ahead of the expiry claim."},
	{ID: agroSession.MetricRequestRetried, Name: "agrosession_request_retried_total", Help: "Requests replayed after renewal or backoff."},
	{ID: agroSession.MetricRateLimitWait, Name: "agrosession_rate_limit_wait_total", Help: "Requests delayed by a throttling response."},
	{ID: agroSession.MetricRateLimitAdvisory, Name: "agrosession_rate_limit_advisory_total", Help: "Throttling advisories shown to the user."},
	{ID: agroSession.MetricRateLimitExhausted, Name: "agrosession_rate_limit_exhausted_total", Help: "Requests throttled again after one backoff."},
	{ID: agroSession.MetricLoginSuccess, Name: "agrosession_login_success_total", Help: "Successful logins."},
	{ID: agroSession.MetricLoginMFARequired, Name: "agrosession_login_mfa_required_total", Help: "Logins requiring a second factor."},
	{ID: agroSession.MetricLoginFailure, Name: "agrosession_login_failure_total", Help: "Failed logins."},
	{ID: agroSession.MetricVerifySuccess, Name: "agrosession_verify_success_total", Help: "Successful challenge verifications."},
	{ID: agroSession.MetricVerifyFailure, Name: "agrosession_verify_failure_total", Help: "Rejected challenge verifications."},
	{ID: agroSession.MetricVerifyLockedOut, Name: "agrosession_verify_locked_out_total", Help: "Verifications denied by a server lockout."},
	{ID: agroSession.MetricChallengeRestored, Name: "agrosession_challenge_restored_total", Help: "Challenges resumed from the persisted cache."},
	{ID: agroSession.MetricChallengeExpired, Name: "agrosession_challenge_expired_total", Help: "Challenges that reached their absolute deadline."},
	{ID: agroSession.MetricChallengeCanceled, Name: "agrosession_challenge_canceled_total", Help: "Challenges canceled by the user."},
	{ID: agroSession.MetricSetupStarted, Name: "agrosession_setup_started_total", Help: "MFA enrollment sessions started."},
	{ID: agroSession.MetricSetupConfirmed, Name: "agrosession_setup_confirmed_total", Help: "MFA enrollment sessions confirmed."},
	{ID: agroSession.MetricSetupExpired, Name: "agrosession_setup_expired_total", Help: "MFA enrollment sessions that expired before confirmation."},
	{ID: agroSession.MetricLogout, Name: "agrosession_logout_total", Help: "Logout operations."},
	{ID: agroSession.MetricSessionEvicted, Name: "agrosession_session_evicted_total", Help: "Sessions evicted after a fatal renewal failure."},
}
