package entity

import "time"

// OTPReason selects the email template for a generated code.
type OTPReason string

const (
	OTPReasonForgotPassword OTPReason = "FORGOTPASSWORD"
	OTPReasonVerifyAccount  OTPReason = "VERIFYACCOUNT"
)

func (r OTPReason) String() string {
	return string(r)
}

func (r OTPReason) IsForgotPassword() bool {
	return r == OTPReasonForgotPassword
}

// OTPRecord is the per-flow OTP state. A zero record means no code is
// pending and no reset session is granted.
type OTPRecord struct {
	CodeHash         string    `json:"code_hash,omitempty"`
	Reason           OTPReason `json:"reason,omitempty"`
	IssuedAt         time.Time `json:"issued_at"`
	ExpiresAt        time.Time `json:"expires_at"`
	NextIssueAt      time.Time `json:"next_issue_at"`
	SessionGranted   bool      `json:"session_granted,omitempty"`
	SessionExpiresAt time.Time `json:"session_expires_at"`
}

// CanIssue reports whether the cooldown since the last issuance has passed.
func (r *OTPRecord) CanIssue(now time.Time) bool {
	return !now.Before(r.NextIssueAt)
}

// Issue replaces any outstanding code. The reset-session grant is untouched.
func (r *OTPRecord) Issue(codeHash string, reason OTPReason, now time.Time, ttl, cooldown time.Duration) {
	r.CodeHash = codeHash
	r.Reason = reason
	r.IssuedAt = now
	r.ExpiresAt = now.Add(ttl)
	r.NextIssueAt = now.Add(cooldown)
}

// HasPendingCode reports whether a code is outstanding and unexpired.
func (r *OTPRecord) HasPendingCode(now time.Time) bool {
	return r.CodeHash != "" && !now.After(r.ExpiresAt)
}

// Grant clears the pending code and opens a reset session.
func (r *OTPRecord) Grant(now time.Time, sessionTTL time.Duration) {
	r.CodeHash = ""
	r.SessionGranted = true
	r.SessionExpiresAt = now.Add(sessionTTL)
}

// HasSession reports whether an unexpired reset session is granted.
func (r *OTPRecord) HasSession(now time.Time) bool {
	return r.SessionGranted && !now.After(r.SessionExpiresAt)
}

// ConsumeSession takes the grant. It reports false, and leaves the record
// without a grant, when no live session exists.
func (r *OTPRecord) ConsumeSession(now time.Time) bool {
	ok := r.HasSession(now)
	r.SessionGranted = false
	r.SessionExpiresAt = time.Time{}
	return ok
}

// Horizon is the time after which the record carries no state worth keeping.
func (r *OTPRecord) Horizon() time.Time {
	h := r.NextIssueAt
	if r.CodeHash != "" && r.ExpiresAt.After(h) {
		h = r.ExpiresAt
	}
	if r.SessionGranted && r.SessionExpiresAt.After(h) {
		h = r.SessionExpiresAt
	}
	return h
}

// IsExpired reports whether the record can be dropped. A code or session
// is still valid at its expiry instant, so the record outlives Horizon by
// any positive amount only.
func (r *OTPRecord) IsExpired(now time.Time) bool {
	return now.After(r.Horizon())
}
