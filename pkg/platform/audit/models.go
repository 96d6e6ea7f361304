package audit

import "time"

// Event is emitted from domain logic to capture key account and ledger
// actions. Keep it transport-agnostic so publishers can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	AccountID string    `json:"account_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Decision  string    `json:"decision,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

const (
	// Account events
	EventAccountRegistered   = "account_registered"
	EventLoginSucceeded      = "login_succeeded"
	EventLoginFailed         = "login_failed"
	EventTokenRefreshed      = "token_refreshed"
	EventEmailConfirmed      = "email_confirmed"
	EventPasswordResetStart  = "password_reset_requested"
	EventPasswordResetDone   = "password_reset_confirmed"
	EventEmailChangeStart    = "email_change_requested"
	EventEmailChangeDone     = "email_change_confirmed"
	EventEmailChangeConflict = "email_change_conflict"

	// Ledger events
	EventProjectCreated       = "project_created"
	EventProjectArchived      = "project_archived"
	EventProjectDeleted       = "project_deleted"
	EventApplicationSubmitted = "application_submitted"
	EventApplicationWithdrawn = "application_withdrawn"
	EventApplicationDecided   = "application_decided"
)
