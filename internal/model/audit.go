package model

import "time"

// Audit actions. Login, refresh and logout are distinct first-class values;
// one value is never overloaded for two operations.
const (
	AuditActionLogin          = "login"
	AuditActionRefresh        = "refresh"
	AuditActionLogout         = "logout"
	AuditActionRegister       = "register"
	AuditActionPasswordChange = "password_change"
	AuditActionSessionRevoke  = "session_revoke"
)

const (
	AuditStatusSuccess = "success"
	AuditStatusFailure = "failure"
)

type AuditActor struct {
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	IP       string `json:"ip,omitempty"`
}

// AuditEntry is an immutable record of one session-affecting operation.
// Entries are append-only; nothing in this service updates or deletes them.
type AuditEntry struct {
	ID         int64      `json:"id,omitempty"`
	Action     string     `json:"action"`
	OccurredAt time.Time  `json:"occurred_at"`
	Actor      AuditActor `json:"actor"`
	Status     string     `json:"status"`
	Resource   string     `json:"resource,omitempty"`
	UserAgent  string     `json:"user_agent,omitempty"`
	Path       string     `json:"path,omitempty"`
	Error      string     `json:"error,omitempty"`
}

type AuditQuery struct {
	Action  string
	ActorID string
	Status  string
	From    string
	To      string
	Page    int
	Limit   int
}
