package domain

import "time"

// AuditAction is the kind of user mutation recorded in the audit trail.
type AuditAction string

const (
	AuditUserCreated AuditAction = "user.created"
	AuditUserUpdated AuditAction = "user.updated"
	AuditUserDeleted AuditAction = "user.deleted"
)

// AuditEvent records who changed which user and when.
type AuditEvent struct {
	Action    AuditAction
	ActorID   string // empty for self-registration and bootstrap
	SubjectID string
	At        time.Time
}
