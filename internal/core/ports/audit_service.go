package ports

import (
	"context"

	"github.com/99minutos/user-management/internal/core/domain"
)

// AuditService records a single audit event. It runs on dispatcher workers,
// never on the request path.
type AuditService interface {
	Record(ctx context.Context, event domain.AuditEvent) error
}

// AuditRecorder accepts audit events for asynchronous recording.
type AuditRecorder interface {
	Enqueue(event domain.AuditEvent)
}
