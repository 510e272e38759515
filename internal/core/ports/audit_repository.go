package ports

import (
	"context"

	"github.com/99minutos/user-management/internal/core/domain"
)

// AuditRepository persists the user mutation audit trail.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuditEvent) error
}
