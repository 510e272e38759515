package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/user-management/internal/core/domain"
	"github.com/99minutos/user-management/internal/core/ports"
	"github.com/99minutos/user-management/internal/pkg/metrics"
)

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService returns an AuditService that persists events to repo.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Record persists a single audit event.
func (s *auditService) Record(ctx context.Context, event domain.AuditEvent) error {
	if event.Action == "" || event.SubjectID == "" {
		metrics.AuditEventsTotal.WithLabelValues("invalid").Inc()
		return fmt.Errorf("record audit: incomplete event %+v", event)
	}

	if err := s.repo.InsertEvent(ctx, &event); err != nil {
		metrics.AuditEventsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("record audit: %w", err)
	}

	metrics.AuditEventsTotal.WithLabelValues("recorded").Inc()
	s.log.Debug().
		Str("action", string(event.Action)).
		Str("actor_id", event.ActorID).
		Str("subject_id", event.SubjectID).
		Msg("audit event recorded")
	return nil
}
