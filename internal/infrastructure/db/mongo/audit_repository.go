package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/user-management/internal/core/domain"
	"github.com/99minutos/user-management/internal/core/ports"
)

const auditCollection = "user_audit"

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	db *mongo.Database
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) ports.AuditRepository {
	return &AuditRepository{db: db}
}

// InsertEvent appends an event to the user_audit collection.
func (r *AuditRepository) InsertEvent(ctx context.Context, event *domain.AuditEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"action":      string(event.Action),
		"subject_id":  event.SubjectID,
		"at":          event.At.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	if event.ActorID != "" {
		doc["actor_id"] = event.ActorID
	}

	_, err := r.db.Collection(auditCollection).InsertOne(ctx, doc)
	return err
}
