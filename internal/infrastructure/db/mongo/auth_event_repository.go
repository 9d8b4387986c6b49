package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/activity-tracker/tracker-web/internal/core/domain"
	"github.com/activity-tracker/tracker-web/internal/core/ports"
)

const authEventsCollection = "auth_events"

// AuthEventRepository implements ports.AuthEventRepository using MongoDB.
type AuthEventRepository struct {
	col       *mongo.Collection
	retention time.Duration
}

// NewAuthEventRepository creates a new AuthEventRepository. Events older
// than retention are expired by MongoDB once EnsureIndexes has run; zero
// keeps them forever.
func NewAuthEventRepository(db *mongo.Database, retention time.Duration) *AuthEventRepository {
	return &AuthEventRepository{col: db.Collection(authEventsCollection), retention: retention}
}

var _ ports.AuthEventRepository = (*AuthEventRepository)(nil)

// InsertEvent appends an event to the auth_events audit collection.
func (r *AuthEventRepository) InsertEvent(ctx context.Context, event *domain.AuthEvent) error {
	doc := bson.M{
		"type":         string(event.Type),
		"session_id":   event.SessionID,
		"occurred_at":  event.OccurredAt.UTC(),
		"processed_at": time.Now().UTC(),
	}
	if event.UserID != "" {
		doc["user_id"] = event.UserID.String()
	}
	if event.Email != "" {
		doc["email"] = event.Email
	}
	if event.Reason != "" {
		doc["reason"] = event.Reason
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	return nil
}

// EnsureIndexes creates the lookup indexes and, when a retention is set, the
// TTL index on occurred_at.
func (r *AuthEventRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	occurred := options.Index()
	if r.retention > 0 {
		occurred.SetExpireAfterSeconds(int32(r.retention / time.Second))
	}
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "session_id", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "occurred_at", Value: 1}}, Options: occurred},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
