package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/parcelview/tracking-engine/internal/core/domain"
)

const collectionEvents = "status_events"

// EventLogRepository reads the append-only status event log.
type EventLogRepository struct {
	col *mongo.Collection
}

func NewEventLogRepository(db *mongo.Database) *EventLogRepository {
	return &EventLogRepository{col: db.Collection(collectionEvents)}
}

type eventDoc struct {
	Status      string `bson:"status"`
	Timestamp   any    `bson:"timestamp"`
	Location    string `bson:"location,omitempty"`
	Title       string `bson:"title,omitempty"`
	Description string `bson:"description,omitempty"`
	CourierName string `bson:"courier_name,omitempty"`
	PhotoRef    string `bson:"photo_ref,omitempty"`
}

// QueryByTrackingID returns all event records for a parcel, oldest first,
// with timestamps normalized at this boundary.
func (r *EventLogRepository) QueryByTrackingID(ctx context.Context, trackingID string) ([]domain.EventRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.M{"tracking_id": trackingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("query event log: %w", err)
	}
	defer cursor.Close(ctx)

	var records []domain.EventRecord
	for cursor.Next(ctx) {
		var doc eventDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode event log entry: %w", err)
		}
		records = append(records, domain.EventRecord{
			Status:      doc.Status,
			Timestamp:   normalizeBSONTime(doc.Timestamp),
			Location:    doc.Location,
			Title:       doc.Title,
			Description: doc.Description,
			CourierName: doc.CourierName,
			PhotoRef:    doc.PhotoRef,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("query event log: %w", err)
	}

	return records, nil
}

// EnsureIndexes creates the compound index serving the query path.
func (r *EventLogRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "tracking_id", Value: 1}, {Key: "timestamp", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
