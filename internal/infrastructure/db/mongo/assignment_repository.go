package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/parcelview/tracking-engine/internal/core/domain"
	"github.com/parcelview/tracking-engine/internal/core/ports"
)

const collectionAssignments = "assignments"

const watchBuffer = 16

// AssignmentRepository exposes the courier assignment collection: one
// document per tracking identifier holding the last reported position,
// upserted out of band by the courier-side reporter.
type AssignmentRepository struct {
	col *mongo.Collection
	log zerolog.Logger
}

func NewAssignmentRepository(db *mongo.Database, log zerolog.Logger) *AssignmentRepository {
	return &AssignmentRepository{col: db.Collection(collectionAssignments), log: log}
}

type assignmentDoc struct {
	TrackingID  string  `bson:"tracking_id"`
	Lat         float64 `bson:"lat"`
	Lng         float64 `bson:"lng"`
	Description string  `bson:"location_description,omitempty"`
	Timestamp   any     `bson:"timestamp"`
	AccuracyM   float64 `bson:"accuracy_m,omitempty"`
}

func (doc assignmentDoc) toSample() domain.LocationSample {
	return domain.LocationSample{
		Lat:         doc.Lat,
		Lng:         doc.Lng,
		Description: doc.Description,
		Timestamp:   normalizeBSONTime(doc.Timestamp),
		AccuracyM:   doc.AccuracyM,
	}
}

// LastByTrackingID returns the most recent position report for a parcel.
func (r *AssignmentRepository) LastByTrackingID(ctx context.Context, trackingID string) (*domain.LocationSample, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc assignmentDoc
	err := r.col.FindOne(ctx, bson.M{"tracking_id": trackingID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNoResult
		}
		return nil, fmt.Errorf("read assignment: %w", err)
	}

	sample := doc.toSample()
	return &sample, nil
}

// WatchByTrackingID opens a change stream filtered to one tracking
// identifier and adapts it into the engine's subscription shape.
func (r *AssignmentRepository) WatchByTrackingID(ctx context.Context, trackingID string) (ports.Subscription, error) {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: bson.M{
		"operationType":           bson.M{"$in": bson.A{"insert", "update", "replace"}},
		"fullDocument.tracking_id": trackingID,
	}}}}

	streamCtx, cancel := context.WithCancel(ctx)
	stream, err := r.col.Watch(streamCtx, pipeline,
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("watch assignments: %w", err)
	}

	sub := &assignmentSubscription{
		out:    make(chan domain.LocationSample, watchBuffer),
		cancel: cancel,
	}

	go sub.pump(streamCtx, stream, trackingID, r.log)

	return sub, nil
}

type assignmentSubscription struct {
	out    chan domain.LocationSample
	cancel context.CancelFunc
	once   sync.Once
}

func (s *assignmentSubscription) Updates() <-chan domain.LocationSample { return s.out }

// Close cancels the change stream. Idempotent; the update channel is closed
// by the pump goroutine once the stream ends.
func (s *assignmentSubscription) Close() {
	s.once.Do(s.cancel)
}

func (s *assignmentSubscription) pump(ctx context.Context, stream *mongo.ChangeStream, trackingID string, log zerolog.Logger) {
	defer close(s.out)
	defer func() {
		_ = stream.Close(context.Background())
	}()

	for stream.Next(ctx) {
		var change struct {
			FullDocument assignmentDoc `bson:"fullDocument"`
		}
		if err := stream.Decode(&change); err != nil {
			log.Warn().Err(err).
				Str("tracking_id", trackingID).
				Msg("undecodable assignment change dropped")
			continue
		}

		select {
		case s.out <- change.FullDocument.toSample():
		case <-ctx.Done():
			return
		}
	}

	if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).
			Str("tracking_id", trackingID).
			Msg("assignment change stream ended with error")
	}
}

// EnsureIndexes creates the unique per-parcel index the reporter upserts
// against.
func (r *AssignmentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "tracking_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
