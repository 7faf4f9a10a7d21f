package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/parcelview/tracking-engine/internal/core/domain"
)

const collectionParcels = "parcels"

// ParcelRepository reads the authoritative parcel record collection.
type ParcelRepository struct {
	col *mongo.Collection
}

func NewParcelRepository(db *mongo.Database) *ParcelRepository {
	return &ParcelRepository{col: db.Collection(collectionParcels)}
}

// parcelDoc mirrors the stored document. Timestamp fields are decoded as
// raw values because the producing systems write a mix of BSON dates,
// epoch integers and ISO strings; normalization happens here, at the
// boundary.
type parcelDoc struct {
	TrackingID      string     `bson:"tracking_id"`
	Status          string     `bson:"status"`
	Sender          personDoc  `bson:"sender"`
	Receiver        personDoc  `bson:"receiver"`
	ReceiverAddress addressDoc `bson:"receiver_address"`
	PickupLocation  string     `bson:"pickup_location"`
	CourierID       string     `bson:"courier_id,omitempty"`
	CourierName     string     `bson:"courier_name,omitempty"`
	CreatedAt       any        `bson:"created_at"`
	UpdatedAt       any        `bson:"updated_at"`
	DeliveredAt     any        `bson:"delivered_at,omitempty"`
	ProofRef        string     `bson:"proof_ref,omitempty"`
}

type personDoc struct {
	Name  string `bson:"name"`
	Email string `bson:"email,omitempty"`
	Phone string `bson:"phone,omitempty"`
}

type addressDoc struct {
	Address string `bson:"address"`
	City    string `bson:"city,omitempty"`
	ZipCode string `bson:"zip_code,omitempty"`
}

// GetByTrackingID retrieves one parcel record by tracking identifier.
func (r *ParcelRepository) GetByTrackingID(ctx context.Context, trackingID string) (*domain.Parcel, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc parcelDoc
	err := r.col.FindOne(ctx, bson.M{"tracking_id": trackingID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrParcelNotFound
		}
		return nil, err
	}

	return doc.toDomain(), nil
}

func (doc parcelDoc) toDomain() *domain.Parcel {
	return &domain.Parcel{
		TrackingID: doc.TrackingID,
		Status:     domain.ParseStatus(doc.Status),
		Sender:     domain.Person{Name: doc.Sender.Name, Email: doc.Sender.Email, Phone: doc.Sender.Phone},
		Receiver:   domain.Person{Name: doc.Receiver.Name, Email: doc.Receiver.Email, Phone: doc.Receiver.Phone},
		ReceiverAddress: domain.Address{
			Address: doc.ReceiverAddress.Address,
			City:    doc.ReceiverAddress.City,
			ZipCode: doc.ReceiverAddress.ZipCode,
		},
		PickupLocation: doc.PickupLocation,
		CourierID:      doc.CourierID,
		CourierName:    doc.CourierName,
		CreatedAt:      normalizeBSONTime(doc.CreatedAt),
		UpdatedAt:      normalizeBSONTime(doc.UpdatedAt),
		DeliveredAt:    normalizeBSONTime(doc.DeliveredAt),
		ProofRef:       doc.ProofRef,
	}
}

// normalizeBSONTime maps whatever the producers stored into the canonical
// epoch-millisecond timestamp. Unusable values decode to zero.
func normalizeBSONTime(v any) domain.Timestamp {
	switch t := v.(type) {
	case primitive.DateTime:
		return domain.TimestampFromTime(t.Time())
	case primitive.Timestamp:
		return domain.TimestampFromTime(time.Unix(int64(t.T), 0))
	}
	ts, _ := domain.NormalizeTimestamp(v)
	return ts
}

// EnsureIndexes creates the tracking-id indexes used by every read path.
func (r *ParcelRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "tracking_id", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
