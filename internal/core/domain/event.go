package domain

// Provenance records which source produced a TrackingEvent.
type Provenance string

const (
	// ProvenanceLog marks events read from the event log store.
	ProvenanceLog Provenance = "log"
	// ProvenanceRecord marks events synthesized from the parcel record.
	ProvenanceRecord Provenance = "record"
)

// EventRecord is a raw entry read from the event log store, timestamps
// already normalized by the repository.
type EventRecord struct {
	Status      string    `json:"status" bson:"status"`
	Timestamp   Timestamp `json:"timestamp" bson:"timestamp"`
	Location    string    `json:"location,omitempty" bson:"location,omitempty"`
	Title       string    `json:"title,omitempty" bson:"title,omitempty"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	CourierName string    `json:"courier_name,omitempty" bson:"courier_name,omitempty"`
	PhotoRef    string    `json:"photo_ref,omitempty" bson:"photo_ref,omitempty"`
}

// TrackingEvent is one point in a parcel's displayed history. Events are
// immutable once constructed; the timeline builder only appends and sorts.
type TrackingEvent struct {
	Title       string       `json:"title"`
	Status      ParcelStatus `json:"status"`
	Description string       `json:"description"`
	Timestamp   Timestamp    `json:"timestamp"`
	Location    string       `json:"location,omitempty"`
	CourierName string       `json:"courier_name,omitempty"`
	ProofRef    string       `json:"proof_ref,omitempty"`
	Icon        string       `json:"icon"`
	Provenance  Provenance   `json:"provenance"`
}
