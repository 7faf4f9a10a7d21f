package domain

// Person represents a sender or receiver.
type Person struct {
	Name  string `json:"name" bson:"name"`
	Email string `json:"email" bson:"email"`
	Phone string `json:"phone" bson:"phone"`
}

// Address represents a physical location as free text plus optional
// structured parts. The geocoding adapter turns it into coordinates.
type Address struct {
	Address string `json:"address" bson:"address"`
	City    string `json:"city" bson:"city"`
	ZipCode string `json:"zip_code" bson:"zip_code"`
}

// FullText renders the address as a single geocodable line.
func (a Address) FullText() string {
	out := a.Address
	if a.City != "" {
		if out != "" {
			out += ", "
		}
		out += a.City
	}
	if a.ZipCode != "" {
		if out != "" {
			out += " "
		}
		out += a.ZipCode
	}
	return out
}

// Parcel is the authoritative record for one tracked delivery. It is owned
// and mutated by external producers; this engine only reads it and derives
// timeline, map and ETA state from it.
type Parcel struct {
	TrackingID      string       `json:"tracking_id" bson:"tracking_id"`
	Status          ParcelStatus `json:"status" bson:"status"`
	Sender          Person       `json:"sender" bson:"sender"`
	Receiver        Person       `json:"receiver" bson:"receiver"`
	ReceiverAddress Address      `json:"receiver_address" bson:"receiver_address"`
	PickupLocation  string       `json:"pickup_location" bson:"pickup_location"`
	CourierID       string       `json:"courier_id,omitempty" bson:"courier_id,omitempty"`
	CourierName     string       `json:"courier_name,omitempty" bson:"courier_name,omitempty"`
	CreatedAt       Timestamp    `json:"created_at" bson:"created_at"`
	UpdatedAt       Timestamp    `json:"updated_at" bson:"updated_at"`
	DeliveredAt     Timestamp    `json:"delivered_at,omitempty" bson:"delivered_at,omitempty"`
	ProofRef        string       `json:"proof_ref,omitempty" bson:"proof_ref,omitempty"`
}
