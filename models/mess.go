package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultDeliveryTime = "30–40 mins"

type Documents struct {
	PanCard     string `bson:"pancard,omitempty" json:"pancard,omitempty"`
	FSSAI       string `bson:"fssai,omitempty" json:"fssai,omitempty"`
	MenuPhoto   string `bson:"menuPhoto,omitempty" json:"menuPhoto,omitempty"`
	BankDetails string `bson:"bankDetails,omitempty" json:"bankDetails,omitempty"`
}

type Mess struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	MessID       int64              `bson:"mess_id" json:"mess_id"`
	Name         string             `bson:"name" json:"name"`
	Location     string             `bson:"location" json:"location"`
	Mobile       string             `bson:"mobile,omitempty" json:"mobile,omitempty"`
	Email        string             `bson:"email,omitempty" json:"email,omitempty"`
	PriceRange   string             `bson:"price_range,omitempty" json:"price_range,omitempty"`
	Rating       float64            `bson:"rating" json:"rating"`
	RatingSum    float64            `bson:"rating_sum" json:"-"`
	RatingCount  int64              `bson:"rating_count" json:"rating_count"`
	DeliveryTime string             `bson:"delivery_time,omitempty" json:"delivery_time,omitempty"`
	Distance     string             `bson:"distance,omitempty" json:"distance,omitempty"`
	Offer        string             `bson:"offer,omitempty" json:"offer,omitempty"`
	Documents    `bson:",inline" json:"documents"`
	Menu         Menu               `bson:"menu" json:"menu"`
	OwnerID      primitive.ObjectID `bson:"owner_id,omitempty" json:"owner_id,omitempty"`
	Version      int64              `bson:"version" json:"-"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Ref is the reference new orders and reviews store for this mess.
func (m Mess) Ref() MessRef {
	if m.MessID > 0 {
		return RefFromMessID(m.MessID)
	}
	if !m.ID.IsZero() {
		return MessRef(m.ID.Hex())
	}
	return ""
}

// Aliases lists every reference older records may use for this mess.
func (m Mess) Aliases() []MessRef {
	var refs []MessRef
	if m.MessID > 0 {
		refs = append(refs, RefFromMessID(m.MessID))
	}
	if !m.ID.IsZero() {
		refs = append(refs, MessRef(m.ID.Hex()))
	}
	return refs
}

func (m Mess) OwnedBy(userID primitive.ObjectID) bool {
	return !m.OwnerID.IsZero() && m.OwnerID == userID
}

// MessDetails is a partial update of the descriptive fields of a mess.
// Nil fields are left untouched.
type MessDetails struct {
	Name         *string `json:"name"`
	Location     *string `json:"location"`
	Mobile       *string `json:"mobile"`
	Email        *string `json:"email"`
	PriceRange   *string `json:"price_range"`
	DeliveryTime *string `json:"delivery_time"`
	Distance     *string `json:"distance"`
	Offer        *string `json:"offer"`
}

func (d MessDetails) Empty() bool {
	return d.Name == nil && d.Location == nil && d.Mobile == nil && d.Email == nil &&
		d.PriceRange == nil && d.DeliveryTime == nil && d.Distance == nil && d.Offer == nil
}

// Apply copies the set fields onto m.
func (d MessDetails) Apply(m *Mess) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&m.Name, d.Name)
	set(&m.Location, d.Location)
	set(&m.Mobile, d.Mobile)
	set(&m.Email, d.Email)
	set(&m.PriceRange, d.PriceRange)
	set(&m.DeliveryTime, d.DeliveryTime)
	set(&m.Distance, d.Distance)
	set(&m.Offer, d.Offer)
}

type Counter struct {
	Name string `bson:"_id"`
	Seq  int64  `bson:"seq"`
}
