package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"

	DefaultItemDescription = "Delicious homemade food"
)

type MessRequest struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name       string             `bson:"name" json:"name"`
	Location   string             `bson:"location" json:"location"`
	Mobile     string             `bson:"mobile" json:"mobile"`
	Email      string             `bson:"email" json:"email"`
	PriceRange string             `bson:"price_range,omitempty" json:"price_range,omitempty"`
	Offer      string             `bson:"offer,omitempty" json:"offer,omitempty"`
	Menu       Menu               `bson:"menu" json:"menu"`
	Documents  `bson:",inline" json:"documents"`
	OwnerID    primitive.ObjectID `bson:"owner_id,omitempty" json:"owner_id,omitempty"`
	Status     string             `bson:"status" json:"status"`
	Reason     string             `bson:"reason,omitempty" json:"reason,omitempty"`
	MessID     int64              `bson:"mess_id,omitempty" json:"mess_id,omitempty"`
	ReviewedBy primitive.ObjectID `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time         `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// RequestDecision is the outcome recorded when an admin reviews a request.
type RequestDecision struct {
	Status     string
	Reason     string
	ReviewedBy primitive.ObjectID
	ReviewedAt time.Time
	MessID     int64
}

// Apply records d on r.
func (d RequestDecision) Apply(r *MessRequest) {
	r.Status = d.Status
	r.Reason = d.Reason
	r.MessID = d.MessID
	r.ReviewedBy = d.ReviewedBy
	r.UpdatedAt = d.ReviewedAt
	if d.Status == RequestPending {
		r.ReviewedAt = nil
		return
	}
	at := d.ReviewedAt
	r.ReviewedAt = &at
}

// NormalizeRequestItem fills the defaults a submitted menu item gets before
// it is queued for review.
func NormalizeRequestItem(item MenuItem) MenuItem {
	if item.Description == "" {
		item.Description = DefaultItemDescription
	}
	return item
}
