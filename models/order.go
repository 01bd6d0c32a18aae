package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	OrderStatusConfirmed = "confirmed"

	NoMessID        = "N/A"
	UnknownMessName = "Unknown Mess"
)

// Order is a write-once snapshot of a placed purchase.
type Order struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"user_id" json:"user_id"`
	MessID     MessRef            `bson:"mess_id" json:"mess_id"`
	MessName   string             `bson:"mess_name" json:"mess_name"`
	Items      []OrderLine        `bson:"items" json:"items"`
	TotalPrice float64            `bson:"total_price" json:"total_price"`
	Status     string             `bson:"status" json:"status"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// OrderLine copies the menu data of one dish at the time the order was placed.
type OrderLine struct {
	Name     string  `bson:"name" json:"name"`
	Price    float64 `bson:"price" json:"price"`
	Quantity int     `bson:"quantity" json:"quantity"`
	Image    string  `bson:"image" json:"image"`
	Type     string  `bson:"type" json:"type"`
	Category string  `bson:"category" json:"category"`
}
