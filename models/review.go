package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	MessID    MessRef            `bson:"mess_id" json:"mess_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	FoodName  string             `bson:"foodName,omitempty" json:"foodName,omitempty"`
	Rating    int                `bson:"rating" json:"rating"`
	Comment   string             `bson:"comment,omitempty" json:"comment,omitempty"`
	Author    *ReviewAuthor      `bson:"-" json:"user,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type ReviewAuthor struct {
	ID   primitive.ObjectID `json:"_id"`
	Name string             `json:"name"`
}

// RatingStats is the sum and count of review ratings stored under one mess
// reference.
type RatingStats struct {
	MessRef string  `bson:"_id"`
	Sum     float64 `bson:"sum"`
	Count   int64   `bson:"count"`
}

func (s RatingStats) Average() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}
