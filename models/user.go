package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleStudent = "student"
	RoleOwner   = "owner"
	RoleAdmin   = "admin"
)

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"`
	Role      string             `bson:"role" json:"role"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ValidRole reports whether role is one of the known user roles.
func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleOwner, RoleAdmin:
		return true
	}
	return false
}

// BlacklistedToken is a logged-out bearer token kept until it would have expired anyway.
type BlacklistedToken struct {
	Token     string    `bson:"token" json:"token"`
	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`
}
