package services

import (
	"messmate/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID primitive.ObjectID
	Role   string
}

func (a Actor) Authenticated() bool {
	return !a.UserID.IsZero()
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// NewActor builds an Actor from the id and role a bearer token carries.
func NewActor(userID, role string) (Actor, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return Actor{}, Unauthorized("Invalid token")
	}
	return Actor{UserID: oid, Role: role}, nil
}
