// Package store declares the persistence contracts the services depend on.
// The Mongo implementation lives in package database and an in-memory one in
// store/memory.
package store

import (
	"context"
	"errors"
	"time"

	"messmate/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")

	// ErrVersionConflict is returned when a compare-and-swap on a mess menu
	// observes a newer version.
	ErrVersionConflict = errors.New("version conflict")
	// ErrStateConflict is returned when a mess request is no longer in the
	// status a transition expects.
	ErrStateConflict = errors.New("state conflict")
)

type Users interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUser(ctx context.Context, id primitive.ObjectID) (models.User, error)
	// FindUserByIdentifier matches the email (case-insensitive) or the exact name.
	FindUserByIdentifier(ctx context.Context, identifier string) (models.User, error)
}

type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, token string, expiresAt time.Time) error
	IsBlacklisted(ctx context.Context, token string) (bool, error)
	PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

type Messes interface {
	// NextMessID atomically reserves the next sequential mess id.
	NextMessID(ctx context.Context) (int64, error)
	CreateMess(ctx context.Context, mess models.Mess) (models.Mess, error)
	GetMessByMessID(ctx context.Context, messID int64) (models.Mess, error)
	// GetMessByRef resolves a numeric mess id or an ObjectID hex.
	GetMessByRef(ctx context.Context, ref models.MessRef) (models.Mess, error)
	FindMessByName(ctx context.Context, name string) (models.Mess, error)
	ListMesses(ctx context.Context) ([]models.Mess, error)
	ListMessesByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Mess, error)
	UpdateMessDetails(ctx context.Context, messID int64, details models.MessDetails) (models.Mess, error)
	// ReplaceMenu stores menu only if the mess is still at expectedVersion and
	// bumps the version. ErrVersionConflict otherwise.
	ReplaceMenu(ctx context.Context, messID int64, expectedVersion int64, menu models.Menu) (models.Mess, error)
	DeleteMess(ctx context.Context, messID int64) error
	// ApplyRating folds one review rating into the running average atomically.
	ApplyRating(ctx context.Context, messID int64, rating int) (models.Mess, error)
	SetRatingStats(ctx context.Context, messID int64, sum float64, count int64) error
}

type MessRequests interface {
	CreateMessRequest(ctx context.Context, req models.MessRequest) (models.MessRequest, error)
	GetMessRequest(ctx context.Context, id primitive.ObjectID) (models.MessRequest, error)
	// ListMessRequests returns requests newest first; an empty status lists all.
	ListMessRequests(ctx context.Context, status string) ([]models.MessRequest, error)
	ListMessRequestsByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.MessRequest, error)
	// TransitionMessRequest records decision only while the request is still
	// in status from. ErrStateConflict otherwise.
	TransitionMessRequest(ctx context.Context, id primitive.ObjectID, from string, decision models.RequestDecision) (models.MessRequest, error)
}

type Orders interface {
	CreateOrder(ctx context.Context, order models.Order) (models.Order, error)
	// ListOrdersByUser returns the user's orders newest first.
	ListOrdersByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	HasOrderForMess(ctx context.Context, userID primitive.ObjectID, refs []models.MessRef) (bool, error)
}

type Reviews interface {
	CreateReview(ctx context.Context, review models.Review) (models.Review, error)
	// ListReviewsByMess returns reviews stored under any of refs, newest first.
	ListReviewsByMess(ctx context.Context, refs []models.MessRef) ([]models.Review, error)
	ReviewStats(ctx context.Context) ([]models.RatingStats, error)
}

// Store bundles every repository a backend provides.
type Store interface {
	Users
	TokenBlacklist
	Messes
	MessRequests
	Orders
	Reviews
}
