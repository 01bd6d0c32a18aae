package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"messmate/models"
	"messmate/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) CreateMessRequest(ctx context.Context, req models.MessRequest) (models.MessRequest, error) {
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now
	req.Menu = req.Menu.Canonical()

	if _, err := s.requests.InsertOne(ctx, req); err != nil {
		return models.MessRequest{}, mapErr(err, "mess request")
	}
	return req, nil
}

func (s *Store) GetMessRequest(ctx context.Context, id primitive.ObjectID) (models.MessRequest, error) {
	var req models.MessRequest
	err := s.requests.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	return req, mapErr(err, "mess request "+id.Hex())
}

func (s *Store) ListMessRequests(ctx context.Context, status string) ([]models.MessRequest, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return s.findRequests(ctx, filter)
}

func (s *Store) ListMessRequestsByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.MessRequest, error) {
	return s.findRequests(ctx, bson.M{"owner_id": ownerID})
}

func (s *Store) findRequests(ctx context.Context, filter bson.M) ([]models.MessRequest, error) {
	cursor, err := s.requests.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, mapErr(err, "list mess requests")
	}
	reqs := []models.MessRequest{}
	if err := cursor.All(ctx, &reqs); err != nil {
		return nil, mapErr(err, "decode mess requests")
	}
	return reqs, nil
}

func (s *Store) TransitionMessRequest(ctx context.Context, id primitive.ObjectID, from string, decision models.RequestDecision) (models.MessRequest, error) {
	set := bson.M{
		"status":      decision.Status,
		"reviewed_by": decision.ReviewedBy,
		"reviewed_at": decision.ReviewedAt,
		"updatedAt":   decision.ReviewedAt,
	}
	if decision.Reason != "" {
		set["reason"] = decision.Reason
	}
	if decision.MessID > 0 {
		set["mess_id"] = decision.MessID
	}
	update := bson.M{"$set": set}
	if decision.Status == models.RequestPending {
		update = bson.M{
			"$set":   bson.M{"status": decision.Status, "updatedAt": decision.ReviewedAt},
			"$unset": bson.M{"reason": "", "reviewed_by": "", "reviewed_at": "", "mess_id": ""},
		}
	}

	var req models.MessRequest
	err := s.requests.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": from},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		count, cerr := s.requests.CountDocuments(ctx, bson.M{"_id": id})
		if cerr != nil {
			return models.MessRequest{}, mapErr(cerr, "mess request "+id.Hex())
		}
		if count == 0 {
			return models.MessRequest{}, fmt.Errorf("mess request %s: %w", id.Hex(), store.ErrNotFound)
		}
		return models.MessRequest{}, fmt.Errorf("mess request %s is no longer %s: %w", id.Hex(), from, store.ErrStateConflict)
	}
	return req, mapErr(err, "mess request "+id.Hex())
}
