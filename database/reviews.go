package database

import (
	"context"
	"time"

	"messmate/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) CreateReview(ctx context.Context, review models.Review) (models.Review, error) {
	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	review.CreatedAt = now
	review.UpdatedAt = now

	if _, err := s.reviews.InsertOne(ctx, review); err != nil {
		return models.Review{}, mapErr(err, "review")
	}
	return review, nil
}

func (s *Store) ListReviewsByMess(ctx context.Context, refs []models.MessRef) ([]models.Review, error) {
	cursor, err := s.reviews.Find(ctx,
		bson.M{"mess_id": bson.M{"$in": refValues(refs)}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, mapErr(err, "list reviews")
	}
	reviews := []models.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, mapErr(err, "decode reviews")
	}
	return reviews, nil
}

func (s *Store) ReviewStats(ctx context.Context) ([]models.RatingStats, error) {
	groupStage := bson.D{{Key: "$group", Value: bson.D{
		{Key: "_id", Value: bson.D{{Key: "$toString", Value: "$mess_id"}}},
		{Key: "sum", Value: bson.D{{Key: "$sum", Value: "$rating"}}},
		{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
	}}}

	cursor, err := s.reviews.Aggregate(ctx, mongo.Pipeline{groupStage})
	if err != nil {
		return nil, mapErr(err, "aggregate reviews")
	}
	stats := []models.RatingStats{}
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, mapErr(err, "decode review stats")
	}
	return stats, nil
}
