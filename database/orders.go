package database

import (
	"context"
	"time"

	"messmate/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) CreateOrder(ctx context.Context, order models.Order) (models.Order, error) {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now

	if _, err := s.orders.InsertOne(ctx, order); err != nil {
		return models.Order{}, mapErr(err, "order")
	}
	return order, nil
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	cursor, err := s.orders.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, mapErr(err, "list orders")
	}
	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, mapErr(err, "decode orders")
	}
	return orders, nil
}

func (s *Store) HasOrderForMess(ctx context.Context, userID primitive.ObjectID, refs []models.MessRef) (bool, error) {
	count, err := s.orders.CountDocuments(ctx,
		bson.M{"user_id": userID, "mess_id": bson.M{"$in": refValues(refs)}},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, mapErr(err, "look up orders")
	}
	return count > 0, nil
}

// refValues expands mess references into every BSON form older documents may
// have stored them in.
func refValues(refs []models.MessRef) bson.A {
	values := bson.A{}
	for _, ref := range refs {
		values = append(values, ref.String())
		if id, ok := ref.MessID(); ok {
			values = append(values, id, float64(id))
		}
		if oid, ok := ref.ObjectID(); ok {
			values = append(values, oid)
		}
	}
	return values
}
