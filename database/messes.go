package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"messmate/models"
	"messmate/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) NextMessID(ctx context.Context) (int64, error) {
	var counter models.Counter
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": messIDCounter},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, mapErr(err, "next mess id")
	}
	return counter.Seq, nil
}

func (s *Store) CreateMess(ctx context.Context, mess models.Mess) (models.Mess, error) {
	if mess.ID.IsZero() {
		mess.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	mess.CreatedAt = now
	mess.UpdatedAt = now
	mess.Menu = mess.Menu.Canonical()

	if _, err := s.messes.InsertOne(ctx, mess); err != nil {
		return models.Mess{}, mapErr(err, "mess "+strconv.FormatInt(mess.MessID, 10))
	}
	return mess, nil
}

func (s *Store) GetMessByMessID(ctx context.Context, messID int64) (models.Mess, error) {
	var mess models.Mess
	err := s.messes.FindOne(ctx, bson.M{"mess_id": messID}).Decode(&mess)
	return mess, mapErr(err, "mess "+strconv.FormatInt(messID, 10))
}

func (s *Store) GetMessByRef(ctx context.Context, ref models.MessRef) (models.Mess, error) {
	if id, ok := ref.MessID(); ok {
		return s.GetMessByMessID(ctx, id)
	}
	if oid, ok := ref.ObjectID(); ok {
		var mess models.Mess
		err := s.messes.FindOne(ctx, bson.M{"_id": oid}).Decode(&mess)
		return mess, mapErr(err, "mess "+ref.String())
	}
	return models.Mess{}, fmt.Errorf("mess %q: %w", ref, store.ErrNotFound)
}

func (s *Store) FindMessByName(ctx context.Context, name string) (models.Mess, error) {
	var mess models.Mess
	err := s.messes.FindOne(ctx, bson.M{"name": name}).Decode(&mess)
	return mess, mapErr(err, "mess "+name)
}

func (s *Store) ListMesses(ctx context.Context) ([]models.Mess, error) {
	return s.findMesses(ctx, bson.M{})
}

func (s *Store) ListMessesByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Mess, error) {
	return s.findMesses(ctx, bson.M{"owner_id": ownerID})
}

func (s *Store) findMesses(ctx context.Context, filter bson.M) ([]models.Mess, error) {
	cursor, err := s.messes.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "mess_id", Value: 1}}))
	if err != nil {
		return nil, mapErr(err, "list messes")
	}
	messes := []models.Mess{}
	if err := cursor.All(ctx, &messes); err != nil {
		return nil, mapErr(err, "decode messes")
	}
	return messes, nil
}

func (s *Store) UpdateMessDetails(ctx context.Context, messID int64, details models.MessDetails) (models.Mess, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	fields := map[string]*string{
		"name":          details.Name,
		"location":      details.Location,
		"mobile":        details.Mobile,
		"email":         details.Email,
		"price_range":   details.PriceRange,
		"delivery_time": details.DeliveryTime,
		"distance":      details.Distance,
		"offer":         details.Offer,
	}
	for key, value := range fields {
		if value != nil {
			set[key] = *value
		}
	}

	var mess models.Mess
	err := s.messes.FindOneAndUpdate(ctx,
		bson.M{"mess_id": messID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&mess)
	return mess, mapErr(err, "mess "+strconv.FormatInt(messID, 10))
}

func (s *Store) ReplaceMenu(ctx context.Context, messID int64, expectedVersion int64, menu models.Menu) (models.Mess, error) {
	filter := bson.M{"mess_id": messID, "version": expectedVersion}
	if expectedVersion == 0 {
		filter = bson.M{"mess_id": messID, "$or": bson.A{
			bson.M{"version": 0},
			bson.M{"version": bson.M{"$exists": false}},
		}}
	}

	var mess models.Mess
	err := s.messes.FindOneAndUpdate(ctx,
		filter,
		bson.M{
			"$set": bson.M{"menu": menu.Canonical(), "updatedAt": time.Now().UTC()},
			"$inc": bson.M{"version": 1},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&mess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		count, cerr := s.messes.CountDocuments(ctx, bson.M{"mess_id": messID})
		if cerr != nil {
			return models.Mess{}, mapErr(cerr, "mess "+strconv.FormatInt(messID, 10))
		}
		if count == 0 {
			return models.Mess{}, fmt.Errorf("mess %d: %w", messID, store.ErrNotFound)
		}
		return models.Mess{}, fmt.Errorf("mess %d at version %d: %w", messID, expectedVersion, store.ErrVersionConflict)
	}
	return mess, mapErr(err, "mess "+strconv.FormatInt(messID, 10))
}

func (s *Store) DeleteMess(ctx context.Context, messID int64) error {
	res, err := s.messes.DeleteOne(ctx, bson.M{"mess_id": messID})
	if err != nil {
		return mapErr(err, "mess "+strconv.FormatInt(messID, 10))
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("mess %d: %w", messID, store.ErrNotFound)
	}
	return nil
}

// ApplyRating adds one rating to the running sum and count and recomputes the
// average in the same update, so concurrent reviews cannot lose each other.
func (s *Store) ApplyRating(ctx context.Context, messID int64, rating int) (models.Mess, error) {
	ifNull := func(field string) bson.D {
		return bson.D{{Key: "$ifNull", Value: bson.A{field, 0}}}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "rating_sum", Value: bson.D{{Key: "$add", Value: bson.A{ifNull("$rating_sum"), rating}}}},
			{Key: "rating_count", Value: bson.D{{Key: "$add", Value: bson.A{ifNull("$rating_count"), 1}}}},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "rating", Value: bson.D{{Key: "$divide", Value: bson.A{"$rating_sum", "$rating_count"}}}},
			{Key: "updatedAt", Value: time.Now().UTC()},
		}}},
	}

	var mess models.Mess
	err := s.messes.FindOneAndUpdate(ctx,
		bson.M{"mess_id": messID},
		pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&mess)
	return mess, mapErr(err, "mess "+strconv.FormatInt(messID, 10))
}

func (s *Store) SetRatingStats(ctx context.Context, messID int64, sum float64, count int64) error {
	var avg float64
	if count > 0 {
		avg = sum / float64(count)
	}
	res, err := s.messes.UpdateOne(ctx,
		bson.M{"mess_id": messID},
		bson.M{"$set": bson.M{"rating_sum": sum, "rating_count": count, "rating": avg}},
	)
	if err != nil {
		return mapErr(err, "mess "+strconv.FormatInt(messID, 10))
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("mess %d: %w", messID, store.ErrNotFound)
	}
	return nil
}
