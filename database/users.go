package database

import (
	"context"
	"strings"
	"time"

	"messmate/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := s.users.InsertOne(ctx, user); err != nil {
		return models.User{}, mapErr(err, "user "+user.Email)
	}
	return user, nil
}

func (s *Store) GetUser(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	return user, mapErr(err, "user "+id.Hex())
}

func (s *Store) FindUserByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"$or": bson.A{
		bson.M{"email": strings.ToLower(identifier)},
		bson.M{"name": identifier},
	}}).Decode(&user)
	return user, mapErr(err, "user "+identifier)
}

func (s *Store) BlacklistToken(ctx context.Context, token string, expiresAt time.Time) error {
	_, err := s.blacklist.InsertOne(ctx, models.BlacklistedToken{Token: token, ExpiresAt: expiresAt})
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return mapErr(err, "blacklist token")
	}
	return nil
}

func (s *Store) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	count, err := s.blacklist.CountDocuments(ctx, bson.M{"token": token})
	if err != nil {
		return false, mapErr(err, "check blacklist")
	}
	return count > 0, nil
}

func (s *Store) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.blacklist.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lte": now}})
	if err != nil {
		return 0, mapErr(err, "purge blacklist")
	}
	return res.DeletedCount, nil
}
