package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"wya-server/models"
	"wya-server/utils/errors"
)

// MongoStore implements UserStore, NotificationStore and ReportStore.
type MongoStore struct {
	client        *mongo.Client
	users         *mongo.Collection
	notifications *mongo.Collection
	reports       *mongo.Collection
	logger        *zap.Logger
}

func NewMongoStore(client *mongo.Client, db *mongo.Database, logger *zap.Logger) *MongoStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MongoStore{
		client:        client,
		users:         db.Collection("users"),
		notifications: db.Collection("notifications"),
		reports:       db.Collection("reports"),
		logger:        logger,
	}
}

// EnsureIndexes creates the unique keys the store relies on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "external_identity_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "phone_number", Value: 1}}},
		{Keys: bson.D{{Key: "last_updated", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}

	// at most one notification per (user, period)
	_, err = s.notifications.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "nonce", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create notification index: %w", err)
	}
	return nil
}

func (s *MongoStore) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.findUsers(ctx, bson.M{})
}

func (s *MongoStore) GetUser(ctx context.Context, externalID string) (models.User, error) {
	return s.findOneUser(ctx, bson.M{"external_identity_id": bson.M{"$eq": externalID}})
}

func (s *MongoStore) FindByPhone(ctx context.Context, phone string) (models.User, error) {
	return s.findOneUser(ctx, bson.M{"phone_number": bson.M{"$eq": phone}})
}

func (s *MongoStore) ListInactiveSince(ctx context.Context, cutoff time.Time) ([]models.User, error) {
	return s.findUsers(ctx, bson.M{"last_updated": bson.M{"$lt": cutoff}})
}

func (s *MongoStore) CreateUser(ctx context.Context, user models.User) (string, error) {
	user.ID = ""
	// $addToSet and $pull fail on null fields
	normalizeUser(&user)
	result, err := s.users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", errors.WithMessage(errors.ErrConflict, "User already exists")
		}
		return "", fmt.Errorf("insert user: %w", err)
	}
	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert user: unexpected id type %T", result.InsertedID)
	}
	return oid.Hex(), nil
}

func (s *MongoStore) UpdateLocation(ctx context.Context, externalID string, lat, lon float64, at time.Time) error {
	return s.updateOne(ctx, s.users, externalID, bson.M{
		"$set": bson.M{
			"latitude":     lat,
			"longitude":    lon,
			"last_updated": at,
		},
	})
}

func (s *MongoStore) UpdateFields(ctx context.Context, externalID string, fields map[string]any) error {
	set := bson.M{}
	for key, value := range fields {
		set[key] = value
	}
	return s.updateOne(ctx, s.users, externalID, bson.M{"$set": set})
}

// Block writes both sides of the relationship in one transaction.
func (s *MongoStore) Block(ctx context.Context, blockerID, blockedID string) error {
	return s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if err := s.updateOne(sc, s.users, blockerID, bson.M{
			"$addToSet": bson.M{"blocked": blockedID},
		}); err != nil {
			return err
		}
		return s.updateOne(sc, s.users, blockedID, bson.M{
			"$addToSet": bson.M{"blocked_by": blockerID},
		})
	})
}

func (s *MongoStore) DeleteUser(ctx context.Context, externalID string) error {
	return s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := s.users.DeleteOne(sc, bson.M{"external_identity_id": externalID})
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if res.DeletedCount == 0 {
			return errors.ErrNotFound
		}
		_, err = s.users.UpdateMany(sc,
			bson.M{"$or": bson.A{
				bson.M{"blocked": externalID},
				bson.M{"blocked_by": externalID},
			}},
			bson.M{"$pull": bson.M{"blocked": externalID, "blocked_by": externalID}},
		)
		if err != nil {
			return fmt.Errorf("remove block references: %w", err)
		}
		return nil
	})
}

func (s *MongoStore) CreateOnce(ctx context.Context, n models.Notification) (bool, error) {
	n.ID = ""
	_, err := s.notifications.InsertOne(ctx, n)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert notification: %w", err)
	}
	return true, nil
}

func (s *MongoStore) CreateReport(ctx context.Context, r models.Report) (string, error) {
	r.ID = ""
	result, err := s.reports.InsertOne(ctx, r)
	if err != nil {
		return "", fmt.Errorf("insert report: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprint(result.InsertedID), nil
}

func (s *MongoStore) findOneUser(ctx context.Context, filter bson.M) (models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.User{}, errors.ErrNotFound
		}
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	normalizeUser(&user)
	return user, nil
}

func (s *MongoStore) findUsers(ctx context.Context, filter bson.M) ([]models.User, error) {
	cursor, err := s.users.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	for i := range users {
		normalizeUser(&users[i])
	}
	return users, nil
}

func (s *MongoStore) updateOne(ctx context.Context, coll *mongo.Collection, externalID string, update bson.M) error {
	res, err := coll.UpdateOne(ctx, bson.M{"external_identity_id": externalID}, update)
	if err != nil {
		s.logger.Error("mongo update failed", zap.String("external_id", externalID), zap.Error(err))
		return fmt.Errorf("update user %s: %w", externalID, err)
	}
	if res.MatchedCount == 0 {
		return errors.ErrNotFound
	}
	return nil
}

func (s *MongoStore) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// normalizeUser replaces null block lists from older documents with empty ones.
func normalizeUser(u *models.User) {
	if u.Blocked == nil {
		u.Blocked = []string{}
	}
	if u.BlockedBy == nil {
		u.BlockedBy = []string{}
	}
}
