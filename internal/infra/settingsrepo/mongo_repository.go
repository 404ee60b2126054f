package settingsrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yanqian/aduba/internal/domain/settings"
)

// CollectionName is where device settings live in the Mongo database.
const CollectionName = "device_settings"

// MongoRepository persists settings in MongoDB.
type MongoRepository struct {
	coll *mongo.Collection
}

type settingsDocument struct {
	ID                   string    `bson:"_id"`
	UserID               string    `bson:"user_id"`
	DeviceID             string    `bson:"device_id"`
	NotificationsEnabled bool      `bson:"notifications_enabled"`
	UpdatedAt            time.Time `bson:"updated_at"`
}

// NewMongoRepository creates the repository and its unique user index.
func NewMongoRepository(ctx context.Context, db *mongo.Database) (*MongoRepository, error) {
	coll := db.Collection(CollectionName)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("create settings index: %w", err)
	}
	return &MongoRepository{coll: coll}, nil
}

func (r *MongoRepository) Get(ctx context.Context, userID string) (settings.DeviceSettings, bool, error) {
	var doc settingsDocument
	if err := r.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return settings.DeviceSettings{}, false, nil
		}
		return settings.DeviceSettings{}, false, fmt.Errorf("find settings: %w", err)
	}
	return settings.DeviceSettings(doc), true, nil
}

func (r *MongoRepository) Insert(ctx context.Context, s settings.DeviceSettings) error {
	if _, err := r.coll.InsertOne(ctx, settingsDocument(s)); err != nil {
		return fmt.Errorf("insert settings: %w", err)
	}
	return nil
}

func (r *MongoRepository) UpdateNotifications(ctx context.Context, userID string, enabled bool, at time.Time) error {
	update := bson.M{"$set": bson.M{"notifications_enabled": enabled, "updated_at": at}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"user_id": userID}, update); err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}

var _ settings.Repository = (*MongoRepository)(nil)
