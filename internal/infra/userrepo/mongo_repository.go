package userrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yanqian/aduba/internal/domain/auth"
)

// CollectionName is where accounts live in the Mongo database.
const CollectionName = "users"

// MongoRepository persists users in MongoDB.
type MongoRepository struct {
	coll *mongo.Collection
}

type userDocument struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	DeviceID     string    `bson:"device_id"`
	CreatedAt    time.Time `bson:"created_at"`
}

// NewMongoRepository creates the repository and ensures the unique email index.
func NewMongoRepository(ctx context.Context, db *mongo.Database) (*MongoRepository, error) {
	coll := db.Collection(CollectionName)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("create users email index: %w", err)
	}
	return &MongoRepository{coll: coll}, nil
}

// Create inserts a new user document.
func (r *MongoRepository) Create(ctx context.Context, email, passwordHash, deviceID string) (auth.User, error) {
	doc := userDocument{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		DeviceID:     deviceID,
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return auth.User{}, auth.ErrEmailExists
		}
		return auth.User{}, err
	}
	return doc.toUser(), nil
}

// GetByEmail fetches a user by email.
func (r *MongoRepository) GetByEmail(ctx context.Context, email string) (auth.User, bool, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// GetByID fetches by primary key.
func (r *MongoRepository) GetByID(ctx context.Context, id string) (auth.User, bool, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (auth.User, bool, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return auth.User{}, false, nil
		}
		return auth.User{}, false, err
	}
	return doc.toUser(), true, nil
}

func (d userDocument) toUser() auth.User {
	return auth.User{
		ID:           d.ID,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		DeviceID:     d.DeviceID,
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

var _ auth.Repository = (*MongoRepository)(nil)
