package eventrepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yanqian/aduba/internal/domain/events"
)

// CollectionName is where events live in the Mongo database.
const CollectionName = "events"

// MongoRepository persists events in MongoDB.
type MongoRepository struct {
	coll *mongo.Collection
}

type eventDocument struct {
	ID          string    `bson:"_id"`
	UserID      string    `bson:"user_id"`
	EventType   string    `bson:"event_type"`
	Description string    `bson:"description"`
	EventDate   string    `bson:"event_date"`
	CreatedAt   time.Time `bson:"created_at"`
}

// NewMongoRepository creates the repository and its lookup index.
func NewMongoRepository(ctx context.Context, db *mongo.Database) (*MongoRepository, error) {
	coll := db.Collection(CollectionName)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "event_date", Value: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("create events index: %w", err)
	}
	return &MongoRepository{coll: coll}, nil
}

func (r *MongoRepository) List(ctx context.Context, userID, date string) ([]events.Event, error) {
	filter := bson.M{"user_id": userID}
	if date != "" {
		filter["event_date"] = date
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}
	var docs []eventDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	out := make([]events.Event, 0, len(docs))
	for _, d := range docs {
		d.CreatedAt = d.CreatedAt.UTC()
		out = append(out, events.Event(d))
	}
	return out, nil
}

func (r *MongoRepository) Insert(ctx context.Context, e events.Event) error {
	if _, err := r.coll.InsertOne(ctx, eventDocument(e)); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

var _ events.Repository = (*MongoRepository)(nil)
