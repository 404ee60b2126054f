package readingrepo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yanqian/aduba/internal/domain/reading"
)

// CollectionName is where readings live in the Mongo database.
const CollectionName = "sensor_readings"

// MongoRepository persists readings in MongoDB.
type MongoRepository struct {
	coll *mongo.Collection
}

type readingDocument struct {
	ID                string    `bson:"_id"`
	UserID            string    `bson:"user_id"`
	DeviceID          string    `bson:"device_id"`
	Humidity          int       `bson:"humidity"`
	Temperature       int       `bson:"temperature"`
	SoilHumidity      int       `bson:"soil_humidity"`
	PHLevel           float64   `bson:"ph_level"`
	ComposterRotation int       `bson:"composter_rotation"`
	ReservoirRotation int       `bson:"reservoir_rotation"`
	CapacityStatus    string    `bson:"capacity_status"`
	RecordedAt        time.Time `bson:"recorded_at"`
}

// NewMongoRepository creates the repository and the per-user time index.
func NewMongoRepository(ctx context.Context, db *mongo.Database) (*MongoRepository, error) {
	coll := db.Collection(CollectionName)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "recorded_at", Value: -1}},
	})
	if err != nil {
		return nil, fmt.Errorf("create readings index: %w", err)
	}
	return &MongoRepository{coll: coll}, nil
}

// FindLatest returns the newest reading of the user.
func (r *MongoRepository) FindLatest(ctx context.Context, userID string) (reading.Reading, bool, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "recorded_at", Value: -1}})
	var doc readingDocument
	if err := r.coll.FindOne(ctx, bson.M{"user_id": userID}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return reading.Reading{}, false, nil
		}
		return reading.Reading{}, false, fmt.Errorf("find latest reading: %w", err)
	}
	return doc.toReading(), true, nil
}

// Insert writes one reading document.
func (r *MongoRepository) Insert(ctx context.Context, userID string, rd reading.Reading) error {
	doc := readingDocument{
		ID:                rd.ID,
		UserID:            userID,
		DeviceID:          rd.DeviceID,
		Humidity:          rd.Humidity,
		Temperature:       rd.Temperature,
		SoilHumidity:      rd.SoilHumidity,
		PHLevel:           rd.PHLevel,
		ComposterRotation: rd.ComposterRotation,
		ReservoirRotation: rd.ReservoirRotation,
		CapacityStatus:    string(rd.CapacityStatus),
		RecordedAt:        rd.RecordedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

// ListSince returns readings at or after since, oldest first. A positive limit
// keeps the newest rows.
func (r *MongoRepository) ListSince(ctx context.Context, userID string, since time.Time, limit int) ([]reading.Reading, error) {
	opts := options.Find().SetSort(bson.D{{Key: "recorded_at", Value: 1}})
	if limit > 0 {
		opts.SetSort(bson.D{{Key: "recorded_at", Value: -1}}).SetLimit(int64(limit))
	}
	filter := bson.M{"user_id": userID, "recorded_at": bson.M{"$gte": since}}
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find readings: %w", err)
	}
	var docs []readingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode readings: %w", err)
	}
	out := make([]reading.Reading, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toReading())
	}
	if limit > 0 {
		slices.Reverse(out)
	}
	return out, nil
}

func (d readingDocument) toReading() reading.Reading {
	return reading.New(d.ID, d.DeviceID, reading.Payload{
		Humidity:          d.Humidity,
		Temperature:       d.Temperature,
		SoilHumidity:      d.SoilHumidity,
		PHLevel:           d.PHLevel,
		ComposterRotation: d.ComposterRotation,
		ReservoirRotation: d.ReservoirRotation,
		CapacityStatus:    reading.CapacityStatus(d.CapacityStatus),
	}, d.RecordedAt)
}

var _ reading.Repository = (*MongoRepository)(nil)
