package repository

import (
	"context"
	"time"

	"crewsync-service/internal/domain/entity"
	"crewsync-service/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoModLogRepository implements ModLogRepository
type MongoModLogRepository struct {
	collection *mongo.Collection
}

// modLogDocument is the stored shape of one modification log entry
type modLogDocument struct {
	FlightDate       string    `bson:"flightDate"`
	FlightNumber     string    `bson:"flightNumber"`
	Departure        string    `bson:"departure"`
	Arrival          string    `bson:"arrival"`
	Status           string    `bson:"status"`
	ModificationType string    `bson:"modificationType"`
	FieldChanged     string    `bson:"fieldChanged"`
	OldValue         string    `bson:"oldValue"`
	NewValue         string    `bson:"newValue"`
	ModifiedBy       string    `bson:"modifiedBy"`
	ModifiedAt       time.Time `bson:"modifiedAt"`
	FetchedAt        time.Time `bson:"fetchedAt"`
}

// NewMongoModLogRepository creates a new modification log repository
func NewMongoModLogRepository(db *mongo.Database) repository.ModLogRepository {
	collection := db.Collection("flight_mod_log")

	// One document per distinct change of a leg
	ctx := context.Background()
	uniqueIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "flightDate", Value: 1},
			{Key: "flightNumber", Value: 1},
			{Key: "departure", Value: 1},
			{Key: "fieldChanged", Value: 1},
			{Key: "newValue", Value: 1},
			{Key: "status", Value: 1},
			{Key: "modifiedAt", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	collection.Indexes().CreateOne(ctx, uniqueIndex)

	return &MongoModLogRepository{
		collection: collection,
	}
}

// Append stores entries, ignoring ones already archived
func (r *MongoModLogRepository) Append(ctx context.Context, entries []entity.ModificationLogEntry) (entity.UpsertCounts, error) {
	var counts entity.UpsertCounts
	opts := options.Update().SetUpsert(true)

	for _, e := range entries {
		doc := modLogDocument{
			FlightDate:       e.FlightDate,
			FlightNumber:     e.FlightNumber,
			Departure:        e.Departure,
			Arrival:          e.Arrival,
			Status:           e.Status,
			ModificationType: string(e.ModificationType),
			FieldChanged:     e.FieldChanged,
			OldValue:         e.OldValue,
			NewValue:         e.NewValue,
			ModifiedBy:       e.ModifiedBy,
			ModifiedAt:       e.ModifiedAt.UTC(),
			FetchedAt:        e.FetchedAt.UTC(),
		}
		filter := bson.M{
			"flightDate":   doc.FlightDate,
			"flightNumber": doc.FlightNumber,
			"departure":    doc.Departure,
			"fieldChanged": doc.FieldChanged,
			"newValue":     doc.NewValue,
			"status":       doc.Status,
			"modifiedAt":   doc.ModifiedAt,
		}

		result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$setOnInsert": doc}, opts)
		if err != nil {
			return counts, err
		}
		if result.UpsertedCount > 0 {
			counts.Inserted++
		} else {
			counts.Unchanged++
		}
	}
	return counts, nil
}

// FindByFlight returns the entries of a leg, newest change first
func (r *MongoModLogRepository) FindByFlight(ctx context.Context, key entity.FlightKey) ([]entity.ModificationLogEntry, error) {
	filter := bson.M{
		"flightDate":   key.FlightDate,
		"flightNumber": key.FlightNumber,
		"departure":    key.Departure,
	}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "modifiedAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []modLogDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	entries := make([]entity.ModificationLogEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, entity.ModificationLogEntry{
			FlightKey: entity.FlightKey{
				FlightDate:   d.FlightDate,
				FlightNumber: d.FlightNumber,
				Departure:    d.Departure,
			},
			Arrival:          d.Arrival,
			Status:           d.Status,
			ModificationType: entity.ModificationType(d.ModificationType),
			FieldChanged:     d.FieldChanged,
			OldValue:         d.OldValue,
			NewValue:         d.NewValue,
			ModifiedBy:       d.ModifiedBy,
			ModifiedAt:       d.ModifiedAt.UTC(),
			FetchedAt:        d.FetchedAt.UTC(),
		})
	}
	return entries, nil
}
