package repository

import (
	"context"
	"fmt"
	"time"

	"crewsync-service/internal/domain/entity"
	"crewsync-service/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoEmailRepository implements the EmailRepository interface
type MongoEmailRepository struct {
	collection *mongo.Collection
}

// NewMongoEmailRepository creates a new MongoDB export mail repository
func NewMongoEmailRepository(db *mongo.Database) repository.EmailRepository {
	collection := db.Collection("exportMails")

	ctx := context.Background()

	// Index on emailId for fast lookups and uniqueness
	emailIDIndex := mongo.IndexModel{
		Keys:    bson.M{"emailId": 1},
		Options: options.Index().SetUnique(true),
	}

	// Index on receivedAt for finding the newest mail
	receivedAtIndex := mongo.IndexModel{
		Keys: bson.M{"receivedAt": -1},
	}

	collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		emailIDIndex,
		receivedAtIndex,
	})

	return &MongoEmailRepository{
		collection: collection,
	}
}

// Save saves an export mail
func (r *MongoEmailRepository) Save(ctx context.Context, email *entity.Email) error {
	if email.ProcessStatus == "" {
		email.ProcessStatus = entity.StatusPending
	}

	_, err := r.collection.InsertOne(ctx, email)
	return err
}

// GetLastEmail gets the most recently received mail
func (r *MongoEmailRepository) GetLastEmail(ctx context.Context) (*entity.Email, error) {
	var email entity.Email
	opts := options.FindOne().SetSort(bson.D{{Key: "receivedAt", Value: -1}})
	err := r.collection.FindOne(ctx, bson.M{}, opts).Decode(&email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &email, nil
}

// FindByEmailIDs finds already seen mails by Gmail message IDs (batch operation)
func (r *MongoEmailRepository) FindByEmailIDs(ctx context.Context, emailIDs []string) (map[string]*entity.Email, error) {
	if len(emailIDs) == 0 {
		return make(map[string]*entity.Email), nil
	}

	filter := bson.M{"emailId": bson.M{"$in": emailIDs}}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	result := make(map[string]*entity.Email)
	for cursor.Next(ctx) {
		var email entity.Email
		if err := cursor.Decode(&email); err != nil {
			continue
		}
		result[email.EmailID] = &email
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// MarkAsProcessedByEmailID records the import outcome of a mail
func (r *MongoEmailRepository) MarkAsProcessedByEmailID(ctx context.Context, emailID, status, processorType, errorDetail string, imported entity.UpsertCounts) error {
	set := bson.M{
		"processedAt":   time.Now().UTC(),
		"processStatus": status,
		"processorType": processorType,
		"imported":      imported,
	}
	if errorDetail != "" {
		set["errorDetail"] = errorDetail
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"emailId": emailID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to mark as processed: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("no document found with emailID: %s", emailID)
	}

	return nil
}
