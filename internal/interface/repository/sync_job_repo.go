package repository

import (
	"context"
	"fmt"

	"crewsync-service/internal/domain/entity"
	"crewsync-service/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSyncJobRepository implements SyncJobRepository
type MongoSyncJobRepository struct {
	collection *mongo.Collection
}

// NewMongoSyncJobRepository creates a new sync job audit repository
func NewMongoSyncJobRepository(db *mongo.Database) repository.SyncJobRepository {
	collection := db.Collection("sync_jobs")

	ctx := context.Background()
	collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.M{"runId": 1},
			Options: options.Index().SetUnique(true),
		},
		{
			// Latest completed run per kind
			Keys: bson.D{
				{Key: "kind", Value: 1},
				{Key: "status", Value: 1},
				{Key: "finishedAt", Value: -1},
			},
		},
	})

	return &MongoSyncJobRepository{
		collection: collection,
	}
}

// Start records a RUNNING job
func (r *MongoSyncJobRepository) Start(ctx context.Context, job entity.SyncJob) error {
	_, err := r.collection.InsertOne(ctx, job)
	return err
}

// Finish stores the final state of a job
func (r *MongoSyncJobRepository) Finish(ctx context.Context, job entity.SyncJob) error {
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, bson.M{"runId": job.RunID}, bson.M{"$set": job}, opts)
	if err != nil {
		return fmt.Errorf("failed to finish sync job %s: %w", job.RunID, err)
	}
	return nil
}

// LastSuccessful returns the newest completed run of the kind
func (r *MongoSyncJobRepository) LastSuccessful(ctx context.Context, kind entity.EntityKind, mode entity.SyncMode) (*entity.SyncJob, error) {
	filter := bson.M{"status": entity.SyncCompleted}
	if kind != "" {
		filter["kind"] = kind
	}
	if mode != "" {
		filter["mode"] = mode
	}

	var job entity.SyncJob
	// runs finishing in the same instant resolve to the one started last
	opts := options.FindOne().SetSort(bson.D{
		{Key: "finishedAt", Value: -1},
		{Key: "startedAt", Value: -1},
		{Key: "_id", Value: -1},
	})
	err := r.collection.FindOne(ctx, filter, opts).Decode(&job)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// Recent returns the latest jobs, newest first
func (r *MongoSyncJobRepository) Recent(ctx context.Context, limit int) ([]entity.SyncJob, error) {
	limit64 := int64(limit)
	cursor, err := r.collection.Find(ctx, bson.M{}, &options.FindOptions{
		Limit: &limit64,
		Sort:  bson.D{{Key: "startedAt", Value: -1}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var jobs []entity.SyncJob
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}
