package repository

import (
	"context"

	"crewsync-service/internal/domain/entity"
	"crewsync-service/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoQualityReportRepository implements QualityReportRepository
type MongoQualityReportRepository struct {
	collection *mongo.Collection
}

// NewMongoQualityReportRepository creates a new data quality report repository
func NewMongoQualityReportRepository(db *mongo.Database) repository.QualityReportRepository {
	collection := db.Collection("data_quality_reports")

	ctx := context.Background()
	collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.M{"generatedAt": -1},
	})

	return &MongoQualityReportRepository{
		collection: collection,
	}
}

// Save archives a report
func (r *MongoQualityReportRepository) Save(ctx context.Context, report entity.DataQualityReport) error {
	_, err := r.collection.InsertOne(ctx, report)
	return err
}

// Latest returns the newest report, nil when none exists
func (r *MongoQualityReportRepository) Latest(ctx context.Context) (*entity.DataQualityReport, error) {
	var report entity.DataQualityReport
	opts := options.FindOne().SetSort(bson.D{{Key: "generatedAt", Value: -1}})
	err := r.collection.FindOne(ctx, bson.M{}, opts).Decode(&report)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &report, nil
}
