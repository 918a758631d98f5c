package repositories

import (
	"context"
	"fmt"

	"sql-research-assistant/internal/models"
	"sql-research-assistant/pkg/mongodb"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const transcriptsCollection = "transcripts"

type TranscriptRepository interface {
	Create(ctx context.Context, transcript *models.Transcript) error
	FindBySession(ctx context.Context, sessionID string, limit int64) ([]*models.Transcript, error)
}

type transcriptRepository struct {
	collection *mongo.Collection
}

func NewTranscriptRepository(mongoClient *mongodb.MongoDBClient) TranscriptRepository {
	return &transcriptRepository{
		collection: mongoClient.GetCollectionByName(transcriptsCollection),
	}
}

func (r *transcriptRepository) Create(ctx context.Context, transcript *models.Transcript) error {
	if _, err := r.collection.InsertOne(ctx, transcript); err != nil {
		return fmt.Errorf("failed to archive transcript: %w", err)
	}
	return nil
}

// FindBySession returns the newest transcripts of a session, newest first.
func (r *transcriptRepository) FindBySession(ctx context.Context, sessionID string, limit int64) ([]*models.Transcript, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find transcripts: %w", err)
	}
	defer cursor.Close(ctx)

	var transcripts []*models.Transcript
	if err := cursor.All(ctx, &transcripts); err != nil {
		return nil, fmt.Errorf("failed to decode transcripts: %w", err)
	}
	return transcripts, nil
}
