package repositories

import (
	"context"
	"testing"

	"sql-research-assistant/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestTranscriptRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create", func(mt *mtest.T) {
		repo := &transcriptRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		transcript := models.NewTranscript("s1", exchange(1), "Question: question 1\n\nAnswer: answer 1", "openai", "gpt-4o-mini")
		require.NoError(t, repo.Create(context.Background(), transcript))
	})

	mt.Run("create failure", func(mt *mtest.T) {
		repo := &transcriptRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := repo.Create(context.Background(), models.NewTranscript("s1", exchange(1), "", "openai", "gpt-4o-mini"))
		require.Error(t, err)
		assert.True(t, mongo.IsDuplicateKeyError(err))
	})

	mt.Run("find by session", func(mt *mtest.T) {
		repo := &transcriptRepository{collection: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
				{Key: "session_id", Value: "s1"},
				{Key: "question", Value: "question 2"},
				{Key: "answer", Value: "answer 2"},
			}),
			mtest.CreateCursorResponse(0, ns, mtest.NextBatch, bson.D{
				{Key: "session_id", Value: "s1"},
				{Key: "question", Value: "question 1"},
				{Key: "answer", Value: "answer 1"},
			}),
		)

		transcripts, err := repo.FindBySession(context.Background(), "s1", 10)
		require.NoError(t, err)
		require.Len(t, transcripts, 2)
		assert.Equal(t, "question 2", transcripts[0].Question)
		assert.Equal(t, "answer 1", transcripts[1].Answer)
	})
}
