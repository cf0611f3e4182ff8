package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hireway/session-gateway/internal/core/domain"
)

const messageCollection = "chat_messages"

// MongoMessageRepository caches chat messages locally so unread counts can
// be seeded before the server's history payload arrives after a restart.
type MongoMessageRepository struct {
	coll *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MongoMessageRepository {
	return &MongoMessageRepository{coll: db.Collection(messageCollection)}
}

type mongoMessage struct {
	ID               string `bson:"_id"`
	JobApplicationID string `bson:"job_application_id"`
	SenderID         string `bson:"sender_id"`
	RecipientID      string `bson:"recipient_id"`
	Content          string `bson:"content"`
	CreatedAt        int64  `bson:"created_at"`
	IsRead           bool   `bson:"is_read"`
}

func toDoc(msg domain.ChatMessage) mongoMessage {
	return mongoMessage{
		ID:               msg.ID,
		JobApplicationID: msg.JobApplicationID,
		SenderID:         msg.SenderID,
		RecipientID:      msg.RecipientID,
		Content:          msg.Content,
		CreatedAt:        msg.CreatedAt.Unix(),
		IsRead:           msg.IsRead,
	}
}

// Insert upserts one message by id. Replays of the same message update the
// read flag instead of failing on the duplicate key.
func (r *MongoMessageRepository) Insert(ctx context.Context, msg domain.ChatMessage) error {
	_, err := r.coll.ReplaceOne(
		ctx,
		bson.M{"_id": msg.ID},
		toDoc(msg),
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// InsertBatch upserts a history payload. Unordered so one bad document does
// not sink the rest of the batch.
func (r *MongoMessageRepository) InsertBatch(ctx context.Context, msgs []domain.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(msgs))
	for _, msg := range msgs {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": msg.ID}).
			SetReplacement(toDoc(msg)).
			SetUpsert(true))
	}

	_, err := r.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("insert message batch: %w", err)
	}
	return nil
}

// CountUnread counts cached messages in a thread addressed to recipientID
// and not yet read.
func (r *MongoMessageRepository) CountUnread(ctx context.Context, threadID, recipientID string) (int64, error) {
	countCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := r.coll.CountDocuments(countCtx, bson.M{
		"job_application_id": threadID,
		"recipient_id":       recipientID,
		"is_read":            false,
	})
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}
