// mongo.go implements the MongoDB transcript backend. Documents follow the
// layout the downstream automation expects: chat exchanges pushed onto a
// chat_logs array keyed by user_id, trade summaries pushed onto a messages
// array keyed by sessionId with type "ai".
package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore is the MongoDB-backed transcript store.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *slog.Logger
}

// OpenMongo connects to MongoDB and returns the store.
func OpenMongo(ctx context.Context, cfg Config, logger *slog.Logger) (*MongoStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.URI == "" {
		return nil, fmt.Errorf("transcript: mongo URI is required")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("transcript: connecting to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("transcript: pinging mongo: %w", err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		logger: logger.With("component", "transcript"),
	}, nil
}

// AppendChatLog pushes one exchange onto the user's chat_logs array.
func (s *MongoStore) AppendChatLog(ctx context.Context, userID string, entry ChatLogEntry) error {
	update := bson.M{"$push": bson.M{"chat_logs": bson.M{
		"message":   entry.Message,
		"response":  entry.Response,
		"timestamp": entry.Timestamp.UTC().Format(time.RFC3339),
	}}}

	_, err := s.coll.UpdateOne(ctx,
		bson.M{"user_id": userID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("transcript: appending chat log for %s: %w", userID, err)
	}
	return nil
}

// AppendTradeSummary pushes the summary onto the user's messages array as
// an AI-typed message.
func (s *MongoStore) AppendTradeSummary(ctx context.Context, userID, summary string) error {
	update := bson.M{"$push": bson.M{"messages": bson.M{
		"data": bson.M{
			"content":           summary,
			"additional_kwargs": bson.M{},
			"response_metadata": bson.M{},
		},
		"type": "ai",
	}}}

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"sessionId": userID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("transcript: appending trade summary for %s: %w", userID, err)
	}

	s.logger.Info("trade summary persisted",
		"user_id", userID,
		"matched", res.MatchedCount,
		"modified", res.ModifiedCount,
		"upserted", res.UpsertedID != nil)
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
