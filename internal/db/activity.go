package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/crocodiledundalk/fomolt3d/internal/db/model"
)

// SaveActivityEvent inserts one reconciled event into the feed. A second
// insert of the same emission returns a DuplicateKeyError, which callers
// treat as "already processed".
func (db *Database) SaveActivityEvent(ctx context.Context, event *model.ActivityEvent) error {
	_, err := db.collection(model.ActivityEventCollection).
		InsertOne(ctx, event)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &DuplicateKeyError{
				Key:     event.ID,
				Message: "activity event already recorded",
			}
		}
		return err
	}
	return nil
}

// GetRecentActivity returns the newest feed entries, newest first.
func (db *Database) GetRecentActivity(ctx context.Context, limit int64) ([]*model.ActivityEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "event_index", Value: -1}}).
		SetLimit(limit)

	cursor, err := db.collection(model.ActivityEventCollection).
		Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []*model.ActivityEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetRoundActivity returns a single round's feed entries, newest first.
func (db *Database) GetRoundActivity(ctx context.Context, round uint64, limit int64) ([]*model.ActivityEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "event_index", Value: -1}}).
		SetLimit(limit)

	cursor, err := db.collection(model.ActivityEventCollection).
		Find(ctx, bson.M{"round": round}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []*model.ActivityEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetLastProcessedSignature returns the backfill checkpoint, or an empty
// string when no backfill has completed yet.
func (db *Database) GetLastProcessedSignature(ctx context.Context) (string, error) {
	var result model.Checkpoint
	err := db.collection(model.CheckpointCollection).
		FindOne(ctx, bson.M{}).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return result.LastProcessedSignature, nil
}

func (db *Database) UpdateLastProcessedSignature(ctx context.Context, signature string) error {
	update := bson.M{"$set": bson.M{"last_processed_signature": signature}}
	opts := options.Update().SetUpsert(true)
	_, err := db.collection(model.CheckpointCollection).
		UpdateOne(ctx, bson.M{}, update, opts)
	return err
}
