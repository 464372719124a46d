package models

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes backing the per-user and per-thread queries.
func (mdb *MongodbRepo) EnsureIndexes(ctx context.Context) error {
	byCollection := map[string][]mongo.IndexModel{
		MessagesCollection: {
			{
				Keys: bson.D{
					{Key: "conversationId", Value: 1},
					{Key: "createdAt", Value: 1},
				},
				Options: options.Index().SetName("conversation_created_idx"),
			},
		},
		ConversationsCollection: {
			{
				Keys:    bson.D{{Key: "updatedAt", Value: -1}},
				Options: options.Index().SetName("updated_at_idx"),
			},
		},
	}

	for _, kind := range BookingKinds {
		byCollection[kind.Collection()] = []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "userId", Value: 1}},
				Options: options.Index().SetName("user_id_idx"),
			},
			// next-trip card
			{
				Keys: bson.D{
					{Key: "userId", Value: 1},
					{Key: "departureDate", Value: 1},
				},
				Options: options.Index().SetName("user_departure_idx"),
			},
			{
				Keys:    bson.D{{Key: kind.RefField(), Value: 1}},
				Options: options.Index().SetName(kind.RefField() + "_idx"),
			},
		}
	}

	for name, indexes := range byCollection {
		col, err := mdb.GetCollection(ctx, name)
		if err != nil {
			return fmt.Errorf("error getting collection: %w", err)
		}
		if _, err := col.Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("error creating indexes on %s: %w", name, err)
		}
	}
	return nil
}
