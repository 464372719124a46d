package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ChatRepo interface {
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	MergeConversation(ctx context.Context, id string, fields, onInsert map[string]interface{}) error
	AppendMessage(ctx context.Context, msg *Message) error
	ListMessages(ctx context.Context, conversationId string) ([]*Message, error)
	WatchMessages(ctx context.Context, conversationId string) (<-chan Snapshot[*Message], error)
}

func (mdb *MongodbRepo) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	col, err := mdb.GetCollection(ctx, ConversationsCollection)
	if err != nil {
		return nil, err
	}
	return findOne[Conversation](ctx, col, bson.M{"_id": id}, "conversation")
}

func (mdb *MongodbRepo) MergeConversation(ctx context.Context, id string, fields, onInsert map[string]interface{}) error {
	col, err := mdb.GetCollection(ctx, ConversationsCollection)
	if err != nil {
		return err
	}

	set := bson.M{"updatedAt": time.Now()}
	for k, v := range fields {
		set[k] = v
	}
	update := bson.M{"$set": set}
	if len(onInsert) > 0 {
		setOnInsert := bson.M{}
		for k, v := range onInsert {
			if _, ok := set[k]; !ok {
				setOnInsert[k] = v
			}
		}
		if len(setOnInsert) > 0 {
			update["$setOnInsert"] = setOnInsert
		}
	}
	_, err = col.UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
	if err != nil {
		return UnavailableError{Op: "save conversation", Err: err}
	}
	return nil
}

func (mdb *MongodbRepo) AppendMessage(ctx context.Context, msg *Message) error {
	col, err := mdb.GetCollection(ctx, MessagesCollection)
	if err != nil {
		return err
	}
	if _, err := col.InsertOne(ctx, msg); err != nil {
		return UnavailableError{Op: "send message", Err: err}
	}
	return nil
}

// ListMessages returns the thread oldest first. _id breaks ties between
// messages created in the same millisecond.
func (mdb *MongodbRepo) ListMessages(ctx context.Context, conversationId string) ([]*Message, error) {
	col, err := mdb.GetCollection(ctx, MessagesCollection)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "createdAt", Value: 1},
		{Key: "_id", Value: 1},
	})
	return findMany[Message](ctx, col, bson.M{"conversationId": conversationId}, opts)
}

func (mdb *MongodbRepo) WatchMessages(ctx context.Context, conversationId string) (<-chan Snapshot[*Message], error) {
	col, err := mdb.GetCollection(ctx, MessagesCollection)
	if err != nil {
		return nil, err
	}
	return watchQuery(ctx, col, ownerChanges("conversationId", conversationId), func(ctx context.Context) ([]*Message, error) {
		return mdb.ListMessages(ctx, conversationId)
	})
}
