package models

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ProfileRepo interface {
	GetProfile(ctx context.Context, uid string) (*User, error)
	// MergeProfile sets fields on users/{uid}, creating the document with
	// onInsert when it does not exist yet.
	MergeProfile(ctx context.Context, uid string, fields, onInsert map[string]interface{}) (*User, error)
	WatchProfile(ctx context.Context, uid string) (<-chan Snapshot[*User], error)
}

func (mdb *MongodbRepo) GetProfile(ctx context.Context, uid string) (*User, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, ValidationError{Field: "uid", Msg: "user id is required"}
	}
	col, err := mdb.GetCollection(ctx, UsersCollection)
	if err != nil {
		return nil, err
	}
	return findOne[User](ctx, col, bson.M{"_id": uid}, "profile")
}

func (mdb *MongodbRepo) MergeProfile(ctx context.Context, uid string, fields, onInsert map[string]interface{}) (*User, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, ValidationError{Field: "uid", Msg: "user id is required"}
	}
	col, err := mdb.GetCollection(ctx, UsersCollection)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updatedAt": time.Now()}
	for k, v := range fields {
		set[k] = v
	}
	setOnInsert := bson.M{}
	if _, ok := set["uid"]; !ok {
		setOnInsert["uid"] = uid
	}
	for k, v := range onInsert {
		// a key in both operators is rejected by the server
		if _, ok := set[k]; !ok {
			setOnInsert[k] = v
		}
	}

	update := bson.M{"$set": set}
	if len(setOnInsert) > 0 {
		update["$setOnInsert"] = setOnInsert
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result User
	if err := col.FindOneAndUpdate(ctx, bson.M{"_id": uid}, update, opts).Decode(&result); err != nil {
		return nil, UnavailableError{Op: "save profile", Err: err}
	}
	return &result, nil
}

func (mdb *MongodbRepo) WatchProfile(ctx context.Context, uid string) (<-chan Snapshot[*User], error) {
	col, err := mdb.GetCollection(ctx, UsersCollection)
	if err != nil {
		return nil, err
	}
	match := bson.D{{Key: "documentKey._id", Value: uid}}
	return watchQuery(ctx, col, match, func(ctx context.Context) ([]*User, error) {
		u, err := mdb.GetProfile(ctx, uid)
		if IsNotFound(err) {
			return []*User{}, nil
		}
		if err != nil {
			return nil, err
		}
		return []*User{u}, nil
	})
}
