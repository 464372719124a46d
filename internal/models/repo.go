package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultDBName = "luwas"

	UsersCollection             = "users"
	DestinationsCollection      = "destinations"
	ItinerariesCollection       = "itineraries"
	PromosCollection            = "promos"
	BookingsCollection          = "bookings"
	ItineraryBookingsCollection = "itineraryBookings"
	PromoBookingsCollection     = "promoBookings"
	ConversationsCollection     = "conversations"
	MessagesCollection          = "messages"
)

var Validate = validator.New()

type SupabaseRepo struct {
	supabaseClient *supabase.Client
}

func SupabaseNewRepo(supabaseClient *supabase.Client) *SupabaseRepo {
	return &SupabaseRepo{
		supabaseClient: supabaseClient,
	}
}

type MongodbRepo struct {
	mongodbClient *mongo.Client
	dbName        string
}

func MongodbNewRepo(mongodbClient *mongo.Client, dbName string) *MongodbRepo {
	if dbName == "" {
		dbName = DefaultDBName
	}
	return &MongodbRepo{
		mongodbClient: mongodbClient,
		dbName:        dbName,
	}
}

func (mdb *MongodbRepo) GetCollection(ctx context.Context, colName string) (*mongo.Collection, error) {
	if mdb.mongodbClient == nil {
		return nil, fmt.Errorf("mongodb client is not initialized")
	}
	return mdb.mongodbClient.Database(mdb.dbName).Collection(colName), nil
}

// Snapshot is one complete result set pushed by a live query.
// A snapshot with Err set is the last one sent on its channel.
type Snapshot[T any] struct {
	Items []T
	Err   error
}

func findOne[T any](ctx context.Context, col *mongo.Collection, filter interface{}, resource string) (*T, error) {
	var out T
	if err := col.FindOne(ctx, filter).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NotFoundError{Resource: resource, Err: err}
		}
		return nil, UnavailableError{Op: "read " + resource, Err: err}
	}
	return &out, nil
}

func findMany[T any](ctx context.Context, col *mongo.Collection, filter interface{}, opts *options.FindOptions) ([]*T, error) {
	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, UnavailableError{Op: "query " + col.Name(), Err: err}
	}
	defer cursor.Close(ctx)

	out := make([]*T, 0)
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, fmt.Errorf("error decoding %s document: %w", col.Name(), err)
		}
		out = append(out, &item)
	}
	if err := cursor.Err(); err != nil {
		return nil, UnavailableError{Op: "query " + col.Name(), Err: err}
	}
	return out, nil
}

// ownerChanges matches change events on documents owned by field == value.
// Delete events carry no document, so every delete re-runs the query.
func ownerChanges(field, value string) bson.D {
	return bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "fullDocument." + field, Value: value}},
		bson.D{{Key: "operationType", Value: "delete"}},
	}}}
}

// watchQuery turns a change stream into a stream of full snapshots. The stream
// is opened before the initial load so no change between the two is missed.
// The returned channel is closed when ctx ends or the stream fails.
func watchQuery[T any](ctx context.Context, col *mongo.Collection, match bson.D, load func(context.Context) ([]T, error)) (<-chan Snapshot[T], error) {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: match}}}
	stream, err := col.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, UnavailableError{Op: "watch " + col.Name(), Err: err}
	}

	initial, err := load(ctx)
	if err != nil {
		_ = stream.Close(context.Background())
		return nil, err
	}

	out := make(chan Snapshot[T], 1)
	out <- Snapshot[T]{Items: initial}

	send := func(s Snapshot[T]) bool {
		select {
		case out <- s:
			return true
		case <-ctx.Done():
			return false
		}
	}

	go func() {
		defer close(out)
		defer stream.Close(context.Background())

		for stream.Next(ctx) {
			items, err := load(ctx)
			if err != nil {
				if ctx.Err() == nil {
					send(Snapshot[T]{Err: err})
				}
				return
			}
			if !send(Snapshot[T]{Items: items}) {
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			send(Snapshot[T]{Err: UnavailableError{Op: "watch " + col.Name(), Err: err}})
		}
	}()

	return out, nil
}
