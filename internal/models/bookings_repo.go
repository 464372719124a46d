package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type BookingRepo interface {
	CreateBooking(ctx context.Context, booking *Booking) (*Booking, error)
	GetBooking(ctx context.Context, kind BookingKind, id string) (*Booking, error)
	AttachPaymentProof(ctx context.Context, kind BookingKind, id string, proof PaymentProof) (*Booking, error)
	ListBookingsByUser(ctx context.Context, kind BookingKind, userId string) ([]*Booking, error)
	WatchBookings(ctx context.Context, kind BookingKind, userId string) (<-chan Snapshot[*Booking], error)
	NextTrip(ctx context.Context, userId string) (*Booking, error)
}

func (mdb *MongodbRepo) CreateBooking(ctx context.Context, booking *Booking) (*Booking, error) {
	if booking == nil || booking.ID == "" {
		return nil, ValidationError{Field: "id", Msg: "booking id is required"}
	}
	col, err := mdb.GetCollection(ctx, booking.Kind.Collection())
	if err != nil {
		return nil, err
	}

	if _, err := col.InsertOne(ctx, booking); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ConflictError{Resource: "booking", Msg: "booking already exists", Err: err}
		}
		return nil, UnavailableError{Op: "create booking", Err: err}
	}
	return booking.Tagged(booking.Kind), nil
}

func (mdb *MongodbRepo) GetBooking(ctx context.Context, kind BookingKind, id string) (*Booking, error) {
	col, err := mdb.GetCollection(ctx, kind.Collection())
	if err != nil {
		return nil, err
	}
	b, err := findOne[Booking](ctx, col, bson.M{"_id": id}, "booking")
	if err != nil {
		return nil, err
	}
	return b.Tagged(kind), nil
}

// AttachPaymentProof writes the proof fields only while the booking still
// accepts a proof, so a concurrent approval is never overwritten.
func (mdb *MongodbRepo) AttachPaymentProof(ctx context.Context, kind BookingKind, id string, proof PaymentProof) (*Booking, error) {
	col, err := mdb.GetCollection(ctx, kind.Collection())
	if err != nil {
		return nil, err
	}

	filter := bson.M{
		"_id": id,
		"status": bson.M{"$in": bson.A{
			StatusPendingPayment, StatusAwaitingApproval, StatusUpcoming,
		}},
	}
	update := bson.M{"$set": proof}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated Booking
	err = col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		return updated.Tagged(kind), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, UnavailableError{Op: "update booking", Err: err}
	}

	current, getErr := mdb.GetBooking(ctx, kind, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, ConflictError{
		Resource: "booking",
		Msg:      fmt.Sprintf("status %q no longer accepts a payment proof", current.Status),
	}
}

func (mdb *MongodbRepo) ListBookingsByUser(ctx context.Context, kind BookingKind, userId string) ([]*Booking, error) {
	if strings.TrimSpace(userId) == "" {
		return nil, ValidationError{Field: "userId", Msg: "user id is required"}
	}
	col, err := mdb.GetCollection(ctx, kind.Collection())
	if err != nil {
		return nil, err
	}
	items, err := findMany[Booking](ctx, col, bson.M{"userId": userId}, options.Find())
	if err != nil {
		return nil, err
	}
	for _, b := range items {
		b.Tagged(kind)
	}
	return items, nil
}

func (mdb *MongodbRepo) WatchBookings(ctx context.Context, kind BookingKind, userId string) (<-chan Snapshot[*Booking], error) {
	col, err := mdb.GetCollection(ctx, kind.Collection())
	if err != nil {
		return nil, err
	}
	return watchQuery(ctx, col, ownerChanges("userId", userId), func(ctx context.Context) ([]*Booking, error) {
		return mdb.ListBookingsByUser(ctx, kind, userId)
	})
}

// NextTrip is the user's destination booking with the earliest departure date.
func (mdb *MongodbRepo) NextTrip(ctx context.Context, userId string) (*Booking, error) {
	col, err := mdb.GetCollection(ctx, BookingsCollection)
	if err != nil {
		return nil, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "departureDate", Value: 1}}).
		SetLimit(1)
	items, err := findMany[Booking](ctx, col, bson.M{"userId": userId}, opts)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, NotFoundError{Resource: "trip"}
	}
	return items[0].Tagged(KindDestination), nil
}
