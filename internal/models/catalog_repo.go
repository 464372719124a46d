package models

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CatalogRepo interface {
	ListDestinations(ctx context.Context, limit int) ([]*Destination, error)
	ListItineraries(ctx context.Context, limit int) ([]*Itinerary, error)
	ListPromos(ctx context.Context, limit int) ([]*Promo, error)
	GetBookable(ctx context.Context, kind BookingKind, id string) (Bookable, error)
}

// limit <= 0 lists the whole collection.
func listOptions(limit int) *options.FindOptions {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}

func (mdb *MongodbRepo) ListDestinations(ctx context.Context, limit int) ([]*Destination, error) {
	col, err := mdb.GetCollection(ctx, DestinationsCollection)
	if err != nil {
		return nil, err
	}
	return findMany[Destination](ctx, col, bson.M{}, listOptions(limit))
}

func (mdb *MongodbRepo) ListItineraries(ctx context.Context, limit int) ([]*Itinerary, error) {
	col, err := mdb.GetCollection(ctx, ItinerariesCollection)
	if err != nil {
		return nil, err
	}
	items, err := findMany[Itinerary](ctx, col, bson.M{}, listOptions(limit))
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		it.Normalize()
	}
	return items, nil
}

func (mdb *MongodbRepo) ListPromos(ctx context.Context, limit int) ([]*Promo, error) {
	col, err := mdb.GetCollection(ctx, PromosCollection)
	if err != nil {
		return nil, err
	}
	return findMany[Promo](ctx, col, bson.M{}, listOptions(limit))
}

func (mdb *MongodbRepo) GetBookable(ctx context.Context, kind BookingKind, id string) (Bookable, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ValidationError{Field: "id", Msg: "catalog id is required"}
	}
	col, err := mdb.GetCollection(ctx, kind.CatalogCollection())
	if err != nil {
		return nil, err
	}

	filter := bson.M{"_id": id}
	switch kind {
	case KindItinerary:
		it, err := findOne[Itinerary](ctx, col, filter, "itinerary")
		if err != nil {
			return nil, err
		}
		return it.Normalize(), nil
	case KindPromo:
		p, err := findOne[Promo](ctx, col, filter, "promo")
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		d, err := findOne[Destination](ctx, col, filter, "destination")
		if err != nil {
			return nil, err
		}
		return d, nil
	}
}
