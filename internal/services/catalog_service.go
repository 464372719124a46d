package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/joshua-takyi/luwas/internal/insights"
	"github.com/joshua-takyi/luwas/internal/metrics"
	"github.com/joshua-takyi/luwas/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	HomeDestinations = 3
	HomePromos       = 2
	HomeItineraries  = 3

	NoReviewsMessage   = "No reviews found for this place."
	NoNearbyMessage    = "No nearby spots found."
	NoWeatherMessage   = "No weather info available."
	WeatherUnavailable = "Weather unavailable"
)

type Enricher interface {
	Reviews(ctx context.Context, name, location string) (*insights.ReviewSummary, error)
	Nearby(ctx context.Context, lat, lon float64) ([]insights.Place, error)
	Weather(ctx context.Context, title, location string) (*insights.WeatherInsight, error)
	Current(ctx context.Context, lat, lon float64) (*insights.CurrentWeather, error)
}

type SectionStatus string

const (
	SectionOK          SectionStatus = "ok"
	SectionEmpty       SectionStatus = "empty"
	SectionUnavailable SectionStatus = "unavailable"
)

// Section is one independently loaded part of a detail page.
type Section[T any] struct {
	Status  SectionStatus `json:"status"`
	Message string        `json:"message,omitempty"`
	Data    T             `json:"data,omitempty"`
}

type Detail struct {
	Kind    models.BookingKind                `json:"kind"`
	Item    models.Bookable                   `json:"item"`
	Price   float64                           `json:"unitPrice"`
	Reviews Section[*insights.ReviewSummary]  `json:"reviews"`
	Nearby  Section[[]insights.Place]         `json:"nearby"`
	Weather Section[*insights.WeatherInsight] `json:"weather"`
}

type HomeFeed struct {
	Greeting     string                `json:"greeting"`
	Destinations []*models.Destination `json:"destinations"`
	Promos       []*models.Promo       `json:"promos"`
	Itineraries  []*models.Itinerary   `json:"itineraries"`
	NextTrip     *models.Booking       `json:"nextTrip,omitempty"`
}

type WeatherHeader struct {
	Summary string `json:"summary"`
	City    string `json:"city,omitempty"`
}

type CatalogService struct {
	catalog  models.CatalogRepo
	bookings models.BookingRepo
	enricher Enricher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewCatalogService(catalog models.CatalogRepo, bookings models.BookingRepo, enricher Enricher, m *metrics.Metrics, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		catalog:  catalog,
		bookings: bookings,
		enricher: enricher,
		metrics:  m,
		logger:   logger.With("component", "catalog_service"),
	}
}

func (cs *CatalogService) ListDestinations(ctx context.Context, limit int) ([]*models.Destination, error) {
	return cs.catalog.ListDestinations(ctx, limit)
}

func (cs *CatalogService) ListItineraries(ctx context.Context, limit int) ([]*models.Itinerary, error) {
	return cs.catalog.ListItineraries(ctx, limit)
}

func (cs *CatalogService) ListPromos(ctx context.Context, limit int) ([]*models.Promo, error) {
	return cs.catalog.ListPromos(ctx, limit)
}

// Home loads the three catalog rails and, for signed-in users, the next trip.
// The rails are required; the next-trip card is best-effort.
func (cs *CatalogService) Home(ctx context.Context, uid, displayName string) (*HomeFeed, error) {
	feed := &HomeFeed{Greeting: "Hello, " + displayName}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		feed.Destinations, err = cs.catalog.ListDestinations(gctx, HomeDestinations)
		return err
	})
	g.Go(func() error {
		var err error
		feed.Promos, err = cs.catalog.ListPromos(gctx, HomePromos)
		return err
	})
	g.Go(func() error {
		var err error
		feed.Itineraries, err = cs.catalog.ListItineraries(gctx, HomeItineraries)
		return err
	})
	if uid != "" {
		g.Go(func() error {
			trip, err := cs.bookings.NextTrip(gctx, uid)
			if err != nil {
				if !models.IsNotFound(err) {
					cs.logger.Warn("next trip unavailable", "uid", uid, "error", err)
				}
				return nil
			}
			feed.NextTrip = trip
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return feed, nil
}

// GetDetail reads the catalog record and then runs the three enrichment calls
// concurrently. Each call fills only its own section and never fails the page.
func (cs *CatalogService) GetDetail(ctx context.Context, kind models.BookingKind, id string) (*Detail, error) {
	item, err := cs.catalog.GetBookable(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	detail := &Detail{Kind: kind, Item: item, Price: item.UnitPrice()}
	name, place := item.DisplayName(), item.PlaceLabel()

	var g errgroup.Group
	g.Go(func() error {
		detail.Reviews = enrich(ctx, cs, "reviews", NoReviewsMessage,
			func(ctx context.Context) (*insights.ReviewSummary, error) {
				return cs.enricher.Reviews(ctx, name, place)
			},
			func(r *insights.ReviewSummary) bool { return r == nil || len(r.Reviews) == 0 })
		return nil
	})
	g.Go(func() error {
		coords := item.Coords()
		if coords.IsZero() {
			detail.Nearby = Section[[]insights.Place]{Status: SectionEmpty, Message: NoNearbyMessage}
			return nil
		}
		detail.Nearby = enrich(ctx, cs, "nearby", NoNearbyMessage,
			func(ctx context.Context) ([]insights.Place, error) {
				return cs.enricher.Nearby(ctx, coords.Latitude, coords.Longitude)
			},
			func(p []insights.Place) bool { return len(p) == 0 })
		return nil
	})
	g.Go(func() error {
		detail.Weather = enrich(ctx, cs, "weather", NoWeatherMessage,
			func(ctx context.Context) (*insights.WeatherInsight, error) {
				return cs.enricher.Weather(ctx, name, place)
			},
			func(w *insights.WeatherInsight) bool { return w.Empty() })
		return nil
	})
	_ = g.Wait()

	return detail, nil
}

func enrich[T any](ctx context.Context, cs *CatalogService, section, placeholder string, fetch func(context.Context) (T, error), empty func(T) bool) Section[T] {
	start := time.Now()
	data, err := fetch(ctx)

	status := SectionOK
	switch {
	case err != nil:
		status = SectionUnavailable
		cs.logger.Warn("enrichment failed", "section", section, "error", err)
	case empty(data):
		status = SectionEmpty
	}
	if cs.metrics != nil {
		cs.metrics.EnrichmentRequests.WithLabelValues(section, string(status)).Inc()
		cs.metrics.EnrichmentLatency.WithLabelValues(section).Observe(time.Since(start).Seconds())
	}

	if status != SectionOK {
		return Section[T]{Status: status, Message: placeholder}
	}
	return Section[T]{Status: SectionOK, Data: data}
}

// CurrentWeather backs the home header. Missing coordinates mean the device
// denied location access.
func (cs *CatalogService) CurrentWeather(ctx context.Context, lat, lon *float64) WeatherHeader {
	if lat == nil || lon == nil {
		return WeatherHeader{Summary: WeatherUnavailable}
	}
	w, err := cs.enricher.Current(ctx, *lat, *lon)
	if err != nil {
		cs.logger.Warn("current weather failed", "error", err)
		return WeatherHeader{Summary: WeatherUnavailable}
	}
	return WeatherHeader{Summary: w.Summary(), City: w.City}
}
