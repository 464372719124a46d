package services

import (
	"context"
	"errors"
	"testing"

	"github.com/joshua-takyi/luwas/internal/insights"
	"github.com/joshua-takyi/luwas/internal/metrics"
	"github.com/joshua-takyi/luwas/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newCatalogFixture(enricher *fakeEnricher) (*CatalogService, *fakeBookings, *metrics.Metrics) {
	catalog := &fakeCatalog{
		destinations: []*models.Destination{
			{ID: "dest-1", Name: "Siargao", Location: "Surigao del Norte", Price: 1000, Latitude: 9.85, Longitude: 126.05},
			{ID: "dest-2", Name: "Batanes", Location: "Batanes", Price: 4000},
			{ID: "dest-3", Name: "Coron", Location: "Palawan", Price: 3000, Latitude: 12, Longitude: 120.2},
			{ID: "dest-4", Name: "Sagada", Location: "Mountain Province", Price: 1500},
		},
		itineraries: []*models.Itinerary{{ID: "it-1", Title: "Island hopping", Price: 2500}},
		promos: []*models.Promo{
			{ID: "promo-1", Title: "Summer sale", Price: 2000, DiscountPercentage: 25},
			{ID: "promo-2", Title: "Rainy days", Price: 1000, FinalPrice: 800},
			{ID: "promo-3", Title: "Holiday", Price: 5000},
		},
	}
	bookings := newFakeBookings()
	m := metrics.New("test")
	return NewCatalogService(catalog, bookings, enricher, m, testLogger()), bookings, m
}

func TestHomeLimitsRailsAndGreets(t *testing.T) {
	cs, _, _ := newCatalogFixture(&fakeEnricher{})

	feed, err := cs.Home(context.Background(), "", "Traveler")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if feed.Greeting != "Hello, Traveler" {
		t.Errorf("unexpected greeting %q", feed.Greeting)
	}
	if len(feed.Destinations) != HomeDestinations {
		t.Errorf("expected %d destinations, got %d", HomeDestinations, len(feed.Destinations))
	}
	if len(feed.Promos) != HomePromos {
		t.Errorf("expected %d promos, got %d", HomePromos, len(feed.Promos))
	}
	if len(feed.Itineraries) != 1 {
		t.Errorf("expected 1 itinerary, got %d", len(feed.Itineraries))
	}
	if feed.NextTrip != nil {
		t.Error("guests have no next trip")
	}
}

func TestHomeIncludesNextTripForSignedInUser(t *testing.T) {
	cs, bookings, _ := newCatalogFixture(&fakeEnricher{})
	bookings.put(&models.Booking{ID: "b-late", Kind: models.KindDestination, UserID: "user-1", TravelerForm: models.TravelerForm{DepartureDate: "2025-06-01"}})
	bookings.put(&models.Booking{ID: "b-soon", Kind: models.KindDestination, UserID: "user-1", TravelerForm: models.TravelerForm{DepartureDate: "2025-04-01"}})

	feed, err := cs.Home(context.Background(), "user-1", "Juan")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if feed.NextTrip == nil || feed.NextTrip.ID != "b-soon" {
		t.Errorf("expected next trip b-soon, got %+v", feed.NextTrip)
	}
}

func TestHomeFailsWhenCatalogFails(t *testing.T) {
	cs, _, _ := newCatalogFixture(&fakeEnricher{})
	cs.catalog.(*fakeCatalog).err = models.UnavailableError{Op: "list", Err: errors.New("down")}

	if _, err := cs.Home(context.Background(), "", "Traveler"); !models.IsUnavailable(err) {
		t.Errorf("expected unavailable error, got %v", err)
	}
}

func TestGetDetailFillsEverySection(t *testing.T) {
	enricher := &fakeEnricher{
		reviews: &insights.ReviewSummary{Rating: 4.5, Reviews: []insights.Review{{Text: "Great waves", Rating: 5}}},
		nearby:  []insights.Place{{Title: "Cloud 9"}},
		weather: &insights.WeatherInsight{BestTime: []insights.BestTime{{Label: "March to May"}}},
	}
	cs, _, m := newCatalogFixture(enricher)

	d, err := cs.GetDetail(context.Background(), models.KindDestination, "dest-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Price != 1000 || d.Item.GetID() != "dest-1" {
		t.Errorf("unexpected item %+v price %v", d.Item, d.Price)
	}
	for name, status := range map[string]SectionStatus{
		"reviews": d.Reviews.Status,
		"nearby":  d.Nearby.Status,
		"weather": d.Weather.Status,
	} {
		if status != SectionOK {
			t.Errorf("%s: expected ok, got %s", name, status)
		}
	}
	if d.Reviews.Data.Rating != 4.5 || len(d.Nearby.Data) != 1 {
		t.Errorf("section data not carried: %+v %+v", d.Reviews, d.Nearby)
	}
	if got := testutil.ToFloat64(m.EnrichmentRequests.WithLabelValues("reviews", "ok")); got != 1 {
		t.Errorf("expected one ok reviews request, got %v", got)
	}
}

func TestGetDetailWeatherTimeoutLeavesOtherSections(t *testing.T) {
	enricher := &fakeEnricher{
		reviews:    &insights.ReviewSummary{Reviews: []insights.Review{{Text: "Nice"}}},
		nearby:     []insights.Place{{Title: "Cloud 9"}},
		weatherErr: context.DeadlineExceeded,
	}
	cs, _, _ := newCatalogFixture(enricher)

	d, err := cs.GetDetail(context.Background(), models.KindDestination, "dest-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Weather.Status != SectionUnavailable || d.Weather.Message != NoWeatherMessage {
		t.Errorf("expected weather placeholder, got %+v", d.Weather)
	}
	if d.Reviews.Status != SectionOK || d.Nearby.Status != SectionOK {
		t.Errorf("other sections must still render: reviews=%s nearby=%s", d.Reviews.Status, d.Nearby.Status)
	}
}

func TestGetDetailPlaceholders(t *testing.T) {
	enricher := &fakeEnricher{
		reviews: &insights.ReviewSummary{},
		weather: &insights.WeatherInsight{},
	}
	cs, _, _ := newCatalogFixture(enricher)

	d, err := cs.GetDetail(context.Background(), models.KindDestination, "dest-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Reviews.Status != SectionEmpty || d.Reviews.Message != NoReviewsMessage {
		t.Errorf("unexpected reviews section %+v", d.Reviews)
	}
	if d.Nearby.Status != SectionEmpty || d.Nearby.Message != NoNearbyMessage {
		t.Errorf("unexpected nearby section %+v", d.Nearby)
	}
	if enricher.nearbyCall != 0 {
		t.Error("nearby must not be queried without coordinates")
	}
	if d.Weather.Status != SectionEmpty || d.Weather.Message != NoWeatherMessage {
		t.Errorf("unexpected weather section %+v", d.Weather)
	}
}

func TestGetDetailReviewFailureIsUnavailable(t *testing.T) {
	enricher := &fakeEnricher{reviewErr: errors.New("yelp down")}
	cs, _, _ := newCatalogFixture(enricher)

	d, err := cs.GetDetail(context.Background(), models.KindPromo, "promo-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Reviews.Status != SectionUnavailable || d.Reviews.Message != NoReviewsMessage {
		t.Errorf("unexpected reviews section %+v", d.Reviews)
	}
	if d.Price != 1500 {
		t.Errorf("expected discounted price 1500, got %v", d.Price)
	}
}

func TestGetDetailMissingItem(t *testing.T) {
	cs, _, _ := newCatalogFixture(&fakeEnricher{})

	if _, err := cs.GetDetail(context.Background(), models.KindItinerary, "nope"); !models.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestCurrentWeather(t *testing.T) {
	lat, lon := 14.6, 121.0

	t.Run("no coordinates", func(t *testing.T) {
		cs, _, _ := newCatalogFixture(&fakeEnricher{current: &insights.CurrentWeather{TemperatureC: 30}})
		if got := cs.CurrentWeather(context.Background(), nil, &lon); got.Summary != WeatherUnavailable {
			t.Errorf("expected %q, got %q", WeatherUnavailable, got.Summary)
		}
	})

	t.Run("provider failure", func(t *testing.T) {
		cs, _, _ := newCatalogFixture(&fakeEnricher{})
		if got := cs.CurrentWeather(context.Background(), &lat, &lon); got.Summary != WeatherUnavailable {
			t.Errorf("expected %q, got %q", WeatherUnavailable, got.Summary)
		}
	})

	t.Run("summary", func(t *testing.T) {
		cs, _, _ := newCatalogFixture(&fakeEnricher{current: &insights.CurrentWeather{TemperatureC: 30.6, Condition: "Clouds", City: "Manila"}})
		got := cs.CurrentWeather(context.Background(), &lat, &lon)
		if got.Summary != "31°C • Clouds" || got.City != "Manila" {
			t.Errorf("unexpected header %+v", got)
		}
	})
}
