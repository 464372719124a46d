package models

import "math"

const itineraryPlaceholderImage = "https://via.placeholder.com/400x250.png?text=Itinerary"

type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// IsZero is true when no coordinates were recorded.
func (c Coordinates) IsZero() bool {
	return c.Latitude == 0 && c.Longitude == 0
}

// Bookable is a catalog record a traveler can book.
type Bookable interface {
	GetID() string
	Kind() BookingKind
	DisplayName() string
	UnitPrice() float64
	PlaceLabel() string
	Coords() Coordinates
}

type Destination struct {
	ID          string   `bson:"_id" json:"id"`
	Name        string   `bson:"name" json:"name"`
	Description string   `bson:"description,omitempty" json:"description,omitempty"`
	ImageURL    string   `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Price       float64  `bson:"price" json:"price"`
	Latitude    float64  `bson:"latitude" json:"latitude"`
	Longitude   float64  `bson:"longitude" json:"longitude"`
	Location    string   `bson:"location,omitempty" json:"location,omitempty"`
	Tags        []string `bson:"tags,omitempty" json:"tags,omitempty"`
}

func (d *Destination) GetID() string       { return d.ID }
func (d *Destination) Kind() BookingKind   { return KindDestination }
func (d *Destination) DisplayName() string { return d.Name }
func (d *Destination) UnitPrice() float64  { return d.Price }
func (d *Destination) PlaceLabel() string  { return d.Location }
func (d *Destination) Coords() Coordinates { return Coordinates{d.Latitude, d.Longitude} }

type Itinerary struct {
	ID          string   `bson:"_id" json:"id"`
	Title       string   `bson:"title" json:"title"`
	Description string   `bson:"description,omitempty" json:"description"`
	Image       string   `bson:"image,omitempty" json:"-"`
	ImageURL    string   `bson:"-" json:"imageUrl"`
	Duration    string   `bson:"duration,omitempty" json:"duration"`
	Location    string   `bson:"location,omitempty" json:"location"`
	Price       float64  `bson:"price" json:"price"`
	Latitude    float64  `bson:"latitude" json:"latitude"`
	Longitude   float64  `bson:"longitude" json:"longitude"`
	Highlights  []string `bson:"highlights,omitempty" json:"highlights,omitempty"`
}

// Normalize fills the display defaults used by the list and detail screens.
func (it *Itinerary) Normalize() *Itinerary {
	if it.Title == "" {
		it.Title = "Untitled Itinerary"
	}
	it.ImageURL = it.Image
	if it.ImageURL == "" {
		it.ImageURL = itineraryPlaceholderImage
	}
	return it
}

func (it *Itinerary) GetID() string       { return it.ID }
func (it *Itinerary) Kind() BookingKind   { return KindItinerary }
func (it *Itinerary) DisplayName() string { return it.Title }
func (it *Itinerary) UnitPrice() float64  { return it.Price }
func (it *Itinerary) PlaceLabel() string  { return it.Location }
func (it *Itinerary) Coords() Coordinates { return Coordinates{it.Latitude, it.Longitude} }

type Promo struct {
	ID                 string   `bson:"_id" json:"id"`
	Title              string   `bson:"title" json:"title"`
	Description        string   `bson:"description,omitempty" json:"description,omitempty"`
	Price              float64  `bson:"price" json:"price"`
	DiscountPercentage float64  `bson:"discountPercentage" json:"discountPercentage"`
	FinalPrice         float64  `bson:"finalPrice" json:"finalPrice"`
	StartDate          string   `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate            string   `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Location           string   `bson:"location,omitempty" json:"location,omitempty"`
	ImageURL           string   `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Latitude           float64  `bson:"latitude" json:"latitude"`
	Longitude          float64  `bson:"longitude" json:"longitude"`
	Highlights         []string `bson:"highlights,omitempty" json:"highlights,omitempty"`
}

func (p *Promo) GetID() string       { return p.ID }
func (p *Promo) Kind() BookingKind   { return KindPromo }
func (p *Promo) DisplayName() string { return p.Title }
func (p *Promo) PlaceLabel() string  { return p.Location }
func (p *Promo) Coords() Coordinates { return Coordinates{p.Latitude, p.Longitude} }

// UnitPrice is the discounted price. A stored finalPrice wins; otherwise the
// discount is applied to price and rounded to centavos.
func (p *Promo) UnitPrice() float64 {
	if p.FinalPrice > 0 {
		return p.FinalPrice
	}
	discount := math.Min(math.Max(p.DiscountPercentage, 0), 100)
	return math.Round(p.Price*(1-discount/100)*100) / 100
}
