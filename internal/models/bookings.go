package models

import (
	"fmt"
	"strings"
	"time"
)

type BookingKind string

const (
	KindDestination BookingKind = "destination"
	KindItinerary   BookingKind = "itinerary"
	KindPromo       BookingKind = "promo"
)

var BookingKinds = []BookingKind{KindDestination, KindItinerary, KindPromo}

func ParseBookingKind(raw string) (BookingKind, error) {
	switch BookingKind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindDestination, "destinations", "trip":
		return KindDestination, nil
	case KindItinerary, "itineraries":
		return KindItinerary, nil
	case KindPromo, "promos":
		return KindPromo, nil
	}
	return "", ValidationError{Field: "type", Msg: fmt.Sprintf("unsupported booking type %q", raw)}
}

// Collection is where bookings of this kind are stored.
func (k BookingKind) Collection() string {
	switch k {
	case KindItinerary:
		return ItineraryBookingsCollection
	case KindPromo:
		return PromoBookingsCollection
	default:
		return BookingsCollection
	}
}

// CatalogCollection holds the bookable records of this kind.
func (k BookingKind) CatalogCollection() string {
	switch k {
	case KindItinerary:
		return ItinerariesCollection
	case KindPromo:
		return PromosCollection
	default:
		return DestinationsCollection
	}
}

// Tag is the type label used by the history view.
func (k BookingKind) Tag() string {
	if k == KindDestination {
		return "trip"
	}
	return string(k)
}

// RefField names the catalog reference field on the booking document.
func (k BookingKind) RefField() string {
	return string(k) + "Id"
}

func (k BookingKind) ProofFolder() string {
	switch k {
	case KindItinerary:
		return "itineraryProofs"
	case KindPromo:
		return "promoProofs"
	default:
		return "proofs"
	}
}

type BookingStatus string

const (
	StatusPendingPayment   BookingStatus = "pending_payment"
	StatusAwaitingApproval BookingStatus = "awaiting_approval"
	StatusPaid             BookingStatus = "paid"
	StatusCancelled        BookingStatus = "cancelled"
	StatusCompleted        BookingStatus = "completed"
	StatusUpcoming         BookingStatus = "upcoming"
)

func (s BookingStatus) normalized() BookingStatus {
	return BookingStatus(strings.ToLower(strings.TrimSpace(string(s))))
}

func (s BookingStatus) rank() int {
	switch s.normalized() {
	case StatusPendingPayment, StatusUpcoming:
		return 0
	case StatusAwaitingApproval:
		return 1
	case StatusPaid, StatusCancelled, StatusCompleted:
		return 2
	}
	return -1
}

// CanAdvanceTo reports whether moving to next keeps the status sequence monotonic.
// Re-entering the same non-terminal status is allowed so a second proof can replace the first.
func (s BookingStatus) CanAdvanceTo(next BookingStatus) bool {
	from, to := s.rank(), next.rank()
	if from < 0 || to < 0 {
		return false
	}
	if from == 2 {
		return false
	}
	return to >= from
}

// AcceptsProof is true while a booking still waits on (or for review of) a payment proof.
func (s BookingStatus) AcceptsProof() bool {
	return s.CanAdvanceTo(StatusAwaitingApproval)
}

// Traveler-information form. All fields except SpecialRequests are required.
type TravelerForm struct {
	FullName        string `bson:"fullName" json:"fullName" validate:"required"`
	Email           string `bson:"email" json:"email" validate:"required,email"`
	Phone           string `bson:"phone" json:"phone" validate:"required"`
	LocalAddress    string `bson:"localAddress" json:"localAddress" validate:"required"`
	DepartureDate   string `bson:"departureDate" json:"departureDate" validate:"required,datetime=2006-01-02"`
	ReturnDate      string `bson:"returnDate" json:"returnDate" validate:"required,datetime=2006-01-02"`
	Travelers       int    `bson:"travelers" json:"travelers"`
	SpecialRequests string `bson:"specialRequests" json:"specialRequests"`
}

type Payer struct {
	UID   string `bson:"uid" json:"uid"`
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
}

type Booking struct {
	ID            string      `bson:"_id" json:"id"`
	Kind          BookingKind `bson:"-" json:"kind"`
	Type          string      `bson:"-" json:"type"`
	UserID        string      `bson:"userId,omitempty" json:"userId,omitempty"`
	DestinationID string      `bson:"destinationId,omitempty" json:"destinationId,omitempty"`
	ItineraryID   string      `bson:"itineraryId,omitempty" json:"itineraryId,omitempty"`
	PromoID       string      `bson:"promoId,omitempty" json:"promoId,omitempty"`
	// display name of the booked catalog item
	Destination string `bson:"destination" json:"destination"`
	Location    string `bson:"location,omitempty" json:"location,omitempty"`

	TravelerForm `bson:",inline"`

	TotalPrice float64       `bson:"totalPrice" json:"totalPrice"`
	Status     BookingStatus `bson:"status" json:"status"`
	CreatedAt  time.Time     `bson:"createdAt" json:"createdAt"`

	ProofURL string     `bson:"proofUrl,omitempty" json:"proofUrl,omitempty"`
	PaidAt   *time.Time `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	PaidBy   *Payer     `bson:"paidBy,omitempty" json:"paidBy,omitempty"`
}

// Tagged stamps the booking with its kind after it is read from a collection.
func (b *Booking) Tagged(kind BookingKind) *Booking {
	b.Kind = kind
	b.Type = kind.Tag()
	return b
}

// ItemID returns the catalog reference for the booking's kind.
func (b *Booking) ItemID() string {
	switch b.Kind {
	case KindItinerary:
		return b.ItineraryID
	case KindPromo:
		return b.PromoID
	default:
		return b.DestinationID
	}
}

func (b *Booking) SetItemID(kind BookingKind, id string) {
	switch kind {
	case KindItinerary:
		b.ItineraryID = id
	case KindPromo:
		b.PromoID = id
	default:
		b.DestinationID = id
	}
}

// HasProof reports whether a payment proof was attached.
func (b *Booking) HasProof() bool {
	return b.ProofURL != ""
}

// PaymentProof is the field set written by the proof uploader.
type PaymentProof struct {
	ProofURL string        `bson:"proofUrl"`
	Status   BookingStatus `bson:"status"`
	PaidAt   time.Time     `bson:"paidAt"`
	PaidBy   Payer         `bson:"paidBy"`
}

// ClampTravelers applies the stepper floor: fewer than one traveler becomes one.
func ClampTravelers(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func TotalPrice(travelers int, unitPrice float64) float64 {
	return float64(ClampTravelers(travelers)) * unitPrice
}
