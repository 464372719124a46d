package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/luwas/internal/helpers"
	"github.com/joshua-takyi/luwas/internal/metrics"
	"github.com/joshua-takyi/luwas/internal/models"
	"github.com/joshua-takyi/luwas/internal/notify"
	"github.com/joshua-takyi/luwas/internal/receipt"
	"github.com/joshua-takyi/luwas/internal/storage"
)

const notifyTimeout = 5 * time.Second

type BookingOptions struct {
	// CompensateOnFailure deletes the uploaded proof when the booking update fails.
	CompensateOnFailure bool
}

type BookingService struct {
	catalog  models.CatalogRepo
	bookings models.BookingRepo
	blobs    storage.BlobStore
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	opts     BookingOptions
	now      func() time.Time
}

func NewBookingService(catalog models.CatalogRepo, bookings models.BookingRepo, blobs storage.BlobStore, notifier notify.Notifier, m *metrics.Metrics, logger *slog.Logger, opts BookingOptions) *BookingService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &BookingService{
		catalog:  catalog,
		bookings: bookings,
		blobs:    blobs,
		notifier: notifier,
		metrics:  m,
		logger:   logger.With("component", "booking_service"),
		opts:     opts,
		now:      time.Now,
	}
}

func validateForm(form *models.TravelerForm) error {
	form.FullName = strings.TrimSpace(form.FullName)
	form.Email = strings.TrimSpace(form.Email)
	form.Phone = strings.TrimSpace(form.Phone)
	form.LocalAddress = strings.TrimSpace(form.LocalAddress)
	form.SpecialRequests = strings.TrimSpace(form.SpecialRequests)

	if err := models.Validate.Struct(form); err != nil {
		return models.ValidationError{Field: "form", Msg: "please fill in all required traveler details", Err: err}
	}
	if form.ReturnDate < form.DepartureDate {
		return models.ValidationError{Field: "returnDate", Msg: "return date is before departure date"}
	}
	form.Travelers = models.ClampTravelers(form.Travelers)
	return nil
}

// Create writes one pending_payment booking priced at travelers x unit price.
// The catalog item is read first; a missing item aborts before any write.
func (bs *BookingService) Create(ctx context.Context, id helpers.Identity, kind models.BookingKind, itemID string, form models.TravelerForm) (*models.Booking, error) {
	if err := validateForm(&form); err != nil {
		return nil, err
	}

	item, err := bs.catalog.GetBookable(ctx, kind, itemID)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		ID:           uuid.NewString(),
		Kind:         kind,
		Destination:  item.DisplayName(),
		Location:     item.PlaceLabel(),
		TravelerForm: form,
		TotalPrice:   models.TotalPrice(form.Travelers, item.UnitPrice()),
		Status:       models.StatusPendingPayment,
		CreatedAt:    bs.now().UTC(),
	}
	if !id.Anonymous {
		booking.UserID = id.UID
	}
	booking.SetItemID(kind, item.GetID())

	created, err := bs.bookings.CreateBooking(ctx, booking)
	if err != nil {
		bs.countError()
		return nil, err
	}
	if bs.metrics != nil {
		bs.metrics.BookingsCreated.WithLabelValues(string(kind)).Inc()
	}
	bs.logger.Info("booking created", "kind", kind, "booking_id", created.ID, "total", created.TotalPrice)
	return created, nil
}

// Get hides bookings owned by someone else behind a not-found.
func (bs *BookingService) Get(ctx context.Context, id helpers.Identity, kind models.BookingKind, bookingID string) (*models.Booking, error) {
	b, err := bs.bookings.GetBooking(ctx, kind, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != "" && !id.IsOwner(b.UserID) && id.Role != "admin" {
		return nil, models.NotFoundError{Resource: "booking"}
	}
	return b, nil
}

func ProofPath(kind models.BookingKind, bookingID string, at time.Time) string {
	return fmt.Sprintf("%s/%s/%d.jpg", kind.ProofFolder(), bookingID, at.UnixMilli())
}

// UploadProof stores the image and then moves the booking to awaiting_approval.
// The two steps are not atomic: when the update fails the blob stays behind
// unless compensation is enabled.
func (bs *BookingService) UploadProof(ctx context.Context, id helpers.Identity, kind models.BookingKind, bookingID string, image io.Reader) (*models.Booking, error) {
	booking, err := bs.Get(ctx, id, kind, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.Status.AcceptsProof() {
		return nil, models.ConflictError{
			Resource: "booking",
			Msg:      fmt.Sprintf("status %q no longer accepts a payment proof", booking.Status),
		}
	}

	now := bs.now().UTC()
	path := ProofPath(kind, bookingID, now)
	url, err := bs.blobs.Upload(ctx, path, image)
	if err != nil {
		bs.proofOutcome(kind, "upload_failed")
		return nil, models.UnavailableError{Op: "upload payment proof", Err: err}
	}

	updated, err := bs.bookings.AttachPaymentProof(ctx, kind, bookingID, models.PaymentProof{
		ProofURL: url,
		Status:   models.StatusAwaitingApproval,
		PaidAt:   now,
		PaidBy:   id.Payer(),
	})
	if err != nil {
		bs.proofOutcome(kind, "update_failed")
		bs.handleOrphan(path, err)
		if models.IsConflict(err) || models.IsNotFound(err) {
			return nil, err
		}
		return nil, models.UnavailableError{Op: "update booking", Err: err}
	}

	bs.proofOutcome(kind, "ok")
	bs.logger.Info("payment proof attached", "kind", kind, "booking_id", bookingID, "path", path)
	bs.notifyProof(ctx, updated)
	return updated, nil
}

func (bs *BookingService) handleOrphan(path string, cause error) {
	if !bs.opts.CompensateOnFailure {
		if bs.metrics != nil {
			bs.metrics.OrphanedProofs.Inc()
		}
		bs.logger.Warn("payment proof blob orphaned", "path", path, "error", cause)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if err := bs.blobs.Delete(ctx, path); err != nil {
		if bs.metrics != nil {
			bs.metrics.OrphanedProofs.Inc()
		}
		bs.logger.Warn("compensating delete failed, proof blob orphaned", "path", path, "error", err)
		return
	}
	bs.logger.Info("proof blob removed after failed update", "path", path)
}

func (bs *BookingService) notifyProof(ctx context.Context, b *models.Booking) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	payer := "Guest"
	if b.PaidBy != nil {
		payer = b.PaidBy.Name
	}
	text := fmt.Sprintf("New payment proof\n%s booking %s\n%s, PHP %.2f\nfrom %s\n%s",
		b.Kind.Tag(), b.ID, b.Destination, b.TotalPrice, payer, b.ProofURL)
	if err := bs.notifier.Notify(ctx, text); err != nil {
		bs.logger.Warn("admin notification failed", "booking_id", b.ID, "error", err)
	}
}

func (bs *BookingService) Receipt(ctx context.Context, id helpers.Identity, kind models.BookingKind, bookingID string) ([]byte, error) {
	b, err := bs.Get(ctx, id, kind, bookingID)
	if err != nil {
		return nil, err
	}
	return receipt.Render(b, bs.now())
}

func (bs *BookingService) proofOutcome(kind models.BookingKind, outcome string) {
	if bs.metrics != nil {
		bs.metrics.ProofUploads.WithLabelValues(string(kind), outcome).Inc()
	}
}

func (bs *BookingService) countError() {
	if bs.metrics != nil {
		bs.metrics.Errors.WithLabelValues("booking").Inc()
	}
}
