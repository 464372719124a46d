package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/joshua-takyi/luwas/internal/insights"
	"github.com/joshua-takyi/luwas/internal/models"
)

var errTest = errors.New("backend offline")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeCatalog struct {
	destinations []*models.Destination
	itineraries  []*models.Itinerary
	promos       []*models.Promo
	err          error
}

func limitSlice[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func (f *fakeCatalog) ListDestinations(ctx context.Context, limit int) ([]*models.Destination, error) {
	return limitSlice(f.destinations, limit), f.err
}

func (f *fakeCatalog) ListItineraries(ctx context.Context, limit int) ([]*models.Itinerary, error) {
	return limitSlice(f.itineraries, limit), f.err
}

func (f *fakeCatalog) ListPromos(ctx context.Context, limit int) ([]*models.Promo, error) {
	return limitSlice(f.promos, limit), f.err
}

func (f *fakeCatalog) GetBookable(ctx context.Context, kind models.BookingKind, id string) (models.Bookable, error) {
	if f.err != nil {
		return nil, f.err
	}
	switch kind {
	case models.KindDestination:
		for _, d := range f.destinations {
			if d.ID == id {
				return d, nil
			}
		}
	case models.KindItinerary:
		for _, it := range f.itineraries {
			if it.ID == id {
				return it, nil
			}
		}
	case models.KindPromo:
		for _, p := range f.promos {
			if p.ID == id {
				return p, nil
			}
		}
	}
	return nil, models.NotFoundError{Resource: string(kind)}
}

type fakeBookings struct {
	mu        sync.Mutex
	store     map[string]*models.Booking
	attachErr error
	creates   int

	watchMu sync.Mutex
	feeds   map[models.BookingKind]chan models.Snapshot[*models.Booking]
	watchFn func(kind models.BookingKind) error
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{
		store: map[string]*models.Booking{},
		feeds: map[models.BookingKind]chan models.Snapshot[*models.Booking]{},
	}
}

func bookingKey(kind models.BookingKind, id string) string {
	return string(kind) + "/" + id
}

func (f *fakeBookings) CreateBooking(ctx context.Context, b *models.Booking) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := bookingKey(b.Kind, b.ID)
	if _, ok := f.store[key]; ok {
		return nil, models.ConflictError{Resource: "booking"}
	}
	cp := *b
	f.store[key] = &cp
	f.creates++
	return b.Tagged(b.Kind), nil
}

func (f *fakeBookings) put(b *models.Booking) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *b
	f.store[bookingKey(b.Kind, b.ID)] = &cp
}

func (f *fakeBookings) GetBooking(ctx context.Context, kind models.BookingKind, id string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.store[bookingKey(kind, id)]
	if !ok {
		return nil, models.NotFoundError{Resource: "booking"}
	}
	cp := *b
	return cp.Tagged(kind), nil
}

func (f *fakeBookings) AttachPaymentProof(ctx context.Context, kind models.BookingKind, id string, proof models.PaymentProof) (*models.Booking, error) {
	if f.attachErr != nil {
		return nil, f.attachErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.store[bookingKey(kind, id)]
	if !ok {
		return nil, models.NotFoundError{Resource: "booking"}
	}
	if !b.Status.AcceptsProof() {
		return nil, models.ConflictError{Resource: "booking"}
	}
	paidAt, payer := proof.PaidAt, proof.PaidBy
	b.ProofURL = proof.ProofURL
	b.Status = proof.Status
	b.PaidAt = &paidAt
	b.PaidBy = &payer
	cp := *b
	return cp.Tagged(kind), nil
}

func (f *fakeBookings) ListBookingsByUser(ctx context.Context, kind models.BookingKind, userId string) ([]*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Booking
	for _, b := range f.store {
		if b.Kind == kind && b.UserID == userId {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// WatchBookings hands out a channel the test pushes snapshots into.
func (f *fakeBookings) WatchBookings(ctx context.Context, kind models.BookingKind, userId string) (<-chan models.Snapshot[*models.Booking], error) {
	if f.watchFn != nil {
		if err := f.watchFn(kind); err != nil {
			return nil, err
		}
	}
	ch := make(chan models.Snapshot[*models.Booking], 8)
	f.watchMu.Lock()
	f.feeds[kind] = ch
	f.watchMu.Unlock()
	return ch, nil
}

func (f *fakeBookings) push(kind models.BookingKind, items ...*models.Booking) {
	f.watchMu.Lock()
	ch := f.feeds[kind]
	f.watchMu.Unlock()
	ch <- models.Snapshot[*models.Booking]{Items: items}
}

func (f *fakeBookings) fail(kind models.BookingKind, err error) {
	f.watchMu.Lock()
	ch := f.feeds[kind]
	f.watchMu.Unlock()
	ch <- models.Snapshot[*models.Booking]{Err: err}
}

// closeFeed ends a feed the way a change stream does after an invalidate.
func (f *fakeBookings) closeFeed(kind models.BookingKind) {
	f.watchMu.Lock()
	ch := f.feeds[kind]
	f.watchMu.Unlock()
	close(ch)
}

func (f *fakeBookings) NextTrip(ctx context.Context, userId string) (*models.Booking, error) {
	items, _ := f.ListBookingsByUser(ctx, models.KindDestination, userId)
	if len(items) == 0 {
		return nil, models.NotFoundError{Resource: "trip"}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].DepartureDate < items[j].DepartureDate })
	return items[0], nil
}

type fakeBlobs struct {
	mu        sync.Mutex
	uploaded  []string
	deleted   []string
	uploadErr error
	deleteErr error
}

func (f *fakeBlobs) Upload(ctx context.Context, objectPath string, r io.Reader) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded = append(f.uploaded, objectPath)
	return "https://blobs.test/" + objectPath, nil
}

func (f *fakeBlobs) Delete(ctx context.Context, objectPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, objectPath)
	return f.deleteErr
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (f *fakeNotifier) Notify(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
	return f.err
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

type fakeAuth struct {
	signUps   int
	signUpErr error
	signInErr error
	session   *models.AuthSession
	recovered []string
}

func (f *fakeAuth) SignUp(ctx context.Context, email, password string) (*models.AuthSession, error) {
	f.signUps++
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return &models.AuthSession{UserID: "uid-1", Email: email, AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 3600}, nil
}

func (f *fakeAuth) SignIn(ctx context.Context, email, password string) (*models.AuthSession, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	if f.session != nil {
		return f.session, nil
	}
	return &models.AuthSession{UserID: "uid-1", Email: email, AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 3600}, nil
}

func (f *fakeAuth) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthSession, error) {
	return &models.AuthSession{UserID: "uid-1", AccessToken: "access-2", RefreshToken: "refresh-2", ExpiresIn: 3600}, nil
}

func (f *fakeAuth) AuthorizeSocial(ctx context.Context, provider models.SocialProvider) (*models.SocialAuthorization, error) {
	return &models.SocialAuthorization{URL: "https://auth.test/" + string(provider), Verifier: "verifier"}, nil
}

func (f *fakeAuth) ExchangeCode(ctx context.Context, code, verifier string) (*models.AuthSession, error) {
	return &models.AuthSession{UserID: "uid-social", Email: "social@example.com", AccessToken: "access", ExpiresIn: 3600}, nil
}

func (f *fakeAuth) RecoverPassword(ctx context.Context, email string) error {
	f.recovered = append(f.recovered, email)
	return nil
}

type fakeProfiles struct {
	mu      sync.Mutex
	users   map[string]*models.User
	getErr  error
	merges  []map[string]interface{}
	inserts []map[string]interface{}
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{users: map[string]*models.User{}}
}

func (f *fakeProfiles) GetProfile(ctx context.Context, uid string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[uid]
	if !ok {
		return nil, models.NotFoundError{Resource: "profile"}
	}
	cp := *u
	return &cp, nil
}

// MergeProfile mimics $set / $setOnInsert on a handful of known fields.
func (f *fakeProfiles) MergeProfile(ctx context.Context, uid string, fields, onInsert map[string]interface{}) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.merges = append(f.merges, fields)
	u, ok := f.users[uid]
	if !ok {
		u = &models.User{ID: uid, UID: uid}
		f.users[uid] = u
		f.inserts = append(f.inserts, onInsert)
		apply(u, onInsert)
	}
	apply(u, fields)
	cp := *u
	return &cp, nil
}

func apply(u *models.User, fields map[string]interface{}) {
	for k, v := range fields {
		switch k {
		case "email":
			u.Email = v.(string)
		case "fullName":
			u.FullName = v.(string)
		case "role":
			u.Role = v.(string)
		case "avatarUrl":
			u.AvatarURL = v.(string)
		case "phoneNumber":
			u.PhoneNumber = v.(string)
		case "age":
			age := v.(int)
			u.Age = &age
		}
	}
}

func (f *fakeProfiles) WatchProfile(ctx context.Context, uid string) (<-chan models.Snapshot[*models.User], error) {
	ch := make(chan models.Snapshot[*models.User], 1)
	u, err := f.GetProfile(ctx, uid)
	if err != nil {
		ch <- models.Snapshot[*models.User]{}
	} else {
		ch <- models.Snapshot[*models.User]{Items: []*models.User{u}}
	}
	return ch, nil
}

type fakeChat struct {
	mu       sync.Mutex
	convs    map[string]*models.Conversation
	messages []*models.Message
	mergeErr error
}

func newFakeChat() *fakeChat {
	return &fakeChat{convs: map[string]*models.Conversation{}}
}

func (f *fakeChat) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.convs[id]
	if !ok {
		return nil, models.NotFoundError{Resource: "conversation"}
	}
	cp := *c
	return &cp, nil
}

func (f *fakeChat) MergeConversation(ctx context.Context, id string, fields, onInsert map[string]interface{}) error {
	if f.mergeErr != nil {
		return f.mergeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.convs[id]
	if !ok {
		c = &models.Conversation{ID: id}
		f.convs[id] = c
		applyConversation(c, onInsert)
	}
	applyConversation(c, fields)
	c.UpdatedAt = time.Now()
	return nil
}

func applyConversation(c *models.Conversation, fields map[string]interface{}) {
	for k, v := range fields {
		switch k {
		case "userId":
			c.UserID = v.(string)
		case "userName":
			c.UserName = v.(string)
		case "guest":
			c.Guest = v.(bool)
		case "lastMessage":
			c.LastMessage = v.(string)
		case "lastMessageSender":
			c.LastMessageSender = v.(string)
		}
	}
}

func (f *fakeChat) AppendMessage(ctx context.Context, msg *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeChat) ListMessages(ctx context.Context, conversationId string) ([]*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Message
	for _, m := range f.messages {
		if m.ConversationID == conversationId {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeChat) WatchMessages(ctx context.Context, conversationId string) (<-chan models.Snapshot[*models.Message], error) {
	items, _ := f.ListMessages(ctx, conversationId)
	ch := make(chan models.Snapshot[*models.Message], 1)
	ch <- models.Snapshot[*models.Message]{Items: items}
	return ch, nil
}

type fakeEnricher struct {
	reviews    *insights.ReviewSummary
	nearby     []insights.Place
	weather    *insights.WeatherInsight
	current    *insights.CurrentWeather
	weatherErr error
	reviewErr  error
	nearbyCall int
	mu         sync.Mutex
}

func (f *fakeEnricher) Reviews(ctx context.Context, name, location string) (*insights.ReviewSummary, error) {
	return f.reviews, f.reviewErr
}

func (f *fakeEnricher) Nearby(ctx context.Context, lat, lon float64) ([]insights.Place, error) {
	f.mu.Lock()
	f.nearbyCall++
	f.mu.Unlock()
	return f.nearby, nil
}

// Weather blocks until ctx ends when weatherErr is context.DeadlineExceeded.
func (f *fakeEnricher) Weather(ctx context.Context, title, location string) (*insights.WeatherInsight, error) {
	if errors.Is(f.weatherErr, context.DeadlineExceeded) {
		tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		<-tctx.Done()
		return nil, fmt.Errorf("weather: %w", tctx.Err())
	}
	return f.weather, f.weatherErr
}

func (f *fakeEnricher) Current(ctx context.Context, lat, lon float64) (*insights.CurrentWeather, error) {
	if f.current == nil {
		return nil, errors.New("no weather")
	}
	return f.current, nil
}
