package handlers

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/joshua-takyi/luwas/internal/helpers"
	"github.com/joshua-takyi/luwas/internal/insights"
	"github.com/joshua-takyi/luwas/internal/models"
	"github.com/joshua-takyi/luwas/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore backs the catalog, booking and chat repositories in memory.
type memStore struct {
	mu           sync.Mutex
	destinations map[string]*models.Destination
	bookings     map[string]*models.Booking
	convs        map[string]*models.Conversation
	messages     []*models.Message
	catalogErr   error
}

func newMemStore() *memStore {
	return &memStore{
		destinations: map[string]*models.Destination{
			"dest-1": {ID: "dest-1", Name: "Siargao", Location: "Surigao del Norte", Price: 1000},
			"dest-2": {ID: "dest-2", Name: "Batanes", Location: "Batanes", Price: 4000},
		},
		bookings: map[string]*models.Booking{},
		convs:    map[string]*models.Conversation{},
	}
}

func (m *memStore) ListDestinations(ctx context.Context, limit int) ([]*models.Destination, error) {
	if m.catalogErr != nil {
		return nil, m.catalogErr
	}
	out := []*models.Destination{m.destinations["dest-1"], m.destinations["dest-2"]}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ListItineraries(ctx context.Context, limit int) ([]*models.Itinerary, error) {
	return []*models.Itinerary{}, m.catalogErr
}

func (m *memStore) ListPromos(ctx context.Context, limit int) ([]*models.Promo, error) {
	return []*models.Promo{}, m.catalogErr
}

func (m *memStore) GetBookable(ctx context.Context, kind models.BookingKind, id string) (models.Bookable, error) {
	if d, ok := m.destinations[id]; ok && kind == models.KindDestination {
		return d, nil
	}
	return nil, models.NotFoundError{Resource: string(kind)}
}

func (m *memStore) CreateBooking(ctx context.Context, b *models.Booking) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	m.bookings[b.ID] = &cp
	return b.Tagged(b.Kind), nil
}

func (m *memStore) GetBooking(ctx context.Context, kind models.BookingKind, id string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Kind != kind {
		return nil, models.NotFoundError{Resource: "booking"}
	}
	cp := *b
	return cp.Tagged(kind), nil
}

func (m *memStore) AttachPaymentProof(ctx context.Context, kind models.BookingKind, id string, proof models.PaymentProof) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, models.NotFoundError{Resource: "booking"}
	}
	paidAt, payer := proof.PaidAt, proof.PaidBy
	b.ProofURL, b.Status, b.PaidAt, b.PaidBy = proof.ProofURL, proof.Status, &paidAt, &payer
	cp := *b
	return cp.Tagged(kind), nil
}

func (m *memStore) ListBookingsByUser(ctx context.Context, kind models.BookingKind, userId string) ([]*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Booking
	for _, b := range m.bookings {
		if b.Kind == kind && b.UserID == userId {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

// WatchBookings emits the current list once and closes when ctx ends.
func (m *memStore) WatchBookings(ctx context.Context, kind models.BookingKind, userId string) (<-chan models.Snapshot[*models.Booking], error) {
	items, _ := m.ListBookingsByUser(ctx, kind, userId)
	ch := make(chan models.Snapshot[*models.Booking], 1)
	ch <- models.Snapshot[*models.Booking]{Items: items}
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (m *memStore) NextTrip(ctx context.Context, userId string) (*models.Booking, error) {
	return nil, models.NotFoundError{Resource: "trip"}
}

func (m *memStore) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[id]
	if !ok {
		return nil, models.NotFoundError{Resource: "conversation"}
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) MergeConversation(ctx context.Context, id string, fields, onInsert map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[id]
	if !ok {
		c = &models.Conversation{ID: id}
		m.convs[id] = c
		applyConversation(c, onInsert)
	}
	applyConversation(c, fields)
	return nil
}

func applyConversation(c *models.Conversation, fields map[string]interface{}) {
	if v, ok := fields["userId"].(string); ok {
		c.UserID = v
	}
	if v, ok := fields["guest"].(bool); ok {
		c.Guest = v
	}
	if v, ok := fields["lastMessage"].(string); ok {
		c.LastMessage = v
	}
}

func (m *memStore) AppendMessage(ctx context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *memStore) ListMessages(ctx context.Context, conversationId string) ([]*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Message
	for _, msg := range m.messages {
		if msg.ConversationID == conversationId {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memStore) WatchMessages(ctx context.Context, conversationId string) (<-chan models.Snapshot[*models.Message], error) {
	items, _ := m.ListMessages(ctx, conversationId)
	ch := make(chan models.Snapshot[*models.Message], 1)
	ch <- models.Snapshot[*models.Message]{Items: items}
	close(ch)
	return ch, nil
}

type memBlobs struct{}

func (memBlobs) Upload(ctx context.Context, objectPath string, r io.Reader) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	return "https://blobs.test/" + objectPath, nil
}

func (memBlobs) Delete(ctx context.Context, objectPath string) error { return nil }

type memAuth struct {
	signUps int
}

func (a *memAuth) SignUp(ctx context.Context, email, password string) (*models.AuthSession, error) {
	a.signUps++
	return &models.AuthSession{UserID: "uid-1", Email: email, AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 3600}, nil
}

func (a *memAuth) SignIn(ctx context.Context, email, password string) (*models.AuthSession, error) {
	return &models.AuthSession{UserID: "uid-1", Email: email, AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 3600}, nil
}

func (a *memAuth) RefreshToken(ctx context.Context, token string) (*models.AuthSession, error) {
	if token != "refresh" {
		return nil, models.ForbiddenError{Msg: "invalid refresh token"}
	}
	return &models.AuthSession{UserID: "uid-1", AccessToken: "access-2", RefreshToken: "refresh-2", ExpiresIn: 3600}, nil
}

func (a *memAuth) AuthorizeSocial(ctx context.Context, provider models.SocialProvider) (*models.SocialAuthorization, error) {
	return &models.SocialAuthorization{URL: "https://auth.test/authorize?provider=" + string(provider), Verifier: "verifier-1"}, nil
}

func (a *memAuth) ExchangeCode(ctx context.Context, code, verifier string) (*models.AuthSession, error) {
	return &models.AuthSession{UserID: "uid-2", Email: "social@example.com", AccessToken: "access", ExpiresIn: 3600}, nil
}

func (a *memAuth) RecoverPassword(ctx context.Context, email string) error { return nil }

type memProfiles struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func (p *memProfiles) GetProfile(ctx context.Context, uid string) (*models.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.users[uid]
	if !ok {
		return nil, models.NotFoundError{Resource: "profile"}
	}
	cp := *u
	return &cp, nil
}

func (p *memProfiles) MergeProfile(ctx context.Context, uid string, fields, onInsert map[string]interface{}) (*models.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.users[uid]
	if !ok {
		u = &models.User{ID: uid, UID: uid, Role: models.RoleTraveler}
		p.users[uid] = u
	}
	if v, ok := fields["email"].(string); ok {
		u.Email = v
	}
	if v, ok := fields["fullName"].(string); ok {
		u.FullName = v
	}
	if v, ok := fields["avatarUrl"].(string); ok {
		u.AvatarURL = v
	}
	cp := *u
	return &cp, nil
}

func (p *memProfiles) WatchProfile(ctx context.Context, uid string) (<-chan models.Snapshot[*models.User], error) {
	ch := make(chan models.Snapshot[*models.User], 1)
	u, err := p.GetProfile(ctx, uid)
	if err == nil {
		ch <- models.Snapshot[*models.User]{Items: []*models.User{u}}
	}
	close(ch)
	return ch, nil
}

type nopEnricher struct{}

func (nopEnricher) Reviews(ctx context.Context, name, location string) (*insights.ReviewSummary, error) {
	return &insights.ReviewSummary{}, nil
}

func (nopEnricher) Nearby(ctx context.Context, lat, lon float64) ([]insights.Place, error) {
	return nil, nil
}

func (nopEnricher) Weather(ctx context.Context, title, location string) (*insights.WeatherInsight, error) {
	return nil, nil
}

func (nopEnricher) Current(ctx context.Context, lat, lon float64) (*insights.CurrentWeather, error) {
	return &insights.CurrentWeather{TemperatureC: 29, Condition: "Clear", City: "Manila"}, nil
}

type testServices struct {
	store    *memStore
	auth     *memAuth
	profiles *memProfiles
	booking  *services.BookingService
	catalog  *services.CatalogService
	history  *services.HistoryService
	chat     *services.ChatService
	user     *services.UserService
}

func newTestServices() *testServices {
	store := newMemStore()
	auth := &memAuth{}
	profiles := &memProfiles{users: map[string]*models.User{}}
	logger := testLogger()
	return &testServices{
		store:    store,
		auth:     auth,
		profiles: profiles,
		booking:  services.NewBookingService(store, store, memBlobs{}, nil, nil, logger, services.BookingOptions{}),
		catalog:  services.NewCatalogService(store, store, nopEnricher{}, nil, logger),
		history:  services.NewHistoryService(store, nil, logger),
		chat:     services.NewChatService(store, nil, nil, logger),
		user:     services.NewUserService(auth, profiles, memBlobs{}, logger),
	}
}

var juan = helpers.Identity{UID: "user-1", Email: "juan@example.com", DisplayName: "Juan", Role: models.RoleTraveler}
