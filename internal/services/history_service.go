package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/joshua-takyi/luwas/internal/metrics"
	"github.com/joshua-takyi/luwas/internal/models"
)

type HistoryService struct {
	bookings models.BookingRepo
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewHistoryService(bookings models.BookingRepo, m *metrics.Metrics, logger *slog.Logger) *HistoryService {
	return &HistoryService{
		bookings: bookings,
		metrics:  m,
		logger:   logger.With("component", "history_service"),
	}
}

type feedEvent struct {
	kind models.BookingKind
	snap models.Snapshot[*models.Booking]
}

// HistorySession owns one live feed per booking collection for a single
// viewer. Every push replaces that collection's partition of the merged list
// and a fresh view is emitted. Close releases all feeds.
type HistorySession struct {
	cancel  context.CancelFunc
	done    <-chan struct{}
	views   chan models.HistoryView
	filters chan models.HistoryFilter
	wg      sync.WaitGroup
	once    sync.Once

	mu  sync.Mutex
	err error
}

// Open subscribes to the three booking collections for uid. Views start
// flowing once every collection has delivered its first snapshot.
func (hs *HistoryService) Open(ctx context.Context, uid string, filter models.HistoryFilter) (*HistorySession, error) {
	if uid == "" {
		return nil, models.ForbiddenError{Msg: "sign in to see your bookings"}
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &HistorySession{
		cancel:  cancel,
		done:    ctx.Done(),
		views:   make(chan models.HistoryView),
		filters: make(chan models.HistoryFilter),
	}

	events := make(chan feedEvent)
	for _, kind := range models.BookingKinds {
		feed, err := hs.bookings.WatchBookings(ctx, kind, uid)
		if err != nil {
			cancel()
			s.wg.Wait()
			return nil, fmt.Errorf("failed to open %s feed: %w", kind, err)
		}
		s.wg.Add(1)
		go func(kind models.BookingKind) {
			defer s.wg.Done()
			for {
				select {
				case snap, ok := <-feed:
					if !ok {
						if ctx.Err() != nil {
							return
						}
						// the store ended the feed; the session ends with it
						snap = models.Snapshot[*models.Booking]{Err: models.UnavailableError{Op: fmt.Sprintf("watch %s bookings", kind)}}
						feed = nil
					}
					select {
					case events <- feedEvent{kind: kind, snap: snap}:
					case <-ctx.Done():
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}(kind)
	}

	if hs.metrics != nil {
		hs.metrics.LiveSubscriptions.WithLabelValues("history").Add(float64(len(models.BookingKinds)))
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(s.views)
		hs.merge(ctx, s, events, filter)
	}()

	// release everything when the caller's context ends too
	go func() {
		<-ctx.Done()
		s.Close()
		if hs.metrics != nil {
			hs.metrics.LiveSubscriptions.WithLabelValues("history").Sub(float64(len(models.BookingKinds)))
		}
	}()

	return s, nil
}

// merge owns the merged list. Only the latest view is kept pending, so a
// slow reader skips intermediate states instead of stalling the feeds.
func (hs *HistoryService) merge(ctx context.Context, s *HistorySession, events <-chan feedEvent, filter models.HistoryFilter) {
	var (
		merged  []*models.Booking
		pending models.HistoryView
		out     chan<- models.HistoryView
	)
	seen := map[models.BookingKind]bool{}

	for {
		select {
		case <-ctx.Done():
			return
		case out <- pending:
			out = nil
			continue
		case f := <-s.filters:
			filter = f
		case ev := <-events:
			if ev.snap.Err != nil {
				if ctx.Err() != nil {
					return
				}
				hs.logger.Warn("history feed failed", "kind", ev.kind, "error", ev.snap.Err)
				s.setErr(ev.snap.Err)
				s.cancel()
				return
			}
			merged = models.ReplacePartition(merged, ev.kind, ev.snap.Items)
			seen[ev.kind] = true
		}

		if len(seen) < len(models.BookingKinds) {
			continue
		}
		pending = models.HistoryView{
			Filter:   filter,
			Bookings: models.Bucket(merged, filter),
			Total:    len(merged),
		}
		out = s.views
	}
}

// Views is closed after Close or when any feed fails; see Err.
func (s *HistorySession) Views() <-chan models.HistoryView {
	return s.views
}

// SetFilter re-buckets the current merged list. It is a no-op after Close.
func (s *HistorySession) SetFilter(ctx context.Context, f models.HistoryFilter) {
	select {
	case s.filters <- f:
	case <-s.done:
	case <-ctx.Done():
	}
}

// Close cancels every feed and waits for the session's goroutines to exit.
// No view is delivered after Close returns.
func (s *HistorySession) Close() {
	s.once.Do(func() {
		s.cancel()
		s.wg.Wait()
	})
}

func (s *HistorySession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *HistorySession) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}
