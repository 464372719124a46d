package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/joshua-takyi/luwas/internal/helpers"
	"github.com/joshua-takyi/luwas/internal/metrics"
	"github.com/joshua-takyi/luwas/internal/models"
	"github.com/joshua-takyi/luwas/internal/notify"
)

const MaxMessageLength = 2000

type ChatService struct {
	repo     models.ChatRepo
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

func NewChatService(repo models.ChatRepo, notifier notify.Notifier, m *metrics.Metrics, logger *slog.Logger) *ChatService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &ChatService{
		repo:     repo,
		notifier: notifier,
		metrics:  m,
		logger:   logger.With("component", "chat_service"),
		now:      time.Now,
	}
}

// Open upserts the caller's conversation. Signed-in users always get the
// conversation keyed by their uid; guests reuse guestID or get a new one.
// A guest id never opens a member's thread.
func (cs *ChatService) Open(ctx context.Context, id helpers.Identity, guestID string) (*models.Conversation, error) {
	if id.Anonymous {
		return cs.openGuest(ctx, guestID)
	}

	userName := id.DisplayName
	if strings.TrimSpace(userName) == "" {
		userName = models.DefaultDisplayName
	}
	fields := map[string]interface{}{
		"userId":   id.UID,
		"userName": userName,
		"guest":    false,
	}
	onInsert := map[string]interface{}{
		"lastMessage": models.ConversationStarted,
	}
	if err := cs.repo.MergeConversation(ctx, id.UID, fields, onInsert); err != nil {
		return nil, err
	}
	return cs.repo.GetConversation(ctx, id.UID)
}

// openGuest only ever inserts: an existing guest thread is returned as is.
func (cs *ChatService) openGuest(ctx context.Context, guestID string) (*models.Conversation, error) {
	guestID = strings.TrimSpace(guestID)
	if guestID == "" {
		guestID = uuid.NewString()
	} else if _, err := uuid.Parse(guestID); err != nil {
		return nil, models.ValidationError{Field: "guestId", Msg: "guest id must be a UUID", Err: err}
	}

	existing, err := cs.repo.GetConversation(ctx, guestID)
	switch {
	case err == nil && !existing.Guest:
		return nil, models.ForbiddenError{Msg: "sign in to access this conversation"}
	case err == nil:
		return existing, nil
	case !models.IsNotFound(err):
		return nil, err
	}

	onInsert := map[string]interface{}{
		"userId":      guestID,
		"userName":    models.DefaultDisplayName,
		"guest":       true,
		"lastMessage": models.ConversationStarted,
	}
	if err := cs.repo.MergeConversation(ctx, guestID, nil, onInsert); err != nil {
		return nil, err
	}
	conv, err := cs.repo.GetConversation(ctx, guestID)
	if err != nil {
		return nil, err
	}
	// lost an insert race against a member's thread
	if !conv.Guest {
		return nil, models.ForbiddenError{Msg: "sign in to access this conversation"}
	}
	return conv, nil
}

// authorize lets admins into any thread, users into their own, and guests
// into guest threads only.
func (cs *ChatService) authorize(ctx context.Context, id helpers.Identity, convID string) error {
	if strings.TrimSpace(convID) == "" {
		return models.ValidationError{Field: "conversationId", Msg: "conversation id is required"}
	}
	if id.Role == "admin" && !id.Anonymous {
		return nil
	}
	if !id.Anonymous {
		if convID != id.UID {
			return models.ForbiddenError{Msg: "you can only access your own conversation"}
		}
		return nil
	}
	conv, err := cs.repo.GetConversation(ctx, convID)
	if err != nil {
		return err
	}
	if !conv.Guest {
		return models.ForbiddenError{Msg: "sign in to access this conversation"}
	}
	return nil
}

func (cs *ChatService) Send(ctx context.Context, id helpers.Identity, convID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.ValidationError{Field: "text", Msg: "message is empty"}
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return nil, models.ValidationError{Field: "text", Msg: fmt.Sprintf("message is longer than %d characters", MaxMessageLength)}
	}
	if err := cs.authorize(ctx, id, convID); err != nil {
		return nil, err
	}

	sender := models.SenderUser
	if id.Role == "admin" && !id.Anonymous && convID != id.UID {
		sender = models.SenderAdmin
	}

	msg := &models.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: convID,
		Text:           text,
		Sender:         sender,
		CreatedAt:      cs.now().UTC(),
	}
	if err := models.Validate.Struct(msg); err != nil {
		return nil, models.ValidationError{Field: "text", Msg: "invalid message", Err: err}
	}
	if err := cs.repo.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}
	if cs.metrics != nil {
		cs.metrics.ChatMessages.WithLabelValues(sender).Inc()
	}

	// the message is stored; a stale preview is tolerated
	if err := cs.repo.MergeConversation(ctx, convID, map[string]interface{}{
		"lastMessage":       text,
		"lastMessageSender": sender,
	}, nil); err != nil {
		cs.logger.Warn("conversation preview update failed", "conversation_id", convID, "error", err)
	}

	if sender == models.SenderUser {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if err := cs.notifier.Notify(nctx, fmt.Sprintf("New chat message from %s (%s)\n%s", id.PayerName(), convID, text)); err != nil {
			cs.logger.Warn("admin notification failed", "conversation_id", convID, "error", err)
		}
	}
	return msg, nil
}

func (cs *ChatService) Messages(ctx context.Context, id helpers.Identity, convID string) ([]*models.Message, error) {
	if err := cs.authorize(ctx, id, convID); err != nil {
		return nil, err
	}
	return cs.repo.ListMessages(ctx, convID)
}

// Watch streams the ordered thread until ctx ends.
func (cs *ChatService) Watch(ctx context.Context, id helpers.Identity, convID string) (<-chan models.Snapshot[*models.Message], error) {
	if err := cs.authorize(ctx, id, convID); err != nil {
		return nil, err
	}
	return cs.repo.WatchMessages(ctx, convID)
}
