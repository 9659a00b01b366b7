package delivery

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"messenger-service/internal/mediastore"
	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
	"messenger-service/internal/telemetry"
)

var ErrEmptyMessage = errors.New("message has no content")

// Presence is the registry view the engine needs: a point-to-point,
// fire-and-forget push to a user's live connection.
type Presence interface {
	SendToUser(userID int64, event models.Event) bool
}

// Engine decides, per outgoing message, whether to push it live or
// leave it for the receiver's next pull. Persistence always happens
// before any push is attempted; the store is the durability source of
// truth, so a failed push is swallowed.
type Engine struct {
	users    repositories.UserRepository
	messages repositories.MessageRepository
	media    mediastore.Store
	presence Presence
	emitter  *telemetry.AuditEmitter
	log      *zap.Logger
}

// NewEngine constructs an Engine.
func NewEngine(users repositories.UserRepository, messages repositories.MessageRepository, media mediastore.Store, presence Presence, emitter *telemetry.AuditEmitter, log *zap.Logger) *Engine {
	return &Engine{
		users:    users,
		messages: messages,
		media:    media,
		presence: presence,
		emitter:  emitter,
		log:      log,
	}
}

// Send persists a message and pushes it to the receiver if online.
// A raw image payload is externalized through the media store first and
// only the resulting URL is stored.
func (e *Engine) Send(ctx context.Context, senderID, receiverID int64, text, image string) (models.Message, error) {
	if text == "" && image == "" {
		return models.Message{}, ErrEmptyMessage
	}

	if _, err := e.users.GetByID(ctx, receiverID); err != nil {
		return models.Message{}, err
	}

	imageURL := ""
	if image != "" {
		url, err := e.media.Upload(ctx, image)
		if err != nil {
			return models.Message{}, err
		}
		imageURL = url
	}

	msg, err := e.messages.Create(ctx, senderID, receiverID, text, imageURL)
	if err != nil {
		return models.Message{}, err
	}

	delivered := e.presence.SendToUser(receiverID, models.Event{Type: models.EventNewMessage, Message: &msg})
	e.log.Info("message sent",
		zap.Int64("message_id", msg.ID),
		zap.Int64("sender_id", senderID),
		zap.Int64("receiver_id", receiverID),
		zap.Bool("pushed", delivered),
	)
	e.emitter.Emit(ctx, "INFO", "message_sent", "", &senderID)
	return msg, nil
}

// MarkSeen flips the seen flag. Only the receiver may mark a message;
// a repeat call is a no-op success.
func (e *Engine) MarkSeen(ctx context.Context, messageID, callerID int64) error {
	if err := e.messages.MarkSeen(ctx, messageID, callerID); err != nil {
		return err
	}
	e.emitter.Emit(ctx, "INFO", "message_seen", "", &callerID)
	return nil
}

// Conversation returns all messages between the viewer and the other
// user in creation order, identically for either viewer.
func (e *Engine) Conversation(ctx context.Context, viewerID, otherID int64) ([]models.Message, error) {
	return e.messages.Conversation(ctx, viewerID, otherID)
}

// SidebarUsers returns every other user plus the per-sender count of
// messages the viewer has not seen yet.
func (e *Engine) SidebarUsers(ctx context.Context, viewerID int64) ([]models.User, map[int64]int, error) {
	users, err := e.users.ListOthers(ctx, viewerID)
	if err != nil {
		return nil, nil, err
	}
	counts, err := e.messages.UnseenCounts(ctx, viewerID)
	if err != nil {
		return nil, nil, err
	}
	return users, counts, nil
}
