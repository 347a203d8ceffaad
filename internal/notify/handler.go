package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/suPer8Hu/dating-platform/internal/logger"
	"gorm.io/gorm"
)

var ErrBadEvent = errors.New("malformed notification event")

// Claimer marks an event as taken. Claim returns false if someone already holds key.
type Claimer interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Handler delivers events on the worker side.
type Handler struct {
	db     *gorm.DB
	claims Claimer
	ttl    time.Duration
	log    *logger.Logger
}

func NewHandler(db *gorm.DB, claims Claimer, ttl time.Duration, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{db: db, claims: claims, ttl: ttl, log: log.With("component", "NotifyHandler")}
}

// Handle records ev for its recipient once. Duplicates return nil.
func (h *Handler) Handle(ctx context.Context, ev Event) error {
	if ev.ID == "" || ev.Kind != KindBotMatch || ev.ActorID == 0 || ev.BotID == 0 || ev.ChatID == 0 || ev.Attempt < 0 {
		return ErrBadEvent
	}

	key := "notify:" + ev.ID
	ok, err := h.claims.Claim(ctx, key, h.ttl)
	if err != nil {
		return fmt.Errorf("claim %s: %w", key, err)
	}
	if !ok {
		h.log.Debug("duplicate notification skipped", "event_id", ev.ID)
		return nil
	}

	n := &Notification{
		EventID:     ev.ID,
		Kind:        ev.Kind,
		RecipientID: ev.ActorID,
		SenderID:    ev.BotID,
		ChatID:      ev.ChatID,
		CreatedAt:   ev.CreatedAt,
	}
	if err := h.db.WithContext(ctx).Create(n).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		if relErr := h.claims.Release(ctx, key); relErr != nil {
			h.log.Warn("release claim failed", "event_id", ev.ID, "error", relErr)
		}
		return fmt.Errorf("store notification: %w", err)
	}
	h.log.Info("match notification delivered", "event_id", ev.ID, "recipient_id", ev.ActorID, "bot_id", ev.BotID, "chat_id", ev.ChatID)
	return nil
}
