package notify

import (
	"context"
	"time"

	"github.com/suPer8Hu/dating-platform/internal/common"
)

const KindBotMatch = "match.bot"

// Event is the message published for every new bot match.
type Event struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	ActorID   uint64    `json:"actor_id"`
	BotID     uint64    `json:"bot_id"`
	ChatID    uint64    `json:"chat_id"`
	CreatedAt time.Time `json:"created_at"`
	// Attempt counts worker redeliveries through the retry queue.
	Attempt int `json:"attempt,omitempty"`
}

// Notification is a delivered in-app notification. EventID makes redelivery harmless.
type Notification struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID     string    `gorm:"type:varchar(26);uniqueIndex;not null" json:"-"`
	Kind        string    `gorm:"type:varchar(32);index;not null" json:"kind"`
	RecipientID uint64    `gorm:"index;not null" json:"recipient_id"`
	SenderID    uint64    `gorm:"not null" json:"sender_id"`
	ChatID      uint64    `gorm:"not null" json:"chat_id"`
	IsRead      bool      `gorm:"not null;index" json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

type Publisher interface {
	Publish(ctx context.Context, v any) error
}

// Dispatcher turns match callbacks into queued events.
type Dispatcher struct {
	pub Publisher
	now func() time.Time
}

func NewDispatcher(pub Publisher) *Dispatcher {
	return &Dispatcher{pub: pub, now: time.Now}
}

func (d *Dispatcher) NotifyMatch(ctx context.Context, actorID, botID, chatID uint64) error {
	id, err := common.NewULID()
	if err != nil {
		return err
	}
	return d.pub.Publish(ctx, Event{
		ID:        id,
		Kind:      KindBotMatch,
		ActorID:   actorID,
		BotID:     botID,
		ChatID:    chatID,
		CreatedAt: d.now().UTC(),
	})
}
