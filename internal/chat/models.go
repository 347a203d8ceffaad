package chat

import "time"

type ParticipantStatus string

const (
	StatusActive ParticipantStatus = "active"
)

// Chat is the single conversation for an unordered user pair. Participant1ID and
// Participant2ID are canonically ordered (see Canonical).
type Chat struct {
	ID                 uint64            `gorm:"primaryKey;autoIncrement" json:"id"`
	Participant1ID     uint64            `gorm:"not null;uniqueIndex:uniq_chat_pair,priority:1" json:"participant_1_id"`
	Participant2ID     uint64            `gorm:"not null;uniqueIndex:uniq_chat_pair,priority:2;index" json:"participant_2_id"`
	Participant1Unread int               `gorm:"not null" json:"participant_1_unread"`
	Participant2Unread int               `gorm:"not null" json:"participant_2_unread"`
	Participant1Status ParticipantStatus `gorm:"type:varchar(16);not null" json:"participant_1_status"`
	Participant2Status ParticipantStatus `gorm:"type:varchar(16);not null" json:"participant_2_status"`
	LastMessageAt      *time.Time        `json:"last_message_at"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

func (Chat) TableName() string { return "chats" }

// Participant is one side of a chat request.
type Participant struct {
	ID    uint64
	IsBot bool
}

// Canonical orders a pair: a lone bot goes first, otherwise the smaller id goes first.
func Canonical(a, b Participant) (first, second Participant) {
	if a.IsBot != b.IsBot {
		if a.IsBot {
			return a, b
		}
		return b, a
	}
	if a.ID <= b.ID {
		return a, b
	}
	return b, a
}
