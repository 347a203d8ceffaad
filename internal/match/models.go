package match

import (
	"fmt"
	"time"
)

// Action is what is persisted on an interaction row. There is no "none" action;
// an absent row means the actor never acted on the target.
type Action string

const (
	ActionLike   Action = "like"
	ActionReject Action = "reject"
	ActionMatch  Action = "match"
)

// Interaction is one actor's disposition toward one target, keyed by the ordered pair.
type Interaction struct {
	ActorID   uint64    `gorm:"primaryKey;autoIncrement:false" json:"actor_id"`
	TargetID  uint64    `gorm:"primaryKey;autoIncrement:false;index" json:"target_id"`
	Action    Action    `gorm:"type:varchar(16);not null;index" json:"action"`
	IsMutual  bool      `gorm:"not null" json:"is_mutual"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Interaction) TableName() string { return "interactions" }

// State is the per-direction state, including the absent row.
type State int

const (
	StateNone State = iota
	StateLiked
	StateRejected
	StateMatched
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateLiked:
		return "liked"
	case StateRejected:
		return "rejected"
	case StateMatched:
		return "matched"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// StateOf maps a possibly absent row to its state.
func StateOf(row *Interaction) (State, error) {
	if row == nil {
		return StateNone, nil
	}
	switch row.Action {
	case ActionLike:
		return StateLiked, nil
	case ActionReject:
		return StateRejected, nil
	case ActionMatch:
		return StateMatched, nil
	}
	return StateNone, fmt.Errorf("interaction %d->%d: unknown action %q", row.ActorID, row.TargetID, row.Action)
}
