package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists interaction rows. It holds no business rules.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx}
}

// Get returns the row for actor->target, or nil when none exists.
func (s *Store) Get(ctx context.Context, actorID, targetID uint64) (*Interaction, error) {
	return s.get(ctx, actorID, targetID, false)
}

// LockPair locks both directed rows of the pair and returns them as seen from actor.
// Rows are always locked in ascending (actor_id, target_id) order, whichever side is
// acting, so two callers on the same pair never wait on each other in a cycle.
func (s *Store) LockPair(ctx context.Context, actorID, targetID uint64) (forward, reverse *Interaction, err error) {
	lo, hi := actorID, targetID
	if lo > hi {
		lo, hi = hi, lo
	}
	first, err := s.get(ctx, lo, hi, true)
	if err != nil {
		return nil, nil, err
	}
	second, err := s.get(ctx, hi, lo, true)
	if err != nil {
		return nil, nil, err
	}
	if actorID == lo {
		return first, second, nil
	}
	return second, first, nil
}

// Upsert writes the row for actor->target, creating it on first contact.
func (s *Store) Upsert(ctx context.Context, actorID, targetID uint64, action Action, mutual bool) error {
	now := time.Now()
	row := &Interaction{
		ActorID:   actorID,
		TargetID:  targetID,
		Action:    action,
		IsMutual:  mutual,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "actor_id"}, {Name: "target_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"action", "is_mutual", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("upsert interaction %d->%d: %w", actorID, targetID, err)
	}
	return nil
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// PageLimit applies the default for n <= 0 and caps n at MaxPageSize.
func PageLimit(n int) int {
	if n <= 0 {
		return DefaultPageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

// ListMatches returns actor's match rows by target id descending. beforeTarget pages by target id
// when non-zero.
func (s *Store) ListMatches(ctx context.Context, actorID uint64, limit int, beforeTarget uint64) ([]Interaction, error) {
	limit = PageLimit(limit)
	q := s.db.WithContext(ctx).
		Where("actor_id = ? AND action = ?", actorID, ActionMatch).
		Order("target_id DESC").
		Limit(limit)
	if beforeTarget > 0 {
		q = q.Where("target_id < ?", beforeTarget)
	}
	var out []Interaction
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) get(ctx context.Context, actorID, targetID uint64, lock bool) (*Interaction, error) {
	q := s.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row Interaction
	err := q.Where("actor_id = ? AND target_id = ?", actorID, targetID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load interaction %d->%d: %w", actorID, targetID, err)
	}
	return &row, nil
}
