package match

import (
	"context"
	"fmt"
	"sort"

	"github.com/suPer8Hu/dating-platform/internal/models"
	"gorm.io/gorm"
)

// Delta is a signed change to a user's aggregate counters.
type Delta struct {
	Likes   int64
	Matches int64
	Rejects int64
}

func (d Delta) IsZero() bool { return d.Likes == 0 && d.Matches == 0 && d.Rejects == 0 }

func (d Delta) Add(o Delta) Delta {
	return Delta{Likes: d.Likes + o.Likes, Matches: d.Matches + o.Matches, Rejects: d.Rejects + o.Rejects}
}

// Ledger applies counter deltas on the users table with a floor of zero.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx}
}

// Adjust applies d to one user.
func (l *Ledger) Adjust(ctx context.Context, userID uint64, d Delta) error {
	if d.IsZero() {
		return nil
	}
	updates := map[string]any{}
	if d.Likes != 0 {
		updates["total_likes"] = clamped("total_likes", d.Likes)
	}
	if d.Matches != 0 {
		updates["total_matches"] = clamped("total_matches", d.Matches)
	}
	if d.Rejects != 0 {
		updates["total_rejects"] = clamped("total_rejects", d.Rejects)
	}
	res := l.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("adjust counters for user %d: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("adjust counters for user %d: %w", userID, gorm.ErrRecordNotFound)
	}
	return nil
}

// Apply adjusts several users in ascending id order, so concurrent transactions that
// touch overlapping users take the row locks in one global order.
func (l *Ledger) Apply(ctx context.Context, deltas map[uint64]Delta) error {
	ids := make([]uint64, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if err := l.Adjust(ctx, id, deltas[id]); err != nil {
			return err
		}
	}
	return nil
}

func clamped(col string, delta int64) any {
	return gorm.Expr("CASE WHEN "+col+" + ? < 0 THEN 0 ELSE "+col+" + ? END", delta, delta)
}
