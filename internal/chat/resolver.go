package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrSameUser           = errors.New("chat requires two distinct users")
	ErrInvalidParticipant = errors.New("invalid participant id")

	// errChatExists is the typed outcome of an insert that lost the race on uniq_chat_pair.
	errChatExists = errors.New("chat already exists")
)

const mysqlDupEntry = 1062

// Resolver finds or creates the one chat for a user pair. The unique index on
// (participant_1_id, participant_2_id) makes GetOrCreate safe for concurrent callers.
type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// WithTx returns a resolver bound to tx. Creation then runs in a savepoint of tx, so a
// duplicate insert does not abort the caller's transaction.
func (r *Resolver) WithTx(tx *gorm.DB) *Resolver {
	return &Resolver{db: tx}
}

func (r *Resolver) GetOrCreate(ctx context.Context, a, b Participant) (*Chat, error) {
	if a.ID == 0 || b.ID == 0 {
		return nil, ErrInvalidParticipant
	}
	if a.ID == b.ID {
		return nil, ErrSameUser
	}
	p1, p2 := Canonical(a, b)

	c, err := r.find(ctx, p1.ID, p2.ID, false)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find chat: %w", err)
	}
	return r.createOrFetch(ctx, p1.ID, p2.ID)
}

// FindByUsers looks the chat up without knowing which side is participant_1.
func (r *Resolver) FindByUsers(ctx context.Context, userA, userB uint64) (*Chat, error) {
	var c Chat
	if err := r.db.WithContext(ctx).
		Where("(participant_1_id = ? AND participant_2_id = ?) OR (participant_1_id = ? AND participant_2_id = ?)",
			userA, userB, userB, userA).
		Take(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Resolver) createOrFetch(ctx context.Context, p1, p2 uint64) (*Chat, error) {
	c := &Chat{
		Participant1ID:     p1,
		Participant2ID:     p2,
		Participant1Status: StatusActive,
		Participant2Status: StatusActive,
	}
	err := r.create(ctx, c)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, errChatExists) {
		return nil, fmt.Errorf("create chat: %w", err)
	}

	// Locking read so a repeatable-read snapshot still sees the winner's committed row.
	existing, getErr := r.find(ctx, p1, p2, true)
	if getErr != nil {
		return nil, fmt.Errorf("fetch existing chat: %w", getErr)
	}
	return existing, nil
}

func (r *Resolver) create(ctx context.Context, c *Chat) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(c).Error
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errChatExists
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDupEntry {
		return errChatExists
	}
	return err
}

func (r *Resolver) find(ctx context.Context, p1, p2 uint64, lock bool) (*Chat, error) {
	q := r.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "SHARE"})
	}
	var c Chat
	if err := q.Where("participant_1_id = ? AND participant_2_id = ?", p1, p2).Take(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetOrCreateTx is GetOrCreate bound to the caller's transaction.
func (r *Resolver) GetOrCreateTx(ctx context.Context, tx *gorm.DB, a, b Participant) (*Chat, error) {
	return r.WithTx(tx).GetOrCreate(ctx, a, b)
}
