package match

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/suPer8Hu/dating-platform/internal/chat"
	"github.com/suPer8Hu/dating-platform/internal/logger"
	"github.com/suPer8Hu/dating-platform/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("github.com/suPer8Hu/dating-platform/internal/match")

// UserLookup resolves users before the transaction starts.
type UserLookup interface {
	Find(ctx context.Context, id uint64) (*models.User, error)
	FindActive(ctx context.Context, id uint64) (*models.User, error)
}

// ChatResolver finds or creates the chat for a pair inside the engine's transaction.
type ChatResolver interface {
	GetOrCreateTx(ctx context.Context, tx *gorm.DB, a, b chat.Participant) (*chat.Chat, error)
}

// Notifier delivers the "bot matched you" notification. Best effort.
type Notifier interface {
	NotifyMatch(ctx context.Context, actorID, botID, chatID uint64) error
}

type LikeResult struct {
	IsMatch bool    `json:"is_match"`
	ChatID  *uint64 `json:"chat_id"`
}

type Options struct {
	// MaxAttempts bounds how often a transaction is retried after a deadlock or key race.
	MaxAttempts   int
	NotifyTimeout time.Duration
}

type Engine struct {
	db       *gorm.DB
	users    UserLookup
	store    *Store
	ledger   *Ledger
	chats    ChatResolver
	notifier Notifier
	log      *logger.Logger
	opts     Options

	pending sync.WaitGroup
}

func NewEngine(db *gorm.DB, users UserLookup, chats ChatResolver, notifier Notifier, log *logger.Logger, opts Options) *Engine {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = 5 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{
		db:       db,
		users:    users,
		store:    NewStore(db),
		ledger:   NewLedger(db),
		chats:    chats,
		notifier: notifier,
		log:      log.With("component", "MatchEngine"),
		opts:     opts,
	}
}

// Like records actor's like on target. A like on a bot matches immediately; a like on a
// real user matches only when the target already liked the actor.
func (e *Engine) Like(ctx context.Context, actorID, targetID uint64) (res *LikeResult, err error) {
	ctx, span := tracer.Start(ctx, "match.Like", trace.WithAttributes(
		attribute.Int64("actor_id", int64(actorID)),
		attribute.Int64("target_id", int64(targetID)),
	))
	defer func() { endSpan(span, err) }()

	actor, target, err := e.loadPair(ctx, actorID, targetID, true)
	if err != nil {
		return nil, err
	}

	var (
		t      transition
		chatID uint64
	)
	err = e.inTx(ctx, func(tx *gorm.DB) error {
		chatID = 0
		fwdRow, revRow, err := e.store.WithTx(tx).LockPair(ctx, actorID, targetID)
		if err != nil {
			return err
		}
		fwd, rev, err := statesOf(fwdRow, revRow)
		if err != nil {
			return err
		}
		t, err = decideLike(fwd, rev, target.IsBot())
		if err != nil {
			return err
		}
		if err := e.apply(ctx, tx, actorID, targetID, t); err != nil {
			return err
		}
		if !t.matched {
			return nil
		}
		c, err := e.chats.GetOrCreateTx(ctx, tx,
			chat.Participant{ID: actor.ID, IsBot: actor.IsBot()},
			chat.Participant{ID: target.ID, IsBot: target.IsBot()},
		)
		if err != nil {
			return fmt.Errorf("resolve chat: %w", err)
		}
		chatID = c.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	res = &LikeResult{IsMatch: t.matched}
	if t.matched {
		res.ChatID = &chatID
	}
	span.SetAttributes(attribute.Bool("is_match", t.matched), attribute.Bool("new_match", t.newMatch))
	e.log.Debug("like recorded", "actor_id", actorID, "target_id", targetID, "is_match", t.matched, "new_match", t.newMatch)

	if t.newMatch && target.IsBot() {
		e.dispatch(ctx, actorID, targetID, chatID)
	}
	return res, nil
}

// Reject records actor's reject on target, breaking an existing match. Repeating a
// reject changes nothing.
func (e *Engine) Reject(ctx context.Context, actorID, targetID uint64) (err error) {
	ctx, span := tracer.Start(ctx, "match.Reject", trace.WithAttributes(
		attribute.Int64("actor_id", int64(actorID)),
		attribute.Int64("target_id", int64(targetID)),
	))
	defer func() { endSpan(span, err) }()

	if _, _, err := e.loadPair(ctx, actorID, targetID, false); err != nil {
		return err
	}

	var t transition
	err = e.inTx(ctx, func(tx *gorm.DB) error {
		fwdRow, revRow, err := e.store.WithTx(tx).LockPair(ctx, actorID, targetID)
		if err != nil {
			return err
		}
		fwd, rev, err := statesOf(fwdRow, revRow)
		if err != nil {
			return err
		}
		t, err = decideReject(fwd, rev)
		if err != nil {
			return err
		}
		if t.noop {
			return nil
		}
		return e.apply(ctx, tx, actorID, targetID, t)
	})
	if err != nil {
		return err
	}
	broke := !t.target.IsZero()
	span.SetAttributes(attribute.Bool("noop", t.noop), attribute.Bool("broke_match", broke))
	e.log.Debug("reject recorded", "actor_id", actorID, "target_id", targetID, "noop", t.noop, "broke_match", broke)
	return nil
}

// Wait blocks until in-flight notifications finish. Called on shutdown.
func (e *Engine) Wait() {
	e.pending.Wait()
}

func (e *Engine) loadPair(ctx context.Context, actorID, targetID uint64, targetMustBeActive bool) (*models.User, *models.User, error) {
	if targetID == 0 || actorID == 0 {
		return nil, nil, ErrInvalidTarget
	}
	if actorID == targetID {
		return nil, nil, ErrSelfTarget
	}

	// a banned or deactivated actor may still hold an unexpired token
	actor, err := e.users.FindActive(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrActorNotFound
		}
		return nil, nil, fmt.Errorf("load actor: %w", err)
	}

	var target *models.User
	if targetMustBeActive {
		target, err = e.users.FindActive(ctx, targetID)
	} else {
		target, err = e.users.Find(ctx, targetID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrTargetNotFound
		}
		return nil, nil, fmt.Errorf("load target: %w", err)
	}
	return actor, target, nil
}

func (e *Engine) apply(ctx context.Context, tx *gorm.DB, actorID, targetID uint64, t transition) error {
	store := e.store.WithTx(tx)
	if t.forward != nil {
		if err := store.Upsert(ctx, actorID, targetID, t.forward.action, t.forward.mutual); err != nil {
			return err
		}
	}
	if t.reverse != nil {
		if err := store.Upsert(ctx, targetID, actorID, t.reverse.action, t.reverse.mutual); err != nil {
			return err
		}
	}
	return e.ledger.WithTx(tx).Apply(ctx, map[uint64]Delta{
		actorID:  t.actor,
		targetID: t.target,
	})
}

// inTx runs fn in one transaction and re-runs the whole unit on errors retryable reports.
func (e *Engine) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= e.opts.MaxAttempts; attempt++ {
		err = e.db.WithContext(ctx).Transaction(fn)
		if err == nil || !retryable(err) || attempt == e.opts.MaxAttempts {
			return err
		}
		e.log.Warn("match transaction retry", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 20 * time.Millisecond):
		}
	}
	return err
}

func (e *Engine) dispatch(ctx context.Context, actorID, botID, chatID uint64) {
	if e.notifier == nil {
		return
	}
	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.opts.NotifyTimeout)
		defer cancel()
		if err := e.notifier.NotifyMatch(nctx, actorID, botID, chatID); err != nil {
			e.log.Warn("match notification failed", "actor_id", actorID, "bot_id", botID, "chat_id", chatID, "error", err)
		}
	}()
}

func statesOf(fwdRow, revRow *Interaction) (State, State, error) {
	fwd, err := StateOf(fwdRow)
	if err != nil {
		return StateNone, StateNone, err
	}
	rev, err := StateOf(revRow)
	if err != nil {
		return StateNone, StateNone, err
	}
	return fwd, rev, nil
}

const (
	mysqlDeadlock        = 1213
	mysqlLockWaitTimeout = 1205
)

func retryable(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDeadlock || myErr.Number == mysqlLockWaitTimeout
	}
	return false
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		if IsClientError(err) {
			span.SetAttributes(attribute.String("rejected", err.Error()))
		} else {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}
