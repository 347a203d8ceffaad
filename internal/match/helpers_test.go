package match

import (
	"context"
	"fmt"
	"sync"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/dating-platform/internal/chat"
	"github.com/suPer8Hu/dating-platform/internal/models"
	"github.com/suPer8Hu/dating-platform/internal/users"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// one connection: transactions serialize like row locks would
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(&models.User{}, &Interaction{}, &chat.Chat{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id uint64, typ models.UserType) *models.User {
	t.Helper()
	u := &models.User{
		ID:           id,
		Email:        fmt.Sprintf("user%d@example.com", id),
		Username:     fmt.Sprintf("user%d", id),
		PasswordHash: "x",
		Type:         typ,
		IsActive:     true,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user %d: %v", id, err)
	}
	return u
}

func reloadUser(t *testing.T, db *gorm.DB, id uint64) models.User {
	t.Helper()
	var u models.User
	require.NoError(t, db.First(&u, id).Error)
	return u
}

func loadRow(t *testing.T, db *gorm.DB, actor, target uint64) *Interaction {
	t.Helper()
	row, err := NewStore(db).Get(context.Background(), actor, target)
	require.NoError(t, err)
	return row
}

func chatCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&chat.Chat{}).Count(&n).Error)
	return n
}

type matchCall struct {
	actorID, botID, chatID uint64
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []matchCall
	err   error
}

func (n *fakeNotifier) NotifyMatch(ctx context.Context, actorID, botID, chatID uint64) error {
	_ = ctx
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, matchCall{actorID: actorID, botID: botID, chatID: chatID})
	return n.err
}

func (n *fakeNotifier) Calls() []matchCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]matchCall(nil), n.calls...)
}

type failingResolver struct{ err error }

func (r failingResolver) GetOrCreateTx(ctx context.Context, tx *gorm.DB, a, b chat.Participant) (*chat.Chat, error) {
	return nil, r.err
}

func newTestEngine(t *testing.T, db *gorm.DB, n Notifier) *Engine {
	t.Helper()
	return NewEngine(db, users.NewRepo(db), chat.NewResolver(db), n, nil, Options{})
}
