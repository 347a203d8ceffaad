package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestStore_UpsertAndGet(t *testing.T) {
	db := openTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	row, err := s.Get(ctx, 1, 2)
	require.NoError(t, err)
	require.Nil(t, row)

	require.NoError(t, s.Upsert(ctx, 1, 2, ActionLike, false))
	row, err = s.Get(ctx, 1, 2)
	require.NoError(t, err)
	require.Equal(t, ActionLike, row.Action)
	require.False(t, row.IsMutual)
	created := row.CreatedAt

	require.NoError(t, s.Upsert(ctx, 1, 2, ActionMatch, true))
	row, err = s.Get(ctx, 1, 2)
	require.NoError(t, err)
	require.Equal(t, ActionMatch, row.Action)
	require.True(t, row.IsMutual)
	require.True(t, row.CreatedAt.Equal(created), "pair row keeps its creation time")

	var n int64
	require.NoError(t, db.Model(&Interaction{}).Count(&n).Error)
	require.Equal(t, int64(1), n)
}

func TestStore_LockPairOrientsRows(t *testing.T) {
	db := openTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, 9, 4, ActionLike, false))

	err := db.Transaction(func(tx *gorm.DB) error {
		// actor has the larger id: forward row is (9,4)
		fwd, rev, err := s.WithTx(tx).LockPair(ctx, 9, 4)
		require.NoError(t, err)
		require.NotNil(t, fwd)
		require.Equal(t, uint64(9), fwd.ActorID)
		require.Nil(t, rev)

		// actor has the smaller id
		fwd, rev, err = s.WithTx(tx).LockPair(ctx, 4, 9)
		require.NoError(t, err)
		require.Nil(t, fwd)
		require.NotNil(t, rev)
		require.Equal(t, uint64(4), rev.TargetID)
		return nil
	})
	require.NoError(t, err)
}

func TestStore_ListMatches(t *testing.T) {
	db := openTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, 1, 2, ActionMatch, true))
	require.NoError(t, s.Upsert(ctx, 1, 3, ActionLike, false))
	require.NoError(t, s.Upsert(ctx, 1, 5, ActionMatch, true))
	require.NoError(t, s.Upsert(ctx, 2, 1, ActionMatch, true))

	rows, err := s.ListMatches(ctx, 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, uint64(5), rows[0].TargetID)
	require.Equal(t, uint64(2), rows[1].TargetID)

	rows, err = s.ListMatches(ctx, 1, 10, 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, uint64(2), rows[0].TargetID)
}

func TestPageLimit(t *testing.T) {
	require.Equal(t, DefaultPageSize, PageLimit(0))
	require.Equal(t, DefaultPageSize, PageLimit(-4))
	require.Equal(t, 7, PageLimit(7))
	require.Equal(t, MaxPageSize, PageLimit(100))
	require.Equal(t, MaxPageSize, PageLimit(250))
}

func TestStore_ListMatchesCapsLimit(t *testing.T) {
	db := openTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	for id := uint64(2); id <= 121; id++ {
		require.NoError(t, s.Upsert(ctx, 1, id, ActionMatch, true))
	}
	rows, err := s.ListMatches(ctx, 1, 500, 0)
	require.NoError(t, err)
	require.Len(t, rows, MaxPageSize)
	require.Equal(t, uint64(121), rows[0].TargetID)
}
