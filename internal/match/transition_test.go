package match

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecideLike(t *testing.T) {
	cases := []struct {
		name      string
		fwd, rev  State
		bot       bool
		wantErr   error
		matched   bool
		newMatch  bool
		actor     Delta
		target    Delta
		fwdAction Action
		revWrite  bool
	}{
		{name: "first like on human", fwd: StateNone, rev: StateNone, actor: Delta{Likes: 1}, fwdAction: ActionLike},
		{name: "like after reject", fwd: StateRejected, rev: StateNone, actor: Delta{Likes: 1, Rejects: -1}, fwdAction: ActionLike},
		{name: "target rejected actor", fwd: StateNone, rev: StateRejected, actor: Delta{Likes: 1}, fwdAction: ActionLike},
		{
			name: "mutual human like", fwd: StateNone, rev: StateLiked,
			matched: true, newMatch: true, actor: Delta{Likes: 1, Matches: 1}, target: Delta{Matches: 1},
			fwdAction: ActionMatch, revWrite: true,
		},
		{
			name: "bot instant match", fwd: StateNone, rev: StateNone, bot: true,
			matched: true, newMatch: true, actor: Delta{Likes: 1, Matches: 1}, target: Delta{Matches: 1},
			fwdAction: ActionMatch, revWrite: true,
		},
		{
			name: "bot match after reject", fwd: StateRejected, rev: StateNone, bot: true,
			matched: true, newMatch: true, actor: Delta{Likes: 1, Rejects: -1, Matches: 1}, target: Delta{Matches: 1},
			fwdAction: ActionMatch, revWrite: true,
		},
		{name: "duplicate like", fwd: StateLiked, rev: StateNone, wantErr: ErrAlreadyLiked},
		{name: "like on match", fwd: StateMatched, rev: StateMatched, wantErr: ErrAlreadyLiked},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decideLike(tc.fwd, tc.rev, tc.bot)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.matched, got.matched)
			require.Equal(t, tc.newMatch, got.newMatch)
			require.Equal(t, tc.actor, got.actor)
			require.Equal(t, tc.target, got.target)
			require.NotNil(t, got.forward)
			require.Equal(t, tc.fwdAction, got.forward.action)
			require.Equal(t, tc.matched, got.forward.mutual)
			if tc.revWrite {
				require.NotNil(t, got.reverse)
				require.Equal(t, rowWrite{action: ActionMatch, mutual: true}, *got.reverse)
			} else {
				require.Nil(t, got.reverse)
			}
		})
	}
}

func TestDecideReject(t *testing.T) {
	cases := []struct {
		name     string
		fwd, rev State
		noop     bool
		actor    Delta
		target   Delta
		revWrite *rowWrite
	}{
		{name: "first reject", fwd: StateNone, rev: StateNone, actor: Delta{Rejects: 1}},
		{name: "reject after like", fwd: StateLiked, rev: StateNone, actor: Delta{Likes: -1, Rejects: 1}},
		{name: "reject when target liked", fwd: StateNone, rev: StateLiked, actor: Delta{Rejects: 1}},
		{
			name: "break match", fwd: StateMatched, rev: StateMatched,
			actor: Delta{Likes: -1, Rejects: 1, Matches: -1}, target: Delta{Matches: -1},
			revWrite: &rowWrite{action: ActionLike},
		},
		{
			name: "break one-sided match row", fwd: StateNone, rev: StateMatched,
			actor: Delta{Rejects: 1, Matches: -1}, target: Delta{Matches: -1},
			revWrite: &rowWrite{action: ActionLike},
		},
		{name: "repeat reject", fwd: StateRejected, rev: StateLiked, noop: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decideReject(tc.fwd, tc.rev)
			require.NoError(t, err)
			require.Equal(t, tc.noop, got.noop)
			if tc.noop {
				require.Nil(t, got.forward)
				require.True(t, got.actor.IsZero())
				return
			}
			require.Equal(t, rowWrite{action: ActionReject}, *got.forward)
			require.Equal(t, tc.actor, got.actor)
			require.Equal(t, tc.target, got.target)
			require.Equal(t, tc.revWrite, got.reverse)
		})
	}
}

func TestStateOf(t *testing.T) {
	s, err := StateOf(nil)
	require.NoError(t, err)
	require.Equal(t, StateNone, s)

	s, err = StateOf(&Interaction{Action: ActionMatch, IsMutual: true})
	require.NoError(t, err)
	require.Equal(t, StateMatched, s)

	_, err = StateOf(&Interaction{ActorID: 1, TargetID: 2, Action: "superlike"})
	require.Error(t, err)
}
