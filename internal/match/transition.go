package match

import "fmt"

// rowWrite is a pending write to one directed row.
type rowWrite struct {
	action Action
	mutual bool
}

// transition is the outcome of applying an action to a pair, computed before any write.
type transition struct {
	forward *rowWrite // nil: forward row untouched
	reverse *rowWrite // nil: reverse row untouched

	actor  Delta // acting user's counters
	target Delta // target's counters

	matched  bool // pair ends in match
	newMatch bool // match did not exist on both sides before
	noop     bool
}

// decideLike computes a like from actor toward target given both directions' states.
func decideLike(fwd, rev State, targetIsBot bool) (transition, error) {
	var t transition

	switch fwd {
	case StateLiked, StateMatched:
		return t, ErrAlreadyLiked
	case StateNone:
		t.actor = Delta{Likes: 1}
	case StateRejected:
		t.actor = Delta{Likes: 1, Rejects: -1}
	default:
		return t, fmt.Errorf("like: unhandled forward state %s", fwd)
	}

	switch rev {
	case StateLiked, StateMatched:
		t.matched = true
	case StateNone, StateRejected:
		t.matched = targetIsBot
	default:
		return t, fmt.Errorf("like: unhandled reverse state %s", rev)
	}

	if !t.matched {
		t.forward = &rowWrite{action: ActionLike}
		return t, nil
	}

	t.forward = &rowWrite{action: ActionMatch, mutual: true}
	t.reverse = &rowWrite{action: ActionMatch, mutual: true}
	t.newMatch = !(fwd == StateMatched && rev == StateMatched)
	if t.newMatch {
		t.actor = t.actor.Add(Delta{Matches: 1})
		t.target = Delta{Matches: 1}
	}
	return t, nil
}

// decideReject computes a reject from actor toward target. Rejecting twice is a no-op.
func decideReject(fwd, rev State) (transition, error) {
	var t transition

	switch fwd {
	case StateRejected:
		t.noop = true
		return t, nil
	case StateNone:
		t.actor = Delta{Rejects: 1}
	case StateLiked, StateMatched:
		t.actor = Delta{Likes: -1, Rejects: 1}
	default:
		return t, fmt.Errorf("reject: unhandled forward state %s", fwd)
	}
	t.forward = &rowWrite{action: ActionReject}

	broke := fwd == StateMatched
	switch rev {
	case StateMatched:
		broke = true
		t.reverse = &rowWrite{action: ActionLike}
	case StateLiked:
		if broke {
			t.reverse = &rowWrite{action: ActionLike}
		}
	case StateNone, StateRejected:
	default:
		return t, fmt.Errorf("reject: unhandled reverse state %s", rev)
	}

	if broke {
		t.actor = t.actor.Add(Delta{Matches: -1})
		t.target = Delta{Matches: -1}
	}
	return t, nil
}
