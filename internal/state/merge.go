package state

import (
	"cmp"
	"slices"
	"time"

	"github.com/five82/controldeck/internal/github"
)

// mergeEvents folds incoming into held. Events are keyed by id; an incoming
// event replaces a held one with the same id, held events absent from
// incoming are kept. Ids not seen before are flagged New. A nil incoming
// slice means the feed was unavailable and leaves held untouched.
func mergeEvents(held, incoming []github.Event, limit int) []github.Event {
	if incoming == nil {
		return cloneSlice(held)
	}

	byID := make(map[string]github.Event, len(held)+len(incoming))
	for _, ev := range held {
		byID[ev.ID] = ev
	}
	for _, ev := range incoming {
		if ev.ID == "" {
			continue
		}
		prev, seen := byID[ev.ID]
		ev.New = !seen || prev.New
		byID[ev.ID] = ev
	}

	out := make([]github.Event, 0, len(byID))
	for _, ev := range byID {
		out = append(out, ev)
	}
	sortEvents(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// sortEvents orders newest first; equal timestamps fall back to the larger id.
func sortEvents(events []github.Event) {
	slices.SortFunc(events, func(a, b github.Event) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return compareIDs(b.ID, a.ID)
	})
}

// compareIDs orders numeric-looking ids by magnitude without parsing them.
func compareIDs(a, b string) int {
	if c := cmp.Compare(len(a), len(b)); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}

// spotlight picks the most starred non-fork repositories. Ties go to the most
// recent push, then to the name.
func spotlight(repos []github.Repo, limit int) []github.Repo {
	picked := make([]github.Repo, 0, len(repos))
	for _, r := range repos {
		if !r.Fork {
			picked = append(picked, r)
		}
	}
	slices.SortFunc(picked, func(a, b github.Repo) int {
		if c := cmp.Compare(b.Stars, a.Stars); c != 0 {
			return c
		}
		if c := b.PushedAt.Compare(a.PushedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if len(picked) > limit {
		picked = picked[:limit]
	}
	if len(picked) == 0 {
		return nil
	}
	return picked
}

// The equality helpers below decide whether a merge changed anything a user
// would see. Timestamps compare by instant; novelty and rate-limit counters
// are ignored.

func sameProfile(a, b github.Profile) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return false
	}
	a.CreatedAt, b.CreatedAt = time.Time{}, time.Time{}
	return a == b
}

func sameRepos(a, b []github.Repo) bool {
	return slices.EqualFunc(a, b, func(x, y github.Repo) bool {
		if !x.PushedAt.Equal(y.PushedAt) || !x.UpdatedAt.Equal(y.UpdatedAt) {
			return false
		}
		x.PushedAt, y.PushedAt = time.Time{}, time.Time{}
		x.UpdatedAt, y.UpdatedAt = time.Time{}, time.Time{}
		return x == y
	})
}

func sameEvents(a, b []github.Event) bool {
	return slices.EqualFunc(a, b, func(x, y github.Event) bool {
		if !x.CreatedAt.Equal(y.CreatedAt) {
			return false
		}
		x.CreatedAt, y.CreatedAt = time.Time{}, time.Time{}
		x.New, y.New = false, false
		return x == y
	})
}
