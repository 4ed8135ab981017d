package game

import (
	"cmp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"spellcheck/internal/types"
)

const DefaultLeaderboardSize = 100

type board struct {
	mu      sync.Mutex
	entries []types.LeaderboardEntry
}

// Leaderboard keeps one ranked list per tier. Entries are ordered by score
// descending, then by the time the score was reached (earlier first), then
// by username.
type Leaderboard struct {
	size   int
	boards map[types.Tier]*board
	now    func() time.Time
}

func NewLeaderboard(size int) *Leaderboard {
	if size <= 0 {
		size = DefaultLeaderboardSize
	}
	l := &Leaderboard{
		size:   size,
		boards: make(map[types.Tier]*board, len(types.Tiers)),
		now:    time.Now,
	}
	for _, tier := range types.Tiers {
		l.boards[tier] = &board{}
	}
	return l
}

// Update replaces any entry of the same session or username and returns the
// session's 1-based rank, or len+1 if it fell off the board.
func (l *Leaderboard) Update(tier types.Tier, sessionID, username string, score int) int {
	b := l.boards[tier]
	b.mu.Lock()
	defer b.mu.Unlock()

	updatedAt := l.now()
	for _, e := range b.entries {
		if e.SessionID == sessionID && e.Score == score {
			updatedAt = e.UpdatedAt
		}
	}

	b.entries = lo.Reject(b.entries, func(e types.LeaderboardEntry, _ int) bool {
		return e.SessionID == sessionID || strings.EqualFold(e.Username, username)
	})
	b.entries = append(b.entries, types.LeaderboardEntry{
		SessionID: sessionID,
		Username:  username,
		Score:     score,
		UpdatedAt: updatedAt,
	})
	slices.SortStableFunc(b.entries, compareEntries)
	if len(b.entries) > l.size {
		b.entries = b.entries[:l.size]
	}
	return rankOf(b.entries, sessionID)
}

func compareEntries(a, b types.LeaderboardEntry) int {
	return cmp.Or(
		cmp.Compare(b.Score, a.Score),
		a.UpdatedAt.Compare(b.UpdatedAt),
		cmp.Compare(strings.ToLower(a.Username), strings.ToLower(b.Username)),
	)
}

func rankOf(entries []types.LeaderboardEntry, sessionID string) int {
	_, i, ok := lo.FindIndexOf(entries, func(e types.LeaderboardEntry) bool {
		return e.SessionID == sessionID
	})
	if !ok {
		return len(entries) + 1
	}
	return i + 1
}

// Rank returns the 1-based rank of the session, or len+1 when absent.
func (l *Leaderboard) Rank(tier types.Tier, sessionID string) int {
	b := l.boards[tier]
	b.mu.Lock()
	defer b.mu.Unlock()
	return rankOf(b.entries, sessionID)
}

// Top returns the first n entries.
func (l *Leaderboard) Top(tier types.Tier, n int) []types.RankedEntry {
	b := l.boards[tier]
	b.mu.Lock()
	defer b.mu.Unlock()

	n = min(max(n, 0), len(b.entries))
	return lo.Map(b.entries[:n], func(e types.LeaderboardEntry, i int) types.RankedEntry {
		return types.RankedEntry{Rank: i + 1, Username: e.Username, Score: e.Score}
	})
}

// Entry returns the ranked entry of a session if it is on the board.
func (l *Leaderboard) Entry(tier types.Tier, sessionID string) (types.RankedEntry, bool) {
	b := l.boards[tier]
	b.mu.Lock()
	defer b.mu.Unlock()

	e, i, ok := lo.FindIndexOf(b.entries, func(e types.LeaderboardEntry) bool {
		return e.SessionID == sessionID
	})
	if !ok {
		return types.RankedEntry{}, false
	}
	return types.RankedEntry{Rank: i + 1, Username: e.Username, Score: e.Score}, true
}

// Remove drops the entry of username (case-insensitive).
func (l *Leaderboard) Remove(tier types.Tier, username string) {
	l.removeWhere(tier, func(e types.LeaderboardEntry) bool {
		return strings.EqualFold(e.Username, username)
	})
}

func (l *Leaderboard) RemoveSession(tier types.Tier, sessionID string) {
	l.removeWhere(tier, func(e types.LeaderboardEntry) bool {
		return e.SessionID == sessionID
	})
}

func (l *Leaderboard) removeWhere(tier types.Tier, match func(types.LeaderboardEntry) bool) {
	b, ok := l.boards[tier]
	if !ok {
		return
	}
	b.mu.Lock()
	b.entries = lo.Reject(b.entries, func(e types.LeaderboardEntry, _ int) bool { return match(e) })
	b.mu.Unlock()
}

func (l *Leaderboard) Len(tier types.Tier) int {
	b := l.boards[tier]
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
