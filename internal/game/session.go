// Package game holds live player sessions and the per-tier leaderboards.
package game

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"spellcheck/internal/types"
)

const (
	CorrectAnswerAward = 10
	MinUsernameLength  = 3
	MaxUsernameLength  = 20
	DefaultTimeout     = 2 * time.Hour
)

// CreateResult is returned when a session starts.
type CreateResult struct {
	Session      types.Session
	Rank         int
	TotalPlayers int
}

// AnswerResult is returned after each submitted answer.
type AnswerResult struct {
	Score        int
	Rank         int
	Trend        types.Trend
	TotalPlayers int
}

// Store owns every live session. At most one session per
// (lower-cased username, level) exists at any time.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*types.Session
	board    *Leaderboard
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewStore(board *Leaderboard, timeout time.Duration, logger *slog.Logger) *Store {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		sessions: make(map[string]*types.Session),
		board:    board,
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
	}
}

// SanitizeUsername trims, caps to 20 characters and keeps [A-Za-z0-9_].
func SanitizeUsername(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if utf8.RuneCountInString(name) > MaxUsernameLength {
		name = string([]rune(name)[:MaxUsernameLength])
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return -1
	}, name)
	if len(name) < MinUsernameLength {
		return "", fmt.Errorf("%w: username must be %d-%d letters, digits or underscores", types.ErrValidation, MinUsernameLength, MaxUsernameLength)
	}
	return name, nil
}

// Create starts a session, or restarts the one named by existingToken.
// Any leaderboard entry for the username at the level is purged first.
func (s *Store) Create(username string, level types.Tier, existingToken string) (CreateResult, error) {
	name, err := SanitizeUsername(username)
	if err != nil {
		return CreateResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.takenLocked(name, level, existingToken) {
		s.logger.Info("username conflict", "username", name, "level", level)
		return CreateResult{}, fmt.Errorf("%w: %q is already playing %s", types.ErrConflict, name, level)
	}

	now := s.now()
	sess, reused := s.sessions[existingToken]
	if existingToken != "" && reused {
		s.board.RemoveSession(sess.Level, sess.ID)
		sess.Username = name
		sess.Level = level
		sess.Score = 0
		sess.PreviousRank = nil
		sess.LastTrend = types.TrendSame
		sess.LastSeen = now
	} else {
		sess = &types.Session{
			ID:        uuid.NewString(),
			Username:  name,
			Level:     level,
			LastTrend: types.TrendSame,
			CreatedAt: now,
			LastSeen:  now,
		}
		s.sessions[sess.ID] = sess
	}

	s.board.Remove(level, name)
	rank := s.board.Update(level, sess.ID, name, 0)

	s.logger.Info("session started", "session", sess.ID, "username", name, "level", level, "reused", reused)
	return CreateResult{
		Session:      *sess,
		Rank:         rank,
		TotalPlayers: s.countLocked(level),
	}, nil
}

// SubmitAnswer awards points for a correct answer and re-ranks the session.
func (s *Store) SubmitAnswer(token string, correct bool) (AnswerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return AnswerResult{}, types.ErrSessionNotFound
	}
	if correct {
		sess.Score += CorrectAnswerAward
	}
	sess.LastSeen = s.now()

	rank := s.board.Update(sess.Level, sess.ID, sess.Username, sess.Score)
	trend := computeTrend(sess.PreviousRank, rank)
	sess.PreviousRank = &rank
	sess.LastTrend = trend

	return AnswerResult{
		Score:        sess.Score,
		Rank:         rank,
		Trend:        trend,
		TotalPlayers: s.countLocked(sess.Level),
	}, nil
}

func computeTrend(previous *int, rank int) types.Trend {
	switch {
	case previous == nil || rank == *previous:
		return types.TrendSame
	case rank < *previous:
		return types.TrendUp
	default:
		return types.TrendDown
	}
}

// End removes the session and its leaderboard entry. Unknown tokens are a
// no-op; it reports whether a session was removed.
func (s *Store) End(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endLocked(token, "ended")
}

func (s *Store) endLocked(token, reason string) bool {
	sess, ok := s.sessions[token]
	if !ok {
		return false
	}
	delete(s.sessions, token)
	s.board.RemoveSession(sess.Level, sess.ID)
	s.logger.Info("session "+reason, "session", sess.ID, "username", sess.Username, "level", sess.Level, "score", sess.Score)
	return true
}

// CheckUsernameAvailable applies the same rule as Create without side effects.
func (s *Store) CheckUsernameAvailable(username string, level types.Tier, excludingToken string) (bool, error) {
	name, err := SanitizeUsername(username)
	if err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.takenLocked(name, level, excludingToken), nil
}

func (s *Store) takenLocked(name string, level types.Tier, excludingToken string) bool {
	for id, sess := range s.sessions {
		if id != excludingToken && sess.Level == level && strings.EqualFold(sess.Username, name) {
			return true
		}
	}
	return false
}

// Get returns a copy of the session.
func (s *Store) Get(token string) (types.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[token]
	if !ok {
		return types.Session{}, false
	}
	return *sess, true
}

// UserView combines the session's board entry with its latest trend.
func (s *Store) UserView(level types.Tier, token string) (types.UserView, bool) {
	if token == "" {
		return types.UserView{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.board.Entry(level, token)
	if !ok {
		return types.UserView{}, false
	}
	trend := types.TrendSame
	if sess, ok := s.sessions[token]; ok && sess.LastTrend != "" {
		trend = sess.LastTrend
	}
	return types.UserView{Rank: entry.Rank, Username: entry.Username, Score: entry.Score, Trend: trend}, true
}

// CountAtLevel returns the number of live sessions playing level.
func (s *Store) CountAtLevel(level types.Tier) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countLocked(level)
}

func (s *Store) countLocked(level types.Tier) int {
	return lo.CountBy(lo.Values(s.sessions), func(sess *types.Session) bool {
		return sess.Level == level
	})
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
