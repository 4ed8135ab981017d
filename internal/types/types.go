package types

import (
	"strings"
	"time"
)

// Tier is a difficulty level.
type Tier string

const (
	TierEasy   Tier = "easy"
	TierMedium Tier = "medium"
	TierHard   Tier = "hard"
)

// Tiers lists every tier in ascending difficulty.
var Tiers = []Tier{TierEasy, TierMedium, TierHard}

// ParseTier maps user input to a Tier. Unknown or empty input yields easy.
func ParseTier(s string) Tier {
	t, ok := LookupTier(s)
	if !ok {
		return TierEasy
	}
	return t
}

// LookupTier reports whether s names a tier.
func LookupTier(s string) (Tier, bool) {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierEasy:
		return TierEasy, true
	case TierMedium:
		return TierMedium, true
	case TierHard:
		return TierHard, true
	}
	return "", false
}

// Origin tags where a term came from.
type Origin string

const (
	OriginExternal Origin = "external"
	OriginLocal    Origin = "local"
	OriginDefault  Origin = "default"
)

type Term struct {
	Term         string   `json:"term"`
	Origin       Origin   `json:"-"`
	Frequency    float64  `json:"-"`
	Type         string   `json:"type"`
	Definition   string   `json:"definition"`
	Example      string   `json:"example"`
	Phonetic     string   `json:"phonetic"`
	Audio        string   `json:"audio"`
	PartOfSpeech string   `json:"partOfSpeech,omitempty"`
	Synonyms     []string `json:"synonyms,omitempty"`
	Misspellings []string `json:"misspellings,omitempty"`
	Explanation  string   `json:"explanation,omitempty"`
	Etymology    string   `json:"origin,omitempty"`
}

// Key is the case-insensitive identity of a term.
func (t Term) Key() string {
	return strings.ToLower(t.Term)
}

type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendSame Trend = "same"
)

type Session struct {
	ID           string    `json:"sessionId"`
	Username     string    `json:"username"`
	Level        Tier      `json:"level"`
	Score        int       `json:"score"`
	PreviousRank *int      `json:"-"`
	LastTrend    Trend     `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	LastSeen     time.Time `json:"lastSeen"`
}

type LeaderboardEntry struct {
	SessionID string
	Username  string
	Score     int
	UpdatedAt time.Time
}

type RankedEntry struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

type UserView struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Score    int    `json:"score"`
	Trend    Trend  `json:"trend"`
}
