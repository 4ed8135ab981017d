package words

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"spellcheck/internal/types"
)

//go:embed data/local-dictionary.json
var localDictionaryJSON []byte

// LocalEntry is one curated entry of the fallback dictionary.
type LocalEntry struct {
	Term              string   `json:"term"`
	Type              string   `json:"type"`
	Level             int      `json:"level"`
	Definition        string   `json:"definition"`
	PartOfSpeech      string   `json:"partOfSpeech"`
	Example           string   `json:"example"`
	Misspellings      []string `json:"misspellings"`
	Explanation       string   `json:"explanation"`
	FigurativeMeaning string   `json:"figurativeMeaning"`
	Etymology         string   `json:"origin"`
	Synonyms          []string `json:"synonyms"`
}

// Tier maps the curated 1–4 level scale onto the three game tiers.
func (e LocalEntry) Tier() types.Tier {
	switch {
	case e.Level <= 1:
		return types.TierEasy
	case e.Level == 2:
		return types.TierMedium
	default:
		return types.TierHard
	}
}

func (e LocalEntry) ToTerm() types.Term {
	explanation := e.Explanation
	if explanation == "" {
		explanation = e.FigurativeMeaning
	}
	partOfSpeech := e.PartOfSpeech
	if partOfSpeech == "" {
		partOfSpeech = e.Type
	}
	return types.Term{
		Term:         e.Term,
		Origin:       types.OriginLocal,
		Type:         lo.CoalesceOrEmpty(e.Type, "word"),
		Definition:   e.Definition,
		Example:      e.Example,
		PartOfSpeech: partOfSpeech,
		Synonyms:     e.Synonyms,
		Misspellings: e.Misspellings,
		Explanation:  explanation,
		Etymology:    e.Etymology,
	}
}

// LocalDictionary is the always-available fallback word source.
type LocalDictionary struct {
	entries []LocalEntry
	byTier  map[types.Tier][]LocalEntry
	byTerm  map[string]LocalEntry
}

// DefaultLocalDictionary returns the dictionary embedded in the binary.
func DefaultLocalDictionary() (*LocalDictionary, error) {
	return ParseLocalDictionary(localDictionaryJSON)
}

func ParseLocalDictionary(data []byte) (*LocalDictionary, error) {
	var entries []LocalEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse local dictionary: %w", err)
	}
	entries = lo.Filter(entries, func(e LocalEntry, _ int) bool {
		return strings.TrimSpace(e.Term) != ""
	})
	return NewLocalDictionary(entries), nil
}

func NewLocalDictionary(entries []LocalEntry) *LocalDictionary {
	return &LocalDictionary{
		entries: entries,
		byTier:  lo.GroupBy(entries, func(e LocalEntry) types.Tier { return e.Tier() }),
		byTerm: lo.Associate(entries, func(e LocalEntry) (string, LocalEntry) {
			return strings.ToLower(e.Term), e
		}),
	}
}

// ForTier returns the entries of one tier. The slice must not be modified.
func (d *LocalDictionary) ForTier(tier types.Tier) []LocalEntry {
	return d.byTier[tier]
}

func (d *LocalDictionary) Lookup(term string) (LocalEntry, bool) {
	e, ok := d.byTerm[strings.ToLower(term)]
	return e, ok
}

func (d *LocalDictionary) Len() int {
	return len(d.entries)
}

// DefaultTerm is served when every other source is empty.
func DefaultTerm() types.Term {
	return types.Term{
		Term:         "definitely",
		Origin:       types.OriginDefault,
		Type:         "word",
		Definition:   "Without doubt; certainly.",
		Example:      "She definitely knows the answer.",
		PartOfSpeech: "adverb",
		Synonyms:     []string{"certainly", "surely", "unquestionably"},
		Misspellings: []string{"definately", "definatly", "defiantly"},
		Explanation:  "Root is 'finite'. De-finite-ly.",
	}
}
