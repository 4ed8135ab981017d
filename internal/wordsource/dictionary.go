package wordsource

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const DefaultDictionaryURL = "https://api.dictionaryapi.dev/api/v2/entries/en"

// Entry is the subset of a Free Dictionary API entry the server uses.
type Entry struct {
	Word      string `json:"word"`
	Phonetic  string `json:"phonetic"`
	Phonetics []struct {
		Text  string `json:"text"`
		Audio string `json:"audio"`
	} `json:"phonetics"`
	Meanings []Meaning `json:"meanings"`
}

type Meaning struct {
	PartOfSpeech string       `json:"partOfSpeech"`
	Definitions  []Definition `json:"definitions"`
	Synonyms     []string     `json:"synonyms"`
}

type Definition struct {
	Definition string   `json:"definition"`
	Example    string   `json:"example"`
	Synonyms   []string `json:"synonyms"`
}

// PhoneticText returns the top-level phonetic or the first non-empty
// phonetic spelling.
func (e *Entry) PhoneticText() string {
	if e.Phonetic != "" {
		return e.Phonetic
	}
	for _, p := range e.Phonetics {
		if p.Text != "" {
			return p.Text
		}
	}
	return ""
}

// Dictionary queries the Free Dictionary API.
type Dictionary struct {
	client  *Client
	baseURL string
}

func NewDictionary(client *Client, baseURL string) *Dictionary {
	if baseURL == "" {
		baseURL = DefaultDictionaryURL
	}
	return &Dictionary{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// Lookup returns the first entry for term.
func (d *Dictionary) Lookup(ctx context.Context, term string) (*Entry, error) {
	var entries []Entry
	if err := d.client.getJSON(ctx, d.baseURL+"/"+url.PathEscape(term), &entries); err != nil {
		return nil, fmt.Errorf("dictionary lookup %q: %w", term, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("dictionary lookup %q: %w", term, ErrNotFound)
	}
	return &entries[0], nil
}
