package wordsource

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

const DefaultDatamuseURL = "https://api.datamuse.com"

// Candidate is one word returned by a prefix query.
type Candidate struct {
	Word string
	// Frequency is occurrences per million words; zero when unknown.
	Frequency float64
}

type datamuseWord struct {
	Word  string   `json:"word"`
	Score int      `json:"score"`
	Tags  []string `json:"tags"`
	Defs  []string `json:"defs"`
}

// Datamuse queries the Datamuse word API.
type Datamuse struct {
	client  *Client
	baseURL string
}

func NewDatamuse(client *Client, baseURL string) *Datamuse {
	if baseURL == "" {
		baseURL = DefaultDatamuseURL
	}
	return &Datamuse{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// Prefix returns up to max words starting with prefix, with frequency tags.
func (d *Datamuse) Prefix(ctx context.Context, prefix string, max int) ([]Candidate, error) {
	q := url.Values{}
	q.Set("sp", prefix+"*")
	q.Set("max", strconv.Itoa(max))
	q.Set("md", "f")

	var words []datamuseWord
	if err := d.client.getJSON(ctx, d.baseURL+"/words?"+q.Encode(), &words); err != nil {
		return nil, fmt.Errorf("datamuse prefix %q: %w", prefix, err)
	}
	return lo.Map(words, func(w datamuseWord, _ int) Candidate {
		return Candidate{Word: w.Word, Frequency: parseFrequency(w.Tags)}
	}), nil
}

// Synonyms returns up to max synonyms of term.
func (d *Datamuse) Synonyms(ctx context.Context, term string, max int) ([]string, error) {
	q := url.Values{}
	q.Set("rel_syn", term)
	q.Set("max", strconv.Itoa(max))

	var words []datamuseWord
	if err := d.client.getJSON(ctx, d.baseURL+"/words?"+q.Encode(), &words); err != nil {
		return nil, fmt.Errorf("datamuse synonyms %q: %w", term, err)
	}
	return lo.Map(words, func(w datamuseWord, _ int) string { return w.Word }), nil
}

// Define returns the first definition Datamuse knows for term together with
// its part of speech. Both are empty when none is known.
func (d *Datamuse) Define(ctx context.Context, term string) (definition, partOfSpeech string, err error) {
	q := url.Values{}
	q.Set("sp", term)
	q.Set("md", "d")
	q.Set("max", "1")

	var words []datamuseWord
	if err := d.client.getJSON(ctx, d.baseURL+"/words?"+q.Encode(), &words); err != nil {
		return "", "", fmt.Errorf("datamuse define %q: %w", term, err)
	}
	for _, w := range words {
		if !strings.EqualFold(w.Word, term) {
			continue
		}
		for _, def := range w.Defs {
			pos, text, found := strings.Cut(def, "\t")
			if !found {
				text, pos = def, ""
			}
			if text = strings.TrimSpace(text); text != "" {
				return text, expandPartOfSpeech(pos), nil
			}
		}
	}
	return "", "", nil
}

// parseFrequency reads the "f:<per-million>" tag.
func parseFrequency(tags []string) float64 {
	for _, tag := range tags {
		if v, ok := strings.CutPrefix(tag, "f:"); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err == nil {
				return f
			}
		}
	}
	return 0
}

func expandPartOfSpeech(abbr string) string {
	switch abbr {
	case "n":
		return "noun"
	case "v":
		return "verb"
	case "adj":
		return "adjective"
	case "adv":
		return "adverb"
	}
	return abbr
}
