package words

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"spellcheck/internal/wordsource"
)

const (
	DefaultAudioURLTemplate = "https://api.dictionaryapi.dev/media/pronunciations/en/{term}-us.mp3"
	maxSynonyms             = 8
	datamuseSynonymLimit    = 10
)

// Metadata is the enrichment attached to a term when it is served.
type Metadata struct {
	Definition   string
	Example      string
	Phonetic     string
	PartOfSpeech string
	Synonyms     []string
}

type DictionaryLookup interface {
	Lookup(ctx context.Context, term string) (*wordsource.Entry, error)
}

type DefinitionLookup interface {
	Define(ctx context.Context, term string) (definition, partOfSpeech string, err error)
	Synonyms(ctx context.Context, term string, max int) ([]string, error)
}

// Resolver enriches a bare term from the primary dictionary, falling back
// to the secondary source for the definition. Every lookup fails soft.
type Resolver struct {
	primary   DictionaryLookup
	secondary DefinitionLookup
	logger    *slog.Logger
}

func NewResolver(primary DictionaryLookup, secondary DefinitionLookup, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{primary: primary, secondary: secondary, logger: logger}
}

// Resolve reports false when no source yields a definition. The returned
// Metadata may still carry a phonetic or synonyms in that case.
func (r *Resolver) Resolve(ctx context.Context, term string) (Metadata, bool) {
	var (
		entry    *wordsource.Entry
		extraSyn []string
		g        errgroup.Group
	)
	g.Go(func() error {
		e, err := r.primary.Lookup(ctx, term)
		if err != nil {
			r.logger.Debug("primary lookup failed", "term", term, "error", err)
			return nil
		}
		entry = e
		return nil
	})
	g.Go(func() error {
		syns, err := r.secondary.Synonyms(ctx, term, datamuseSynonymLimit)
		if err != nil {
			r.logger.Debug("synonym lookup failed", "term", term, "error", err)
			return nil
		}
		extraSyn = syns
		return nil
	})
	_ = g.Wait()

	md := Metadata{}
	if entry != nil {
		md = fromEntry(entry)
	}
	md.Synonyms = mergeSynonyms(extraSyn, md.Synonyms)

	if md.Definition == "" {
		def, pos, err := r.secondary.Define(ctx, term)
		if err != nil {
			r.logger.Debug("secondary lookup failed", "term", term, "error", err)
		}
		md.Definition = StripMarkup(def)
		if md.PartOfSpeech == "" {
			md.PartOfSpeech = pos
		}
	}
	return md, md.Definition != ""
}

// fromEntry takes the first meaning's part of speech and definition, and
// the first example found across all meanings.
func fromEntry(e *wordsource.Entry) Metadata {
	md := Metadata{Phonetic: e.PhoneticText()}
	if len(e.Meanings) == 0 {
		return md
	}
	first := e.Meanings[0]
	md.PartOfSpeech = first.PartOfSpeech
	if len(first.Definitions) > 0 {
		md.Definition = StripMarkup(first.Definitions[0].Definition)
	}

	var syns []string
	for _, m := range e.Meanings {
		syns = append(syns, m.Synonyms...)
		for _, d := range m.Definitions {
			syns = append(syns, d.Synonyms...)
			if md.Example == "" && strings.TrimSpace(d.Example) != "" {
				md.Example = StripMarkup(d.Example)
			}
		}
	}
	md.Synonyms = syns
	return md
}

// mergeSynonyms lower-cases, de-duplicates and caps synonyms, keeping
// the order of the first list before the second.
func mergeSynonyms(lists ...[]string) []string {
	all := lo.Map(lo.Flatten(lists), func(s string, _ int) string {
		return strings.ToLower(strings.TrimSpace(s))
	})
	all = lo.Uniq(lo.Compact(all))
	if len(all) > maxSynonyms {
		all = all[:maxSynonyms]
	}
	return all
}

// AudioURL expands the {term} placeholder of template.
func AudioURL(template, term string) string {
	if template == "" {
		return ""
	}
	return strings.ReplaceAll(template, "{term}", url.PathEscape(strings.ToLower(term)))
}

// StripMarkup returns the text content of s with tags removed and
// whitespace collapsed.
func StripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(sb.String()), " ")
		case html.TextToken:
			sb.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "br", "p", "div", "li":
				sb.WriteByte(' ')
			}
		}
	}
}
