package words

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/samber/lo"

	"spellcheck/internal/types"
)

const (
	DefinitionUnavailable = "Definition not available."
	resolveAttempts       = 3
)

// Service serves one word per request: buffered external candidates first,
// then the local dictionary, then a hard-coded default.
type Service struct {
	buffer        *Buffer
	seen          *SeenSet
	resolver      *Resolver
	local         *LocalDictionary
	audioTemplate string
	logger        *slog.Logger
}

func NewService(buffer *Buffer, seen *SeenSet, resolver *Resolver, local *LocalDictionary, audioTemplate string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		buffer:        buffer,
		seen:          seen,
		resolver:      resolver,
		local:         local,
		audioTemplate: audioTemplate,
		logger:        logger,
	}
}

// Next always returns a term and marks it seen.
func (s *Service) Next(ctx context.Context, tier types.Tier) types.Term {
	var fallback *types.Term
	for attempt := 0; attempt < resolveAttempts; attempt++ {
		cand, ok := s.buffer.Pop(tier)
		if !ok {
			break
		}
		if !s.seen.MarkSeen(cand.Term) {
			continue
		}
		term, found := s.enrich(ctx, cand)
		if found {
			if fallback != nil {
				s.seen.Forget(fallback.Term)
			}
			s.logger.Info("served external word", "tier", tier, "term", term.Term, "seen", s.seen.Len())
			return term
		}
		if fallback != nil {
			s.seen.Forget(fallback.Term)
		}
		fallback = &term
	}
	if fallback != nil {
		s.logger.Info("served external word without definition", "tier", tier, "term", fallback.Term)
		return *fallback
	}

	return s.fromLocal(tier)
}

// Reset clears the seen set.
func (s *Service) Reset() {
	s.seen.Reset()
	s.logger.Info("seen words cleared")
}

func (s *Service) SeenCount() int {
	return s.seen.Len()
}

func (s *Service) BufferSizes() map[types.Tier]int {
	return s.buffer.Snapshot()
}

func (s *Service) enrich(ctx context.Context, t types.Term) (types.Term, bool) {
	md, found := s.resolver.Resolve(ctx, t.Term)

	t.Type = "word"
	t.Definition = lo.Ternary(found, md.Definition, DefinitionUnavailable)
	t.Phonetic = md.Phonetic
	t.PartOfSpeech = lo.CoalesceOrEmpty(md.PartOfSpeech, "word")
	t.Synonyms = md.Synonyms
	t.Audio = AudioURL(s.audioTemplate, t.Term)
	t.Example = md.Example
	if t.Example == "" {
		t.Example = s.fallbackExample(t, found)
	}
	return t, found
}

// fallbackExample prefers the local dictionary's example for the same term.
func (s *Service) fallbackExample(t types.Term, defined bool) string {
	if e, ok := s.local.Lookup(t.Term); ok && e.Example != "" {
		return e.Example
	}
	if !defined {
		return ""
	}
	desc := strings.TrimSuffix(strings.ToLower(t.Definition), ".")
	return fmt.Sprintf("Usage: %q is a %s used to describe something that is %s.", t.Term, t.PartOfSpeech, desc)
}

// fromLocal picks a random unseen entry of the tier. When every entry has
// been seen the seen set is cleared so the game can continue.
func (s *Service) fromLocal(tier types.Tier) types.Term {
	entries := s.local.ForTier(tier)
	if len(entries) == 0 {
		s.logger.Warn("no local words for tier, serving default", "tier", tier)
		return s.withAudio(DefaultTerm())
	}

	for range len(entries) + 1 {
		available := lo.Filter(entries, func(e LocalEntry, _ int) bool {
			return !s.seen.IsSeen(e.Term)
		})
		if len(available) == 0 {
			s.logger.Info("local dictionary exhausted, resetting seen words", "tier", tier)
			s.seen.Reset()
			available = entries
		}
		pick := available[rand.IntN(len(available))]
		if s.seen.MarkSeen(pick.Term) {
			s.logger.Info("served local word", "tier", tier, "term", pick.Term, "seen", s.seen.Len())
			return s.withAudio(pick.ToTerm())
		}
	}

	s.logger.Warn("could not claim a local word, serving default", "tier", tier)
	return s.withAudio(DefaultTerm())
}

func (s *Service) withAudio(t types.Term) types.Term {
	t.Audio = AudioURL(s.audioTemplate, t.Term)
	return t
}
