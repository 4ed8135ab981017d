package words

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"

	"spellcheck/internal/types"
	"spellcheck/internal/wordsource"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz"

var alphaOnly = regexp.MustCompile(`^[a-zA-Z]+$`)

// PrefixSource lists candidate words for an alphabetic prefix.
type PrefixSource interface {
	Prefix(ctx context.Context, prefix string, max int) ([]wordsource.Candidate, error)
}

// FrequencyBands classify words by occurrences per million.
// Easy: f >= EasyMin. Medium: MediumMin <= f < EasyMin. Hard: everything else,
// including words with no frequency data.
type FrequencyBands struct {
	EasyMin   float64
	MediumMin float64
}

func (b FrequencyBands) Tier(freq float64) types.Tier {
	switch {
	case freq >= b.EasyMin:
		return types.TierEasy
	case freq >= b.MediumMin:
		return types.TierMedium
	default:
		return types.TierHard
	}
}

type BufferConfig struct {
	BatchTarget    int // new terms per replenishment cycle
	LowWater       int // pop leaving fewer than this schedules a refill
	MaxAttempts    int // prefix queries per cycle
	PerQuerySample int // accepted terms per query
	QuerySize      int // candidates requested per query
	Bands          FrequencyBands
}

func DefaultBufferConfig() BufferConfig {
	return BufferConfig{
		BatchTarget:    100,
		LowWater:       20,
		MaxAttempts:    10,
		PerQuerySample: 15,
		QuerySize:      100,
		Bands:          FrequencyBands{EasyMin: 10, MediumMin: 1},
	}
}

type pool struct {
	mu    sync.Mutex
	terms []types.Term
	busy  atomic.Bool
}

// Buffer keeps one pre-fetched pool of candidate terms per tier and refills
// each pool in the background.
type Buffer struct {
	cfg    BufferConfig
	source PrefixSource
	seen   *SeenSet
	logger *slog.Logger
	pools  map[types.Tier]*pool

	// ctx bounds background replenishment; cancelled at shutdown.
	ctx context.Context
	wg  sync.WaitGroup
}

func NewBuffer(ctx context.Context, cfg BufferConfig, source PrefixSource, seen *SeenSet, logger *slog.Logger) *Buffer {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Buffer{
		cfg:    cfg,
		source: source,
		seen:   seen,
		logger: logger,
		pools:  make(map[types.Tier]*pool, len(types.Tiers)),
		ctx:    ctx,
	}
	for _, tier := range types.Tiers {
		b.pools[tier] = &pool{}
	}
	return b
}

// Pop removes and returns a random term of the tier. It never blocks on
// the network: a low or empty pool schedules a background refill.
func (b *Buffer) Pop(tier types.Tier) (types.Term, bool) {
	p, ok := b.pools[tier]
	if !ok {
		return types.Term{}, false
	}

	p.mu.Lock()
	n := len(p.terms)
	if n == 0 {
		p.mu.Unlock()
		b.schedule(tier)
		return types.Term{}, false
	}
	i := rand.IntN(n)
	term := p.terms[i]
	p.terms[i] = p.terms[n-1]
	p.terms = p.terms[:n-1]
	remaining := len(p.terms)
	p.mu.Unlock()

	if remaining < b.cfg.LowWater {
		b.schedule(tier)
	}
	return term, true
}

func (b *Buffer) Len(tier types.Tier) int {
	p, ok := b.pools[tier]
	if !ok {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.terms)
}

// Snapshot reports the pool size of every tier.
func (b *Buffer) Snapshot() map[types.Tier]int {
	return lo.SliceToMap(types.Tiers, func(t types.Tier) (types.Tier, int) {
		return t, b.Len(t)
	})
}

// Warm starts one refill per tier.
func (b *Buffer) Warm() {
	for _, tier := range types.Tiers {
		b.schedule(tier)
	}
}

// Wait blocks until scheduled refills have finished.
func (b *Buffer) Wait() {
	b.wg.Wait()
}

func (b *Buffer) schedule(tier types.Tier) {
	if p := b.pools[tier]; p == nil || p.busy.Load() {
		return
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.Replenish(b.ctx, tier)
	}()
}

// Replenish fetches new candidates for the tier and returns how many were
// added. A call made while another refill of the same tier is running
// returns 0 immediately.
func (b *Buffer) Replenish(ctx context.Context, tier types.Tier) int {
	p, ok := b.pools[tier]
	if !ok || !p.busy.CompareAndSwap(false, true) {
		return 0
	}
	defer p.busy.Store(false)

	start := time.Now()
	log := b.logger.With("tier", tier, "run", ulid.Make().String())
	log.Debug("replenishment started", "buffered", b.Len(tier))

	added := 0
	for attempt := 0; attempt < b.cfg.MaxAttempts && added < b.cfg.BatchTarget; attempt++ {
		if ctx.Err() != nil {
			log.Info("replenishment cancelled", "added", added)
			return added
		}
		prefix := string(alphabet[rand.IntN(len(alphabet))])
		candidates, err := b.source.Prefix(ctx, prefix, b.cfg.QuerySize)
		if err != nil {
			log.Warn("word source fetch failed", "prefix", prefix, "attempt", attempt+1, "error", err)
			continue
		}

		accepted := b.filter(tier, candidates)
		accepted = lo.Samples(accepted, b.cfg.PerQuerySample)
		if room := b.cfg.BatchTarget - added; len(accepted) > room {
			accepted = accepted[:room]
		}
		added += b.insert(tier, accepted)
	}

	log.Info("replenishment finished", "added", added, "buffered", b.Len(tier), "took", time.Since(start))
	return added
}

// filter keeps alphabetic, unseen, unbuffered candidates of the tier's band.
func (b *Buffer) filter(tier types.Tier, candidates []wordsource.Candidate) []types.Term {
	p := b.pools[tier]
	p.mu.Lock()
	buffered := lo.SliceToMap(p.terms, func(t types.Term) (string, struct{}) {
		return t.Key(), struct{}{}
	})
	p.mu.Unlock()

	kept := lo.Filter(candidates, func(c wordsource.Candidate, _ int) bool {
		if !alphaOnly.MatchString(c.Word) || b.seen.IsSeen(c.Word) {
			return false
		}
		if _, dup := buffered[strings.ToLower(c.Word)]; dup {
			return false
		}
		return b.cfg.Bands.Tier(c.Frequency) == tier
	})
	kept = lo.UniqBy(kept, func(c wordsource.Candidate) string { return strings.ToLower(c.Word) })

	return lo.Map(kept, func(c wordsource.Candidate, _ int) types.Term {
		return types.Term{Term: strings.ToLower(c.Word), Origin: types.OriginExternal, Frequency: c.Frequency}
	})
}

// insert appends terms not already present and reshuffles the pool.
func (b *Buffer) insert(tier types.Tier, terms []types.Term) int {
	if len(terms) == 0 {
		return 0
	}
	p := b.pools[tier]
	p.mu.Lock()
	defer p.mu.Unlock()

	present := lo.SliceToMap(p.terms, func(t types.Term) (string, struct{}) {
		return t.Key(), struct{}{}
	})
	added := 0
	for _, t := range terms {
		if _, dup := present[t.Key()]; dup {
			continue
		}
		present[t.Key()] = struct{}{}
		p.terms = append(p.terms, t)
		added++
	}
	lo.Shuffle(p.terms)
	return added
}
