package words

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"spellcheck/internal/types"
	"spellcheck/internal/wordsource"
)

// fakeSource returns the same candidates for every prefix.
type fakeSource struct {
	candidates []wordsource.Candidate
	err        error
	calls      atomic.Int32
	block      chan struct{}
}

func (f *fakeSource) Prefix(ctx context.Context, prefix string, max int) ([]wordsource.Candidate, error) {
	f.calls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

type fakeDictionary struct {
	entries map[string]*wordsource.Entry
}

func (f *fakeDictionary) Lookup(ctx context.Context, term string) (*wordsource.Entry, error) {
	if e, ok := f.entries[term]; ok {
		return e, nil
	}
	return nil, wordsource.ErrNotFound
}

type fakeDatamuse struct {
	defs     map[string]string
	synonyms map[string][]string
	fail     bool
}

func (f *fakeDatamuse) Define(ctx context.Context, term string) (string, string, error) {
	if f.fail {
		return "", "", errors.New("boom")
	}
	return f.defs[term], "noun", nil
}

func (f *fakeDatamuse) Synonyms(ctx context.Context, term string, max int) ([]string, error) {
	if f.fail {
		return nil, errors.New("boom")
	}
	return f.synonyms[term], nil
}

func candidates(freq float64, words ...string) []wordsource.Candidate {
	out := make([]wordsource.Candidate, 0, len(words))
	for _, w := range words {
		out = append(out, wordsource.Candidate{Word: w, Frequency: freq})
	}
	return out
}

func testBufferConfig() BufferConfig {
	cfg := DefaultBufferConfig()
	cfg.MaxAttempts = 2
	cfg.LowWater = 0
	return cfg
}

func TestSeenSet(t *testing.T) {
	s := NewSeenSet()
	if !s.MarkSeen("Apple") {
		t.Error("first MarkSeen should report new")
	}
	if s.MarkSeen("apple") {
		t.Error("MarkSeen is case-insensitive")
	}
	if !s.IsSeen("APPLE") {
		t.Error("IsSeen should be case-insensitive")
	}
	s.Forget("apple")
	if s.IsSeen("apple") {
		t.Error("Forget did not remove term")
	}
	s.MarkSeen("a")
	s.MarkSeen("b")
	s.Reset()
	if s.Len() != 0 {
		t.Errorf("Len after Reset = %d, want 0", s.Len())
	}
}

func TestFrequencyBands(t *testing.T) {
	b := FrequencyBands{EasyMin: 10, MediumMin: 1}
	cases := []struct {
		freq float64
		want types.Tier
	}{
		{250, types.TierEasy},
		{10, types.TierEasy},
		{9.9, types.TierMedium},
		{1, types.TierMedium},
		{0.5, types.TierHard},
		{0, types.TierHard},
	}
	for _, c := range cases {
		if got := b.Tier(c.freq); got != c.want {
			t.Errorf("Tier(%v) = %q, want %q", c.freq, got, c.want)
		}
	}
}

func TestReplenishFiltersCandidates(t *testing.T) {
	src := &fakeSource{candidates: append(
		candidates(50, "house", "garden", "House", "well-known", "café", "seen"),
		candidates(2, "lantern")...,
	)}
	seen := NewSeenSet()
	seen.MarkSeen("seen")
	b := NewBuffer(context.Background(), testBufferConfig(), src, seen, nil)

	added := b.Replenish(context.Background(), types.TierEasy)
	if added != 2 {
		t.Fatalf("Replenish added %d, want 2 (house, garden)", added)
	}
	got := map[string]bool{}
	for b.Len(types.TierEasy) > 0 {
		term, _ := b.Pop(types.TierEasy)
		got[term.Term] = true
		if term.Origin != types.OriginExternal {
			t.Errorf("origin = %q, want external", term.Origin)
		}
	}
	if !got["house"] || !got["garden"] {
		t.Errorf("buffer held %v, want house and garden", got)
	}
	if b.Len(types.TierMedium) != 0 {
		t.Error("medium-band word must not land in the easy buffer")
	}
}

func TestReplenishSamplesPerQuery(t *testing.T) {
	var words []string
	for i := 0; i < 40; i++ {
		words = append(words, "word"+strings.Repeat(string(rune('a'+i%26)), 1+i/26))
	}
	src := &fakeSource{candidates: candidates(50, words...)}
	cfg := testBufferConfig()
	cfg.MaxAttempts = 1
	b := NewBuffer(context.Background(), cfg, src, NewSeenSet(), nil)

	if added := b.Replenish(context.Background(), types.TierEasy); added != cfg.PerQuerySample {
		t.Errorf("added %d, want %d", added, cfg.PerQuerySample)
	}
}

func TestReplenishSkipsFailures(t *testing.T) {
	src := &fakeSource{err: errors.New("timeout")}
	b := NewBuffer(context.Background(), testBufferConfig(), src, NewSeenSet(), nil)
	if added := b.Replenish(context.Background(), types.TierEasy); added != 0 {
		t.Errorf("added %d on failing source, want 0", added)
	}
	if calls := src.calls.Load(); calls != 2 {
		t.Errorf("source called %d times, want every attempt (2)", calls)
	}
}

func TestReplenishSingleFlightPerTier(t *testing.T) {
	src := &fakeSource{candidates: candidates(50, "alpha"), block: make(chan struct{})}
	b := NewBuffer(context.Background(), testBufferConfig(), src, NewSeenSet(), nil)

	done := make(chan int)
	go func() { done <- b.Replenish(context.Background(), types.TierEasy) }()

	deadline := time.Now().Add(time.Second)
	for src.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := b.Replenish(context.Background(), types.TierEasy); got != 0 {
		t.Errorf("concurrent Replenish returned %d, want 0", got)
	}
	close(src.block)
	if got := <-done; got != 1 {
		t.Errorf("first Replenish added %d, want 1", got)
	}
}

func TestPopSchedulesRefill(t *testing.T) {
	src := &fakeSource{candidates: candidates(50, "apple", "berry")}
	b := NewBuffer(context.Background(), DefaultBufferConfig(), src, NewSeenSet(), nil)

	if _, ok := b.Pop(types.TierEasy); ok {
		t.Fatal("Pop on empty buffer should report empty")
	}
	b.Wait()
	if b.Len(types.TierEasy) != 2 {
		t.Fatalf("buffer len after refill = %d, want 2", b.Len(types.TierEasy))
	}
	if _, ok := b.Pop(types.TierEasy); !ok {
		t.Error("Pop after refill should return a term")
	}
	b.Wait()
}

func TestPopConcurrentNeverDuplicates(t *testing.T) {
	var words []string
	for i := 0; i < 26; i++ {
		words = append(words, "term"+string(rune('a'+i)))
	}
	src := &fakeSource{candidates: candidates(50, words...)}
	cfg := testBufferConfig()
	cfg.PerQuerySample = 26
	b := NewBuffer(context.Background(), cfg, src, NewSeenSet(), nil)
	b.Replenish(context.Background(), types.TierEasy)

	var mu sync.Mutex
	popped := map[string]int{}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				term, ok := b.Pop(types.TierEasy)
				if !ok {
					return
				}
				mu.Lock()
				popped[term.Term]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	for w, n := range popped {
		if n != 1 {
			t.Errorf("%s popped %d times", w, n)
		}
	}
	if len(popped) != 26 {
		t.Errorf("popped %d distinct terms, want 26", len(popped))
	}
}

func TestLocalDictionaryTiers(t *testing.T) {
	d, err := DefaultLocalDictionary()
	if err != nil {
		t.Fatalf("DefaultLocalDictionary: %v", err)
	}
	for _, tier := range types.Tiers {
		if len(d.ForTier(tier)) == 0 {
			t.Errorf("no local entries for tier %s", tier)
		}
	}
	if e, ok := d.Lookup("Separate"); !ok || e.Tier() != types.TierEasy {
		t.Errorf("Lookup(Separate) = %+v, %v", e, ok)
	}
	if e, ok := d.Lookup("conscientious"); !ok || e.Tier() != types.TierHard {
		t.Errorf("level 4 entries belong to hard, got %+v", e)
	}
}

func TestLocalEntryToTerm(t *testing.T) {
	d, err := DefaultLocalDictionary()
	if err != nil {
		t.Fatalf("DefaultLocalDictionary: %v", err)
	}
	e, ok := d.Lookup("break the ice")
	if !ok {
		t.Fatal("break the ice missing from local dictionary")
	}
	term := e.ToTerm()
	if term.Etymology != "From breaking ice to allow boats to pass." {
		t.Errorf("Etymology = %q", term.Etymology)
	}
	if term.Explanation != "Relieving tension." || term.Type != "idiom" || term.Origin != types.OriginLocal {
		t.Errorf("unexpected term %+v", term)
	}

	data, err := json.Marshal(term)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"origin":"From breaking ice`) {
		t.Errorf("etymology not served as origin: %s", data)
	}
}

func TestStripMarkup(t *testing.T) {
	cases := map[string]string{
		"plain text":                   "plain text",
		"a <b>bold</b> move":           "a bold move",
		"line<br>break":                "line break",
		"fish &amp; chips":             "fish & chips",
		"<p>first</p><p>second</p>":    "first second",
		"  <i>un</i>usual   spacing  ": "unusual spacing",
	}
	for in, want := range cases {
		if got := StripMarkup(in); got != want {
			t.Errorf("StripMarkup(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAudioURL(t *testing.T) {
	got := AudioURL("https://audio.test/{term}.mp3", "Piece of Cake")
	if got != "https://audio.test/piece%20of%20cake.mp3" {
		t.Errorf("AudioURL = %q", got)
	}
	if AudioURL("", "x") != "" {
		t.Error("empty template should yield empty URL")
	}
}

func TestResolverPrimary(t *testing.T) {
	dict := &fakeDictionary{entries: map[string]*wordsource.Entry{
		"lucid": {
			Word:     "lucid",
			Phonetic: "/ˈluːsɪd/",
			Meanings: []wordsource.Meaning{
				{PartOfSpeech: "adjective", Definitions: []wordsource.Definition{{Definition: "Clearly <i>expressed</i>."}}, Synonyms: []string{"Clear"}},
				{PartOfSpeech: "adjective", Definitions: []wordsource.Definition{{Definition: "Bright.", Example: "a lucid sky", Synonyms: []string{"bright"}}}},
			},
		},
	}}
	dm := &fakeDatamuse{synonyms: map[string][]string{"lucid": {"clear", "intelligible"}}}
	r := NewResolver(dict, dm, nil)

	md, ok := r.Resolve(context.Background(), "lucid")
	if !ok {
		t.Fatal("Resolve should find a definition")
	}
	if md.Definition != "Clearly expressed." {
		t.Errorf("Definition = %q", md.Definition)
	}
	if md.Example != "a lucid sky" {
		t.Errorf("Example = %q, want first example across meanings", md.Example)
	}
	if md.PartOfSpeech != "adjective" || md.Phonetic != "/ˈluːsɪd/" {
		t.Errorf("unexpected metadata %+v", md)
	}
	want := []string{"clear", "intelligible", "bright"}
	if fmt.Sprint(md.Synonyms) != fmt.Sprint(want) {
		t.Errorf("Synonyms = %v, want %v", md.Synonyms, want)
	}
}

func TestResolverSecondaryAndUnavailable(t *testing.T) {
	dm := &fakeDatamuse{defs: map[string]string{"zephyr": "A gentle <b>breeze</b>."}}
	r := NewResolver(&fakeDictionary{}, dm, nil)

	md, ok := r.Resolve(context.Background(), "zephyr")
	if !ok || md.Definition != "A gentle breeze." || md.PartOfSpeech != "noun" {
		t.Errorf("secondary Resolve = %+v, %v", md, ok)
	}

	if _, ok := r.Resolve(context.Background(), "xyzzy"); ok {
		t.Error("Resolve with no definition anywhere should be unavailable")
	}

	r = NewResolver(&fakeDictionary{}, &fakeDatamuse{fail: true}, nil)
	if _, ok := r.Resolve(context.Background(), "zephyr"); ok {
		t.Error("Resolve with failing sources should be unavailable")
	}
}

func newTestService(src PrefixSource, dict DictionaryLookup, dm DefinitionLookup, local *LocalDictionary) (*Service, *Buffer, *SeenSet) {
	seen := NewSeenSet()
	buf := NewBuffer(context.Background(), testBufferConfig(), src, seen, nil)
	svc := NewService(buf, seen, NewResolver(dict, dm, nil), local, "https://audio.test/{term}.mp3", nil)
	return svc, buf, seen
}

func TestServiceServesBufferedWord(t *testing.T) {
	src := &fakeSource{candidates: candidates(50, "garden")}
	dict := &fakeDictionary{entries: map[string]*wordsource.Entry{
		"garden": {Word: "garden", Meanings: []wordsource.Meaning{{PartOfSpeech: "noun", Definitions: []wordsource.Definition{{Definition: "A piece of ground."}}}}},
	}}
	local, _ := DefaultLocalDictionary()
	svc, buf, seen := newTestService(src, dict, &fakeDatamuse{}, local)
	buf.Replenish(context.Background(), types.TierEasy)

	term := svc.Next(context.Background(), types.TierEasy)
	buf.Wait()
	if term.Term != "garden" || term.Origin != types.OriginExternal {
		t.Fatalf("Next = %+v, want external garden", term)
	}
	if term.Definition != "A piece of ground." || term.Audio != "https://audio.test/garden.mp3" {
		t.Errorf("unexpected enrichment %+v", term)
	}
	if !strings.HasPrefix(term.Example, "Usage: \"garden\" is a noun") {
		t.Errorf("Example = %q, want templated usage", term.Example)
	}
	if !seen.IsSeen("garden") || seen.Len() != 1 {
		t.Errorf("served word should be marked seen exactly once, seen=%d", seen.Len())
	}
}

func TestServiceDefinitionPlaceholder(t *testing.T) {
	src := &fakeSource{candidates: candidates(50, "qwerty")}
	local := NewLocalDictionary(nil)
	svc, buf, _ := newTestService(src, &fakeDictionary{}, &fakeDatamuse{}, local)
	buf.Replenish(context.Background(), types.TierEasy)

	term := svc.Next(context.Background(), types.TierEasy)
	buf.Wait()
	if term.Term != "qwerty" || term.Definition != DefinitionUnavailable {
		t.Errorf("Next = %+v, want qwerty with placeholder", term)
	}
}

func TestServiceForgetsUndefinedCandidate(t *testing.T) {
	src := &fakeSource{candidates: candidates(50, "qwerty", "garden")}
	dict := &fakeDictionary{entries: map[string]*wordsource.Entry{
		"garden": {Word: "garden", Meanings: []wordsource.Meaning{{PartOfSpeech: "noun", Definitions: []wordsource.Definition{{Definition: "A piece of ground."}}}}},
	}}
	svc, buf, seen := newTestService(src, dict, &fakeDatamuse{}, NewLocalDictionary(nil))
	buf.Replenish(context.Background(), types.TierEasy)

	// Pop order is random; either way only the served word stays seen.
	term := svc.Next(context.Background(), types.TierEasy)
	buf.Wait()
	if term.Term != "garden" {
		t.Fatalf("Next = %q, want garden", term.Term)
	}
	if seen.Len() != 1 || seen.IsSeen("qwerty") {
		t.Errorf("seen=%d qwerty seen=%v, want only garden", seen.Len(), seen.IsSeen("qwerty"))
	}
}

func TestServiceFallsBackToLocal(t *testing.T) {
	src := &fakeSource{err: errors.New("offline")}
	local, _ := DefaultLocalDictionary()
	svc, buf, seen := newTestService(src, &fakeDictionary{}, &fakeDatamuse{fail: true}, local)

	term := svc.Next(context.Background(), types.TierMedium)
	buf.Wait()
	if term.Origin != types.OriginLocal {
		t.Fatalf("origin = %q, want local", term.Origin)
	}
	entry, ok := local.Lookup(term.Term)
	if !ok || entry.Tier() != types.TierMedium {
		t.Errorf("served %q which is not a medium local entry", term.Term)
	}
	if !seen.IsSeen(term.Term) {
		t.Error("local word should be marked seen")
	}
}

func TestServiceResetsWhenLocalExhausted(t *testing.T) {
	src := &fakeSource{err: errors.New("offline")}
	local, _ := DefaultLocalDictionary()
	svc, buf, seen := newTestService(src, &fakeDictionary{}, &fakeDatamuse{fail: true}, local)

	for _, e := range local.ForTier(types.TierHard) {
		seen.MarkSeen(e.Term)
	}
	seen.MarkSeen("unrelated")

	term := svc.Next(context.Background(), types.TierHard)
	buf.Wait()
	if term.Term == "" {
		t.Fatal("Next must return a term after exhaustion")
	}
	if seen.IsSeen("unrelated") {
		t.Error("seen set should have been cleared")
	}
	if seen.Len() != 1 || !seen.IsSeen(term.Term) {
		t.Errorf("seen set should hold only the served term, len=%d", seen.Len())
	}
}

func TestServiceDefaultTerm(t *testing.T) {
	src := &fakeSource{err: errors.New("offline")}
	svc, buf, _ := newTestService(src, &fakeDictionary{}, &fakeDatamuse{fail: true}, NewLocalDictionary(nil))
	term := svc.Next(context.Background(), types.TierEasy)
	buf.Wait()
	if term.Origin != types.OriginDefault || term.Term != DefaultTerm().Term {
		t.Errorf("Next = %+v, want default term", term)
	}
}

func TestServiceResetAllowsReserve(t *testing.T) {
	local := NewLocalDictionary([]LocalEntry{{Term: "only", Level: 1, Definition: "Single."}})
	svc, buf, seen := newTestService(&fakeSource{err: errors.New("offline")}, &fakeDictionary{}, &fakeDatamuse{fail: true}, local)

	first := svc.Next(context.Background(), types.TierEasy)
	svc.Reset()
	if seen.Len() != 0 {
		t.Fatal("Reset should clear seen set")
	}
	second := svc.Next(context.Background(), types.TierEasy)
	buf.Wait()
	if first.Term != "only" || second.Term != "only" {
		t.Errorf("got %q then %q, want the same term re-served", first.Term, second.Term)
	}
}
