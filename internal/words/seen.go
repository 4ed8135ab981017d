package words

import (
	"strings"
	"sync"
)

// SeenSet records every term already served during the process lifetime.
// Keys are lower-cased.
type SeenSet struct {
	mu    sync.Mutex
	words map[string]struct{}
}

func NewSeenSet() *SeenSet {
	return &SeenSet{words: make(map[string]struct{})}
}

// MarkSeen adds term and reports whether it was not already present.
func (s *SeenSet) MarkSeen(term string) bool {
	key := strings.ToLower(term)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.words[key]; ok {
		return false
	}
	s.words[key] = struct{}{}
	return true
}

func (s *SeenSet) IsSeen(term string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.words[strings.ToLower(term)]
	return ok
}

// Forget drops a single term claimed but never served.
func (s *SeenSet) Forget(term string) {
	s.mu.Lock()
	delete(s.words, strings.ToLower(term))
	s.mu.Unlock()
}

func (s *SeenSet) Reset() {
	s.mu.Lock()
	s.words = make(map[string]struct{})
	s.mu.Unlock()
}

func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.words)
}
