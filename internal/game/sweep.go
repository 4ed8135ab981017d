package game

import (
	"context"
	"time"
)

const DefaultSweepInterval = 5 * time.Minute

// Sweep ends every session idle for longer than the store timeout and
// returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.timeout)
	removed := 0
	for token, sess := range s.sessions {
		if sess.LastSeen.Before(cutoff) && s.endLocked(token, "expired") {
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("session sweep completed", "removed", removed, "remaining", len(s.sessions))
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("session sweeper started", "interval", interval, "timeout", s.timeout)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session sweeper stopping")
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
