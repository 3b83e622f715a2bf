package board

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Room state is never torn down on last-disconnect, so without a sweep the
// process accumulates every room code it has ever seen. The sweeper evicts
// rooms that have had no joined sessions and no state mutations for idleTTL.

// SessionCounter reports how many sessions are currently joined to a room.
// Implemented by the ws hub.
type SessionCounter interface {
	Count(code string) int
}

// RunSweeper starts the background eviction pass. It must be started once at
// service boot and stops when ctx is canceled.
func (s *Store) RunSweeper(ctx context.Context, sessions SessionCounter, interval, idleTTL time.Duration) {
	tk := time.NewTicker(interval)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				if n := s.sweepOnce(sessions, idleTTL); n > 0 {
					zap.L().Info("board.sweep", zap.Int("evicted", n))
				}
			}
		}
	}()
}

func (s *Store) sweepOnce(sessions SessionCounter, idleTTL time.Duration) int {
	cutoff := time.Now().Add(-idleTTL)

	// Collect candidates under the read lock; the per-room lastTouch read
	// takes each room's own lock briefly.
	s.mu.RLock()
	candidates := make([]string, 0)
	for code, rs := range s.rooms {
		rs.mu.Lock()
		idle := rs.lastTouch.Before(cutoff)
		rs.mu.Unlock()
		if idle {
			candidates = append(candidates, code)
		}
	}
	s.mu.RUnlock()

	evicted := 0
	for _, code := range candidates {
		if sessions.Count(code) > 0 {
			continue
		}
		s.mu.Lock()
		// Re-check under the write lock: a session may have touched the
		// room between the scan and now.
		if rs, ok := s.rooms[code]; ok {
			rs.mu.Lock()
			stillIdle := rs.lastTouch.Before(cutoff)
			rs.mu.Unlock()
			if stillIdle {
				delete(s.rooms, code)
				evicted++
			}
		}
		s.mu.Unlock()
	}
	return evicted
}
