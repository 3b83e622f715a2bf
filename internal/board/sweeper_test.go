package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeSessions map[string]int

func (f fakeSessions) Count(code string) int { return f[code] }

func TestSweepEvictsIdleRoomsOnly(t *testing.T) {
	s := NewStore()
	s.AppendAction("idle", drawAction("u1", 0))
	s.AppendAction("busy", drawAction("u1", 0))
	s.AppendAction("occupied", drawAction("u1", 0))

	// Backdate the idle candidates.
	for _, code := range []string{"idle", "occupied"} {
		rs := s.room(code)
		rs.mu.Lock()
		rs.lastTouch = time.Now().Add(-time.Hour)
		rs.mu.Unlock()
	}

	evicted := s.sweepOnce(fakeSessions{"occupied": 1}, 30*time.Minute)

	assert.Equal(t, 1, evicted)
	assert.False(t, s.Active("idle"))
	assert.True(t, s.Active("busy"), "recently touched room must survive")
	assert.True(t, s.Active("occupied"), "room with joined sessions must survive")
}

func TestSweepRechecksTouchBeforeEvicting(t *testing.T) {
	s := NewStore()
	s.AppendAction("r", drawAction("u1", 0))

	evicted := s.sweepOnce(fakeSessions{}, 30*time.Minute)
	assert.Equal(t, 0, evicted)
	assert.True(t, s.Active("r"))
}
