package board

import (
	"sync"
	"time"
)

// roomState is the live collaboration state of one room code. Everything in
// here is guarded by mu; each room has its own lock so rooms never contend
// with each other.
type roomState struct {
	mu sync.Mutex

	history     []Action
	redoStacks  map[string][]Action
	cursors     map[string]Cursor
	lasers      map[string]LaserPointer
	permissions map[string]Level

	lastTouch time.Time
}

func newRoomState() *roomState {
	return &roomState{
		redoStacks:  make(map[string][]Action),
		cursors:     make(map[string]Cursor),
		lasers:      make(map[string]LaserPointer),
		permissions: make(map[string]Level),
		lastTouch:   time.Now(),
	}
}

// Store holds the in-memory state of every room touched during process
// lifetime. Entries are created lazily on first use and only removed by the
// idle sweeper.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*roomState
}

func NewStore() *Store {
	return &Store{rooms: make(map[string]*roomState)}
}

// room returns the state for code, creating it on first touch.
func (s *Store) room(code string) *roomState {
	s.mu.RLock()
	rs, ok := s.rooms[code]
	s.mu.RUnlock()
	if ok {
		return rs
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if rs, ok = s.rooms[code]; ok {
		return rs
	}
	rs = newRoomState()
	s.rooms[code] = rs
	return rs
}

// Active reports whether a room code has live in-memory state. This is the
// only capability the core exposes to the HTTP layer.
func (s *Store) Active(code string) bool {
	s.mu.RLock()
	_, ok := s.rooms[code]
	s.mu.RUnlock()
	return ok
}

// ResolveJoin runs the permission decision for a connection attempt and
// records the result in the room's permission table. The caller must already
// have established that the room exists; facts carries the relational
// lookups done outside this critical section.
func (s *Store) ResolveJoin(code, userID string, facts ConnectFacts) Level {
	rs := s.room(code)
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.lastTouch = time.Now()

	var level Level
	switch {
	case !facts.Authenticated:
		if facts.IsPublic {
			// One-time bootstrap: the very first user seen in a public
			// room gets edit, everyone after gets view.
			if len(rs.permissions) == 0 {
				level = LevelEdit
			} else {
				level = LevelView
			}
		} else {
			level = LevelNone
		}
		// Anonymous sharing links may pin the permission they were
		// issued with. Only view/edit are honored.
		if facts.Requested == LevelView || facts.Requested == LevelEdit {
			level = facts.Requested
		}
	case facts.CreatorID != "" && facts.PrincipalID == facts.CreatorID:
		level = LevelAdmin
	case facts.HasParticipant:
		level = facts.ParticipantLevel
	case facts.IsPublic:
		level = LevelView
	default:
		level = LevelNone
	}

	rs.permissions[userID] = level
	return level
}

// Permission re-reads the user's resolved level. Gated events call this per
// event rather than trusting the value cached at connect time.
func (s *Store) Permission(code, userID string) Level {
	rs := s.room(code)
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.permissions[userID]
}

// AppendAction commits a new action: it goes to the end of the history and
// invalidates the acting user's pending redos. Other users' redo stacks are
// untouched.
func (s *Store) AppendAction(code string, a Action) {
	rs := s.room(code)
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.lastTouch = time.Now()
	rs.history = append(rs.history, a)
	delete(rs.redoStacks, a.UserID)
}

// Clear empties the history and every user's redo stack.
func (s *Store) Clear(code string) {
	rs := s.room(code)
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.lastTouch = time.Now()
	rs.history = rs.history[:0]
	for uid := range rs.redoStacks {
		delete(rs.redoStacks, uid)
	}
}

// Undo removes the user's most recent action from the history, regardless of
// how many other users' actions landed after it, and pushes it onto that
// user's redo stack. The relative order of the remaining entries is
// preserved. Returns false when the user has nothing to undo.
func (s *Store) Undo(code, userID string) (Action, bool) {
	rs := s.room(code)
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.lastTouch = time.Now()
	for i := len(rs.history) - 1; i >= 0; i-- {
		if rs.history[i].UserID != userID {
			continue
		}
		a := rs.history[i]
		rs.history = append(rs.history[:i], rs.history[i+1:]...)
		rs.redoStacks[userID] = append(rs.redoStacks[userID], a)
		return a, true
	}
	return Action{}, false
}

// Redo pops the user's redo stack and reinserts the action at the current
// end of the history. After interleaved multi-user edits the resulting order
// may differ from the original causal order; that is accepted.
func (s *Store) Redo(code, userID string) (Action, bool) {
	rs := s.room(code)
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.lastTouch = time.Now()
	stack := rs.redoStacks[userID]
	if len(stack) == 0 {
		return Action{}, false
	}
	a := stack[len(stack)-1]
	rs.redoStacks[userID] = stack[:len(stack)-1]
	rs.history = append(rs.history, a)
	return a, true
}

func (s *Store) CanUndo(code, userID string) bool {
	rs := s.room(code)
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return canUndoLocked(rs, userID)
}

func (s *Store) CanRedo(code, userID string) bool {
	rs := s.room(code)
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.redoStacks[userID]) > 0
}

func canUndoLocked(rs *roomState, userID string) bool {
	for _, a := range rs.history {
		if a.UserID == userID {
			return true
		}
	}
	return false
}

// SetCursor overwrites the user's cursor position.
func (s *Store) SetCursor(code, userID string, c Cursor) {
	rs := s.room(code)
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.lastTouch = time.Now()
	rs.cursors[userID] = c
}

// SetLaserPointer overwrites the user's laser pointer position.
func (s *Store) SetLaserPointer(code, userID string, lp LaserPointer) {
	rs := s.room(code)
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.lastTouch = time.Now()
	rs.lasers[userID] = lp
}

// RemoveUser drops the user's ephemeral state on disconnect. Permissions and
// redo stacks survive so a reconnect with the same user id picks up where it
// left off.
func (s *Store) RemoveUser(code, userID string) {
	rs := s.room(code)
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.lastTouch = time.Now()
	delete(rs.cursors, userID)
	delete(rs.lasers, userID)
}

// Status returns the user's undo/redo availability and permission in one
// critical section, for history_status messages.
func (s *Store) Status(code, userID string) (canUndo, canRedo bool, level Level) {
	rs := s.room(code)
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return canUndoLocked(rs, userID), len(rs.redoStacks[userID]) > 0, rs.permissions[userID]
}

// BoardSnapshot is one user's view of the board, used for board_state
// messages.
type BoardSnapshot struct {
	History    []Action
	CanUndo    bool
	CanRedo    bool
	Permission Level
}

// Snapshot copies the history together with the user's undo/redo
// availability and permission.
func (s *Store) Snapshot(code, userID string) BoardSnapshot {
	rs := s.room(code)
	rs.mu.Lock()
	defer rs.mu.Unlock()
	history := make([]Action, len(rs.history))
	copy(history, rs.history)
	return BoardSnapshot{
		History:    history,
		CanUndo:    canUndoLocked(rs, userID),
		CanRedo:    len(rs.redoStacks[userID]) > 0,
		Permission: rs.permissions[userID],
	}
}
