package board

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drawAction(userID string, seq int) Action {
	d := &Drawing{
		ToolType:    "pen",
		Color:       "#000000",
		StrokeWidth: 2,
		Data:        json.RawMessage(fmt.Sprintf(`{"seq":%d}`, seq)),
		UserID:      userID,
	}
	return Action{Type: ActionDraw, Drawing: d, UserID: userID}
}

func TestAppendKeepsSubmissionOrder(t *testing.T) {
	s := NewStore()
	for i := 0; i < 5; i++ {
		s.AppendAction("ABC123", drawAction("u1", i))
	}

	snap := s.Snapshot("ABC123", "u1")
	require.Len(t, snap.History, 5)
	for i, a := range snap.History {
		assert.JSONEq(t, fmt.Sprintf(`{"seq":%d}`, i), string(a.Drawing.Data))
	}
	assert.True(t, snap.CanUndo)
	assert.False(t, snap.CanRedo)
}

func TestUndoThenRedoRestoresHistory(t *testing.T) {
	s := NewStore()
	s.AppendAction("r", drawAction("u1", 0))
	s.AppendAction("r", drawAction("u1", 1))

	a, ok := s.Undo("r", "u1")
	require.True(t, ok)
	assert.JSONEq(t, `{"seq":1}`, string(a.Drawing.Data))
	assert.Len(t, s.Snapshot("r", "u1").History, 1)
	assert.True(t, s.CanRedo("r", "u1"))

	a, ok = s.Redo("r", "u1")
	require.True(t, ok)
	assert.JSONEq(t, `{"seq":1}`, string(a.Drawing.Data))

	snap := s.Snapshot("r", "u1")
	require.Len(t, snap.History, 2)
	assert.JSONEq(t, `{"seq":0}`, string(snap.History[0].Drawing.Data))
	assert.JSONEq(t, `{"seq":1}`, string(snap.History[1].Drawing.Data))
	assert.False(t, snap.CanRedo)
}

func TestUndoSkipsOtherUsersActions(t *testing.T) {
	s := NewStore()
	s.AppendAction("r", drawAction("u1", 0))
	s.AppendAction("r", drawAction("u2", 1))
	s.AppendAction("r", drawAction("u2", 2))

	// u1's latest action is buried under two of u2's; undo must pull it
	// out of the middle, not pop the global tail.
	a, ok := s.Undo("r", "u1")
	require.True(t, ok)
	assert.Equal(t, "u1", a.UserID)

	snap := s.Snapshot("r", "u2")
	require.Len(t, snap.History, 2)
	assert.JSONEq(t, `{"seq":1}`, string(snap.History[0].Drawing.Data))
	assert.JSONEq(t, `{"seq":2}`, string(snap.History[1].Drawing.Data))
}

func TestRedoReinsertsAtEnd(t *testing.T) {
	s := NewStore()
	s.AppendAction("r", drawAction("u1", 0))
	_, ok := s.Undo("r", "u1")
	require.True(t, ok)

	// Another user appends while u1's action sits in the redo stack.
	s.AppendAction("r", drawAction("u2", 1))

	_, ok = s.Redo("r", "u1")
	require.True(t, ok)

	snap := s.Snapshot("r", "u1")
	require.Len(t, snap.History, 2)
	assert.Equal(t, "u2", snap.History[0].UserID)
	assert.Equal(t, "u1", snap.History[1].UserID)
}

func TestUndoWithNothingToUndo(t *testing.T) {
	s := NewStore()
	s.AppendAction("r", drawAction("u2", 0))

	_, ok := s.Undo("r", "u1")
	assert.False(t, ok)
	// Every user still sees the untouched history.
	assert.Len(t, s.Snapshot("r", "u1").History, 1)
	assert.Len(t, s.Snapshot("r", "u2").History, 1)
}

func TestRedoOnEmptyStack(t *testing.T) {
	s := NewStore()
	_, ok := s.Redo("r", "u1")
	assert.False(t, ok)
}

func TestAppendClearsOnlyActingUsersRedoStack(t *testing.T) {
	s := NewStore()
	s.AppendAction("r", drawAction("u1", 0))
	s.AppendAction("r", drawAction("u2", 1))
	_, ok := s.Undo("r", "u1")
	require.True(t, ok)
	_, ok = s.Undo("r", "u2")
	require.True(t, ok)

	s.AppendAction("r", drawAction("u1", 2))

	assert.False(t, s.CanRedo("r", "u1"), "u1 committed a new action, redos invalidated")
	assert.True(t, s.CanRedo("r", "u2"), "u2's pending redo must survive u1's commit")
}

func TestClearEmptiesHistoryAndAllRedoStacks(t *testing.T) {
	s := NewStore()
	s.AppendAction("r", drawAction("u1", 0))
	s.AppendAction("r", drawAction("u2", 1))
	_, ok := s.Undo("r", "u2")
	require.True(t, ok)

	s.Clear("r")

	assert.Empty(t, s.Snapshot("r", "u1").History)
	assert.False(t, s.CanRedo("r", "u2"))
	_, ok = s.Undo("r", "u1")
	assert.False(t, ok)
	_, ok = s.Undo("r", "u2")
	assert.False(t, ok)
}

func TestRemoveUserKeepsPermissionAndRedoStack(t *testing.T) {
	s := NewStore()
	s.ResolveJoin("r", "u1", ConnectFacts{IsPublic: true})
	s.SetCursor("r", "u1", Cursor{X: 1, Y: 2, Username: "alice"})
	s.SetLaserPointer("r", "u1", LaserPointer{X: 3, Y: 4, Username: "alice", Active: true})
	s.AppendAction("r", drawAction("u1", 0))
	_, ok := s.Undo("r", "u1")
	require.True(t, ok)

	s.RemoveUser("r", "u1")

	// Reconnect continuity: permission and redo stack survive disconnect.
	assert.Equal(t, LevelEdit, s.Permission("r", "u1"))
	assert.True(t, s.CanRedo("r", "u1"))
}

func TestActive(t *testing.T) {
	s := NewStore()
	assert.False(t, s.Active("r"))
	s.AppendAction("r", drawAction("u1", 0))
	assert.True(t, s.Active("r"))
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewStore()
	s.AppendAction("r", drawAction("u1", 0))
	snap := s.Snapshot("r", "u1")
	s.AppendAction("r", drawAction("u1", 1))
	assert.Len(t, snap.History, 1)
}

func TestConcurrentAppendsAcrossRooms(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		room := fmt.Sprintf("room-%d", i%2)
		user := fmt.Sprintf("u%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.AppendAction(room, drawAction(user, j))
			}
		}()
	}
	wg.Wait()

	assert.Len(t, s.Snapshot("room-0", "u0").History, 200)
	assert.Len(t, s.Snapshot("room-1", "u1").History, 200)
}
