package ws

import (
	"encoding/json"

	"whiteboardgo/internal/board"
)

// Every WS frame is a flat JSON object discriminated by "type".
// Inbound types: draw, shape, text, cursor_move, laser_pointer,
// clear_canvas, undo, redo. Anything else is silently dropped.

// ──────────────────────────── Inbound payloads ───────────────────────────

type DrawRequest struct {
	ToolType    string          `json:"tool_type"`
	Color       string          `json:"color"`
	StrokeWidth int             `json:"stroke_width"`
	Data        json.RawMessage `json:"data"`
}

type ShapeRequest struct {
	ShapeType   string          `json:"shape_type"`
	Color       string          `json:"color"`
	StrokeWidth int             `json:"stroke_width"`
	FillColor   string          `json:"fill_color"`
	Data        json.RawMessage `json:"data"`
}

type TextRequest struct {
	Text     string          `json:"text"`
	Color    string          `json:"color"`
	FontSize int             `json:"font_size"`
	Position *board.Position `json:"position"`
}

type CursorMoveRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type LaserPointerRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	// nil means the field was absent; absent defaults to active.
	Active *bool `json:"active"`
}

// EmptyRequest is the body for clear_canvas / undo / redo.
type EmptyRequest struct{}

// ──────────────────────────── Outbound frames ────────────────────────────

type boardStateMsg struct {
	Type           string         `json:"type"` // "board_state"
	History        []board.Action `json:"history"`
	CanUndo        bool           `json:"canUndo"`
	CanRedo        bool           `json:"canRedo"`
	UserPermission board.Level    `json:"user_permission"`
}

type historyStatusMsg struct {
	Type           string      `json:"type"` // "history_status"
	CanUndo        bool        `json:"canUndo"`
	CanRedo        bool        `json:"canRedo"`
	UserPermission board.Level `json:"user_permission"`
}

type drawMsg struct {
	Type    string         `json:"type"` // "draw"
	Drawing *board.Drawing `json:"drawing"`
}

type shapeMsg struct {
	Type  string       `json:"type"` // "shape"
	Shape *board.Shape `json:"shape"`
}

type textMsg struct {
	Type string      `json:"type"` // "text"
	Text *board.Text `json:"text"`
}

type cursorMoveMsg struct {
	Type       string       `json:"type"` // "cursor_move"
	UserID     string       `json:"user_id"`
	CursorData board.Cursor `json:"cursor_data"`
}

type laserPointerMsg struct {
	Type      string             `json:"type"` // "laser_pointer"
	UserID    string             `json:"user_id"`
	LaserData board.LaserPointer `json:"laser_data"`
}

type clearCanvasMsg struct {
	Type      string `json:"type"` // "clear_canvas"
	ClearedBy string `json:"cleared_by"`
}

type userJoinedMsg struct {
	Type       string      `json:"type"` // "user_joined"
	UserID     string      `json:"user_id"`
	Username   string      `json:"username"`
	Permission board.Level `json:"permission"`
}

type userLeftMsg struct {
	Type     string `json:"type"` // "user_left"
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type errorMsg struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}
