package board

import "encoding/json"

// Action kinds as they appear on the wire and in history.
const (
	ActionDraw  = "draw"
	ActionShape = "shape"
	ActionText  = "text"
)

// Drawing is one freehand stroke. Data is the tool-specific geometry blob;
// the server stores and forwards it without interpreting it.
type Drawing struct {
	ToolType    string          `json:"tool_type"`
	Color       string          `json:"color"`
	StrokeWidth int             `json:"stroke_width"`
	Data        json.RawMessage `json:"data"`
	UserID      string          `json:"user_id"`
}

type Shape struct {
	ShapeType   string          `json:"shape_type"`
	Color       string          `json:"color"`
	StrokeWidth int             `json:"stroke_width"`
	FillColor   string          `json:"fill_color"`
	Data        json.RawMessage `json:"data"`
	UserID      string          `json:"user_id"`
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Text struct {
	Text     string   `json:"text"`
	Color    string   `json:"color"`
	FontSize int      `json:"font_size"`
	Position Position `json:"position"`
	UserID   string   `json:"user_id"`
}

// Action is one undoable board contribution. Exactly one of Drawing, Shape
// or Text is set, matching Type. Actions are immutable once created; undo
// and redo move them between the history and a user's redo stack without
// modifying them.
type Action struct {
	Type    string   `json:"type"`
	Drawing *Drawing `json:"drawing,omitempty"`
	Shape   *Shape   `json:"shape,omitempty"`
	Text    *Text    `json:"text,omitempty"`
	UserID  string   `json:"user_id"`
}

// Cursor is a user's ephemeral pointer position.
type Cursor struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Username string  `json:"username"`
}

// LaserPointer is the transient presenter pointer.
type LaserPointer struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Username string  `json:"username"`
	Active   bool    `json:"active"`
}
