package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"whiteboardgo/internal/board"
	roomsvc "whiteboardgo/internal/services/room"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 12 * time.Second
	pingPeriod = 3 * time.Second // must be < pongWait

	maxMessageSize = 64 << 10

	// Close code for "room not found / access denied", distinct from the
	// normal-closure 1000 so clients can tell a rejected join apart from
	// an ordinary disconnect.
	CloseRoomNotFound = 4004
)

// Per-event errors sent back to the offending sender only. The rest of the
// room never sees them.
var (
	errNoDrawPermission  = errors.New("You do not have permission to draw in this room")
	errNoTextPermission  = errors.New("You do not have permission to add text in this room")
	errNoClearPermission = errors.New("You do not have permission to clear the canvas")
	errNoUndoPermission  = errors.New("You do not have permission to undo actions")
	errNoRedoPermission  = errors.New("You do not have permission to redo actions")
	errNothingToUndo     = errors.New("No actions to undo")
	errNothingToRedo     = errors.New("No actions to redo")
)

// ConnContext is the per-session identity handed to every handler.
type ConnContext struct {
	RoomCode string
	UserID   string
	Username string
	Server   *WsServer

	conn *clientConn
}

type WsServer struct {
	hub     *Hub
	router  *Router
	store   *board.Store
	roomSvc roomsvc.IRoomService

	upgrader websocket.Upgrader
}

func NewWsServer(h *Hub, store *board.Store, roomSvc roomsvc.IRoomService) *WsServer {
	srv := &WsServer{
		hub:     h,
		router:  NewRouter(),
		store:   store,
		roomSvc: roomSvc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true }, // dev-only
		},
	}
	srv.registerHandlers() // ← all WS message types configured here
	return srv
}

// ---------------------------------------------------------------------------
//  Public: Gin entry-point
// ---------------------------------------------------------------------------

// Handle serves GET /ws/whiteboard/:room_id.
//
// Connection parameters: user_id (reused across reconnects to keep undo/redo
// ownership), username (display name), permission (anonymous sharing
// override, view/edit only). The authenticated principal, if any, arrives in
// the X-User-Id header set by the auth layer in front of this service.
func (s *WsServer) Handle(ginCtx *gin.Context) {
	roomCode := ginCtx.Param("room_id")
	if roomCode == "" {
		ginCtx.JSON(http.StatusBadRequest, gin.H{"error": "room_id is required"})
		return
	}

	userID := ginCtx.Query("user_id")
	if userID == "" {
		userID = uuid.NewString()
	}
	username := ginCtx.Query("username")
	if username == "" {
		username = "Anonymous"
	}
	principal := ginCtx.GetHeader("X-User-Id")

	rawConn, err := s.upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.upgrade", zap.Error(err))
		return
	}
	wsConn := &clientConn{rawConn: rawConn}

	// ─────────────────── Permission resolution ────────────────────
	// Both collaborator lookups happen here, before any per-room critical
	// section is entered.
	lookupCtx, cancel := context.WithTimeout(ginCtx.Request.Context(), 4*time.Second)
	facts, err := s.connectFacts(lookupCtx, roomCode, principal)
	cancel()
	if err != nil {
		if errors.Is(err, roomsvc.ErrRoomNotFound) {
			wsConn.closeWith(CloseRoomNotFound, "room not found")
		} else {
			zap.L().Warn("ws.room_lookup", zap.String("room", roomCode), zap.Error(err))
			wsConn.closeWith(websocket.CloseInternalServerErr, "room lookup failed")
		}
		return
	}
	if lvl := board.ParseLevel(ginCtx.Query("permission")); lvl == board.LevelView || lvl == board.LevelEdit {
		facts.Requested = lvl
	}
	level := s.store.ResolveJoin(roomCode, userID, facts)

	// ─────────────────── Client joined ────────────────────────
	s.hub.Join(roomCode, wsConn)

	cc := &ConnContext{
		RoomCode: roomCode,
		UserID:   userID,
		Username: username,
		Server:   s,
		conn:     wsConn,
	}

	// Private full-state snapshot for the newcomer, then tell the room.
	if err := s.pushInitialState(cc); err != nil {
		zap.L().Warn("ws.initial_state", zap.Error(err))
	}
	s.broadcast(roomCode, userJoinedMsg{
		Type:       "user_joined",
		UserID:     userID,
		Username:   username,
		Permission: level,
	})

	go s.reader(cc)
	go s.pinger(wsConn)
}

// connectFacts gathers the external-collaborator inputs for the permission
// resolver: room identity and, for authenticated principals, the stored
// participant record.
func (s *WsServer) connectFacts(ctx context.Context, roomCode, principal string) (board.ConnectFacts, error) {
	rm, err := s.roomSvc.GetRoom(ctx, roomCode)
	if err != nil {
		return board.ConnectFacts{}, err
	}

	facts := board.ConnectFacts{
		IsPublic:  rm.IsPublic,
		CreatorID: rm.CreatedBy,
	}
	if principal == "" {
		return facts, nil
	}
	facts.Authenticated = true
	facts.PrincipalID = principal

	lvl, err := s.roomSvc.ParticipantLevel(ctx, rm.ID, principal)
	switch {
	case err == nil:
		facts.HasParticipant = true
		facts.ParticipantLevel = lvl
	case errors.Is(err, roomsvc.ErrNotParticipant):
		// not a member, fall through to the public/private rule
	default:
		return board.ConnectFacts{}, err
	}
	return facts, nil
}

// ---------------------------------------------------------------------------
//  Message handlers
// ---------------------------------------------------------------------------

func (s *WsServer) registerHandlers() {
	Register(s.router, "draw", s.handleDraw)
	Register(s.router, "shape", s.handleShape)
	Register(s.router, "text", s.handleText)
	Register(s.router, "cursor_move", s.handleCursorMove)
	Register(s.router, "laser_pointer", s.handleLaserPointer)
	Register(s.router, "clear_canvas", s.handleClearCanvas)
	Register(s.router, "undo", s.handleUndo)
	Register(s.router, "redo", s.handleRedo)
}

func (s *WsServer) handleDraw(_ context.Context, cc *ConnContext, req DrawRequest) error {
	if !s.store.Permission(cc.RoomCode, cc.UserID).CanEdit() {
		return errNoDrawPermission
	}
	d := &board.Drawing{
		ToolType:    defaultString(req.ToolType, "pen"),
		Color:       defaultString(req.Color, "#000000"),
		StrokeWidth: defaultInt(req.StrokeWidth, 2),
		Data:        defaultData(req.Data),
		UserID:      cc.UserID,
	}
	s.store.AppendAction(cc.RoomCode, board.Action{Type: board.ActionDraw, Drawing: d, UserID: cc.UserID})
	s.broadcast(cc.RoomCode, drawMsg{Type: "draw", Drawing: d})
	s.broadcastHistoryStatus(cc)
	return nil
}

func (s *WsServer) handleShape(_ context.Context, cc *ConnContext, req ShapeRequest) error {
	if !s.store.Permission(cc.RoomCode, cc.UserID).CanEdit() {
		return errNoDrawPermission
	}
	sh := &board.Shape{
		ShapeType:   defaultString(req.ShapeType, "rectangle"),
		Color:       defaultString(req.Color, "#000000"),
		StrokeWidth: defaultInt(req.StrokeWidth, 2),
		FillColor:   defaultString(req.FillColor, "transparent"),
		Data:        defaultData(req.Data),
		UserID:      cc.UserID,
	}
	s.store.AppendAction(cc.RoomCode, board.Action{Type: board.ActionShape, Shape: sh, UserID: cc.UserID})
	s.broadcast(cc.RoomCode, shapeMsg{Type: "shape", Shape: sh})
	s.broadcastHistoryStatus(cc)
	return nil
}

func (s *WsServer) handleText(_ context.Context, cc *ConnContext, req TextRequest) error {
	if !s.store.Permission(cc.RoomCode, cc.UserID).CanEdit() {
		return errNoTextPermission
	}
	pos := board.Position{}
	if req.Position != nil {
		pos = *req.Position
	}
	tx := &board.Text{
		Text:     req.Text,
		Color:    defaultString(req.Color, "#000000"),
		FontSize: defaultInt(req.FontSize, 16),
		Position: pos,
		UserID:   cc.UserID,
	}
	s.store.AppendAction(cc.RoomCode, board.Action{Type: board.ActionText, Text: tx, UserID: cc.UserID})
	s.broadcast(cc.RoomCode, textMsg{Type: "text", Text: tx})
	s.broadcastHistoryStatus(cc)
	return nil
}

func (s *WsServer) handleCursorMove(_ context.Context, cc *ConnContext, req CursorMoveRequest) error {
	c := board.Cursor{X: req.X, Y: req.Y, Username: cc.Username}
	s.store.SetCursor(cc.RoomCode, cc.UserID, c)
	s.broadcast(cc.RoomCode, cursorMoveMsg{Type: "cursor_move", UserID: cc.UserID, CursorData: c})
	return nil
}

func (s *WsServer) handleLaserPointer(_ context.Context, cc *ConnContext, req LaserPointerRequest) error {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	lp := board.LaserPointer{X: req.X, Y: req.Y, Username: cc.Username, Active: active}
	s.store.SetLaserPointer(cc.RoomCode, cc.UserID, lp)
	s.broadcast(cc.RoomCode, laserPointerMsg{Type: "laser_pointer", UserID: cc.UserID, LaserData: lp})
	return nil
}

func (s *WsServer) handleClearCanvas(_ context.Context, cc *ConnContext, _ EmptyRequest) error {
	if !s.store.Permission(cc.RoomCode, cc.UserID).CanEdit() {
		return errNoClearPermission
	}
	s.store.Clear(cc.RoomCode)
	s.broadcast(cc.RoomCode, clearCanvasMsg{Type: "clear_canvas", ClearedBy: cc.Username})
	s.broadcastHistoryStatus(cc)
	return nil
}

func (s *WsServer) handleUndo(_ context.Context, cc *ConnContext, _ EmptyRequest) error {
	if !s.store.Permission(cc.RoomCode, cc.UserID).CanEdit() {
		return errNoUndoPermission
	}
	if _, ok := s.store.Undo(cc.RoomCode, cc.UserID); !ok {
		return errNothingToUndo
	}
	s.broadcastBoardState(cc)
	return nil
}

func (s *WsServer) handleRedo(_ context.Context, cc *ConnContext, _ EmptyRequest) error {
	if !s.store.Permission(cc.RoomCode, cc.UserID).CanEdit() {
		return errNoRedoPermission
	}
	if _, ok := s.store.Redo(cc.RoomCode, cc.UserID); !ok {
		return errNothingToRedo
	}
	s.broadcastBoardState(cc)
	return nil
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

func (s *WsServer) pushInitialState(cc *ConnContext) error {
	snap := s.store.Snapshot(cc.RoomCode, cc.UserID)
	return cc.conn.writeJSON(boardStateMsg{
		Type:           "board_state",
		History:        snap.History,
		CanUndo:        snap.CanUndo,
		CanRedo:        snap.CanRedo,
		UserPermission: snap.Permission,
	})
}

// broadcastBoardState fans the full history out to the room. The
// canUndo/canRedo values are the acting user's, not each recipient's; see
// DESIGN.md.
func (s *WsServer) broadcastBoardState(cc *ConnContext) {
	snap := s.store.Snapshot(cc.RoomCode, cc.UserID)
	s.broadcast(cc.RoomCode, boardStateMsg{
		Type:           "board_state",
		History:        snap.History,
		CanUndo:        snap.CanUndo,
		CanRedo:        snap.CanRedo,
		UserPermission: snap.Permission,
	})
}

func (s *WsServer) broadcastHistoryStatus(cc *ConnContext) {
	canUndo, canRedo, level := s.store.Status(cc.RoomCode, cc.UserID)
	s.broadcast(cc.RoomCode, historyStatusMsg{
		Type:           "history_status",
		CanUndo:        canUndo,
		CanRedo:        canRedo,
		UserPermission: level,
	})
}

func (s *WsServer) broadcast(roomCode string, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		zap.L().Error("ws.marshal", zap.Error(err))
		return
	}
	s.hub.Broadcast(roomCode, data)
}

func (s *WsServer) reader(cc *ConnContext) {
	conn := cc.conn
	defer func() {
		// Disconnect cleanup runs on every exit path: drop ephemeral
		// state, tell the room, then leave the broadcast group.
		s.store.RemoveUser(cc.RoomCode, cc.UserID)
		s.broadcast(cc.RoomCode, userLeftMsg{Type: "user_left", UserID: cc.UserID, Username: cc.Username})
		s.hub.Leave(cc.RoomCode, conn)
	}()

	conn.rawConn.SetReadLimit(maxMessageSize)
	_ = conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	conn.rawConn.SetPongHandler(func(string) error {
		return conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.rawConn.ReadMessage()
		if err != nil {
			return // client closed or errored
		}

		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			zap.L().Debug("ws.bad_frame", zap.Error(err))
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1900*time.Millisecond)
		err = s.router.dispatch(ctx, cc, head.Type, raw)
		cancel()

		// ---- error -> private {"type":"error", ...} ---------------
		if err != nil {
			_ = conn.writeJSON(errorMsg{Type: "error", Message: err.Error()})
		}
	}
}

func (s *WsServer) pinger(conn *clientConn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.ping(); err != nil {
			_ = conn.rawConn.Close()
			return
		}
	}
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func defaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func defaultData(v json.RawMessage) json.RawMessage {
	if len(v) == 0 {
		return json.RawMessage(`{}`)
	}
	return v
}
