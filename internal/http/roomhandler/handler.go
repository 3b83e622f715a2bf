package roomhandler

import (
	"errors"
	"net/http"

	"whiteboardgo/internal/services/room"

	"github.com/gin-gonic/gin"
)

// BoardActivity is the one capability the collaboration core exposes to the
// HTTP layer: whether a room code currently has live in-memory state.
type BoardActivity interface {
	Active(code string) bool
}

type Handler struct {
	svc   room.IRoomService
	board BoardActivity
}

func New(svc room.IRoomService, board BoardActivity) *Handler {
	return &Handler{svc: svc, board: board}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/api/rooms", h.list)
	r.POST("/api/rooms", h.create)
	r.GET("/api/rooms/:id", h.info)
	r.GET("/api/rooms/:id/check_access", h.checkAccess)
	r.POST("/api/rooms/:id/join", h.join)
	r.POST("/api/rooms/:id/leave", h.leave)
	r.POST("/api/rooms/:id/invite_user", h.inviteUser)
	r.POST("/api/rooms/:id/update_participant_permission", h.updatePermission)
	r.GET("/api/rooms/:id/participants", h.participants)
	r.GET("/api/rooms/:id/messages", h.listMessages)
	r.POST("/api/rooms/:id/messages", h.postMessage)
	r.GET("/api/room/exists/:id", h.exists)
}

// principal returns the authenticated user id forwarded by the auth layer,
// or "" for anonymous requests.
func principal(c *gin.Context) string {
	return c.GetHeader("X-User-Id")
}

// @Summary		Create a room
// @Description	Creates a whiteboard room; authenticated creators become admin participants.
// @Tags			Rooms
// @Param			body	body		CreateRoomBody	true	"Room payload"
// @Success		201		{object}	room.RoomDTO
// @Failure		400		{object}	ErrorResponse
// @Router			/api/rooms [post]
func (h *Handler) create(c *gin.Context) {
	var body CreateRoomBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	isPublic := true
	if body.IsPublic != nil {
		isPublic = *body.IsPublic
	}
	dto, err := h.svc.CreateRoom(c.Request.Context(), principal(c), room.CreateRoomParams{
		Name:            body.Name,
		Description:     body.Description,
		IsPublic:        isPublic,
		MaxParticipants: body.MaxParticipants,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, dto)
}

// @Summary		Get room details
// @Tags			Rooms
// @Param			id	path		string	true	"Room code or UUID"
// @Success		200	{object}	room.RoomDTO
// @Failure		404	{object}	ErrorResponse
// @Router			/api/rooms/{id} [get]
func (h *Handler) info(c *gin.Context) {
	dto, err := h.svc.GetRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

// @Summary		List rooms
// @Description	Public rooms, plus member rooms for authenticated callers.
// @Tags			Rooms
// @Param			limit	query		int	false	"Max results"	default(10)
// @Param			offset	query		int	false	"Offset"		default(0)
// @Success		200		{array}		room.RoomDTO
// @Failure		400		{object}	ErrorResponse
// @Router			/api/rooms [get]
func (h *Handler) list(c *gin.Context) {
	var q ListRoomsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	out, err := h.svc.ListRooms(c.Request.Context(), principal(c), q.Limit, q.Offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary		Check room access
// @Tags			Rooms
// @Param			id	path		string	true	"Room code or UUID"
// @Success		200	{object}	room.AccessDTO
// @Failure		404	{object}	ErrorResponse
// @Router			/api/rooms/{id}/check_access [get]
func (h *Handler) checkAccess(c *gin.Context) {
	dto, err := h.svc.CheckAccess(c.Request.Context(), c.Param("id"), principal(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

// @Summary		Join a room
// @Tags			Rooms
// @Param			id	path	string	true	"Room code or UUID"
// @Success		200	{object}	MessageResponse
// @Failure		401	{object}	ErrorResponse
// @Failure		403	{object}	ErrorResponse
// @Router			/api/rooms/{id}/join [post]
func (h *Handler) join(c *gin.Context) {
	user := principal(c)
	if user == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}
	if err := h.svc.JoinRoom(c.Request.Context(), c.Param("id"), user); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Joined room successfully"})
}

// @Summary		Leave a room
// @Tags			Rooms
// @Param			id	path	string	true	"Room code or UUID"
// @Success		200	{object}	MessageResponse
// @Failure		401	{object}	ErrorResponse
// @Router			/api/rooms/{id}/leave [post]
func (h *Handler) leave(c *gin.Context) {
	user := principal(c)
	if user == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}
	rm, err := h.svc.GetRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.svc.LeaveRoom(c.Request.Context(), rm.ID, user); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Left room successfully"})
}

// @Summary		Invite a user
// @Description	Adds a user to the room by username. Admin only.
// @Tags			Rooms
// @Param			id		path	string			true	"Room code or UUID"
// @Param			body	body	InviteUserBody	true	"Invite payload"
// @Success		200		{object}	MessageResponse
// @Failure		403		{object}	ErrorResponse
// @Failure		404		{object}	ErrorResponse
// @Router			/api/rooms/{id}/invite_user [post]
func (h *Handler) inviteUser(c *gin.Context) {
	user := principal(c)
	if user == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}
	var body InviteUserBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if err := h.svc.InviteUser(c.Request.Context(), c.Param("id"), user, body.Username, body.Permission); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "User " + body.Username + " invited successfully"})
}

// @Summary		Update a participant's permission
// @Description	Changes a stored participant permission level. Admin only.
// @Tags			Rooms
// @Param			id		path	string					true	"Room code or UUID"
// @Param			body	body	UpdatePermissionBody	true	"Permission payload"
// @Success		200		{object}	MessageResponse
// @Failure		403		{object}	ErrorResponse
// @Router			/api/rooms/{id}/update_participant_permission [post]
func (h *Handler) updatePermission(c *gin.Context) {
	user := principal(c)
	if user == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}
	var body UpdatePermissionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if err := h.svc.UpdateParticipantPermission(c.Request.Context(),
		c.Param("id"), user, body.ParticipantID, body.Permission); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Permission updated successfully"})
}

// @Summary		List participants
// @Tags			Rooms
// @Param			id	path		string	true	"Room code or UUID"
// @Success		200	{array}		room.ParticipantDTO
// @Failure		404	{object}	ErrorResponse
// @Router			/api/rooms/{id}/participants [get]
func (h *Handler) participants(c *gin.Context) {
	out, err := h.svc.ListParticipants(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary		List chat messages
// @Tags			Messages
// @Param			id		path		string	true	"Room code or UUID"
// @Param			limit	query		int		false	"Max results"	default(50)
// @Param			offset	query		int		false	"Offset"		default(0)
// @Success		200		{array}		room.MessageDTO
// @Failure		404		{object}	ErrorResponse
// @Router			/api/rooms/{id}/messages [get]
func (h *Handler) listMessages(c *gin.Context) {
	var q ListMessagesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	out, err := h.svc.ListMessages(c.Request.Context(), c.Param("id"), q.Limit, q.Offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary		Post a chat message
// @Tags			Messages
// @Param			id		path	string			true	"Room code or UUID"
// @Param			body	body	PostMessageBody	true	"Message payload"
// @Success		201		{object}	room.MessageDTO
// @Failure		401		{object}	ErrorResponse
// @Router			/api/rooms/{id}/messages [post]
func (h *Handler) postMessage(c *gin.Context) {
	user := principal(c)
	if user == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}
	var body PostMessageBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	dto, err := h.svc.PostMessage(c.Request.Context(), c.Param("id"), user, body.Message)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto)
}

// @Summary		Check whether a room is live
// @Description	True when the room code has active in-memory collaboration state.
// @Tags			Rooms
// @Param			id	path		string	true	"Room code"
// @Success		200	{object}	ExistsResponse
// @Router			/api/room/exists/{id} [get]
func (h *Handler) exists(c *gin.Context) {
	c.JSON(http.StatusOK, ExistsResponse{Exists: h.board.Active(c.Param("id"))})
}

// fail maps service errors onto HTTP statuses.
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, room.ErrRoomNotFound),
		errors.Is(err, room.ErrUserNotFound),
		errors.Is(err, room.ErrParticipantNotFound):
		status = http.StatusNotFound
	case errors.Is(err, room.ErrAdminRequired),
		errors.Is(err, room.ErrPrivateRoom):
		status = http.StatusForbidden
	case errors.Is(err, room.ErrAlreadyParticipant),
		errors.Is(err, room.ErrRoomFull):
		status = http.StatusBadRequest
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}
