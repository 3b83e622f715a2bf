package roomhandler

type CreateRoomBody struct {
	Name            string `json:"name" binding:"required" example:"Design sync"`
	Description     string `json:"description"`
	IsPublic        *bool  `json:"is_public"`
	MaxParticipants int    `json:"max_participants" binding:"omitempty,gte=1,lte=100"`
} // @name CreateRoomRequest

type InviteUserBody struct {
	Username   string `json:"username" binding:"required" example:"alice"`
	Permission string `json:"permission" binding:"omitempty,oneof=view edit admin"`
} // @name InviteUserRequest

type UpdatePermissionBody struct {
	ParticipantID string `json:"participant_id" binding:"required"`
	Permission    string `json:"permission"     binding:"required,oneof=view edit admin"`
} // @name UpdatePermissionRequest

type PostMessageBody struct {
	Message string `json:"message" binding:"required"`
} // @name PostMessageRequest

type ErrorResponse struct {
	Error string `json:"error"`
} // @name ErrorResponse

type MessageResponse struct {
	Message string `json:"message"`
} // @name MessageResponse

type ExistsResponse struct {
	Exists bool `json:"exists"`
} // @name ExistsResponse

type ListRoomsQuery struct {
	Limit  int `form:"limit,default=10"  binding:"gte=0,lte=100"`
	Offset int `form:"offset,default=0"  binding:"gte=0"`
} // @name ListRoomsQuery

type ListMessagesQuery struct {
	Limit  int `form:"limit,default=50"  binding:"gte=0,lte=200"`
	Offset int `form:"offset,default=0"  binding:"gte=0"`
} // @name ListMessagesQuery
