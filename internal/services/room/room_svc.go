package room

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"time"

	"whiteboardgo/internal/board"

	"github.com/google/uuid"
)

type RoomDTO struct {
	ID              string    `json:"id"`
	RoomCode        string    `json:"room_code"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	IsPublic        bool      `json:"is_public"`
	CreatedBy       string    `json:"created_by,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	MaxParticipants int       `json:"max_participants"`
}

type ParticipantDTO struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	Permission string    `json:"permission"`
	JoinedAt   time.Time `json:"joined_at"`
}

type MessageDTO struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// AccessDTO answers "can this principal enter the room, and at what level".
type AccessDTO struct {
	CanAccess  bool   `json:"can_access"`
	Permission string `json:"permission,omitempty"`
	Message    string `json:"message"`
}

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrNotParticipant      = errors.New("not a participant")
	ErrUserNotFound        = errors.New("user not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrAlreadyParticipant  = errors.New("already a participant")
	ErrRoomFull            = errors.New("room is full")
	ErrPrivateRoom         = errors.New("private room access denied")
	ErrAdminRequired       = errors.New("admin permission required")
)

const roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type CreateRoomParams struct {
	Name            string
	Description     string
	IsPublic        bool
	MaxParticipants int
}

type IRoomService interface {
	CreateRoom(ctx context.Context, creatorID string, p CreateRoomParams) (*RoomDTO, error)
	GetRoom(ctx context.Context, idOrCode string) (*RoomDTO, error)
	ListRooms(ctx context.Context, principal string, limit, offset int) ([]RoomDTO, error)
	CheckAccess(ctx context.Context, idOrCode, principal string) (*AccessDTO, error)
	JoinRoom(ctx context.Context, roomID, userID string) error
	LeaveRoom(ctx context.Context, roomID, userID string) error
	InviteUser(ctx context.Context, roomID, adminID, username, permission string) error
	UpdateParticipantPermission(ctx context.Context, roomID, adminID, participantID, permission string) error
	ListParticipants(ctx context.Context, roomID string) ([]ParticipantDTO, error)
	ParticipantLevel(ctx context.Context, roomID, userID string) (board.Level, error)
	PostMessage(ctx context.Context, roomID, userID, text string) (*MessageDTO, error)
	ListMessages(ctx context.Context, roomID string, limit, offset int) ([]MessageDTO, error)
}

type roomService struct {
	db *sql.DB
}

func NewRoomService(db *sql.DB) IRoomService {
	return &roomService{db: db}
}

const roomColumns = `id, room_code, name, description, is_public,
                     coalesce(created_by,''), created_at, updated_at, max_participants`

func scanRoom(row interface{ Scan(...any) error }) (*RoomDTO, error) {
	dto := &RoomDTO{}
	err := row.Scan(&dto.ID, &dto.RoomCode, &dto.Name, &dto.Description,
		&dto.IsPublic, &dto.CreatedBy, &dto.CreatedAt, &dto.UpdatedAt,
		&dto.MaxParticipants)
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (svc *roomService) CreateRoom(ctx context.Context, creatorID string, p CreateRoomParams) (*RoomDTO, error) {
	if p.MaxParticipants <= 0 {
		p.MaxParticipants = 10
	}

	code, err := svc.freshRoomCode(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	id := uuid.NewString()
	var createdBy any
	if creatorID != "" {
		createdBy = creatorID
	}
	const insRoom = `
	  INSERT INTO rooms (id, room_code, name, description, is_public,
	                     created_by, max_participants)
	       VALUES ($1, $2, $3, $4, $5, $6, $7)
	    RETURNING created_at, updated_at`
	dto := &RoomDTO{
		ID: id, RoomCode: code, Name: p.Name, Description: p.Description,
		IsPublic: p.IsPublic, CreatedBy: creatorID, MaxParticipants: p.MaxParticipants,
	}
	if err := tx.QueryRowContext(ctx, insRoom,
		id, code, p.Name, p.Description, p.IsPublic, createdBy, p.MaxParticipants,
	).Scan(&dto.CreatedAt, &dto.UpdatedAt); err != nil {
		return nil, err
	}

	// The creator starts out as an admin participant; anonymous rooms
	// simply have no creator row.
	if creatorID != "" {
		const insAdmin = `
		  INSERT INTO room_participants (room_id, user_id, permission)
		       VALUES ($1, $2, 'admin')`
		if _, err := tx.ExecContext(ctx, insAdmin, id, creatorID); err != nil {
			return nil, err
		}
	}
	return dto, tx.Commit()
}

// freshRoomCode draws 6-char codes until one is unused.
func (svc *roomService) freshRoomCode(ctx context.Context) (string, error) {
	for {
		b := make([]byte, 6)
		for i := range b {
			b[i] = roomCodeAlphabet[rand.Intn(len(roomCodeAlphabet))]
		}
		code := string(b)

		var exists bool
		err := svc.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM rooms WHERE room_code = $1)`, code).Scan(&exists)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
}

// GetRoom looks a room up by its short code first, falling back to the UUID.
func (svc *roomService) GetRoom(ctx context.Context, idOrCode string) (*RoomDTO, error) {
	const byCode = `SELECT ` + roomColumns + ` FROM rooms WHERE room_code = $1`
	dto, err := scanRoom(svc.db.QueryRowContext(ctx, byCode, idOrCode))
	if err == nil {
		return dto, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if _, parseErr := uuid.Parse(idOrCode); parseErr != nil {
		return nil, ErrRoomNotFound
	}
	const byID = `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1`
	dto, err = scanRoom(svc.db.QueryRowContext(ctx, byID, idOrCode))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// ListRooms returns public rooms, plus the principal's member rooms when
// authenticated.
func (svc *roomService) ListRooms(ctx context.Context, principal string, limit, offset int) ([]RoomDTO, error) {
	if limit == 0 {
		limit = 10
	}
	var (
		rows *sql.Rows
		err  error
	)
	if principal != "" {
		const q = `
		  SELECT DISTINCT ` + roomColumns + `
		    FROM rooms
		    LEFT JOIN room_participants rp ON rp.room_id = rooms.id
		   WHERE rooms.is_public OR rp.user_id = $1
		   ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		rows, err = svc.db.QueryContext(ctx, q, principal, limit, offset)
	} else {
		const q = `
		  SELECT ` + roomColumns + ` FROM rooms
		   WHERE is_public
		   ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		rows, err = svc.db.QueryContext(ctx, q, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]RoomDTO, 0, limit)
	for rows.Next() {
		dto, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *dto)
	}
	return list, rows.Err()
}

func (svc *roomService) CheckAccess(ctx context.Context, idOrCode, principal string) (*AccessDTO, error) {
	rm, err := svc.GetRoom(ctx, idOrCode)
	if err != nil {
		return nil, err
	}

	if principal == "" {
		if rm.IsPublic {
			return &AccessDTO{CanAccess: true, Permission: "view", Message: "Public room access granted"}, nil
		}
		return &AccessDTO{CanAccess: false, Message: "Private room requires authentication"}, nil
	}
	if rm.CreatedBy != "" && rm.CreatedBy == principal {
		return &AccessDTO{CanAccess: true, Permission: "admin", Message: "Room creator access"}, nil
	}

	lvl, err := svc.ParticipantLevel(ctx, rm.ID, principal)
	switch {
	case err == nil:
		return &AccessDTO{CanAccess: true, Permission: lvl.String(),
			Message: "Participant with " + lvl.String() + " permission"}, nil
	case errors.Is(err, ErrNotParticipant):
		if rm.IsPublic {
			return &AccessDTO{CanAccess: true, Permission: "view", Message: "Public room access granted"}, nil
		}
		return &AccessDTO{CanAccess: false, Message: "Private room access denied"}, nil
	default:
		return nil, err
	}
}

func (svc *roomService) JoinRoom(ctx context.Context, roomID, userID string) error {
	rm, err := svc.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}

	_, err = svc.ParticipantLevel(ctx, rm.ID, userID)
	if err == nil {
		return ErrAlreadyParticipant
	}
	if !errors.Is(err, ErrNotParticipant) {
		return err
	}
	if !rm.IsPublic {
		// Private rooms are invite-only.
		return ErrPrivateRoom
	}

	var count int
	if err := svc.db.QueryRowContext(ctx,
		`SELECT count(*) FROM room_participants WHERE room_id = $1`, rm.ID).Scan(&count); err != nil {
		return err
	}
	if count >= rm.MaxParticipants {
		return ErrRoomFull
	}

	const ins = `
	  INSERT INTO room_participants (room_id, user_id, permission)
	       VALUES ($1, $2, 'edit')
	  ON CONFLICT DO NOTHING`
	_, err = svc.db.ExecContext(ctx, ins, rm.ID, userID)
	return err
}

func (svc *roomService) LeaveRoom(ctx context.Context, roomID, userID string) error {
	_, err := svc.db.ExecContext(ctx,
		`DELETE FROM room_participants WHERE room_id = $1 AND user_id = $2`, roomID, userID)
	return err
}

func (svc *roomService) InviteUser(ctx context.Context, roomID, adminID, username, permission string) error {
	rm, err := svc.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if err := svc.requireAdmin(ctx, rm, adminID); err != nil {
		return err
	}
	if board.ParseLevel(permission) == board.LevelNone {
		permission = "view"
	}

	var invitedID string
	err = svc.db.QueryRowContext(ctx,
		`SELECT id FROM users WHERE username = $1`, username).Scan(&invitedID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	_, err = svc.ParticipantLevel(ctx, rm.ID, invitedID)
	if err == nil {
		return ErrAlreadyParticipant
	}
	if !errors.Is(err, ErrNotParticipant) {
		return err
	}

	const ins = `
	  INSERT INTO room_participants (room_id, user_id, permission)
	       VALUES ($1, $2, $3)`
	_, err = svc.db.ExecContext(ctx, ins, rm.ID, invitedID, permission)
	return err
}

func (svc *roomService) UpdateParticipantPermission(ctx context.Context, roomID, adminID, participantID, permission string) error {
	rm, err := svc.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if err := svc.requireAdmin(ctx, rm, adminID); err != nil {
		return err
	}

	res, err := svc.db.ExecContext(ctx,
		`UPDATE room_participants SET permission = $1 WHERE id = $2 AND room_id = $3`,
		permission, participantID, rm.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

func (svc *roomService) ListParticipants(ctx context.Context, roomID string) ([]ParticipantDTO, error) {
	rm, err := svc.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	const q = `
	  SELECT rp.id, rp.user_id, u.username, rp.permission, rp.joined_at
	    FROM room_participants rp
	    JOIN users u ON u.id = rp.user_id
	   WHERE rp.room_id = $1
	   ORDER BY rp.joined_at`
	rows, err := svc.db.QueryContext(ctx, q, rm.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []ParticipantDTO
	for rows.Next() {
		var p ParticipantDTO
		if err := rows.Scan(&p.ID, &p.UserID, &p.Username, &p.Permission, &p.JoinedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// ParticipantLevel is the collaborator lookup the WS core uses at connect
// time: the stored permission for (room, user), or ErrNotParticipant.
func (svc *roomService) ParticipantLevel(ctx context.Context, roomID, userID string) (board.Level, error) {
	var perm string
	err := svc.db.QueryRowContext(ctx,
		`SELECT permission FROM room_participants WHERE room_id = $1 AND user_id = $2`,
		roomID, userID).Scan(&perm)
	if errors.Is(err, sql.ErrNoRows) {
		return board.LevelNone, ErrNotParticipant
	}
	if err != nil {
		return board.LevelNone, err
	}
	return board.ParseLevel(perm), nil
}

func (svc *roomService) PostMessage(ctx context.Context, roomID, userID, text string) (*MessageDTO, error) {
	rm, err := svc.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	dto := &MessageDTO{ID: uuid.NewString(), RoomID: rm.ID, UserID: userID, Message: text}
	const ins = `
	  INSERT INTO messages (id, room_id, user_id, message)
	       VALUES ($1, $2, $3, $4)
	    RETURNING created_at, coalesce((SELECT username FROM users WHERE id = $3), '')`
	if err := svc.db.QueryRowContext(ctx, ins, dto.ID, rm.ID, userID, text).
		Scan(&dto.CreatedAt, &dto.Username); err != nil {
		return nil, err
	}
	return dto, nil
}

func (svc *roomService) ListMessages(ctx context.Context, roomID string, limit, offset int) ([]MessageDTO, error) {
	rm, err := svc.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = 50
	}
	const q = `
	  SELECT m.id, m.room_id, m.user_id, coalesce(u.username,''), m.message, m.created_at
	    FROM messages m
	    LEFT JOIN users u ON u.id = m.user_id
	   WHERE m.room_id = $1
	   ORDER BY m.created_at LIMIT $2 OFFSET $3`
	rows, err := svc.db.QueryContext(ctx, q, rm.ID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]MessageDTO, 0, limit)
	for rows.Next() {
		var m MessageDTO
		if err := rows.Scan(&m.ID, &m.RoomID, &m.UserID, &m.Username, &m.Message, &m.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// requireAdmin: the creator always passes; otherwise the stored participant
// record must carry admin.
func (svc *roomService) requireAdmin(ctx context.Context, rm *RoomDTO, userID string) error {
	if userID == "" {
		return ErrAdminRequired
	}
	if rm.CreatedBy != "" && rm.CreatedBy == userID {
		return nil
	}
	lvl, err := svc.ParticipantLevel(ctx, rm.ID, userID)
	if errors.Is(err, ErrNotParticipant) {
		return ErrAdminRequired
	}
	if err != nil {
		return err
	}
	if !lvl.AtLeast(board.LevelAdmin) {
		return ErrAdminRequired
	}
	return nil
}
