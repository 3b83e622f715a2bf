package room

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"whiteboardgo/internal/board"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const roomUUID = "a2e8b7a4-3f1c-4c9c-9a39-2f9f0a6a1b11"

func newMock(t *testing.T) (IRoomService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRoomService(db), mock
}

func roomRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "room_code", "name", "description", "is_public",
		"created_by", "created_at", "updated_at", "max_participants",
	}).AddRow(roomUUID, "ABC123", "Sketches", "", true, "alice-id", now, now, 10)
}

func TestGetRoomByCode(t *testing.T) {
	svc, mock := newMock(t)

	mock.ExpectQuery(`SELECT .+ FROM rooms WHERE room_code = \$1`).
		WithArgs("ABC123").
		WillReturnRows(roomRows())

	dto, err := svc.GetRoom(context.Background(), "ABC123")
	require.NoError(t, err)
	assert.Equal(t, roomUUID, dto.ID)
	assert.Equal(t, "ABC123", dto.RoomCode)
	assert.True(t, dto.IsPublic)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRoomFallsBackToUUID(t *testing.T) {
	svc, mock := newMock(t)

	mock.ExpectQuery(`SELECT .+ FROM rooms WHERE room_code = \$1`).
		WithArgs(roomUUID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT .+ FROM rooms WHERE id = \$1`).
		WithArgs(roomUUID).
		WillReturnRows(roomRows())

	dto, err := svc.GetRoom(context.Background(), roomUUID)
	require.NoError(t, err)
	assert.Equal(t, roomUUID, dto.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRoomNotFoundSkipsUUIDLookupForShortCodes(t *testing.T) {
	svc, mock := newMock(t)

	// "NOSUCH" can never be a UUID, so only the code lookup runs.
	mock.ExpectQuery(`SELECT .+ FROM rooms WHERE room_code = \$1`).
		WithArgs("NOSUCH").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.GetRoom(context.Background(), "NOSUCH")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipantLevel(t *testing.T) {
	svc, mock := newMock(t)

	mock.ExpectQuery(`SELECT permission FROM room_participants`).
		WithArgs(roomUUID, "bob-id").
		WillReturnRows(sqlmock.NewRows([]string{"permission"}).AddRow("edit"))

	lvl, err := svc.ParticipantLevel(context.Background(), roomUUID, "bob-id")
	require.NoError(t, err)
	assert.Equal(t, board.LevelEdit, lvl)
}

func TestParticipantLevelNotParticipant(t *testing.T) {
	svc, mock := newMock(t)

	mock.ExpectQuery(`SELECT permission FROM room_participants`).
		WithArgs(roomUUID, "carol-id").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.ParticipantLevel(context.Background(), roomUUID, "carol-id")
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestJoinRoomRejectsWhenFull(t *testing.T) {
	svc, mock := newMock(t)

	mock.ExpectQuery(`SELECT .+ FROM rooms WHERE room_code = \$1`).
		WithArgs("ABC123").
		WillReturnRows(roomRows())
	mock.ExpectQuery(`SELECT permission FROM room_participants`).
		WithArgs(roomUUID, "dave-id").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT count\(\*\) FROM room_participants`).
		WithArgs(roomUUID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))

	err := svc.JoinRoom(context.Background(), "ABC123", "dave-id")
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinRoomPrivateWithoutInvite(t *testing.T) {
	svc, mock := newMock(t)

	now := time.Now()
	private := sqlmock.NewRows([]string{
		"id", "room_code", "name", "description", "is_public",
		"created_by", "created_at", "updated_at", "max_participants",
	}).AddRow(roomUUID, "ABC123", "Sketches", "", false, "alice-id", now, now, 10)

	mock.ExpectQuery(`SELECT .+ FROM rooms WHERE room_code = \$1`).
		WithArgs("ABC123").
		WillReturnRows(private)
	mock.ExpectQuery(`SELECT permission FROM room_participants`).
		WithArgs(roomUUID, "dave-id").
		WillReturnError(sql.ErrNoRows)

	err := svc.JoinRoom(context.Background(), "ABC123", "dave-id")
	assert.ErrorIs(t, err, ErrPrivateRoom)
}

func TestJoinRoomAlreadyParticipant(t *testing.T) {
	svc, mock := newMock(t)

	mock.ExpectQuery(`SELECT .+ FROM rooms WHERE room_code = \$1`).
		WithArgs("ABC123").
		WillReturnRows(roomRows())
	mock.ExpectQuery(`SELECT permission FROM room_participants`).
		WithArgs(roomUUID, "bob-id").
		WillReturnRows(sqlmock.NewRows([]string{"permission"}).AddRow("view"))

	err := svc.JoinRoom(context.Background(), "ABC123", "bob-id")
	assert.ErrorIs(t, err, ErrAlreadyParticipant)
}

func TestUpdateParticipantPermissionAsCreator(t *testing.T) {
	svc, mock := newMock(t)

	mock.ExpectQuery(`SELECT .+ FROM rooms WHERE room_code = \$1`).
		WithArgs("ABC123").
		WillReturnRows(roomRows())
	mock.ExpectExec(`UPDATE room_participants SET permission`).
		WithArgs("edit", "part-1", roomUUID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// alice-id is the creator, so no participant lookup is needed.
	err := svc.UpdateParticipantPermission(context.Background(), "ABC123", "alice-id", "part-1", "edit")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateParticipantPermissionRequiresAdmin(t *testing.T) {
	svc, mock := newMock(t)

	mock.ExpectQuery(`SELECT .+ FROM rooms WHERE room_code = \$1`).
		WithArgs("ABC123").
		WillReturnRows(roomRows())
	mock.ExpectQuery(`SELECT permission FROM room_participants`).
		WithArgs(roomUUID, "bob-id").
		WillReturnRows(sqlmock.NewRows([]string{"permission"}).AddRow("edit"))

	err := svc.UpdateParticipantPermission(context.Background(), "ABC123", "bob-id", "part-1", "view")
	assert.ErrorIs(t, err, ErrAdminRequired)
}

func TestInviteUserUnknownUsername(t *testing.T) {
	svc, mock := newMock(t)

	mock.ExpectQuery(`SELECT .+ FROM rooms WHERE room_code = \$1`).
		WithArgs("ABC123").
		WillReturnRows(roomRows())
	mock.ExpectQuery(`SELECT id FROM users WHERE username = \$1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	err := svc.InviteUser(context.Background(), "ABC123", "alice-id", "ghost", "view")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCheckAccessAnonymous(t *testing.T) {
	svc, mock := newMock(t)

	mock.ExpectQuery(`SELECT .+ FROM rooms WHERE room_code = \$1`).
		WithArgs("ABC123").
		WillReturnRows(roomRows())

	dto, err := svc.CheckAccess(context.Background(), "ABC123", "")
	require.NoError(t, err)
	assert.True(t, dto.CanAccess)
	assert.Equal(t, "view", dto.Permission)
}

func TestCheckAccessCreator(t *testing.T) {
	svc, mock := newMock(t)

	mock.ExpectQuery(`SELECT .+ FROM rooms WHERE room_code = \$1`).
		WithArgs("ABC123").
		WillReturnRows(roomRows())

	dto, err := svc.CheckAccess(context.Background(), "ABC123", "alice-id")
	require.NoError(t, err)
	assert.True(t, dto.CanAccess)
	assert.Equal(t, "admin", dto.Permission)
}
