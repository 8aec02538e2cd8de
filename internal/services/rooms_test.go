package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/roomchat/internal/models"
	"gorm.io/gorm"
)

func TestCreateRoomOwnerIsActiveAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")

	room := f.room(t, owner, 10)

	require.Len(t, room.Participants, 1)
	assert.Equal(t, owner.ID, room.OwnerID)
	assert.Equal(t, models.RoleAdmin, room.Participants[0].Role)
	assert.Equal(t, models.StatusActive, room.Participants[0].Status)

	m, err := f.db.FindMembership(ctx, room.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, m.IsActive())
	assert.Equal(t, models.RoleAdmin, m.Role)
}

func TestCreateRoomValidation(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")

	_, err := f.rooms.CreateRoom(context.Background(), owner.ID, CreateRoomInput{Name: "  ", MaxMember: 1})
	require.ErrorIs(t, err, ErrValidation)

	var svcErr *Error
	require.True(t, errors.As(err, &svcErr))
	assert.Contains(t, svcErr.Fields, "name")
	assert.Contains(t, svcErr.Fields, "description")
	assert.Equal(t, "Max member must be at least 2", svcErr.Fields["maxMember"])

	rooms, err := f.rooms.ListRooms(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestRequestJoin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	guest := f.user(t, "guest")
	room := f.room(t, owner, 10)

	m, err := f.rooms.RequestJoin(ctx, room.ID, guest.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, m.Status)
	assert.Equal(t, models.RoleMember, m.Role)

	_, err = f.rooms.RequestJoin(ctx, room.ID, guest.ID)
	require.ErrorIs(t, err, ErrConflict)
	assert.EqualError(t, err, "join request already sent")

	_, err = f.rooms.RequestJoin(ctx, room.ID, owner.ID)
	require.ErrorIs(t, err, ErrConflict)
	assert.EqualError(t, err, "you are already a member of this room")

	_, err = f.rooms.RequestJoin(ctx, uuid.New(), guest.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPendingMembershipGrantsNoAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	guest := f.user(t, "guest")
	room := f.room(t, owner, 10)

	_, err := f.rooms.RequestJoin(ctx, room.ID, guest.ID)
	require.NoError(t, err)

	_, err = f.rooms.GetRoomDetail(ctx, room.ID, guest.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.chat.ListMessages(ctx, room.ID, guest.ID, 1, 20)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.chat.SendMessage(ctx, room.ID, guest.ID, "hello")
	assert.ErrorIs(t, err, ErrForbidden)

	assert.ErrorIs(t, f.chat.Authorize(ctx, room.ID, guest.ID), ErrForbidden)

	mine, err := f.rooms.ListMyRooms(ctx, guest.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestApproveJoin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	guest := f.user(t, "guest")
	other := f.user(t, "other")
	room := f.room(t, owner, 10)

	req, err := f.rooms.RequestJoin(ctx, room.ID, guest.ID)
	require.NoError(t, err)

	_, err = f.rooms.ApproveJoin(ctx, req.ID, other.ID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.rooms.ApproveJoin(ctx, uuid.New(), owner.ID)
	require.ErrorIs(t, err, ErrNotFound)

	approved, err := f.rooms.ApproveJoin(ctx, req.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, approved.Status)

	again, err := f.rooms.ApproveJoin(ctx, req.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, again.Status)

	require.NoError(t, f.chat.Authorize(ctx, room.ID, guest.ID))
}

func TestApproveJoinRoomFull(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	room := f.room(t, owner, 2)

	f.member(t, room, f.user(t, "first"))

	late := f.user(t, "late")
	req, err := f.rooms.RequestJoin(ctx, room.ID, late.ID)
	require.NoError(t, err)

	_, err = f.rooms.ApproveJoin(ctx, req.ID, owner.ID)
	require.ErrorIs(t, err, ErrConflict)
	assert.EqualError(t, err, "room is full")
}

func TestListPendingRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	guest := f.user(t, "guest")
	room := f.room(t, owner, 10)
	f.member(t, room, f.user(t, "active"))

	_, err := f.rooms.RequestJoin(ctx, room.ID, guest.ID)
	require.NoError(t, err)

	pending, err := f.rooms.ListPendingRequests(ctx, room.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, guest.ID, pending[0].UserID)
	assert.Equal(t, guest.Username, pending[0].User.Username)

	_, err = f.rooms.ListPendingRequests(ctx, room.ID, guest.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.rooms.ListPendingRequests(ctx, uuid.New(), owner.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	guest := f.user(t, "guest")
	room := f.room(t, owner, 10)
	m := f.member(t, room, guest)

	_, err := f.rooms.RemoveMember(ctx, m.ID, guest.ID)
	require.ErrorIs(t, err, ErrForbidden)

	ownerMembership, err := f.db.FindMembership(ctx, room.ID, owner.ID)
	require.NoError(t, err)
	_, err = f.rooms.RemoveMember(ctx, ownerMembership.ID, owner.ID)
	require.ErrorIs(t, err, ErrForbidden)

	removed, err := f.rooms.RemoveMember(ctx, m.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, guest.ID, removed.UserID)

	_, err = f.db.FindMembership(ctx, room.ID, guest.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = f.rooms.RemoveMember(ctx, m.ID, owner.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLeaveRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	guest := f.user(t, "guest")
	stranger := f.user(t, "stranger")
	room := f.room(t, owner, 10)
	f.member(t, room, guest)

	err := f.rooms.LeaveRoom(ctx, room.ID, owner.ID)
	require.ErrorIs(t, err, ErrForbidden)

	err = f.rooms.LeaveRoom(ctx, room.ID, stranger.ID)
	require.ErrorIs(t, err, ErrNotFound)

	err = f.rooms.LeaveRoom(ctx, uuid.New(), guest.ID)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.rooms.LeaveRoom(ctx, room.ID, guest.ID))
	assert.ErrorIs(t, f.chat.Authorize(ctx, room.ID, guest.ID), ErrForbidden)

	// после выхода можно подать заявку снова
	_, err = f.rooms.RequestJoin(ctx, room.ID, guest.ID)
	assert.NoError(t, err)
}

func TestDeleteRoomCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	guest := f.user(t, "guest")
	room := f.room(t, owner, 10)
	f.member(t, room, guest)
	f.message(t, room, guest, "hi", time.Now().Add(-time.Minute))
	f.message(t, room, owner, "hello", time.Now())

	require.ErrorIs(t, f.rooms.DeleteRoom(ctx, room.ID, guest.ID), ErrForbidden)
	require.ErrorIs(t, f.rooms.DeleteRoom(ctx, uuid.New(), owner.ID), ErrNotFound)

	require.NoError(t, f.rooms.DeleteRoom(ctx, room.ID, owner.ID))

	_, err := f.db.GetRoom(ctx, room.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var memberships, messages int64
	require.NoError(t, f.db.DB().Model(&models.Membership{}).Where("room_id = ?", room.ID).Count(&memberships).Error)
	require.NoError(t, f.db.DB().Model(&models.Message{}).Where("room_id = ?", room.ID).Count(&messages).Error)
	assert.Zero(t, memberships)
	assert.Zero(t, messages)

	_, err = f.rooms.GetRoomDetail(ctx, room.ID, owner.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRoomsParticipantCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	room := f.room(t, owner, 10)
	f.member(t, room, f.user(t, "a"))
	_, err := f.rooms.RequestJoin(ctx, room.ID, f.user(t, "pending").ID)
	require.NoError(t, err)

	empty := f.room(t, f.user(t, "solo"), 5)

	rooms, err := f.rooms.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)

	counts := make(map[uuid.UUID]int64)
	for _, r := range rooms {
		counts[r.Room.ID] = r.ParticipantCount
		assert.NotEmpty(t, r.Room.Owner.Username)
	}
	assert.Equal(t, int64(2), counts[room.ID])
	assert.Equal(t, int64(1), counts[empty.ID])
}

func TestListMyRoomsUnreadAndLastMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	reader := f.user(t, "reader")
	busy := f.room(t, owner, 10)
	quiet := f.room(t, owner, 10)
	f.member(t, busy, reader)
	f.member(t, quiet, reader)

	base := time.Now().Add(-time.Hour)
	f.message(t, busy, owner, "one", base)
	f.message(t, busy, owner, "two", base.Add(time.Second))
	f.message(t, busy, reader, "three", base.Add(2*time.Second))

	mine, err := f.rooms.ListMyRooms(ctx, reader.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)

	byRoom := make(map[uuid.UUID]MyRoom)
	for _, r := range mine {
		byRoom[r.Room.ID] = r
	}

	// lastSeenAt не выставлен: непрочитано все
	assert.Equal(t, int64(3), byRoom[busy.ID].UnreadCount)
	require.NotNil(t, byRoom[busy.ID].LastMessage)
	assert.Equal(t, "three", byRoom[busy.ID].LastMessage.Body)
	assert.Zero(t, byRoom[quiet.ID].UnreadCount)
	assert.Nil(t, byRoom[quiet.ID].LastMessage)

	_, err = f.rooms.GetRoomDetail(ctx, busy.ID, reader.ID)
	require.NoError(t, err)

	f.message(t, busy, owner, "four", time.Now().Add(time.Minute))

	mine, err = f.rooms.ListMyRooms(ctx, reader.ID)
	require.NoError(t, err)
	for _, r := range mine {
		if r.Room.ID == busy.ID {
			assert.Equal(t, int64(1), r.UnreadCount)
			assert.Equal(t, "four", r.LastMessage.Body)
			assert.NotNil(t, r.Membership.LastSeenAt)
		}
	}
}

func TestGetRoomDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	guest := f.user(t, "guest")
	room := f.room(t, owner, 10)
	f.member(t, room, guest)
	_, err := f.rooms.RequestJoin(ctx, room.ID, f.user(t, "pending").ID)
	require.NoError(t, err)

	detail, err := f.rooms.GetRoomDetail(ctx, room.ID, guest.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.Username, detail.Owner.Username)
	require.Len(t, detail.Participants, 2)
	for _, p := range detail.Participants {
		assert.Equal(t, models.StatusActive, p.Status)
		assert.NotEmpty(t, p.User.Username)
	}

	m, err := f.db.FindMembership(ctx, room.ID, guest.ID)
	require.NoError(t, err)
	assert.NotNil(t, m.LastSeenAt)
}

func TestMarkRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	room := f.room(t, owner, 10)
	f.message(t, room, owner, "old", time.Now().Add(-time.Minute))

	seenAt, err := f.rooms.MarkRead(ctx, room.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, seenAt.IsZero())

	n, err := f.db.CountUnread(ctx, room.ID, &seenAt)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = f.rooms.MarkRead(ctx, room.ID, f.user(t, "stranger").ID)
	assert.ErrorIs(t, err, ErrForbidden)
}
