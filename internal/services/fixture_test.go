package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/roomchat/internal/database"
	"github.com/thereayou/roomchat/internal/database/dbtest"
	"github.com/thereayou/roomchat/internal/models"
)

type fixture struct {
	db    *database.Database
	rooms *RoomService
	chat  *ChatService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	return &fixture{
		db:    db,
		rooms: NewRoomService(db),
		chat:  NewChatService(db),
	}
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{
		Name:         name,
		Username:     fmt.Sprintf("%s-%s", name, uuid.NewString()[:8]),
		Email:        fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		PasswordHash: "x",
	}
	require.NoError(t, f.db.SaveUser(context.Background(), u))
	return u
}

func (f *fixture) room(t *testing.T, owner *models.User, maxMember int) *models.Room {
	t.Helper()
	room, err := f.rooms.CreateRoom(context.Background(), owner.ID, CreateRoomInput{
		Name:        "general",
		Description: "general talk",
		MaxMember:   maxMember,
	})
	require.NoError(t, err)
	return room
}

// member делает пользователя ACTIVE-участником комнаты через заявку и одобрение.
func (f *fixture) member(t *testing.T, room *models.Room, u *models.User) *models.Membership {
	t.Helper()
	ctx := context.Background()

	m, err := f.rooms.RequestJoin(ctx, room.ID, u.ID)
	require.NoError(t, err)

	m, err = f.rooms.ApproveJoin(ctx, m.ID, room.OwnerID)
	require.NoError(t, err)
	return m
}

func (f *fixture) message(t *testing.T, room *models.Room, sender *models.User, body string, at time.Time) *models.Message {
	t.Helper()
	msg := &models.Message{RoomID: room.ID, SenderID: sender.ID, Body: body, CreatedAt: at.UTC()}
	require.NoError(t, f.db.SaveMessage(context.Background(), msg))
	return msg
}
