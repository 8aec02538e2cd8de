package services

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMessagesPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	room := f.room(t, owner, 10)

	base := time.Now().Add(-time.Hour)
	for i := 1; i <= 45; i++ {
		f.message(t, room, owner, fmt.Sprintf("m%02d", i), base.Add(time.Duration(i)*time.Second))
	}

	first, err := f.chat.ListMessages(ctx, room.ID, owner.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(45), first.Total)
	assert.Equal(t, 3, first.TotalPages)
	assert.True(t, first.HasMore)
	require.Len(t, first.Messages, 20)
	assert.Equal(t, "m26", first.Messages[0].Body)
	assert.Equal(t, "m45", first.Messages[19].Body)
	for i := 1; i < len(first.Messages); i++ {
		assert.True(t, first.Messages[i-1].CreatedAt.Before(first.Messages[i].CreatedAt))
	}
	assert.NotEmpty(t, first.Messages[0].Sender.Username)

	second, err := f.chat.ListMessages(ctx, room.ID, owner.ID, 2, 20)
	require.NoError(t, err)
	require.Len(t, second.Messages, 20)
	assert.Equal(t, "m06", second.Messages[0].Body)
	assert.Equal(t, "m25", second.Messages[19].Body)
	assert.True(t, second.HasMore)

	last, err := f.chat.ListMessages(ctx, room.ID, owner.ID, 3, 20)
	require.NoError(t, err)
	require.Len(t, last.Messages, 5)
	assert.Equal(t, "m01", last.Messages[0].Body)
	assert.Equal(t, "m05", last.Messages[4].Body)
	assert.False(t, last.HasMore)

	beyond, err := f.chat.ListMessages(ctx, room.ID, owner.ID, 4, 20)
	require.NoError(t, err)
	assert.Empty(t, beyond.Messages)
	assert.False(t, beyond.HasMore)

	for _, huge := range []int{1 << 62, math.MaxInt} {
		far, err := f.chat.ListMessages(ctx, room.ID, owner.ID, huge, 20)
		require.NoError(t, err)
		assert.Equal(t, huge, far.Page)
		assert.Empty(t, far.Messages)
		assert.False(t, far.HasMore)
		assert.Equal(t, 3, far.TotalPages)
	}
}

func TestListMessagesLimits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	room := f.room(t, owner, 10)

	page, err := f.chat.ListMessages(ctx, room.ID, owner.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageSize, page.Limit)
	assert.Zero(t, page.TotalPages)
	assert.False(t, page.HasMore)
	assert.Empty(t, page.Messages)

	page, err = f.chat.ListMessages(ctx, room.ID, owner.ID, 1, 1000)
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.Limit)

	_, err = f.chat.ListMessages(ctx, uuid.New(), owner.ID, 1, 20)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListMessagesFirstPageMarksRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	room := f.room(t, owner, 10)

	page, err := f.chat.ListMessages(ctx, room.ID, owner.ID, 1, 20)
	require.NoError(t, err)
	assert.Nil(t, page.LastSeenAt)

	m, err := f.db.FindMembership(ctx, room.ID, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, m.LastSeenAt)
	firstSeen := *m.LastSeenAt

	page, err = f.chat.ListMessages(ctx, room.ID, owner.ID, 1, 20)
	require.NoError(t, err)
	require.NotNil(t, page.LastSeenAt)
	assert.True(t, page.LastSeenAt.Equal(firstSeen))

	// страницы дальше первой не трогают lastSeenAt
	m, err = f.db.FindMembership(ctx, room.ID, owner.ID)
	require.NoError(t, err)
	afterSecondRead := *m.LastSeenAt

	_, err = f.chat.ListMessages(ctx, room.ID, owner.ID, 2, 20)
	require.NoError(t, err)
	m, err = f.db.FindMembership(ctx, room.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, m.LastSeenAt.Equal(afterSecondRead))
}

func TestSendMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	guest := f.user(t, "guest")
	stranger := f.user(t, "stranger")
	room := f.room(t, owner, 10)
	f.member(t, room, guest)

	msg, err := f.chat.SendMessage(ctx, room.ID, guest.ID, "hello there")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, msg.ID)
	assert.Equal(t, guest.ID, msg.SenderID)
	assert.Equal(t, guest.Username, msg.Sender.Username)
	assert.False(t, msg.CreatedAt.IsZero())

	_, err = f.chat.SendMessage(ctx, room.ID, guest.ID, "   ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.chat.SendMessage(ctx, room.ID, stranger.ID, "let me in")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.chat.SendMessage(ctx, uuid.New(), guest.ID, "nowhere")
	assert.ErrorIs(t, err, ErrNotFound)

	total, err := f.db.CountRoomMessages(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestDeleteMessageSenderOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	guest := f.user(t, "guest")
	room := f.room(t, owner, 10)
	f.member(t, room, guest)

	msg := f.message(t, room, guest, "mine", time.Now())

	_, err := f.chat.DeleteMessage(ctx, msg.ID, owner.ID)
	require.ErrorIs(t, err, ErrForbidden)

	deleted, err := f.chat.DeleteMessage(ctx, msg.ID, guest.ID)
	require.NoError(t, err)
	assert.Equal(t, room.ID, deleted.RoomID)

	_, err = f.chat.DeleteMessage(ctx, msg.ID, guest.ID)
	require.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "chat not found")
}
