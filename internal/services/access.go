package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/roomchat/internal/models"
	"gorm.io/gorm"
)

// access собирает общие проверки доступа к комнате для всех сервисов и транспортов.
type access struct {
	store Store
	now   func() time.Time
}

func newAccess(store Store) access {
	return access{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// room возвращает комнату или NotFound.
func (a access) room(ctx context.Context, roomID uuid.UUID) (*models.Room, error) {
	room, err := a.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, translate(err, "room not found")
	}
	return room, nil
}

// activeMember проверяет существование комнаты, затем ACTIVE-участие пользователя.
func (a access) activeMember(ctx context.Context, roomID, userID uuid.UUID) (*models.Membership, error) {
	if _, err := a.room(ctx, roomID); err != nil {
		return nil, err
	}

	m, err := a.store.FindMembership(ctx, roomID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !m.IsActive()) {
		return nil, forbidden("you are not a member of this room")
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// markRead единственное место, где сбрасывается lastSeenAt.
func (a access) markRead(ctx context.Context, m *models.Membership) error {
	now := a.now()
	if err := a.store.TouchLastSeen(ctx, m.RoomID, m.UserID, now); err != nil {
		return err
	}
	m.LastSeenAt = &now
	return nil
}
