package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/roomchat/internal/models"
)

// Store описывает операции хранилища, которые нужны сервисам. Реализуется *database.Database.
type Store interface {
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastSeen(ctx context.Context, id uuid.UUID, at time.Time) error

	CreateRoomWithOwner(ctx context.Context, room *models.Room) (*models.Membership, error)
	GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error)
	GetRoomDetail(ctx context.Context, id uuid.UUID) (*models.Room, error)
	ListRooms(ctx context.Context) ([]models.Room, error)
	CountActiveMembersByRoom(ctx context.Context) (map[uuid.UUID]int64, error)
	DeleteRoomCascade(ctx context.Context, id uuid.UUID) error

	CreateMembership(ctx context.Context, m *models.Membership) error
	GetMembership(ctx context.Context, id uuid.UUID) (*models.Membership, error)
	FindMembership(ctx context.Context, roomID, userID uuid.UUID) (*models.Membership, error)
	ListUserMemberships(ctx context.Context, userID uuid.UUID, status models.MembershipStatus) ([]models.Membership, error)
	ListRoomMemberships(ctx context.Context, roomID uuid.UUID, status models.MembershipStatus) ([]models.Membership, error)
	CountRoomMemberships(ctx context.Context, roomID uuid.UUID, status models.MembershipStatus) (int64, error)
	UpdateMembershipStatus(ctx context.Context, id uuid.UUID, status models.MembershipStatus) error
	DeleteMembership(ctx context.Context, id uuid.UUID) error
	TouchLastSeen(ctx context.Context, roomID, userID uuid.UUID, at time.Time) error

	SaveMessage(ctx context.Context, message *models.Message) error
	GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error)
	DeleteMessage(ctx context.Context, id uuid.UUID) error
	CountRoomMessages(ctx context.Context, roomID uuid.UUID) (int64, error)
	GetRoomMessages(ctx context.Context, roomID uuid.UUID, offset, limit int) ([]models.Message, error)
	CountUnread(ctx context.Context, roomID uuid.UUID, since *time.Time) (int64, error)
	LastMessage(ctx context.Context, roomID uuid.UUID) (*models.Message, error)
}
