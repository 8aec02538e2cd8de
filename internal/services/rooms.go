package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/roomchat/internal/models"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	minRoomMembers = 2

	// сколько комнат listMyRooms обсчитывает параллельно
	myRoomsConcurrency = 8
)

type CreateRoomInput struct {
	Name        string
	Description string
	MaxMember   int
	Image       *string
}

// RoomSummary хранит комнату с числом активных участников.
type RoomSummary struct {
	Room             models.Room
	ParticipantCount int64
}

// MyRoom хранит комнату пользователя с непрочитанными и последним сообщением.
type MyRoom struct {
	Room        models.Room
	Membership  models.Membership
	UnreadCount int64
	LastMessage *models.Message
}

type RoomService struct {
	access
}

func NewRoomService(store Store) *RoomService {
	return &RoomService{access: newAccess(store)}
}

// CreateRoom создает комнату вместе с ACTIVE/ADMIN участием владельца.
func (s *RoomService) CreateRoom(ctx context.Context, ownerID uuid.UUID, in CreateRoomInput) (*models.Room, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)

	fields := make(map[string]string)
	if in.Name == "" {
		fields["name"] = "Field is required"
	}
	if in.Description == "" {
		fields["description"] = "Field is required"
	}
	if in.MaxMember < minRoomMembers {
		fields["maxMember"] = "Max member must be at least 2"
	}
	if len(fields) > 0 {
		return nil, validationError(fields)
	}

	if in.Image != nil && strings.TrimSpace(*in.Image) == "" {
		in.Image = nil
	}

	room := &models.Room{
		Name:        in.Name,
		Description: in.Description,
		Image:       in.Image,
		MaxMember:   in.MaxMember,
		OwnerID:     ownerID,
	}

	owner, err := s.store.CreateRoomWithOwner(ctx, room)
	if err != nil {
		return nil, err
	}
	room.Participants = []models.Membership{*owner}

	return room, nil
}

// ListRooms возвращает все комнаты с числом активных участников.
func (s *RoomService) ListRooms(ctx context.Context) ([]RoomSummary, error) {
	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := s.store.CountActiveMembersByRoom(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]RoomSummary, len(rooms))
	for i, room := range rooms {
		result[i] = RoomSummary{Room: room, ParticipantCount: counts[room.ID]}
	}
	return result, nil
}

// ListMyRooms возвращает ACTIVE-комнаты пользователя. Агрегаты по комнатам
// считаются параллельно, порядок результата совпадает с порядком участий.
func (s *RoomService) ListMyRooms(ctx context.Context, userID uuid.UUID) ([]MyRoom, error) {
	memberships, err := s.store.ListUserMemberships(ctx, userID, models.StatusActive)
	if err != nil {
		return nil, err
	}

	result := make([]MyRoom, len(memberships))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(myRoomsConcurrency)

	for i := range memberships {
		i := i
		m := memberships[i]
		g.Go(func() error {
			unread, err := s.store.CountUnread(gctx, m.RoomID, m.LastSeenAt)
			if err != nil {
				return err
			}

			last, err := s.store.LastMessage(gctx, m.RoomID)
			if err != nil {
				return err
			}

			room := m.Room
			m.Room = models.Room{}
			result[i] = MyRoom{
				Room:        room,
				Membership:  m,
				UnreadCount: unread,
				LastMessage: last,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetRoomDetail отдает комнату с владельцем и активными участниками и
// помечает комнату прочитанной для вызывающего.
func (s *RoomService) GetRoomDetail(ctx context.Context, roomID, userID uuid.UUID) (*models.Room, error) {
	m, err := s.activeMember(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.markRead(ctx, m); err != nil {
		return nil, err
	}

	room, err := s.store.GetRoomDetail(ctx, roomID)
	if err != nil {
		return nil, translate(err, "room not found")
	}
	return room, nil
}

// DeleteRoom удаляет комнату со всеми участиями и сообщениями. Только владелец.
func (s *RoomService) DeleteRoom(ctx context.Context, roomID, requesterID uuid.UUID) error {
	room, err := s.room(ctx, roomID)
	if err != nil {
		return err
	}

	if !room.IsOwner(requesterID) {
		return forbidden("only room owner can delete room")
	}

	return translate(s.store.DeleteRoomCascade(ctx, roomID), "room not found")
}

// RequestJoin создает PENDING-заявку. Повторная заявка при любом статусе дает Conflict.
func (s *RoomService) RequestJoin(ctx context.Context, roomID, userID uuid.UUID) (*models.Membership, error) {
	if _, err := s.room(ctx, roomID); err != nil {
		return nil, err
	}

	existing, err := s.store.FindMembership(ctx, roomID, userID)
	switch {
	case err == nil:
		if existing.IsActive() {
			return nil, conflict("you are already a member of this room")
		}
		return nil, conflict("join request already sent")
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	m := &models.Membership{
		RoomID: roomID,
		UserID: userID,
		Role:   models.RoleMember,
		Status: models.StatusPending,
	}

	if err := s.store.CreateMembership(ctx, m); err != nil {
		// параллельная заявка успела раньше: уникальный индекс (room_id, user_id)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict("join request already sent")
		}
		if _, findErr := s.store.FindMembership(ctx, roomID, userID); findErr == nil {
			return nil, conflict("join request already sent")
		}
		return nil, err
	}
	return m, nil
}

// ListPendingRequests отдает PENDING-заявки с профилями заявителей. Только владелец.
func (s *RoomService) ListPendingRequests(ctx context.Context, roomID, requesterID uuid.UUID) ([]models.Membership, error) {
	room, err := s.room(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if !room.IsOwner(requesterID) {
		return nil, forbidden("only room owner can view join requests")
	}

	return s.store.ListRoomMemberships(ctx, roomID, models.StatusPending)
}

// ApproveJoin переводит заявку в ACTIVE. Повторное одобрение ничего не меняет.
func (s *RoomService) ApproveJoin(ctx context.Context, membershipID, approverID uuid.UUID) (*models.Membership, error) {
	m, err := s.store.GetMembership(ctx, membershipID)
	if err != nil {
		return nil, translate(err, "join request not found")
	}

	if !m.Room.IsOwner(approverID) {
		return nil, forbidden("only room owner can approve join requests")
	}

	if m.IsActive() {
		return m, nil
	}

	active, err := s.store.CountRoomMemberships(ctx, m.RoomID, models.StatusActive)
	if err != nil {
		return nil, err
	}
	if active >= int64(m.Room.MaxMember) {
		return nil, conflict("room is full")
	}

	if err := s.store.UpdateMembershipStatus(ctx, m.ID, models.StatusActive); err != nil {
		return nil, translate(err, "join request not found")
	}
	m.Status = models.StatusActive

	return m, nil
}

// RemoveMember удаляет участие по решению владельца. Участие самого владельца
// удаляется только вместе с комнатой.
func (s *RoomService) RemoveMember(ctx context.Context, membershipID, requesterID uuid.UUID) (*models.Membership, error) {
	m, err := s.store.GetMembership(ctx, membershipID)
	if err != nil {
		return nil, translate(err, "participant not found")
	}

	if !m.Room.IsOwner(requesterID) {
		return nil, forbidden("only room owner can remove members")
	}

	if m.Room.IsOwner(m.UserID) {
		return nil, forbidden("room owner cannot be removed, delete the room instead")
	}

	if err := s.store.DeleteMembership(ctx, m.ID); err != nil {
		return nil, translate(err, "participant not found")
	}
	return m, nil
}

// LeaveRoom удаляет собственное участие. Владелец выйти не может.
func (s *RoomService) LeaveRoom(ctx context.Context, roomID, userID uuid.UUID) error {
	room, err := s.room(ctx, roomID)
	if err != nil {
		return err
	}

	m, err := s.store.FindMembership(ctx, roomID, userID)
	if err != nil {
		return translate(err, "you are not a member of this room")
	}

	if room.IsOwner(userID) {
		return forbidden("room owner cannot leave room, delete the room instead")
	}

	return translate(s.store.DeleteMembership(ctx, m.ID), "you are not a member of this room")
}

// MarkRead сбрасывает счетчик непрочитанных для активного участника.
func (s *RoomService) MarkRead(ctx context.Context, roomID, userID uuid.UUID) (time.Time, error) {
	m, err := s.activeMember(ctx, roomID, userID)
	if err != nil {
		return time.Time{}, err
	}
	if err := s.markRead(ctx, m); err != nil {
		return time.Time{}, err
	}
	return *m.LastSeenAt, nil
}
