package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MembershipRole string

const (
	RoleAdmin  MembershipRole = "ADMIN"
	RoleMember MembershipRole = "MEMBER"
)

type MembershipStatus string

const (
	StatusPending MembershipStatus = "PENDING"
	StatusActive  MembershipStatus = "ACTIVE"
)

// Membership связывает пользователя с комнатой. Пара (room, user) уникальна.
type Membership struct {
	ID         uuid.UUID        `gorm:"type:uuid;primaryKey"`
	RoomID     uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_membership_room_user"`
	UserID     uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_membership_room_user;index"`
	Role       MembershipRole   `gorm:"type:varchar(16);not null"`
	Status     MembershipStatus `gorm:"type:varchar(16);not null;index"`
	LastSeenAt *time.Time
	CreatedAt  time.Time

	// Связи
	User User `gorm:"foreignKey:UserID"`
	Room Room `gorm:"foreignKey:RoomID"`
}

func (m *Membership) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (m *Membership) IsActive() bool {
	return m.Status == StatusActive
}
