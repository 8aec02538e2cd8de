package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Room struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"not null"`
	Description string    `gorm:"not null"`
	Image       *string
	MaxMember   int       `gorm:"not null"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt   time.Time

	// Связи
	Owner        User         `gorm:"foreignKey:OwnerID"`
	Participants []Membership `gorm:"foreignKey:RoomID"`
}

func (r *Room) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// IsOwner сообщает, является ли userID создателем комнаты.
func (r *Room) IsOwner(userID uuid.UUID) bool {
	return r.OwnerID == userID
}
