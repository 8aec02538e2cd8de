package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/roomchat/internal/models"
)

// SendMessagePayload данные события send_message
type SendMessagePayload struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

// MessageResponse сохраненное сообщение с профилем отправителя
type MessageResponse struct {
	ID        uuid.UUID `json:"id"`
	RoomID    uuid.UUID `json:"roomId"`
	SenderID  uuid.UUID `json:"senderId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	Sender    *UserInfo `json:"sender,omitempty"`
}

// MessageDeleted данные события message_deleted
type MessageDeleted struct {
	ID     uuid.UUID `json:"id"`
	RoomID uuid.UUID `json:"roomId"`
}

type UserInfo struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	ProfileImage string    `json:"profileImage,omitempty"`
}

func NewUserInfo(u *models.User) UserInfo {
	return UserInfo{
		ID:           u.ID,
		Name:         u.Name,
		Username:     u.Username,
		ProfileImage: u.ProfileImage,
	}
}

func NewMessageResponse(msg *models.Message) MessageResponse {
	resp := MessageResponse{
		ID:        msg.ID,
		RoomID:    msg.RoomID,
		SenderID:  msg.SenderID,
		Message:   msg.Body,
		CreatedAt: msg.CreatedAt,
	}

	// Если загружена информация о пользователе
	if msg.Sender.ID != uuid.Nil {
		sender := NewUserInfo(&msg.Sender)
		resp.Sender = &sender
	}

	return resp
}
