package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/roomchat/internal/handlers/dto"
	"github.com/thereayou/roomchat/internal/middleware"
	"github.com/thereayou/roomchat/internal/services"
	"github.com/thereayou/roomchat/internal/websocket"
)

type HTTPMessageHandler struct {
	chat *services.ChatService
	hub  *websocket.Hub
}

func NewHTTPMessageHandler(chat *services.ChatService, hub *websocket.Hub) *HTTPMessageHandler {
	return &HTTPMessageHandler{chat: chat, hub: hub}
}

// GetRoomMessages получает историю сообщений комнаты
func (h *HTTPMessageHandler) GetRoomMessages(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	roomID, ok := parseID(c, "id", "room not found")
	if !ok {
		return
	}

	// Параметры пагинации
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultPageSize)))

	result, err := h.chat.ListMessages(c.Request.Context(), roomID, userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	data := make([]dto.MessageResponse, len(result.Messages))
	for i := range result.Messages {
		data[i] = dto.NewMessageResponse(&result.Messages[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"meta": gin.H{
			"roomId":     result.RoomID,
			"lastSeenAt": result.LastSeenAt,
			"pagination": gin.H{
				"page":       result.Page,
				"limit":      result.Limit,
				"totalChats": result.Total,
				"totalPages": result.TotalPages,
				"hasMore":    result.HasMore,
			},
		},
		"data": data,
	})
}

// DeleteMessage удаляет сообщение (только автор) и уведомляет комнату
func (h *HTTPMessageHandler) DeleteMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	messageID, ok := parseID(c, "id", "chat not found")
	if !ok {
		return
	}

	message, err := h.chat.DeleteMessage(c.Request.Context(), messageID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	frame, err := websocket.Encode(websocket.EventMessageDeleted, dto.MessageDeleted{ID: message.ID, RoomID: message.RoomID})
	if err == nil {
		err = h.hub.Publish(c.Request.Context(), message.RoomID, frame)
	}
	if err != nil {
		slog.Warn("message_deleted broadcast failed", "message_id", message.ID, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Chat deleted successfully"})
}
