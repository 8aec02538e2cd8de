package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/roomchat/internal/handlers/dto"
	"github.com/thereayou/roomchat/internal/middleware"
	"github.com/thereayou/roomchat/internal/models"
	"github.com/thereayou/roomchat/internal/services"
	"github.com/thereayou/roomchat/internal/websocket"
)

type RoomHandler struct {
	rooms *services.RoomService
	hub   *websocket.Hub
}

func NewRoomHandler(rooms *services.RoomService, hub *websocket.Hub) *RoomHandler {
	return &RoomHandler{rooms: rooms, hub: hub}
}

// CreateRoom создает новую комнату, создатель становится ее администратором
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req dto.CreateRoomRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindError(c, err)
		return
	}

	room, err := h.rooms.CreateRoom(c.Request.Context(), userID, services.CreateRoomInput{
		Name:        req.Name,
		Description: req.Description,
		MaxMember:   req.MaxMember,
		Image:       req.Image,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := formatRoomResponse(room)
	participants := make([]gin.H, len(room.Participants))
	for i := range room.Participants {
		participants[i] = formatMembershipResponse(&room.Participants[i])
	}
	response["participants"] = participants

	c.JSON(http.StatusCreated, response)
}

// ListRooms получает все комнаты с количеством участников
func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, err := h.rooms.ListRooms(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	result := make([]gin.H, len(rooms))
	for i := range rooms {
		resp := formatRoomResponse(&rooms[i].Room)
		resp["owner"] = dto.NewUserInfo(&rooms[i].Room.Owner)
		resp["participantCount"] = rooms[i].ParticipantCount
		result[i] = resp
	}

	c.JSON(http.StatusOK, result)
}

// GetMyRooms получает список комнат пользователя с непрочитанными и последним сообщением
func (h *RoomHandler) GetMyRooms(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	rooms, err := h.rooms.ListMyRooms(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	result := make([]gin.H, len(rooms))
	for i, r := range rooms {
		resp := formatRoomResponse(&r.Room)
		resp["role"] = r.Membership.Role
		resp["lastSeenAt"] = r.Membership.LastSeenAt
		resp["unreadCount"] = r.UnreadCount
		resp["lastMessage"] = nil

		if r.LastMessage != nil {
			resp["lastMessage"] = gin.H{
				"id":        r.LastMessage.ID,
				"message":   r.LastMessage.Body,
				"senderId":  r.LastMessage.SenderID,
				"createdAt": r.LastMessage.CreatedAt,
			}
		}

		result[i] = resp
	}

	c.JSON(http.StatusOK, result)
}

// GetRoomDetail получает комнату с участниками и сбрасывает непрочитанные
func (h *RoomHandler) GetRoomDetail(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	roomID, ok := parseID(c, "id", "room not found")
	if !ok {
		return
	}

	room, err := h.rooms.GetRoomDetail(c.Request.Context(), roomID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	participants := make([]gin.H, len(room.Participants))
	for i := range room.Participants {
		participants[i] = formatMembershipResponse(&room.Participants[i])
	}

	response := formatRoomResponse(room)
	response["owner"] = dto.NewUserInfo(&room.Owner)
	response["participants"] = participants
	response["onlineUserIds"] = h.hub.GetRoomUsers(room.ID)

	c.JSON(http.StatusOK, response)
}

// MarkRead явно помечает комнату прочитанной
func (h *RoomHandler) MarkRead(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	roomID, ok := parseID(c, "roomId", "room not found")
	if !ok {
		return
	}

	seenAt, err := h.rooms.MarkRead(c.Request.Context(), roomID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"roomId": roomID, "lastSeenAt": seenAt})
}

// DeleteRoom удаляет комнату
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	roomID, ok := parseID(c, "roomId", "room not found")
	if !ok {
		return
	}

	if err := h.rooms.DeleteRoom(c.Request.Context(), roomID, userID); err != nil {
		respondError(c, err)
		return
	}

	h.hub.CloseRoom(roomID)

	c.JSON(http.StatusOK, gin.H{"message": "room deleted successfully"})
}

// RequestJoin создает заявку на вступление
func (h *RoomHandler) RequestJoin(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	roomID, ok := parseID(c, "roomId", "room not found")
	if !ok {
		return
	}

	m, err := h.rooms.RequestJoin(c.Request.Context(), roomID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, formatMembershipResponse(m))
}

// ListPendingRequests получает заявки на вступление (только владелец)
func (h *RoomHandler) ListPendingRequests(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	roomID, ok := parseID(c, "roomId", "room not found")
	if !ok {
		return
	}

	requests, err := h.rooms.ListPendingRequests(c.Request.Context(), roomID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	result := make([]gin.H, len(requests))
	for i := range requests {
		result[i] = formatMembershipResponse(&requests[i])
	}

	c.JSON(http.StatusOK, result)
}

// ApproveRequest одобряет заявку (только владелец)
func (h *RoomHandler) ApproveRequest(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	requestID, ok := parseID(c, "requestId", "join request not found")
	if !ok {
		return
	}

	m, err := h.rooms.ApproveJoin(c.Request.Context(), requestID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, formatMembershipResponse(m))
}

// RemoveMember исключает участника (только владелец)
func (h *RoomHandler) RemoveMember(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	participantID, ok := parseID(c, "participantId", "participant not found")
	if !ok {
		return
	}

	m, err := h.rooms.RemoveMember(c.Request.Context(), participantID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.EvictUser(m.RoomID, m.UserID)

	c.JSON(http.StatusOK, gin.H{"message": "member removed successfully"})
}

// LeaveRoom удаляет пользователя из комнаты
func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	roomID, ok := parseID(c, "roomId", "room not found")
	if !ok {
		return
	}

	if err := h.rooms.LeaveRoom(c.Request.Context(), roomID, userID); err != nil {
		respondError(c, err)
		return
	}

	h.hub.EvictUser(roomID, userID)

	c.JSON(http.StatusOK, gin.H{"message": "left room successfully"})
}

// formatRoomResponse форматирует ответ для комнаты
func formatRoomResponse(room *models.Room) gin.H {
	return gin.H{
		"id":          room.ID,
		"name":        room.Name,
		"description": room.Description,
		"image":       room.Image,
		"maxMember":   room.MaxMember,
		"ownerId":     room.OwnerID,
		"createdAt":   room.CreatedAt,
	}
}

// formatMembershipResponse форматирует участие; профиль добавляется, если загружен
func formatMembershipResponse(m *models.Membership) gin.H {
	response := gin.H{
		"id":         m.ID,
		"roomId":     m.RoomID,
		"userId":     m.UserID,
		"role":       m.Role,
		"status":     m.Status,
		"lastSeenAt": m.LastSeenAt,
		"createdAt":  m.CreatedAt,
	}

	if m.User.ID != uuid.Nil {
		response["user"] = dto.NewUserInfo(&m.User)
	}

	return response
}
