package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/thereayou/roomchat/internal/handlers/dto"
	"github.com/thereayou/roomchat/internal/services"
	"github.com/thereayou/roomchat/internal/websocket"
)

var (
	errJoinFailed = errors.New("failed to join room")
	errSendFailed = errors.New("failed to send message")
)

// MessageHandler обрабатывает события websocket-соединения.
type MessageHandler struct {
	chat *services.ChatService
	hub  *websocket.Hub
	seq  *roomSequencer
}

func NewMessageHandler(chat *services.ChatService, hub *websocket.Hub) *MessageHandler {
	return &MessageHandler{
		chat: chat,
		hub:  hub,
		seq:  newRoomSequencer(),
	}
}

// HandleMessage разбирает событие. Кривые кадры молча отбрасываются;
// возвращенная ошибка уходит только отправителю.
func (h *MessageHandler) HandleMessage(ctx context.Context, client *websocket.Client, msg *websocket.Message) error {
	switch msg.Event {
	case websocket.EventJoinRoom:
		return h.handleJoin(ctx, client, msg)

	case websocket.EventLeaveRoom:
		if roomID, ok := parseRoomRef(msg.Data); ok {
			h.hub.LeaveRoom(client, roomID)
		}
		return nil

	case websocket.EventSendMessage:
		return h.handleSend(ctx, client, msg)

	default:
		slog.Debug("unknown event", "event", msg.Event, "client_id", client.ID)
		return nil
	}
}

// handleJoin подписывает соединение на комнату только для ACTIVE-участника,
// как и REST-эндпоинты чтения.
func (h *MessageHandler) handleJoin(ctx context.Context, client *websocket.Client, msg *websocket.Message) error {
	roomID, ok := parseRoomRef(msg.Data)
	if !ok {
		return nil
	}

	if err := h.chat.Authorize(ctx, roomID, client.UserID); err != nil {
		return publicError(err, errJoinFailed)
	}

	h.hub.JoinRoom(client, roomID)
	return nil
}

// handleSend сохраняет сообщение и только после этого рассылает его всей
// комнате, включая отправителя. Сохранение и рассылка в одной комнате идут
// строго по очереди, поэтому порядок рассылки совпадает с порядком записи.
func (h *MessageHandler) handleSend(ctx context.Context, client *websocket.Client, msg *websocket.Message) error {
	var payload dto.SendMessagePayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return nil
	}

	roomID, err := uuid.Parse(strings.TrimSpace(payload.RoomID))
	if err != nil || strings.TrimSpace(payload.Message) == "" {
		return nil
	}

	unlock := h.seq.lock(roomID)
	defer unlock()

	message, err := h.chat.SendMessage(ctx, roomID, client.UserID, payload.Message)
	if err != nil {
		return publicError(err, errSendFailed)
	}

	frame, err := websocket.Encode(websocket.EventReceiveMessage, dto.NewMessageResponse(message))
	if err != nil {
		slog.Error("encode receive_message", "message_id", message.ID, "error", err)
		return errSendFailed
	}

	if err := h.hub.Publish(ctx, roomID, frame); err != nil {
		slog.Error("broadcast failed", "room_id", roomID, "message_id", message.ID, "error", err)
		return errSendFailed
	}

	return nil
}

// publicError оставляет текст доменной ошибки, остальное логирует и заменяет на fallback.
func publicError(err, fallback error) error {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		return errors.New(svcErr.Message)
	}
	slog.Error("chat event failed", "error", err)
	return fallback
}

// parseRoomRef принимает id комнаты строкой ("<uuid>") или объектом {"roomId": "<uuid>"}.
func parseRoomRef(data json.RawMessage) (uuid.UUID, bool) {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		var obj struct {
			RoomID string `json:"roomId"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return uuid.Nil, false
		}
		raw = obj.RoomID
	}

	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// roomSequencer держит мьютекс на комнату; запись удаляется, когда ее никто не держит.
type roomSequencer struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*roomLock
}

type roomLock struct {
	sync.Mutex
	refs int
}

func newRoomSequencer() *roomSequencer {
	return &roomSequencer{locks: make(map[uuid.UUID]*roomLock)}
}

func (s *roomSequencer) lock(roomID uuid.UUID) func() {
	s.mu.Lock()
	l, ok := s.locks[roomID]
	if !ok {
		l = &roomLock{}
		s.locks[roomID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()

	return func() {
		l.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, roomID)
		}
		s.mu.Unlock()
	}
}
