package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Hub хранит таблицу маршрутизации: комната -> подписанные соединения.
// Живет только в памяти процесса и после рестарта собирается заново
// из переподключившихся клиентов.
type Hub struct {
	clients map[uuid.UUID]*Client

	// Клиенты по UserID (один пользователь может иметь несколько соединений)
	userClients map[uuid.UUID]map[uuid.UUID]*Client

	// Клиенты в комнатах
	rooms map[uuid.UUID]map[uuid.UUID]*Client

	// Каналы для регистрации/отмены регистрации
	register   chan *Client
	unregister chan *Client

	// nil: доставка только внутри процесса
	broker Broker

	metrics *hubMetrics

	mu sync.RWMutex

	// Контекст для graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

type Option func(*Hub)

// WithBroker включает межпроцессную рассылку через брокер.
func WithBroker(b Broker) Option {
	return func(h *Hub) { h.broker = b }
}

// NewHub создает новый Hub
func NewHub(opts ...Option) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[uuid.UUID]map[uuid.UUID]*Client),
		rooms:       make(map[uuid.UUID]map[uuid.UUID]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		metrics:     newHubMetrics(),
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Context отменяется при остановке hub.
func (h *Hub) Context() context.Context {
	return h.ctx
}

// Run запускает hub
func (h *Hub) Run() {
	if h.broker != nil {
		go func() {
			if err := h.broker.Subscribe(h.ctx, h.deliver); err != nil {
				slog.Error("chat broker subscription stopped", "error", err)
			}
		}()
	}

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

// Stop останавливает hub и закрывает все соединения
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		client.closeSend()
		if client.Conn != nil {
			client.Conn.Close()
		}
		delete(h.clients, id)
	}
	h.userClients = make(map[uuid.UUID]map[uuid.UUID]*Client)
	h.rooms = make(map[uuid.UUID]map[uuid.UUID]*Client)
}

// Register регистрирует нового клиента
func (h *Hub) Register(client *Client) error {
	select {
	case h.register <- client:
		return nil
	case <-h.ctx.Done():
		return ErrHubStopped
	}
}

// Unregister отменяет регистрацию клиента
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client

	if _, ok := h.userClients[client.UserID]; !ok {
		h.userClients[client.UserID] = make(map[uuid.UUID]*Client)
	}
	h.userClients[client.UserID][client.ID] = client

	h.metrics.connected(h.ctx)
	slog.Info("client registered", "client_id", client.ID, "user_id", client.UserID)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	// Удаляем из всех комнат
	for _, roomID := range client.GetRooms() {
		h.removeFromRoomUnsafe(client, roomID)
	}

	if userClients, ok := h.userClients[client.UserID]; ok {
		delete(userClients, client.ID)
		if len(userClients) == 0 {
			delete(h.userClients, client.UserID)
		}
	}

	delete(h.clients, client.ID)
	client.closeSend()

	h.metrics.disconnected(h.ctx)
	slog.Info("client unregistered", "client_id", client.ID, "user_id", client.UserID)
}

// JoinRoom добавляет клиента в группу комнаты
func (h *Hub) JoinRoom(client *Client, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[uuid.UUID]*Client)
	}

	h.rooms[roomID][client.ID] = client
	client.addRoom(roomID)
}

// LeaveRoom удаляет клиента из группы комнаты
func (h *Hub) LeaveRoom(client *Client, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoomUnsafe(client, roomID)
}

// EvictUser отписывает все соединения пользователя от комнаты (выход или исключение).
func (h *Hub) EvictUser(roomID, userID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.userClients[userID] {
		h.removeFromRoomUnsafe(client, roomID)
	}
}

// CloseRoom убирает группу комнаты целиком (комната удалена).
func (h *Hub) CloseRoom(roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.rooms[roomID] {
		client.removeRoom(roomID)
	}
	delete(h.rooms, roomID)
}

func (h *Hub) removeFromRoomUnsafe(client *Client, roomID uuid.UUID) {
	room, ok := h.rooms[roomID]
	if !ok {
		return
	}
	if _, ok := room[client.ID]; !ok {
		return
	}

	delete(room, client.ID)
	client.removeRoom(roomID)

	if len(room) == 0 {
		delete(h.rooms, roomID)
	}
}

// Publish рассылает кадр всем подписчикам комнаты, включая отправителя.
func (h *Hub) Publish(ctx context.Context, roomID uuid.UUID, frame []byte) error {
	if h.broker == nil {
		h.deliver(roomID, frame)
		return nil
	}
	return h.broker.Publish(ctx, roomID, frame)
}

// deliver кладет кадр в очереди локальных подписчиков. Переполненная очередь
// означает медленного клиента: кадр для него теряется, комната не ждет.
func (h *Hub) deliver(roomID uuid.UUID, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.rooms[roomID] {
		if err := client.enqueue(frame); err != nil {
			h.metrics.dropped.Add(h.ctx, 1)
			slog.Warn("frame dropped", "client_id", client.ID, "room_id", roomID, "error", err)
			continue
		}
		h.metrics.delivered.Add(h.ctx, 1)
	}
}

// GetRoomUsers возвращает список пользователей, подписанных на комнату в этом процессе
func (h *Hub) GetRoomUsers(roomID uuid.UUID) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	userMap := make(map[uuid.UUID]bool)
	for _, client := range h.rooms[roomID] {
		userMap[client.UserID] = true
	}

	users := make([]uuid.UUID, 0, len(userMap))
	for userID := range userMap {
		users = append(users, userID)
	}
	return users
}
