package main

import (
	"github.com/gin-gonic/gin"
	"github.com/thereayou/roomchat/internal/handlers"
	"github.com/thereayou/roomchat/internal/middleware"
	"github.com/thereayou/roomchat/internal/services"
	"github.com/thereayou/roomchat/internal/websocket"
	"github.com/thereayou/roomchat/pkg/auth"
)

// Handlers собирает все HTTP/websocket обработчики сервиса.
type Handlers struct {
	Auth     *handlers.AuthHandler
	User     *handlers.UserHandler
	Room     *handlers.RoomHandler
	Message  *handlers.HTTPMessageHandler
	Realtime *handlers.WebSocketHandler
}

// newRouter собирает gin engine со всеми маршрутами поверх готовых сервисов.
func newRouter(
	authSvc *services.AuthService,
	roomSvc *services.RoomService,
	chatSvc *services.ChatService,
	verifier *auth.Verifier,
	hub *websocket.Hub,
	allowedOrigins []string,
) *gin.Engine {
	handlers.SetupValidator()

	router := gin.New()
	router.Use(middleware.Recovery(), middleware.RequestLog())

	APIEndpoints(router, verifier, Handlers{
		Auth:     handlers.NewAuthHandler(authSvc),
		User:     handlers.NewUserHandler(authSvc),
		Room:     handlers.NewRoomHandler(roomSvc, hub),
		Message:  handlers.NewHTTPMessageHandler(chatSvc, hub),
		Realtime: handlers.NewWebSocketHandler(hub, handlers.NewMessageHandler(chatSvc, hub), allowedOrigins),
	})

	return router
}

func APIEndpoints(r *gin.Engine, verifier *auth.Verifier, h Handlers) {
	authRequired := middleware.AuthMiddleware(verifier)

	// Auth endpoints
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/logout", authRequired, h.Auth.Logout)
	}

	users := r.Group("/users", authRequired)
	{
		users.GET("/me", h.User.GetMe)
		users.GET("/:id", h.User.GetUser)
	}

	rooms := r.Group("/rooms", authRequired)
	{
		rooms.POST("", h.Room.CreateRoom)
		rooms.GET("", h.Room.ListRooms)
		rooms.GET("/my-rooms", h.Room.GetMyRooms)
		rooms.GET("/detail/:id", h.Room.GetRoomDetail)
		rooms.PUT("/read/:roomId", h.Room.MarkRead)
		rooms.DELETE("/:roomId", h.Room.DeleteRoom)
		rooms.POST("/join/:roomId", h.Room.RequestJoin)
		rooms.GET("/requests/:roomId", h.Room.ListPendingRequests)
		rooms.PUT("/requests/approve/:requestId", h.Room.ApproveRequest)
		rooms.DELETE("/remove-member/:participantId", h.Room.RemoveMember)
		rooms.DELETE("/logout/:roomId", h.Room.LeaveRoom)
	}

	chats := r.Group("/chats", authRequired)
	{
		chats.GET("/room/:id", h.Message.GetRoomMessages)
		chats.DELETE("/:id", h.Message.DeleteMessage)
	}

	// WebSocket endpoint
	r.GET("/ws", middleware.WSAuthMiddleware(verifier), h.Realtime.HandleWebSocket)
}
