package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/thereayou/roomchat/internal/config"
	"github.com/thereayou/roomchat/internal/database"
	"github.com/thereayou/roomchat/internal/services"
	"github.com/thereayou/roomchat/internal/websocket"
	"github.com/thereayou/roomchat/pkg/auth"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	Config     *config.Config
	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	JWTManager *auth.JWTManager
	Hub        *websocket.Hub
	HTTP       *http.Server
}

func NewServer(cfg *config.Config) (*Server, error) {
	dbConn := &database.Database{}
	if err := dbConn.Connect(cfg.DatabaseURL); err != nil {
		return nil, fmt.Errorf("postgres connect failed: %w", err)
	}

	// Redis опционален: без него нет blacklist и межпроцессной рассылки
	var rdb *redis.Client
	var blacklist auth.Blacklist
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb = redis.NewClient(redisOpts)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("redis connect failed: %w", err)
		}
		blacklist = auth.NewRedisBlacklist(rdb)
	}

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	verifier := auth.NewVerifier(jwtMgr, blacklist)

	var hubOpts []websocket.Option
	if cfg.ChatBroker == config.BrokerRedis {
		hubOpts = append(hubOpts, websocket.WithBroker(websocket.NewRedisBroker(rdb)))
	}
	hub := websocket.NewHub(hubOpts...)

	authSvc := services.NewAuthService(dbConn, jwtMgr, verifier)
	roomSvc := services.NewRoomService(dbConn)
	chatSvc := services.NewChatService(dbConn)

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	router := newRouter(authSvc, roomSvc, chatSvc, verifier, hub, cfg.AllowedOrigins)

	return &Server{
		Config:     cfg,
		Router:     router,
		DB:         dbConn,
		Redis:      rdb,
		JWTManager: jwtMgr,
		Hub:        hub,
		HTTP: &http.Server{
			Addr:    ":" + cfg.Port,
			Handler: router,
		},
	}, nil
}

// Run обслуживает запросы, пока не отменен ctx, затем останавливается за shutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	go s.Hub.Run()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", s.Config.Port, "chat_broker", s.Config.ChatBroker)
		if err := s.HTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.close()
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.HTTP.Shutdown(shutdownCtx)
	s.close()
	return err
}

func (s *Server) close() {
	s.Hub.Stop()

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			slog.Warn("redis close failed", "error", err)
		}
	}
	if err := s.DB.Close(); err != nil {
		slog.Warn("database close failed", "error", err)
	}
}
