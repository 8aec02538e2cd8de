package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/roomchat/internal/models"
	"github.com/thereayou/roomchat/pkg/auth"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	Name     string
	Username string
	Email    string
	Password string
}

type LoginRequest struct {
	Email    string
	Password string
}

type AuthResponse struct {
	User  *models.User
	Token string
}

// AuthService выдает токены. Проверка токенов живет в auth.Verifier.
type AuthService struct {
	store    Store
	jwt      *auth.JWTManager
	verifier *auth.Verifier
	cost     int
}

func NewAuthService(store Store, jwtMgr *auth.JWTManager, verifier *auth.Verifier) *AuthService {
	return &AuthService{store: store, jwt: jwtMgr, verifier: verifier, cost: bcrypt.DefaultCost}
}

// WithHashCost меняет стоимость bcrypt (тесты используют bcrypt.MinCost).
func (s *AuthService) WithHashCost(cost int) *AuthService {
	s.cost = cost
	return s
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
	}

	if err := s.store.SaveUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict("email or username already registered")
		}
		return nil, err
	}
	return user, nil
}

// Login выдаёт JWT и обновляет last_seen
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.store.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, unauthenticated("invalid credentials")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, unauthenticated("invalid credentials")
	}

	if err := s.store.UpdateLastSeen(ctx, user.ID, time.Now().UTC()); err != nil {
		return nil, err
	}

	token, err := s.jwt.Generate(user.ID.String(), user.Email)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{User: user, Token: token}, nil
}

// Logout ставит токен в черный список до истечения
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.verifier.Revoke(ctx, token); err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return unauthenticated("invalid token")
		}
		return err
	}
	return nil
}

func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, translate(err, "user not found")
	}
	return user, nil
}
