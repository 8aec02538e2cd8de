package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
	ErrRevokedToken = errors.New("token is blacklisted")

	// ErrVerificationUnavailable: хранилище отозванных токенов не ответило.
	ErrVerificationUnavailable = errors.New("token verification unavailable")
)

// Identity проверенная личность вызывающего.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// Verifier задает единый контракт проверки токена для HTTP API и websocket.
type Verifier struct {
	jwt       *JWTManager
	blacklist Blacklist
}

// NewVerifier создает проверку токенов. blacklist может быть nil (Redis не настроен).
func NewVerifier(jwt *JWTManager, blacklist Blacklist) *Verifier {
	return &Verifier{jwt: jwt, blacklist: blacklist}
}

func (v *Verifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	if v.blacklist != nil {
		revoked, err := v.blacklist.IsRevoked(ctx, token)
		if err != nil {
			slog.Error("blacklist lookup failed", "error", err)
			return nil, ErrVerificationUnavailable
		}
		if revoked {
			return nil, ErrRevokedToken
		}
	}

	claims, err := v.jwt.Verify(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Identity{UserID: userID, Email: claims.Email}, nil
}

// Revoke отзывает токен до его истечения. Без blacklist ничего не делает.
func (v *Verifier) Revoke(ctx context.Context, token string) error {
	if v.blacklist == nil {
		return nil
	}
	exp, err := v.jwt.Expiry(token)
	if err != nil {
		return ErrInvalidToken
	}
	return v.blacklist.Revoke(ctx, token, time.Until(exp))
}
