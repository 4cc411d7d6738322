package usecase

import (
	"errors"
	"fmt"
	"time"

	"github.com/ErlanBelekov/agent-dashboard/internal/domain"
	"github.com/ErlanBelekov/agent-dashboard/internal/reqctx"
	"github.com/golang-jwt/jwt/v5"
)

const defaultSessionTTL = 24 * time.Hour

// SessionUsecase issues and verifies the bearer tokens that identify a
// dashboard session. The token subject is the session id.
type SessionUsecase struct {
	jwtKey []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionUsecase(jwtKey []byte) *SessionUsecase {
	return &SessionUsecase{jwtKey: jwtKey, ttl: defaultSessionTTL, now: time.Now}
}

type Session struct {
	ID        string    `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Start opens a new session and returns its signed token.
func (u *SessionUsecase) Start() (Session, error) {
	id := reqctx.NewID()
	now := u.now()
	expiresAt := now.Add(u.ttl)

	claims := jwt.MapClaims{
		"sub": id,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(u.jwtKey)
	if err != nil {
		return Session{}, fmt.Errorf("sign jwt: %w", err)
	}
	return Session{ID: id, Token: signed, ExpiresAt: expiresAt}, nil
}

// Verify returns the session id carried by a token.
func (u *SessionUsecase) Verify(raw string) (string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return u.jwtKey, nil
	}, jwt.WithTimeFunc(u.now))
	if err != nil || !token.Valid {
		return "", domain.ErrTokenInvalid
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", domain.ErrTokenInvalid
	}
	return sub, nil
}
