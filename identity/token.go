package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is what a participant token carries: enough to authorize session
// operations without a lookup.
type Claims struct {
	SessionID     string `json:"sid"`
	ParticipantID string `json:"pid"`
	Host          bool   `json:"host"`
	jwt.RegisteredClaims
}

// Tokens mints and validates the HS256 participant tokens handed out at
// create/join time.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

func (t *Tokens) Issue(sessionID, participantID string, host bool) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		SessionID:     sessionID,
		ParticipantID: participantID,
		Host:          host,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *Tokens) Parse(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.SessionID == "" || claims.ParticipantID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
