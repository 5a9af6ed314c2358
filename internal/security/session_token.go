package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidSessionToken = errors.New("invalid session token")

// SessionClaims binds a cookie to a user and to the server-side session
// that holds the resolved mode.
type SessionClaims struct {
	UserID    uint   `json:"uid"`
	Role      string `json:"role"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

func IssueSessionToken(secretKey []byte, userID uint, role string, sessionID string, ttl time.Duration, now time.Time) (string, error) {
	if len(secretKey) == 0 {
		return "", errors.New("secret key is required")
	}
	claims := SessionClaims{
		UserID:    userID,
		Role:      role,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey)
}

func ParseSessionToken(secretKey []byte, rawToken string, now time.Time) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return secretKey, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil || !token.Valid {
		return nil, ErrInvalidSessionToken
	}
	if claims.UserID == 0 || claims.SessionID == "" {
		return nil, ErrInvalidSessionToken
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(now) {
		return nil, ErrInvalidSessionToken
	}
	return claims, nil
}
