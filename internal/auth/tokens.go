// Package auth mints and verifies the opaque player tokens issued by the
// gateway. Tokens are HS256 JWTs binding a player to a room; the room still
// authorizes by looking the token up in its own player table.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid player token")

// Claims carried by a player token.
type Claims struct {
	RoomID   string `json:"rid"`
	PlayerID string `json:"pid"`
	jwt.RegisteredClaims
}

// Mint issues a token for (roomID, playerID) valid for ttl.
func Mint(secret []byte, roomID, playerID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RoomID:   roomID,
		PlayerID: playerID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign player token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns its room and player ids.
func Verify(secret []byte, tokenString string) (roomID, playerID string, err error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", "", ErrInvalidToken
	}
	if claims.RoomID == "" || claims.PlayerID == "" {
		return "", "", ErrInvalidToken
	}
	return claims.RoomID, claims.PlayerID, nil
}
