package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lalith-99/dormlink/internal/models"
	"github.com/lalith-99/dormlink/internal/session"
)

const issuer = "dormlink"

// Claims is the payload inside every session token.
//
// The middleware reads these back on each request, so the server knows who
// is calling and with which role without a database round trip.
type Claims struct {
	UserID   int64       `json:"user_id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity converts the claims into the session identity handed to workflows.
func (c *Claims) Identity() session.Identity {
	return session.Identity{UserID: c.UserID, Username: c.Username, Role: c.Role}
}

// GenerateToken signs an HS256 token for id that expires after ttl.
//
// Why HS256?
//   - This server both issues and verifies tokens, so one shared secret
//     (JWT_SECRET) is enough and there is no key pair to distribute.
//   - Every server instance behind the Redis relay must share the same
//     secret, otherwise a token issued by one is rejected by another.
//
// The role travels in the token, so a role change takes effect at the
// next login, not on tokens already issued.
func GenerateToken(id session.Identity, secret string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		UserID:   id.UserID,
		Username: id.Username,
		Role:     id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   fmt.Sprintf("%d", id.UserID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// ParseToken validates a token string and extracts the claims.
//
// It checks the signature, the expiry and that the signing method is HMAC,
// which rejects "none" and algorithm-switching tokens.
func ParseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		},
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}
