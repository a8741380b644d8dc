package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenExpiry matches the canonical deployment's 2h credential life.
const DefaultTokenExpiry = 2 * time.Hour

// Claims extends standard JWT claims with the competition identity fields.
type Claims struct {
	jwt.RegisteredClaims
	TeamID   int64  `json:"team_id"`
	TeamName string `json:"team_name"`
	Role     string `json:"role"`
}

// Roles carried in tokens.
const (
	RoleAdmin = "admin"
	RoleTeam  = "team"
)

// TokenManager handles token generation and validation (HS256).
type TokenManager struct {
	secret []byte
	expiry time.Duration
}

func NewTokenManager(secret []byte, expiry time.Duration) *TokenManager {
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}
	return &TokenManager{secret: secret, expiry: expiry}
}

// Generate creates a signed JWT for a team identity.
func (tm *TokenManager) Generate(teamID int64, teamName, role string) (string, time.Time, error) {
	now := time.Now().UTC()
	expires := now.Add(tm.expiry)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		TeamID:   teamID,
		TeamName: teamName,
		Role:     role,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expires, nil
}

// Parse validates a JWT string and returns its claims.
func (tm *TokenManager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return tm.secret, nil
	})
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TeamID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
