package utils

import (
	"errors" // Error values
	"time"   // Token lifetime

	"github.com/golang-jwt/jwt/v5" // JWT library
)

// TokenTTL is how long a login token stays valid
const TokenTTL = 24 * time.Hour

const tokenIssuer = "mining_rewards"

// Claims carried by a session token
type Claims struct {
	UserID               string `json:"user_id"`  // User uuid
	Username             string `json:"username"` // Shown by clients without a lookup
	jwt.RegisteredClaims        // Expiry, issue time and issuer
}

// GenerateJWT signs a session token for the user
func GenerateJWT(userID, username, secret string) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is empty")
	}
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseJWT validates a token string and returns its claims. Only HS256
// tokens from this issuer are accepted.
func ParseJWT(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
