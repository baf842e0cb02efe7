package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kinshipapp/kinship/pkg/errcode"
)

// Claims represents JWT claims
type Claims struct {
	UserId string `json:"user_id"`
	jwt.RegisteredClaims
}

// GenerateToken generates a new JWT token
func GenerateToken(userId, secret string, expireHours int) (string, error) {
	claims := Claims{
		UserId: userId,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expireHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "kinship",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken parses and validates a JWT token.
// It is the single credential verifier used by both the HTTP middleware
// and the gateway handshake.
func ParseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})

	if err != nil {
		return nil, errcode.ErrTokenInvalid.Wrap(err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		if claims.UserId == "" {
			return nil, errcode.ErrTokenInvalid
		}
		return claims, nil
	}

	return nil, errcode.ErrTokenInvalid
}
