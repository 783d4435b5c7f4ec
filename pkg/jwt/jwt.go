package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrIdentityMismatch is returned when a paired access and refresh
// token do not belong to the same profile.
var ErrIdentityMismatch = errors.New("token identity mismatch")

// Identity is the claim set shared by access and refresh tokens.
type Identity struct {
	ProfileID uuid.UUID
	Username  string
}

// GenerateToken creates a signed token for the identity with the given
// lifetime.
func GenerateToken(identity Identity, secret string, lifetime time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":      identity.ProfileID.String(),
		"username": identity.Username,
		"exp":      time.Now().Add(lifetime).Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(secret))
}

// VerifyToken checks the token's signature and expiry.
func VerifyToken(tokenString, secret string) (Identity, error) {
	return verify(tokenString, secret, jwt.WithExpirationRequired())
}

// VerifySignatureOnly checks the token's signature, ignoring expiry.
// Reserved for the websocket handshake access token, where the paired
// refresh token carries the liveness check.
func VerifySignatureOnly(tokenString, secret string) (Identity, error) {
	return verify(tokenString, secret, jwt.WithoutClaimsValidation())
}

func verify(tokenString, secret string, opts ...jwt.ParserOption) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return Identity{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Identity{}, jwt.ErrTokenInvalidClaims
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return Identity{}, jwt.ErrTokenInvalidSubject
	}
	profileID, err := uuid.Parse(sub)
	if err != nil {
		return Identity{}, jwt.ErrTokenInvalidSubject
	}
	username, _ := claims["username"].(string)

	return Identity{ProfileID: profileID, Username: username}, nil
}
