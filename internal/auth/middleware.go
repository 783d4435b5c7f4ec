package auth

import (
	"net/http"
	"strings"

	"socialnet/backend/internal/config"
	"socialnet/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware creates a gin middleware that requires a valid bearer
// token and sets the caller's profileID and username on the context.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		identity, err := jwt.VerifyToken(parts[1], cfg.AccessTokenSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set("profileID", identity.ProfileID)
		c.Set("username", identity.Username)
		c.Next()
	}
}

// VerifyHandshake checks the websocket upgrade request's credential
// pair: the access token (query parameter) is verified by signature
// only, while the refresh_token cookie must also be unexpired. Both
// identities must agree.
func VerifyHandshake(cfg *config.Config, r *http.Request) (jwt.Identity, error) {
	accessToken := r.URL.Query().Get("token")
	identity, err := jwt.VerifySignatureOnly(accessToken, cfg.AccessTokenSecret)
	if err != nil {
		return jwt.Identity{}, err
	}

	cookie, err := r.Cookie("refresh_token")
	if err != nil {
		return jwt.Identity{}, err
	}
	refreshIdentity, err := jwt.VerifyToken(cookie.Value, cfg.RefreshTokenSecret)
	if err != nil {
		return jwt.Identity{}, err
	}
	if refreshIdentity.ProfileID != identity.ProfileID {
		return jwt.Identity{}, jwt.ErrIdentityMismatch
	}

	return identity, nil
}
