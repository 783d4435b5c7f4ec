package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"socialnet/backend/internal/config"
	"socialnet/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
	}
}

func protectedRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/me", AuthMiddleware(cfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"profileId": c.MustGet("profileID")})
	})
	return router
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	cfg := testConfig()
	router := protectedRouter(cfg)

	token, err := jwt.GenerateToken(jwt.Identity{ProfileID: uuid.New(), Username: "alice"},
		cfg.AccessTokenSecret, time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddlewareRejectsExpiredToken(t *testing.T) {
	cfg := testConfig()
	router := protectedRouter(cfg)

	token, err := jwt.GenerateToken(jwt.Identity{ProfileID: uuid.New(), Username: "alice"},
		cfg.AccessTokenSecret, -time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsMissingOrMalformedHeader(t *testing.T) {
	cfg := testConfig()
	router := protectedRouter(cfg)

	for _, header := range []string{"", "Bearer", "Basic abc", "garbage"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestAuthMiddlewareRejectsWrongSecret(t *testing.T) {
	cfg := testConfig()
	router := protectedRouter(cfg)

	token, err := jwt.GenerateToken(jwt.Identity{ProfileID: uuid.New()}, "someone-elses-secret", time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerifyHandshake(t *testing.T) {
	cfg := testConfig()
	profileID := uuid.New()
	identity := jwt.Identity{ProfileID: profileID, Username: "alice"}

	// An expired access token is fine as long as the refresh token is
	// live and names the same profile.
	access, err := jwt.GenerateToken(identity, cfg.AccessTokenSecret, -time.Hour)
	require.NoError(t, err)
	refresh, err := jwt.GenerateToken(identity, cfg.RefreshTokenSecret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/ws?token="+access, nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: refresh})

	got, err := VerifyHandshake(cfg, req)
	require.NoError(t, err)
	assert.Equal(t, identity, got)

	t.Run("expired refresh token rejected", func(t *testing.T) {
		expired, err := jwt.GenerateToken(identity, cfg.RefreshTokenSecret, -time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/ws?token="+access, nil)
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: expired})

		_, err = VerifyHandshake(cfg, req)
		assert.Error(t, err)
	})

	t.Run("missing refresh cookie rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ws?token="+access, nil)

		_, err := VerifyHandshake(cfg, req)
		assert.Error(t, err)
	})

	t.Run("mismatched identities rejected", func(t *testing.T) {
		otherRefresh, err := jwt.GenerateToken(jwt.Identity{ProfileID: uuid.New()},
			cfg.RefreshTokenSecret, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/ws?token="+access, nil)
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: otherRefresh})

		_, err = VerifyHandshake(cfg, req)
		assert.ErrorIs(t, err, jwt.ErrIdentityMismatch)
	})
}
