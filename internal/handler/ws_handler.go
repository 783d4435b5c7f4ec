package handler

import (
	"net/http"

	"socialnet/backend/internal/auth"
	"socialnet/backend/internal/config"
	"socialnet/backend/internal/models"
	"socialnet/backend/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checking is delegated to the token handshake.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WSHandler struct {
	cfg      *config.Config
	registry *realtime.Registry
	log      logr.Logger
}

func NewWSHandler(cfg *config.Config, registry *realtime.Registry, log logr.Logger) *WSHandler {
	return &WSHandler{cfg: cfg, registry: registry, log: log}
}

// Connect godoc
// @Summary      Open a realtime connection
// @Description  Upgrades the request to a websocket after verifying the token pair: the access token (query) by signature, the refresh_token cookie by signature and expiry.
// @Tags         realtime
// @Security     BearerAuth
// @Param        token  query  string  true  "Access token"
// @Success      101
// @Failure      401  {object}  ErrorResponse
// @Router       /ws [get]
func (h *WSHandler) Connect(c *gin.Context) {
	identity, err := auth.VerifyHandshake(h.cfg, c.Request)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade writes its own error response.
		h.log.Error(err, "websocket upgrade failed", "profile", identity.ProfileID)
		return
	}

	profile := models.ProfileShort{ID: identity.ProfileID, Username: identity.Username}
	if _, err := h.registry.Admit(c.Request.Context(), conn, profile); err != nil {
		h.log.Error(err, "websocket admission failed", "profile", identity.ProfileID)
		conn.Close()
	}
}
