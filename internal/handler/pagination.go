package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// usernameCursor reads the keyset pagination parameters shared by the
// friend listing endpoints. The limit is clamped downstream.
func usernameCursor(c *gin.Context) (usernameGt string, limit int) {
	usernameGt = c.Query("username_gt")
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))
	return usernameGt, limit
}

// timeCursor reads the older_than/limit parameters used by the
// reverse-chronological listings. A missing or malformed older_than
// means "from now".
func timeCursor(c *gin.Context) (olderThan time.Time, limit int) {
	olderThan = time.Now()
	if raw := c.Query("older_than"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			olderThan = parsed
		}
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))
	return olderThan, limit
}
