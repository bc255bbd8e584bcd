package app

import (
	"net/http"

	"lockerbox/session"

	"github.com/gin-gonic/gin"
)

const AdminSessionCookie = "admin_session"

// AdminRequired guards the operator console routes behind a Redis-backed
// session created at /api/admin/login.
func AdminRequired(sess *session.AdminSessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ck, err := c.Request.Cookie(AdminSessionCookie)
		if err != nil || ck.Value == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		if _, err := sess.Get(c.Request.Context(), ck.Value); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "invalid session"})
			return
		}
		c.Next()
	}
}
