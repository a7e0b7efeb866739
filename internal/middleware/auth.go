package middleware

import (
	"net/http"
	"net/url"

	"inkwell/internal/db"
	"inkwell/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const CheckUserKey = "user"

// AuthRequired ensures a user is logged in. Anonymous callers are sent
// to the login page with the original destination preserved in `next`.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get("user_id")
		if userID == nil {
			next := url.QueryEscape(c.Request.URL.RequestURI())
			c.Redirect(http.StatusFound, "/auth/login?next="+next)
			c.Abort()
			return
		}

		if _, exists := c.Get(CheckUserKey); !exists {
			// Session points at a user that no longer exists
			session.Clear()
			session.Save()
			next := url.QueryEscape(c.Request.URL.RequestURI())
			c.Redirect(http.StatusFound, "/auth/login?next="+next)
			c.Abort()
			return
		}

		c.Next()
	}
}

// LoadUser retrieves user from session and sets to context
func LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get("user_id")

		if userID != nil {
			var user models.User
			result := db.DB.First(&user, userID)
			if result.Error == nil {
				c.Set(CheckUserKey, &user)
			}
		}
		c.Next()
	}
}
