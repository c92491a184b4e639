package middleware

import (
	"github.com/yamdb/yamdb/web/access"

	"github.com/gin-gonic/gin"
)

// RequirePolicy rejects the request before the handler runs when the actor
// may not perform the method's action at all. Object level checks stay
// with the services.
func RequirePolicy(p access.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := p.Check(ActorFrom(c), access.ActionForMethod(c.Request.Method)); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}
