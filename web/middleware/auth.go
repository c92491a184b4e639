package middleware

import (
	"strings"

	"github.com/yamdb/yamdb/util/common"
	"github.com/yamdb/yamdb/web/access"
	"github.com/yamdb/yamdb/web/service"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// Authentication resolves the bearer token, when one is sent, into the
// request actor. Headers of other schemes are ignored and the request
// stays anonymous.
func Authentication(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		scheme, token, _ := strings.Cut(header, " ")
		if !strings.EqualFold(scheme, "Bearer") {
			c.Next()
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			_ = c.Error(common.ErrInvalidToken)
			c.Abort()
			return
		}
		actor, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// ActorFrom returns the authenticated actor, or nil for anonymous requests.
func ActorFrom(c *gin.Context) *access.Actor {
	v, ok := c.Get(actorKey)
	if !ok {
		return nil
	}
	actor, _ := v.(*access.Actor)
	return actor
}
