package middleware

import (
	"context"
	"net/http"

	"github.com/yamdb/yamdb/logger"
	"github.com/yamdb/yamdb/web/service"

	"github.com/gin-gonic/gin"
)

// AuditMiddleware journals every state-changing request of an
// authenticated user once the handler has finished.
func AuditMiddleware() gin.HandlerFunc {
	auditService := service.AuditLogService{}

	return func(c *gin.Context) {
		c.Next()

		if isSafeMethod(c.Request.Method) {
			return
		}
		actor := ActorFrom(c)
		if actor == nil {
			return
		}

		status := c.Writer.Status()
		if !c.Writer.Written() && len(c.Errors) > 0 {
			// rendered by ErrorHandler once this returns
			status = ErrorStatus(c.Errors.Last().Err)
		}
		details := map[string]any{
			"route": c.FullPath(),
		}
		if len(c.Params) > 0 {
			params := make(map[string]string, len(c.Params))
			for _, p := range c.Params {
				params[p.Key] = p.Value
			}
			details["params"] = params
		}
		if id := RequestIDFrom(c); id != "" {
			details["request_id"] = id
		}

		// the client may be gone by now, the entry is still written
		ctx := context.WithoutCancel(c.Request.Context())
		if err := auditService.LogAction(ctx, service.AuditRecord{
			Actor:     actor,
			Method:    c.Request.Method,
			Path:      c.Request.URL.Path,
			Status:    status,
			IP:        c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
			Details:   details,
		}); err != nil {
			logger.Warning("Failed to log audit action:", err)
		}
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
