// Package middleware holds the gin middleware of the API: request
// identity, access policies, rate limiting, auditing and error rendering.
package middleware

import (
	"errors"
	"net/http"

	"github.com/yamdb/yamdb/logger"
	"github.com/yamdb/yamdb/util/common"
	"github.com/yamdb/yamdb/web/locale"

	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error a handler attached with c.Error,
// unless a response was already written.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status, body := RenderError(c, err)
		if errors.Is(err, common.ErrNotAuthenticated) {
			c.Header("WWW-Authenticate", `Bearer realm="api"`)
		}
		c.JSON(status, body)
	}
}

// ErrorStatus is the status code err renders with.
func ErrorStatus(err error) int {
	status, _ := classify(err)
	return status
}

// classify maps err onto a status and, for single-message errors, the
// message id of the detail.
func classify(err error) (int, string) {
	switch {
	case common.IsValidation(err):
		return http.StatusBadRequest, ""
	case errors.Is(err, common.ErrInvalidPage):
		return http.StatusNotFound, "errors.invalidPage"
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, "errors.notFound"
	case errors.Is(err, common.ErrNotAuthenticated):
		return http.StatusUnauthorized, "errors.notAuthenticated"
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, "errors.invalidToken"
	case errors.Is(err, common.ErrPermissionDenied):
		return http.StatusForbidden, "errors.permissionDenied"
	case errors.Is(err, common.ErrThrottled):
		return http.StatusTooManyRequests, "errors.throttled"
	case errors.Is(err, common.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, "errors.methodNotAllowed"
	}
	return http.StatusInternalServerError, "errors.internal"
}

// RenderError maps err onto a status code and a localized JSON body.
func RenderError(c *gin.Context, err error) (int, any) {
	var v *common.ValidationError
	if errors.As(err, &v) {
		body := make(map[string][]string, len(v.Fields))
		for field, list := range v.Fields {
			msgs := make([]string, 0, len(list))
			for _, fe := range list {
				msgs = append(msgs, locale.Localize(c, fe.MessageID, fe.Data))
			}
			body[field] = msgs
		}
		return http.StatusBadRequest, body
	}

	var nf *common.NotFoundError
	if errors.As(err, &nf) && nf.Field != "" {
		return http.StatusNotFound, map[string][]string{
			nf.Field: {locale.Localize(c, "errors.notFound", nil)},
		}
	}

	status, messageID := classify(err)
	if status == http.StatusInternalServerError {
		logger.Errorf("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	var data map[string]any
	if status == http.StatusMethodNotAllowed {
		data = map[string]any{"Method": c.Request.Method}
	}
	return status, detail(c, messageID, data)
}

func detail(c *gin.Context, messageID string, data map[string]any) gin.H {
	return gin.H{"detail": locale.Localize(c, messageID, data)}
}

// Recovery turns a panic into a logged 500 with the usual error body.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("panic while serving", c.Request.URL.Path, ":", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, detail(c, "errors.internal", nil))
	})
}
