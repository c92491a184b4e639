// Package controller maps the HTTP API onto the services. Handlers bind
// and convert input, pass the request actor along and attach failures to
// the gin context for the error middleware to render.
package controller

import (
	"strconv"

	"github.com/yamdb/yamdb/util/common"
	"github.com/yamdb/yamdb/web/access"
	"github.com/yamdb/yamdb/web/entity"
	"github.com/yamdb/yamdb/web/middleware"

	"github.com/gin-gonic/gin"
)

// BaseController carries what every listing handler needs.
type BaseController struct {
	pageSize int
}

func (a *BaseController) actor(c *gin.Context) *access.Actor {
	return middleware.ActorFrom(c)
}

// pageRequest reads the 1-based ?page parameter.
func (a *BaseController) pageRequest(c *gin.Context) (entity.PageRequest, error) {
	req := entity.PageRequest{Page: 1, Size: a.pageSize}
	raw := c.Query("page")
	if raw == "" {
		return req, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return req, common.ErrInvalidPage
	}
	req.Page = n
	return req, nil
}
