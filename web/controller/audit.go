package controller

import (
	"strings"

	"github.com/yamdb/yamdb/web/service"

	"github.com/gin-gonic/gin"
)

// AuditController handles audit log listing
type AuditController struct {
	BaseController
	auditService service.AuditLogService
}

// NewAuditController creates a new audit controller
func NewAuditController(g *gin.RouterGroup, pageSize int) *AuditController {
	a := &AuditController{BaseController: BaseController{pageSize: pageSize}}
	a.initRouter(g)
	return a
}

func (a *AuditController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.getAuditLogs)
}

// getAuditLogs lists the journal, newest first, filtered by ?username and ?method.
func (a *AuditController) getAuditLogs(c *gin.Context) {
	req, err := a.pageRequest(c)
	if err != nil {
		fail(c, err)
		return
	}
	f := service.AuditFilter{
		Username: c.Query("username"),
		Method:   strings.ToUpper(c.Query("method")),
	}
	logs, total, err := a.auditService.List(c.Request.Context(), a.actor(c), f, req)
	respondPage(c, req, logs, total, err)
}
