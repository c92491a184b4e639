package controller

import (
	"net/http"
	"strconv"

	"github.com/yamdb/yamdb/util/common"
	"github.com/yamdb/yamdb/web/entity"
	"github.com/yamdb/yamdb/web/service"

	"github.com/gin-gonic/gin"
)

// TitleController handles /titles.
type TitleController struct {
	BaseController
	titleService service.TitleService
}

func NewTitleController(g *gin.RouterGroup, pageSize int) *TitleController {
	a := &TitleController{BaseController: BaseController{pageSize: pageSize}}
	a.initRouter(g)
	return a
}

func (a *TitleController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.list)
	g.POST("/", a.create)
	g.GET("/:title_id/", a.get)
	g.PUT("/:title_id/", a.update(false))
	g.PATCH("/:title_id/", a.update(true))
	g.DELETE("/:title_id/", a.delete)
}

func titleFilter(c *gin.Context) (service.TitleFilter, error) {
	f := service.TitleFilter{
		Category: c.Query("category"),
		Genre:    c.Query("genre"),
		Name:     c.Query("name"),
	}
	if raw := c.Query("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return f, common.Invalid("year", "validation.invalidType")
		}
		f.Year = &year
	}
	return f, nil
}

func (a *TitleController) list(c *gin.Context) {
	f, err := titleFilter(c)
	if err != nil {
		fail(c, err)
		return
	}
	req, err := a.pageRequest(c)
	if err != nil {
		fail(c, err)
		return
	}
	results, count, err := a.titleService.List(c.Request.Context(), f, req)
	respondPage(c, req, results, count, err)
}

func (a *TitleController) get(c *gin.Context) {
	id, err := idParam(c, "title_id", "title")
	if err != nil {
		fail(c, err)
		return
	}
	out, err := a.titleService.Get(c.Request.Context(), id)
	respond(c, http.StatusOK, out, err)
}

func (a *TitleController) create(c *gin.Context) {
	var in entity.TitleWrite
	if err := bindJSON(c, &in); err != nil {
		fail(c, err)
		return
	}
	out, err := a.titleService.Create(c.Request.Context(), a.actor(c), in)
	respond(c, http.StatusCreated, out, err)
}

func (a *TitleController) update(partial bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "title_id", "title")
		if err != nil {
			fail(c, err)
			return
		}
		var in entity.TitleWrite
		if err := bindJSON(c, &in); err != nil {
			fail(c, err)
			return
		}
		out, err := a.titleService.Update(c.Request.Context(), a.actor(c), id, in, partial)
		respond(c, http.StatusOK, out, err)
	}
}

func (a *TitleController) delete(c *gin.Context) {
	id, err := idParam(c, "title_id", "title")
	if err != nil {
		fail(c, err)
		return
	}
	respondEmpty(c, a.titleService.Delete(c.Request.Context(), a.actor(c), id))
}
