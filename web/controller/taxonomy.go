package controller

import (
	"net/http"

	"github.com/yamdb/yamdb/web/entity"
	"github.com/yamdb/yamdb/web/service"

	"github.com/gin-gonic/gin"
)

// CategoryController handles /categories.
type CategoryController struct {
	BaseController
	categoryService service.CategoryService
}

func NewCategoryController(g *gin.RouterGroup, pageSize int) *CategoryController {
	a := &CategoryController{BaseController: BaseController{pageSize: pageSize}}
	a.initRouter(g)
	return a
}

func (a *CategoryController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.list)
	g.POST("/", a.create)
	g.DELETE("/:slug/", a.delete)
}

func (a *CategoryController) list(c *gin.Context) {
	req, err := a.pageRequest(c)
	if err != nil {
		fail(c, err)
		return
	}
	results, count, err := a.categoryService.List(c.Request.Context(), c.Query("search"), req)
	respondPage(c, req, results, count, err)
}

func (a *CategoryController) create(c *gin.Context) {
	var in entity.Category
	if err := bindJSON(c, &in); err != nil {
		fail(c, err)
		return
	}
	out, err := a.categoryService.Create(c.Request.Context(), a.actor(c), in)
	respond(c, http.StatusCreated, out, err)
}

func (a *CategoryController) delete(c *gin.Context) {
	respondEmpty(c, a.categoryService.Delete(c.Request.Context(), a.actor(c), c.Param("slug")))
}

// GenreController handles /genres.
type GenreController struct {
	BaseController
	genreService service.GenreService
}

func NewGenreController(g *gin.RouterGroup, pageSize int) *GenreController {
	a := &GenreController{BaseController: BaseController{pageSize: pageSize}}
	a.initRouter(g)
	return a
}

func (a *GenreController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.list)
	g.POST("/", a.create)
	g.DELETE("/:slug/", a.delete)
}

func (a *GenreController) list(c *gin.Context) {
	req, err := a.pageRequest(c)
	if err != nil {
		fail(c, err)
		return
	}
	results, count, err := a.genreService.List(c.Request.Context(), c.Query("search"), req)
	respondPage(c, req, results, count, err)
}

func (a *GenreController) create(c *gin.Context) {
	var in entity.Genre
	if err := bindJSON(c, &in); err != nil {
		fail(c, err)
		return
	}
	out, err := a.genreService.Create(c.Request.Context(), a.actor(c), in)
	respond(c, http.StatusCreated, out, err)
}

func (a *GenreController) delete(c *gin.Context) {
	respondEmpty(c, a.genreService.Delete(c.Request.Context(), a.actor(c), c.Param("slug")))
}
