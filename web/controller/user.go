package controller

import (
	"net/http"

	"github.com/yamdb/yamdb/web/entity"
	"github.com/yamdb/yamdb/web/service"

	"github.com/gin-gonic/gin"
)

// UserController handles the admin user management under /users and the
// self-service profile at /users/me. The two groups carry different
// policies.
type UserController struct {
	BaseController
	userService service.UserService
}

func NewUserController(users, me *gin.RouterGroup, pageSize int) *UserController {
	a := &UserController{BaseController: BaseController{pageSize: pageSize}}
	a.initRouter(users, me)
	return a
}

func (a *UserController) initRouter(users, me *gin.RouterGroup) {
	me.GET("/", a.me)
	me.PATCH("/", a.updateMe)
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		me.Handle(method, "/", methodNotAllowed)
	}

	users.GET("/", a.list)
	users.POST("/", a.create)
	users.GET("/:username/", a.get)
	users.PATCH("/:username/", a.update)
	users.DELETE("/:username/", a.delete)
}

func (a *UserController) list(c *gin.Context) {
	req, err := a.pageRequest(c)
	if err != nil {
		fail(c, err)
		return
	}
	results, count, err := a.userService.List(c.Request.Context(), a.actor(c), c.Query("search"), req)
	respondPage(c, req, results, count, err)
}

func (a *UserController) create(c *gin.Context) {
	var in entity.UserWrite
	if err := bindJSON(c, &in); err != nil {
		fail(c, err)
		return
	}
	out, err := a.userService.Create(c.Request.Context(), a.actor(c), in)
	respond(c, http.StatusCreated, out, err)
}

func (a *UserController) get(c *gin.Context) {
	out, err := a.userService.Get(c.Request.Context(), a.actor(c), c.Param("username"))
	respond(c, http.StatusOK, out, err)
}

func (a *UserController) update(c *gin.Context) {
	var in entity.UserWrite
	if err := bindJSON(c, &in); err != nil {
		fail(c, err)
		return
	}
	out, err := a.userService.Update(c.Request.Context(), a.actor(c), c.Param("username"), in)
	respond(c, http.StatusOK, out, err)
}

func (a *UserController) delete(c *gin.Context) {
	respondEmpty(c, a.userService.Delete(c.Request.Context(), a.actor(c), c.Param("username")))
}

func (a *UserController) me(c *gin.Context) {
	out, err := a.userService.Me(c.Request.Context(), a.actor(c))
	respond(c, http.StatusOK, out, err)
}

func (a *UserController) updateMe(c *gin.Context) {
	var in entity.UserWrite
	if err := bindJSON(c, &in); err != nil {
		fail(c, err)
		return
	}
	out, err := a.userService.UpdateMe(c.Request.Context(), a.actor(c), in)
	respond(c, http.StatusOK, out, err)
}
