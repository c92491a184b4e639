package controller

import (
	"net/http"

	"github.com/yamdb/yamdb/web/entity"
	"github.com/yamdb/yamdb/web/service"

	"github.com/gin-gonic/gin"
)

// AuthController serves signup and the code-for-token exchange.
type AuthController struct {
	authService *service.AuthService
}

// NewAuthController registers the auth routes on g. limit guards both of them.
func NewAuthController(g *gin.RouterGroup, auth *service.AuthService, limit gin.HandlerFunc) *AuthController {
	a := &AuthController{authService: auth}
	a.initRouter(g, limit)
	return a
}

func (a *AuthController) initRouter(g *gin.RouterGroup, limit gin.HandlerFunc) {
	g.POST("/signup/", limit, a.signup)
	g.POST("/token/", limit, a.token)
}

func (a *AuthController) signup(c *gin.Context) {
	var in entity.Signup
	if err := bindJSON(c, &in); err != nil {
		fail(c, err)
		return
	}
	out, err := a.authService.Signup(c.Request.Context(), in)
	respond(c, http.StatusOK, out, err)
}

func (a *AuthController) token(c *gin.Context) {
	var in entity.TokenRequest
	if err := bindJSON(c, &in); err != nil {
		fail(c, err)
		return
	}
	out, err := a.authService.ObtainToken(c.Request.Context(), in)
	respond(c, http.StatusCreated, out, err)
}
