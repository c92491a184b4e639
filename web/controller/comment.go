package controller

import (
	"net/http"

	"github.com/yamdb/yamdb/web/entity"
	"github.com/yamdb/yamdb/web/service"

	"github.com/gin-gonic/gin"
)

// CommentController handles /titles/:title_id/reviews/:review_id/comments.
type CommentController struct {
	BaseController
	commentService service.CommentService
}

func NewCommentController(g *gin.RouterGroup, pageSize int) *CommentController {
	a := &CommentController{BaseController: BaseController{pageSize: pageSize}}
	a.initRouter(g)
	return a
}

func (a *CommentController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.list)
	g.POST("/", a.create)
	g.GET("/:comment_id/", a.get)
	g.PUT("/:comment_id/", a.update(false))
	g.PATCH("/:comment_id/", a.update(true))
	g.DELETE("/:comment_id/", a.delete)
}

type commentPath struct {
	title, review, comment int
}

func readCommentPath(c *gin.Context, withComment bool) (commentPath, error) {
	var p commentPath
	var err error
	if p.title, p.review, err = reviewPath(c, true); err != nil {
		return p, err
	}
	if withComment {
		if p.comment, err = idParam(c, "comment_id", "comment"); err != nil {
			return p, err
		}
	}
	return p, nil
}

func (a *CommentController) list(c *gin.Context) {
	p, err := readCommentPath(c, false)
	if err != nil {
		fail(c, err)
		return
	}
	req, err := a.pageRequest(c)
	if err != nil {
		fail(c, err)
		return
	}
	results, count, err := a.commentService.List(c.Request.Context(), p.title, p.review, req)
	respondPage(c, req, results, count, err)
}

func (a *CommentController) get(c *gin.Context) {
	p, err := readCommentPath(c, true)
	if err != nil {
		fail(c, err)
		return
	}
	out, err := a.commentService.Get(c.Request.Context(), p.title, p.review, p.comment)
	respond(c, http.StatusOK, out, err)
}

func (a *CommentController) create(c *gin.Context) {
	p, err := readCommentPath(c, false)
	if err != nil {
		fail(c, err)
		return
	}
	var in entity.CommentWrite
	if err := bindJSON(c, &in); err != nil {
		fail(c, err)
		return
	}
	out, err := a.commentService.Create(c.Request.Context(), a.actor(c), p.title, p.review, in)
	respond(c, http.StatusCreated, out, err)
}

func (a *CommentController) update(partial bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := readCommentPath(c, true)
		if err != nil {
			fail(c, err)
			return
		}
		var in entity.CommentWrite
		if err := bindJSON(c, &in); err != nil {
			fail(c, err)
			return
		}
		out, err := a.commentService.Update(c.Request.Context(), a.actor(c), p.title, p.review, p.comment, in, partial)
		respond(c, http.StatusOK, out, err)
	}
}

func (a *CommentController) delete(c *gin.Context) {
	p, err := readCommentPath(c, true)
	if err != nil {
		fail(c, err)
		return
	}
	respondEmpty(c, a.commentService.Delete(c.Request.Context(), a.actor(c), p.title, p.review, p.comment))
}
