package controller

import (
	"net/http"

	"github.com/yamdb/yamdb/web/entity"
	"github.com/yamdb/yamdb/web/service"

	"github.com/gin-gonic/gin"
)

// ReviewController handles /titles/:title_id/reviews.
type ReviewController struct {
	BaseController
	reviewService service.ReviewService
}

func NewReviewController(g *gin.RouterGroup, pageSize int) *ReviewController {
	a := &ReviewController{BaseController: BaseController{pageSize: pageSize}}
	a.initRouter(g)
	return a
}

func (a *ReviewController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.list)
	g.POST("/", a.create)
	g.GET("/:review_id/", a.get)
	g.PUT("/:review_id/", a.update(false))
	g.PATCH("/:review_id/", a.update(true))
	g.DELETE("/:review_id/", a.delete)
}

// reviewPath reads the title id and, when withReview is set, the review id.
func reviewPath(c *gin.Context, withReview bool) (titleID, reviewID int, err error) {
	if titleID, err = idParam(c, "title_id", "title"); err != nil {
		return 0, 0, err
	}
	if withReview {
		if reviewID, err = idParam(c, "review_id", "review"); err != nil {
			return 0, 0, err
		}
	}
	return titleID, reviewID, nil
}

func (a *ReviewController) list(c *gin.Context) {
	titleID, _, err := reviewPath(c, false)
	if err != nil {
		fail(c, err)
		return
	}
	req, err := a.pageRequest(c)
	if err != nil {
		fail(c, err)
		return
	}
	results, count, err := a.reviewService.List(c.Request.Context(), titleID, req)
	respondPage(c, req, results, count, err)
}

func (a *ReviewController) get(c *gin.Context) {
	titleID, reviewID, err := reviewPath(c, true)
	if err != nil {
		fail(c, err)
		return
	}
	out, err := a.reviewService.Get(c.Request.Context(), titleID, reviewID)
	respond(c, http.StatusOK, out, err)
}

func (a *ReviewController) create(c *gin.Context) {
	titleID, _, err := reviewPath(c, false)
	if err != nil {
		fail(c, err)
		return
	}
	var in entity.ReviewWrite
	if err := bindJSON(c, &in); err != nil {
		fail(c, err)
		return
	}
	out, err := a.reviewService.Create(c.Request.Context(), a.actor(c), titleID, in)
	respond(c, http.StatusCreated, out, err)
}

func (a *ReviewController) update(partial bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		titleID, reviewID, err := reviewPath(c, true)
		if err != nil {
			fail(c, err)
			return
		}
		var in entity.ReviewWrite
		if err := bindJSON(c, &in); err != nil {
			fail(c, err)
			return
		}
		out, err := a.reviewService.Update(c.Request.Context(), a.actor(c), titleID, reviewID, in, partial)
		respond(c, http.StatusOK, out, err)
	}
}

func (a *ReviewController) delete(c *gin.Context) {
	titleID, reviewID, err := reviewPath(c, true)
	if err != nil {
		fail(c, err)
		return
	}
	respondEmpty(c, a.reviewService.Delete(c.Request.Context(), a.actor(c), titleID, reviewID))
}
