package controller

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/yamdb/yamdb/util/common"
	"github.com/yamdb/yamdb/web/entity"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

// fail hands err to the error middleware and stops the chain.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// bindJSON decodes the request body into dst with gin's JSON binding. An
// empty body counts as an empty object so that the services report every
// missing field. Field rules are left to the services, which check them once
// the target exists and the caller may change it.
func bindJSON(c *gin.Context, dst any) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	err := c.ShouldBindJSON(dst)
	if errors.Is(err, io.EOF) {
		err = binding.JSON.BindBody([]byte("{}"), dst)
	}
	var failures validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	switch {
	case err == nil, errors.As(err, &failures):
		return nil
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return common.Invalid(typeErr.Field, "validation.invalidType")
	default:
		return common.Invalid("non_field_errors", "validation.invalidJSON")
	}
}

// idParam reads a positive integer path parameter. Anything else cannot
// name a stored row, so it is a 404.
func idParam(c *gin.Context, name, resource string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id < 1 {
		return 0, common.NotFound(resource)
	}
	return id, nil
}

// pageLink builds absolute URLs of other pages of the current listing.
func pageLink(c *gin.Context) func(page int) string {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	host := c.Request.Host
	path := c.Request.URL.Path
	query := c.Request.URL.Query()
	return func(page int) string {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		if page <= 1 {
			q.Del("page")
		} else {
			q.Set("page", strconv.Itoa(page))
		}
		u := url.URL{Scheme: scheme, Host: host, Path: path, RawQuery: q.Encode()}
		return u.String()
	}
}

// respondPage writes one page of a listing, or the listing error.
func respondPage[T any](c *gin.Context, req entity.PageRequest, results []T, count int64, err error) {
	if err != nil {
		fail(c, err)
		return
	}
	if req.Exceeds(count) {
		fail(c, common.ErrInvalidPage)
		return
	}
	c.JSON(http.StatusOK, entity.NewPage(results, count, req, pageLink(c)))
}

// respond writes obj with status, or the error.
func respond(c *gin.Context, status int, obj any, err error) {
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(status, obj)
}

func respondEmpty(c *gin.Context, err error) {
	if err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func methodNotAllowed(c *gin.Context) {
	fail(c, common.ErrMethodNotAllowed)
}
