package web

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamdb/yamdb/config"
	"github.com/yamdb/yamdb/database"
	"github.com/yamdb/yamdb/database/model"
	"github.com/yamdb/yamdb/web/cache"
	"github.com/yamdb/yamdb/web/locale"
	"github.com/yamdb/yamdb/web/service"
)

var codeRe = regexp.MustCompile(`[0-9a-z]+-[0-9a-f]{20}`)

type api struct {
	t      *testing.T
	engine *gin.Engine
	mailer *service.MemoryMailer
	auth   *service.AuthService
}

func newAPI(t *testing.T, rateLimit int) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, locale.InitLocalizer(i18nFS))
	require.NoError(t, database.InitDB(config.NewSQLiteConfig(filepath.Join(t.TempDir(), "api.db"))))
	require.NoError(t, cache.InitRedis(""))
	t.Cleanup(func() {
		_ = cache.Close()
		_ = database.CloseDB()
	})

	cfg := service.AuthConfig{Secret: "e2e-secret", TokenTTL: time.Hour, CodeTTL: time.Hour}
	mailer := &service.MemoryMailer{}
	return &api{
		t:      t,
		engine: NewEngine(EngineOptions{Auth: cfg, Mailer: mailer, RateLimit: rateLimit, PageSize: 2}),
		mailer: mailer,
		auth:   service.NewAuthService(cfg, mailer),
	}
}

func (a *api) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

// tokenFor stores a user with the given role and returns its access token.
func (a *api) tokenFor(username, role string) string {
	a.t.Helper()
	u := &model.User{Username: username, Email: username + "@example.com", Role: role}
	require.NoError(a.t, database.GetDB().Create(u).Error)
	token, err := a.auth.IssueToken(u)
	require.NoError(a.t, err)
	return token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestSignupToReview(t *testing.T) {
	a := newAPI(t, 0)
	admin := a.tokenFor("admin", model.RoleAdmin)

	require.Equal(t, http.StatusCreated, a.do("POST", "/v1/categories/", admin, gin.H{"name": "Books", "slug": "books"}).Code)
	require.Equal(t, http.StatusCreated, a.do("POST", "/v1/genres/", admin, gin.H{"name": "Drama", "slug": "drama"}).Code)
	w := a.do("POST", "/v1/titles/", admin, gin.H{"name": "Dune", "year": 1965, "category": "books", "genre": []string{"drama"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	title := decode[map[string]any](t, w)
	titleID := int(title["id"].(float64))
	reviews := "/v1/titles/" + strconv.Itoa(titleID) + "/reviews/"

	w = a.do("POST", "/v1/auth/signup/", "", gin.H{"username": "bob", "email": "bob@example.com"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"username":"bob","email":"bob@example.com"}`, w.Body.String())
	msg, ok := a.mailer.Last("bob@example.com")
	require.True(t, ok)
	code := codeRe.FindString(msg.Body)
	require.NotEmpty(t, code)

	w = a.do("POST", "/v1/auth/token/", "", gin.H{"username": "bob", "confirmation_code": "0-00000000000000000000"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]any](t, w), "confirmation_code")

	w = a.do("POST", "/v1/auth/token/", "", gin.H{"username": "ghost", "confirmation_code": code})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decode[map[string]any](t, w), "username")

	w = a.do("POST", "/v1/auth/token/", "", gin.H{"username": "bob", "confirmation_code": code})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token := decode[map[string]string](t, w)["token"]
	require.NotEmpty(t, token)

	w = a.do("POST", reviews, token, gin.H{"text": "great", "score": 9})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	review := decode[map[string]any](t, w)
	assert.Equal(t, "bob", review["author"])
	assert.Equal(t, "Dune", review["title"])

	w = a.do("POST", reviews, token, gin.H{"text": "again", "score": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]any](t, w), "non_field_errors")

	w = a.do("GET", "/v1/titles/"+strconv.Itoa(titleID)+"/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 9, decode[map[string]any](t, w)["rating"])

	w = a.do("GET", "/v1/audit/", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	journal := decode[map[string]any](t, w)
	assert.EqualValues(t, 5, journal["count"])
}

func TestAccessRules(t *testing.T) {
	a := newAPI(t, 0)
	user := a.tokenFor("bob", model.RoleUser)
	admin := a.tokenFor("admin", model.RoleAdmin)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"anonymous read", "GET", "/v1/categories/", "", http.StatusOK},
		{"anonymous write", "POST", "/v1/categories/", "", http.StatusUnauthorized},
		{"user write on admin resource", "POST", "/v1/categories/", user, http.StatusForbidden},
		{"user lists users", "GET", "/v1/users/", user, http.StatusForbidden},
		{"anonymous profile", "GET", "/v1/users/me/", "", http.StatusUnauthorized},
		{"own profile", "GET", "/v1/users/me/", user, http.StatusOK},
		{"delete own profile", "DELETE", "/v1/users/me/", user, http.StatusMethodNotAllowed},
		{"put on user", "PUT", "/v1/users/bob/", admin, http.StatusMethodNotAllowed},
		{"put on category", "PUT", "/v1/categories/", admin, http.StatusMethodNotAllowed},
		{"bad token", "GET", "/v1/categories/", "garbage", http.StatusUnauthorized},
		{"missing title", "GET", "/v1/titles/42/", "", http.StatusNotFound},
		{"non numeric title", "GET", "/v1/titles/abc/", "", http.StatusNotFound},
		{"reviews of missing title", "GET", "/v1/titles/42/reviews/", "", http.StatusNotFound},
		{"unknown route", "GET", "/v1/nothing/", "", http.StatusNotFound},
		{"page past the end", "GET", "/v1/genres/?page=3", "", http.StatusNotFound},
		{"bad page", "GET", "/v1/genres/?page=x", "", http.StatusNotFound},
		{"bad year filter", "GET", "/v1/titles/?year=soon", "", http.StatusBadRequest},
		{"health", "GET", "/healthz", "", http.StatusOK},
		{"metrics", "GET", "/metrics", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(tt.method, tt.path, tt.token, nil)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	w := a.do("POST", "/v1/categories/", "", nil)
	assert.Equal(t, `Bearer realm="api"`, w.Header().Get("WWW-Authenticate"))
}

func TestSelfProfileRole(t *testing.T) {
	a := newAPI(t, 0)
	user := a.tokenFor("bob", model.RoleUser)
	admin := a.tokenFor("admin", model.RoleAdmin)

	w := a.do("PATCH", "/v1/users/me/", user, gin.H{"role": "admin", "bio": "hi"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	me := decode[map[string]any](t, w)
	assert.Equal(t, "user", me["role"])
	assert.Equal(t, "hi", me["bio"])

	w = a.do("PATCH", "/v1/users/bob/", admin, gin.H{"role": "moderator"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "moderator", decode[map[string]any](t, w)["role"])

	w = a.do("PATCH", "/v1/users/bob/", admin, gin.H{"role": "king"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do("DELETE", "/v1/users/bob/", admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = a.do("GET", "/v1/users/me/", user, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPagination(t *testing.T) {
	a := newAPI(t, 0)
	admin := a.tokenFor("admin", model.RoleAdmin)
	for _, slug := range []string{"a-genre", "b-genre", "c-genre"} {
		require.Equal(t, http.StatusCreated, a.do("POST", "/v1/genres/", admin, gin.H{"name": slug, "slug": slug}).Code)
	}

	w := a.do("GET", "/v1/genres/?search=genre", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[map[string]any](t, w)
	assert.EqualValues(t, 3, page["count"])
	assert.Equal(t, "http://example.com/v1/genres/?page=2&search=genre", page["next"])
	assert.Nil(t, page["previous"])
	assert.Len(t, page["results"], 2)

	w = a.do("GET", "/v1/genres/?page=2&search=genre", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page = decode[map[string]any](t, w)
	assert.Nil(t, page["next"])
	assert.Equal(t, "http://example.com/v1/genres/?search=genre", page["previous"])
	assert.Len(t, page["results"], 1)
}

func TestBodyErrors(t *testing.T) {
	a := newAPI(t, 0)
	admin := a.tokenFor("admin", model.RoleAdmin)

	req := httptest.NewRequest("POST", "/v1/genres/", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+admin)
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]any](t, w), "non_field_errors")

	w = a.do("POST", "/v1/genres/", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[map[string]any](t, w)
	assert.Contains(t, body, "name")
	assert.Contains(t, body, "slug")

	w = a.do("POST", "/v1/genres/", admin, gin.H{"name": 5, "slug": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"name":["Incorrect type for this field."]}`, w.Body.String())
}

func TestReviewBodyErrors(t *testing.T) {
	a := newAPI(t, 0)
	admin := a.tokenFor("admin", model.RoleAdmin)
	bob := a.tokenFor("bob", model.RoleUser)
	eve := a.tokenFor("eve", model.RoleUser)

	require.Equal(t, http.StatusCreated, a.do("POST", "/v1/categories/", admin, gin.H{"name": "Books", "slug": "books"}).Code)
	require.Equal(t, http.StatusCreated, a.do("POST", "/v1/genres/", admin, gin.H{"name": "Drama", "slug": "drama"}).Code)
	w := a.do("POST", "/v1/titles/", admin, gin.H{"name": "Dune", "year": 1965, "category": "books", "genre": []string{"drama"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reviews := "/v1/titles/" + strconv.Itoa(int(decode[map[string]any](t, w)["id"].(float64))) + "/reviews/"

	for _, score := range []any{7.5, "9", true} {
		w = a.do("POST", reviews, eve, gin.H{"text": "fine", "score": score})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"score":["Incorrect type for this field."]}`, w.Body.String())
	}

	w = a.do("POST", reviews, bob, gin.H{"text": "great", "score": 8})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	review := reviews + strconv.Itoa(int(decode[map[string]any](t, w)["id"].(float64))) + "/"

	// another user's review is refused before its body is checked
	assert.Equal(t, http.StatusForbidden, a.do("PATCH", review, eve, gin.H{"score": 11}).Code)

	w = a.do("PATCH", review, bob, gin.H{"score": 11, "text": " "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"score":["Score must be an integer from 1 to 10."],"text":["This field is required."]}`, w.Body.String())

	w = a.do("POST", "/v1/titles/", admin, gin.H{"year": 3000, "genre": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[map[string][]string](t, w)
	assert.Equal(t, []string{"This list may not be empty."}, body["genre"])
	assert.Equal(t, []string{"This field is required."}, body["name"])
	assert.Contains(t, body, "year")
	assert.Contains(t, body, "category")
}

func TestAuthRateLimit(t *testing.T) {
	a := newAPI(t, 2)
	body := gin.H{"username": "bob", "email": "bob@example.com"}
	assert.Equal(t, http.StatusOK, a.do("POST", "/v1/auth/signup/", "", body).Code)
	assert.Equal(t, http.StatusOK, a.do("POST", "/v1/auth/signup/", "", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, a.do("POST", "/v1/auth/signup/", "", body).Code)
	assert.Equal(t, http.StatusOK, a.do("GET", "/v1/categories/", "", nil).Code)
}
