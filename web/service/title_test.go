package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamdb/yamdb/database"
	"github.com/yamdb/yamdb/database/model"
	"github.com/yamdb/yamdb/util/common"
	"github.com/yamdb/yamdb/web/entity"
)

func TestTitleWriteReadRoundTrip(t *testing.T) {
	setup(t)
	admin := createUser(t, "admin", model.RoleAdmin)
	createCategory(t, "Books", "books")
	createGenre(t, "Drama", "drama")
	createGenre(t, "Comedy", "comedy")
	svc := TitleService{}
	ctx := t.Context()

	written, err := svc.Create(ctx, admin, entity.TitleWrite{
		Name:        ptr("Dune"),
		Year:        ptr(1965),
		Description: ptr("spice"),
		Category:    ptr("books"),
		Genre:       []string{"drama", "comedy", "drama"},
	})
	require.NoError(t, err)
	assert.NotZero(t, written.Id)
	assert.Equal(t, "books", *written.Category)
	assert.Equal(t, []string{"comedy", "drama"}, written.Genre)

	read, err := svc.Get(ctx, written.Id)
	require.NoError(t, err)
	assert.Equal(t, "Dune", read.Name)
	assert.Equal(t, 1965, read.Year)
	assert.Equal(t, "spice", *read.Description)
	assert.Nil(t, read.Rating)
	assert.Equal(t, &entity.Category{Name: "Books", Slug: "books"}, read.Category)
	assert.Equal(t, []entity.Genre{{Name: "Comedy", Slug: "comedy"}, {Name: "Drama", Slug: "drama"}}, read.Genre)

	bob := createUser(t, "bob", model.RoleUser)
	eve := createUser(t, "eve", model.RoleUser)
	reviews := ReviewService{}
	_, err = reviews.Create(ctx, bob, written.Id, entity.ReviewWrite{Text: ptr("good"), Score: ptr(7)})
	require.NoError(t, err)
	_, err = reviews.Create(ctx, eve, written.Id, entity.ReviewWrite{Text: ptr("better"), Score: ptr(8)})
	require.NoError(t, err)

	read, err = svc.Get(ctx, written.Id)
	require.NoError(t, err)
	require.NotNil(t, read.Rating)
	assert.InDelta(t, 7.5, *read.Rating, 1e-9)
}

func TestTitleCreateValidation(t *testing.T) {
	setup(t)
	admin := createUser(t, "admin", model.RoleAdmin)
	createCategory(t, "Books", "books")
	svc := TitleService{}
	ctx := t.Context()

	_, err := svc.Create(ctx, admin, entity.TitleWrite{})
	assert.Equal(t, map[string][]string{
		"name":     {"validation.required"},
		"year":     {"validation.required"},
		"category": {"validation.required"},
		"genre":    {"validation.required"},
	}, fieldErrors(t, err))

	_, err = svc.Create(ctx, admin, entity.TitleWrite{
		Name:     ptr("Future"),
		Year:     ptr(time.Now().Year() + 1),
		Category: ptr("books"),
		Genre:    []string{},
	})
	assert.Equal(t, map[string][]string{
		"year":  {"year.future"},
		"genre": {"validation.emptyList"},
	}, fieldErrors(t, err))

	_, err = svc.Create(ctx, admin, entity.TitleWrite{
		Name:     ptr("Unknown refs"),
		Year:     ptr(2000),
		Category: ptr("films"),
		Genre:    []string{"noir"},
	})
	assert.Equal(t, map[string][]string{
		"category": {"slug.unknown"},
		"genre":    {"slug.unknown"},
	}, fieldErrors(t, err))

	var n int64
	require.NoError(t, database.GetDB().Model(&model.Title{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestTitleCurrentYearAccepted(t *testing.T) {
	setup(t)
	admin := createUser(t, "admin", model.RoleAdmin)
	title := createTitle(t, admin, "Fresh", time.Now().Year())
	assert.Equal(t, time.Now().Year(), *title.Year)
}

func TestTitleFilters(t *testing.T) {
	setup(t)
	admin := createUser(t, "admin", model.RoleAdmin)
	createCategory(t, "Films", "films")
	createGenre(t, "Noir", "noir")
	dune := createTitle(t, admin, "Dune", 1965)
	createTitle(t, admin, "Dune Messiah", 1969)
	svc := TitleService{}
	ctx := t.Context()

	noir, err := svc.Create(ctx, admin, entity.TitleWrite{
		Name: ptr("The Third Man"), Year: ptr(1949), Category: ptr("films"), Genre: []string{"noir"},
	})
	require.NoError(t, err)

	ids := func(f TitleFilter) []int {
		list, count, err := svc.List(ctx, f, firstPage)
		require.NoError(t, err)
		assert.EqualValues(t, len(list), count)
		out := make([]int, 0, len(list))
		for _, item := range list {
			out = append(out, item.Id)
		}
		return out
	}

	assert.Len(t, ids(TitleFilter{}), 3)
	assert.Equal(t, []int{noir.Id}, ids(TitleFilter{Category: "films"}))
	assert.Equal(t, []int{noir.Id}, ids(TitleFilter{Genre: "noir"}))
	assert.Len(t, ids(TitleFilter{Name: "dune"}), 2)
	assert.Equal(t, []int{dune.Id}, ids(TitleFilter{Year: ptr(1965)}))
	assert.Empty(t, ids(TitleFilter{Name: "100%"}))
}

func TestTitleUpdate(t *testing.T) {
	setup(t)
	admin := createUser(t, "admin", model.RoleAdmin)
	title := createTitle(t, admin, "Dune", 1965)
	createGenre(t, "Sci-Fi", "sci-fi")
	svc := TitleService{}
	ctx := t.Context()

	patched, err := svc.Update(ctx, admin, title.Id, entity.TitleWrite{Year: ptr(1966)}, true)
	require.NoError(t, err)
	assert.Equal(t, "Dune", *patched.Name)
	assert.Equal(t, 1966, *patched.Year)
	assert.Equal(t, []string{"drama"}, patched.Genre)

	patched, err = svc.Update(ctx, admin, title.Id, entity.TitleWrite{Genre: []string{"sci-fi"}}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"sci-fi"}, patched.Genre)

	_, err = svc.Update(ctx, admin, title.Id, entity.TitleWrite{Name: ptr("Dune")}, false)
	assert.Contains(t, fieldErrors(t, err), "year")

	_, err = svc.Update(ctx, admin, 999, entity.TitleWrite{Year: ptr(1966)}, true)
	assert.ErrorIs(t, err, common.ErrNotFound)

	user := createUser(t, "bob", model.RoleUser)
	_, err = svc.Update(ctx, user, title.Id, entity.TitleWrite{Year: ptr(1966)}, true)
	assert.ErrorIs(t, err, common.ErrPermissionDenied)
}

func TestTitleDeleteCascades(t *testing.T) {
	setup(t)
	admin := createUser(t, "admin", model.RoleAdmin)
	bob := createUser(t, "bob", model.RoleUser)
	title := createTitle(t, admin, "Dune", 1965)
	ctx := t.Context()

	reviews := ReviewService{}
	review, err := reviews.Create(ctx, bob, title.Id, entity.ReviewWrite{Text: ptr("good"), Score: ptr(9)})
	require.NoError(t, err)
	comments := CommentService{}
	_, err = comments.Create(ctx, admin, title.Id, review.Id, entity.CommentWrite{Text: ptr("agreed")})
	require.NoError(t, err)

	svc := TitleService{}
	require.NoError(t, svc.Delete(ctx, admin, title.Id))
	_, err = svc.Get(ctx, title.Id)
	assert.ErrorIs(t, err, common.ErrNotFound)

	db := database.GetDB()
	for _, m := range []any{&model.Review{}, &model.Comment{}, &model.GenreTitle{}} {
		var n int64
		require.NoError(t, db.Model(m).Count(&n).Error)
		assert.Zero(t, n)
	}
}
