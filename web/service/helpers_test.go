package service

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yamdb/yamdb/config"
	"github.com/yamdb/yamdb/database"
	"github.com/yamdb/yamdb/database/model"
	"github.com/yamdb/yamdb/util/common"
	"github.com/yamdb/yamdb/web/access"
	"github.com/yamdb/yamdb/web/entity"
	"github.com/yamdb/yamdb/web/locale"
)

var firstPage = entity.PageRequest{Page: 1, Size: 10}

func TestMain(m *testing.M) {
	if err := locale.InitLocalizer(os.DirFS("..")); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func setup(t *testing.T) {
	t.Helper()
	require.NoError(t, database.InitDB(config.NewSQLiteConfig(filepath.Join(t.TempDir(), "test.db"))))
	t.Cleanup(func() { _ = database.CloseDB() })
}

func ptr[T any](v T) *T {
	return &v
}

func createUser(t *testing.T, username, role string) *access.Actor {
	t.Helper()
	u := &model.User{Username: username, Email: username + "@example.com", Role: role}
	require.NoError(t, database.GetDB().Create(u).Error)
	return access.NewActor(u)
}

func createCategory(t *testing.T, name, slug string) {
	t.Helper()
	require.NoError(t, database.GetDB().Create(&model.Category{Name: name, Slug: slug}).Error)
}

func createGenre(t *testing.T, name, slug string) {
	t.Helper()
	require.NoError(t, database.GetDB().Create(&model.Genre{Name: name, Slug: slug}).Error)
}

// createTitle stores a title in the "books" category with the "drama" genre,
// creating both when missing.
func createTitle(t *testing.T, admin *access.Actor, name string, year int) entity.TitleWrite {
	t.Helper()
	db := database.GetDB()
	require.NoError(t, db.Where(model.Category{Slug: "books"}).FirstOrCreate(&model.Category{Name: "Books", Slug: "books"}).Error)
	require.NoError(t, db.Where(model.Genre{Slug: "drama"}).FirstOrCreate(&model.Genre{Name: "Drama", Slug: "drama"}).Error)

	svc := TitleService{}
	out, err := svc.Create(t.Context(), admin, entity.TitleWrite{
		Name:     ptr(name),
		Year:     ptr(year),
		Category: ptr("books"),
		Genre:    []string{"drama"},
	})
	require.NoError(t, err)
	return out
}

// fieldErrors returns the failed message ids per field of a validation error.
func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	var v *common.ValidationError
	require.True(t, errors.As(err, &v), "expected a validation error, got %v", err)
	out := make(map[string][]string)
	for field, list := range v.Fields {
		for _, fe := range list {
			out[field] = append(out[field], fe.MessageID)
		}
	}
	return out
}
