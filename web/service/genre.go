package service

import (
	"context"

	"github.com/yamdb/yamdb/database/model"
	"github.com/yamdb/yamdb/web/access"
	"github.com/yamdb/yamdb/web/entity"

	"gorm.io/gorm"
)

var genres = taxonomy[model.Genre, entity.Genre]{
	resource: "genre",
	build: func(name, slug string) *model.Genre {
		return &model.Genre{Name: name, Slug: slug}
	},
	detach: func(tx *gorm.DB, id int) error {
		return tx.Model(&model.GenreTitle{}).Where("genre_id = ?", id).Update("genre_id", nil).Error
	},
}

type GenreService struct{}

func (s *GenreService) List(ctx context.Context, search string, p entity.PageRequest) ([]entity.Genre, int64, error) {
	return genres.list(ctx, search, p)
}

func (s *GenreService) Create(ctx context.Context, actor *access.Actor, in entity.Genre) (entity.Genre, error) {
	if err := genres.create(ctx, actor, in, in.Name, in.Slug); err != nil {
		return entity.Genre{}, err
	}
	return in, nil
}

// Delete removes the genre. Link rows keep pointing at the title with a
// NULL genre.
func (s *GenreService) Delete(ctx context.Context, actor *access.Actor, slug string) error {
	return genres.delete(ctx, actor, slug)
}
