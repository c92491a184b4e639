package service

import (
	"context"

	"github.com/yamdb/yamdb/database/model"
	"github.com/yamdb/yamdb/web/access"
	"github.com/yamdb/yamdb/web/entity"

	"gorm.io/gorm"
)

var categories = taxonomy[model.Category, entity.Category]{
	resource: "category",
	build: func(name, slug string) *model.Category {
		return &model.Category{Name: name, Slug: slug}
	},
	detach: func(tx *gorm.DB, id int) error {
		return tx.Model(&model.Title{}).Where("category_id = ?", id).Update("category_id", nil).Error
	},
}

type CategoryService struct{}

// List returns categories ordered by name, optionally filtered by a
// case-insensitive substring of the name.
func (s *CategoryService) List(ctx context.Context, search string, p entity.PageRequest) ([]entity.Category, int64, error) {
	return categories.list(ctx, search, p)
}

func (s *CategoryService) Create(ctx context.Context, actor *access.Actor, in entity.Category) (entity.Category, error) {
	if err := categories.create(ctx, actor, in, in.Name, in.Slug); err != nil {
		return entity.Category{}, err
	}
	return in, nil
}

// Delete removes the category; titles in it are left without a category.
func (s *CategoryService) Delete(ctx context.Context, actor *access.Actor, slug string) error {
	return categories.delete(ctx, actor, slug)
}
