package service

import (
	"context"
	"fmt"

	"github.com/yamdb/yamdb/database"
	"github.com/yamdb/yamdb/util/common"
	"github.com/yamdb/yamdb/util/validate"
	"github.com/yamdb/yamdb/web/access"
	"github.com/yamdb/yamdb/web/entity"

	"gorm.io/gorm"
)

// taxonomy is the slug-identified lookup table shared by categories and
// genres. M is the model, D the {name, slug} DTO.
type taxonomy[M any, D any] struct {
	resource string
	build    func(name, slug string) *M
	// detach clears references to the row before it is deleted.
	detach func(tx *gorm.DB, id int) error
}

func (t taxonomy[M, D]) filtered(db *gorm.DB, search string) *gorm.DB {
	q := db.Model(new(M))
	if search != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, containsPattern(search))
	}
	return q
}

func (t taxonomy[M, D]) list(ctx context.Context, search string, p entity.PageRequest) ([]D, int64, error) {
	db := conn(ctx)
	var count int64
	if err := t.filtered(db, search).Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", t.resource, err)
	}
	out := make([]D, 0)
	q := t.filtered(db, search).Select("name, slug").Order("name, id")
	if err := paginate(q, p).Scan(&out).Error; err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", t.resource, err)
	}
	return out, count, nil
}

func (t taxonomy[M, D]) idBySlug(db *gorm.DB, slug string) (int, error) {
	var ids []int
	if err := db.Model(new(M)).Where("slug = ?", slug).Limit(1).Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, common.NotFound(t.resource)
	}
	return ids[0], nil
}

// create validates in and stores a row with its name and slug.
func (t taxonomy[M, D]) create(ctx context.Context, actor *access.Actor, in D, name, slug string) error {
	if err := access.AdminOrReadOnly.Check(actor, access.Write); err != nil {
		return err
	}
	if err := validate.Struct(in, false); err != nil {
		return err
	}

	db := conn(ctx)
	if _, err := t.idBySlug(db, slug); err == nil {
		return common.Invalid("slug", "slug.taken")
	} else if !common.IsNotFound(err) {
		return fmt.Errorf("lookup %s: %w", t.resource, err)
	}
	if err := db.Create(t.build(name, slug)).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return common.Invalid("slug", "slug.taken")
		}
		return fmt.Errorf("create %s: %w", t.resource, err)
	}
	return nil
}

func (t taxonomy[M, D]) delete(ctx context.Context, actor *access.Actor, slug string) error {
	if err := access.AdminOrReadOnly.Check(actor, access.Delete); err != nil {
		return err
	}
	return conn(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := t.idBySlug(tx, slug)
		if err != nil {
			return err
		}
		if err := t.detach(tx, id); err != nil {
			return fmt.Errorf("detach %s: %w", t.resource, err)
		}
		if err := tx.Delete(new(M), id).Error; err != nil {
			return fmt.Errorf("delete %s: %w", t.resource, err)
		}
		return nil
	})
}
