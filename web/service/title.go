package service

import (
	"context"
	"fmt"

	"github.com/yamdb/yamdb/database"
	"github.com/yamdb/yamdb/database/model"
	"github.com/yamdb/yamdb/util/common"
	"github.com/yamdb/yamdb/util/validate"
	"github.com/yamdb/yamdb/web/access"
	"github.com/yamdb/yamdb/web/entity"

	"gorm.io/gorm"
)

// TitleFilter narrows a title listing. Empty fields do not filter.
type TitleFilter struct {
	Category string
	Genre    string
	Name     string
	Year     *int
}

type TitleService struct{}

// ratedTitle is a titles row annotated with the average review score.
type ratedTitle struct {
	Id          int
	Name        string
	Year        int
	Description *string
	CategoryId  *int
	Rating      *float64
}

const ratedTitleColumns = "titles.id, titles.name, titles.year, titles.description, titles.category_id, " +
	"(SELECT AVG(reviews.score) FROM reviews WHERE reviews.title_id = titles.id) AS rating"

func titleQuery(db *gorm.DB, f TitleFilter) *gorm.DB {
	q := db.Table("titles")
	if f.Category != "" {
		q = q.Where("titles.category_id IN (SELECT id FROM categories WHERE slug = ?)", f.Category)
	}
	if f.Genre != "" {
		q = q.Where("EXISTS (SELECT 1 FROM genre_titles JOIN genres ON genres.id = genre_titles.genre_id "+
			"WHERE genre_titles.title_id = titles.id AND genres.slug = ?)", f.Genre)
	}
	if f.Name != "" {
		q = q.Where(`LOWER(titles.name) LIKE ? ESCAPE '\'`, containsPattern(f.Name))
	}
	if f.Year != nil {
		q = q.Where("titles.year = ?", *f.Year)
	}
	return q
}

func (s *TitleService) List(ctx context.Context, f TitleFilter, p entity.PageRequest) ([]entity.TitleRead, int64, error) {
	db := conn(ctx)
	var count int64
	if err := titleQuery(db, f).Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("count titles: %w", err)
	}
	var rows []ratedTitle
	q := titleQuery(db, f).Select(ratedTitleColumns).Order("titles.id")
	if err := paginate(q, p).Scan(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list titles: %w", err)
	}
	out, err := readTitles(db, rows)
	return out, count, err
}

func (s *TitleService) Get(ctx context.Context, id int) (entity.TitleRead, error) {
	db := conn(ctx)
	var rows []ratedTitle
	err := titleQuery(db, TitleFilter{}).Select(ratedTitleColumns).Where("titles.id = ?", id).Limit(1).Scan(&rows).Error
	if err != nil {
		return entity.TitleRead{}, fmt.Errorf("get title: %w", err)
	}
	if len(rows) == 0 {
		return entity.TitleRead{}, common.NotFound("title")
	}
	out, err := readTitles(db, rows)
	if err != nil {
		return entity.TitleRead{}, err
	}
	return out[0], nil
}

func readTitles(db *gorm.DB, rows []ratedTitle) ([]entity.TitleRead, error) {
	titles := make([]model.Title, len(rows))
	for i, r := range rows {
		titles[i] = model.Title{Id: r.Id, Name: r.Name, Year: r.Year, Description: r.Description, CategoryId: r.CategoryId}
	}
	if err := hydrateTitles(db, titles); err != nil {
		return nil, err
	}
	out := make([]entity.TitleRead, len(rows))
	for i := range titles {
		out[i] = entity.NewTitleRead(&titles[i], rows[i].Rating)
	}
	return out, nil
}

// hydrateTitles loads the category and the genres of every title.
func hydrateTitles(db *gorm.DB, titles []model.Title) error {
	if len(titles) == 0 {
		return nil
	}
	titleIDs := make([]int, 0, len(titles))
	categoryIDs := make([]int, 0)
	for _, t := range titles {
		titleIDs = append(titleIDs, t.Id)
		if t.CategoryId != nil {
			categoryIDs = append(categoryIDs, *t.CategoryId)
		}
	}

	byID := make(map[int]*model.Category)
	if len(categoryIDs) > 0 {
		var cats []model.Category
		if err := db.Where("id IN ?", categoryIDs).Find(&cats).Error; err != nil {
			return fmt.Errorf("load categories: %w", err)
		}
		for i := range cats {
			byID[cats[i].Id] = &cats[i]
		}
	}

	var links []struct {
		TitleId int
		Id      int
		Name    string
		Slug    string
	}
	err := db.Table("genre_titles").
		Select("genre_titles.title_id, genres.id, genres.name, genres.slug").
		Joins("JOIN genres ON genres.id = genre_titles.genre_id").
		Where("genre_titles.title_id IN ?", titleIDs).
		Order("genres.name, genres.id").
		Scan(&links).Error
	if err != nil {
		return fmt.Errorf("load genres: %w", err)
	}
	byTitle := make(map[int][]model.Genre)
	for _, l := range links {
		byTitle[l.TitleId] = append(byTitle[l.TitleId], model.Genre{Id: l.Id, Name: l.Name, Slug: l.Slug})
	}

	for i := range titles {
		if titles[i].CategoryId != nil {
			titles[i].Category = byID[*titles[i].CategoryId]
		}
		titles[i].Genres = byTitle[titles[i].Id]
	}
	return nil
}

func loadTitle(db *gorm.DB, id int) (*model.Title, error) {
	title := &model.Title{}
	if err := db.First(title, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, common.NotFound("title")
		}
		return nil, fmt.Errorf("load title: %w", err)
	}
	return title, nil
}

// resolveRefs turns the category and genre slugs into ids. Unknown slugs
// are reported on their field.
func resolveRefs(db *gorm.DB, in entity.TitleWrite) (*int, []int, error) {
	v := common.NewValidationError()
	var categoryID *int
	if in.Category != nil && *in.Category != "" {
		id, err := categories.idBySlug(db, *in.Category)
		switch {
		case common.IsNotFound(err):
			v.Add("category", "slug.unknown", map[string]any{"Slug": *in.Category})
		case err != nil:
			return nil, nil, fmt.Errorf("resolve category: %w", err)
		default:
			categoryID = &id
		}
	}

	var genreIDs []int
	if len(in.Genre) > 0 {
		slugs := dedupe(in.Genre)
		var found []model.Genre
		if err := db.Where("slug IN ?", slugs).Find(&found).Error; err != nil {
			return nil, nil, fmt.Errorf("resolve genres: %w", err)
		}
		bySlug := make(map[string]int, len(found))
		for _, g := range found {
			bySlug[g.Slug] = g.Id
		}
		for _, slug := range slugs {
			id, ok := bySlug[slug]
			if !ok {
				v.Add("genre", "slug.unknown", map[string]any{"Slug": slug})
				continue
			}
			genreIDs = append(genreIDs, id)
		}
	}
	return categoryID, genreIDs, v.OrNil()
}

func replaceGenres(tx *gorm.DB, titleID int, genreIDs []int) error {
	if err := tx.Where("title_id = ?", titleID).Delete(&model.GenreTitle{}).Error; err != nil {
		return fmt.Errorf("unlink genres: %w", err)
	}
	if len(genreIDs) == 0 {
		return nil
	}
	links := make([]model.GenreTitle, 0, len(genreIDs))
	for _, id := range genreIDs {
		genreID := id
		links = append(links, model.GenreTitle{TitleId: titleID, GenreId: &genreID})
	}
	if err := tx.Create(&links).Error; err != nil {
		return fmt.Errorf("link genres: %w", err)
	}
	return nil
}

func writtenTitle(tx *gorm.DB, id int) (entity.TitleWrite, error) {
	title, err := loadTitle(tx, id)
	if err != nil {
		return entity.TitleWrite{}, err
	}
	titles := []model.Title{*title}
	if err := hydrateTitles(tx, titles); err != nil {
		return entity.TitleWrite{}, err
	}
	return entity.NewTitleWrite(&titles[0]), nil
}

// Create stores the title together with its genre links.
func (s *TitleService) Create(ctx context.Context, actor *access.Actor, in entity.TitleWrite) (entity.TitleWrite, error) {
	if err := access.AdminOrReadOnly.Check(actor, access.Write); err != nil {
		return entity.TitleWrite{}, err
	}
	if err := validate.Struct(in, false); err != nil {
		return entity.TitleWrite{}, err
	}

	var out entity.TitleWrite
	err := conn(ctx).Transaction(func(tx *gorm.DB) error {
		categoryID, genreIDs, err := resolveRefs(tx, in)
		if err != nil {
			return err
		}
		title := &model.Title{Name: *in.Name, Year: *in.Year, Description: in.Description, CategoryId: categoryID}
		if err := tx.Create(title).Error; err != nil {
			return fmt.Errorf("create title: %w", err)
		}
		if err := replaceGenres(tx, title.Id, genreIDs); err != nil {
			return err
		}
		out, err = writtenTitle(tx, title.Id)
		return err
	})
	return out, err
}

// Update applies a full (partial=false) or partial update. Supplied genres
// replace the existing links.
func (s *TitleService) Update(ctx context.Context, actor *access.Actor, id int, in entity.TitleWrite, partial bool) (entity.TitleWrite, error) {
	if err := access.AdminOrReadOnly.Check(actor, access.Write); err != nil {
		return entity.TitleWrite{}, err
	}

	var out entity.TitleWrite
	err := conn(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadTitle(tx, id); err != nil {
			return err
		}
		if err := validate.Struct(in, partial); err != nil {
			return err
		}
		categoryID, genreIDs, err := resolveRefs(tx, in)
		if err != nil {
			return err
		}

		updates := map[string]any{}
		if in.Name != nil {
			updates["name"] = *in.Name
		}
		if in.Year != nil {
			updates["year"] = *in.Year
		}
		if in.Description != nil || !partial {
			updates["description"] = in.Description
		}
		if in.Category != nil {
			updates["category_id"] = categoryID
		}
		if len(updates) > 0 {
			if err := tx.Model(&model.Title{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return fmt.Errorf("update title: %w", err)
			}
		}
		if in.Genre != nil {
			if err := replaceGenres(tx, id, genreIDs); err != nil {
				return err
			}
		}
		out, err = writtenTitle(tx, id)
		return err
	})
	return out, err
}

// Delete removes the title with its genre links, reviews and their comments.
func (s *TitleService) Delete(ctx context.Context, actor *access.Actor, id int) error {
	if err := access.AdminOrReadOnly.Check(actor, access.Delete); err != nil {
		return err
	}
	return conn(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadTitle(tx, id); err != nil {
			return err
		}
		err := tx.Where("review_id IN (SELECT id FROM reviews WHERE title_id = ?)", id).Delete(&model.Comment{}).Error
		if err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		if err := tx.Where("title_id = ?", id).Delete(&model.Review{}).Error; err != nil {
			return fmt.Errorf("delete reviews: %w", err)
		}
		if err := tx.Where("title_id = ?", id).Delete(&model.GenreTitle{}).Error; err != nil {
			return fmt.Errorf("delete genre links: %w", err)
		}
		if err := tx.Delete(&model.Title{}, id).Error; err != nil {
			return fmt.Errorf("delete title: %w", err)
		}
		return nil
	})
}
