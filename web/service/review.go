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

type ReviewService struct{}

func reviewQuery(db *gorm.DB) *gorm.DB {
	return db.Table("reviews").
		Select("reviews.id, titles.name AS title, users.username AS author, reviews.text, reviews.score, reviews.pub_date").
		Joins("JOIN titles ON titles.id = reviews.title_id").
		Joins("JOIN users ON users.id = reviews.author_id")
}

func titleExists(db *gorm.DB, titleID int) error {
	var n int64
	if err := db.Model(&model.Title{}).Where("id = ?", titleID).Count(&n).Error; err != nil {
		return fmt.Errorf("check title: %w", err)
	}
	if n == 0 {
		return common.NotFound("title")
	}
	return nil
}

// loadReview finds a review of the given title.
func loadReview(db *gorm.DB, titleID, reviewID int) (*model.Review, error) {
	if err := titleExists(db, titleID); err != nil {
		return nil, err
	}
	review := &model.Review{}
	if err := db.Where("id = ? AND title_id = ?", reviewID, titleID).First(review).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, common.NotFound("review")
		}
		return nil, fmt.Errorf("load review: %w", err)
	}
	return review, nil
}

func readReview(db *gorm.DB, id int) (entity.Review, error) {
	var out []entity.Review
	if err := reviewQuery(db).Where("reviews.id = ?", id).Limit(1).Scan(&out).Error; err != nil {
		return entity.Review{}, fmt.Errorf("read review: %w", err)
	}
	if len(out) == 0 {
		return entity.Review{}, common.NotFound("review")
	}
	return out[0], nil
}

func duplicateReview() error {
	return common.Invalid("non_field_errors", "review.duplicate")
}

func (s *ReviewService) List(ctx context.Context, titleID int, p entity.PageRequest) ([]entity.Review, int64, error) {
	db := conn(ctx)
	if err := titleExists(db, titleID); err != nil {
		return nil, 0, err
	}
	var count int64
	if err := db.Model(&model.Review{}).Where("title_id = ?", titleID).Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}
	out := make([]entity.Review, 0)
	q := reviewQuery(db).Where("reviews.title_id = ?", titleID).Order("reviews.pub_date, reviews.id")
	if err := paginate(q, p).Scan(&out).Error; err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	return out, count, nil
}

func (s *ReviewService) Get(ctx context.Context, titleID, reviewID int) (entity.Review, error) {
	db := conn(ctx)
	if _, err := loadReview(db, titleID, reviewID); err != nil {
		return entity.Review{}, err
	}
	return readReview(db, reviewID)
}

// Create posts the actor's review of the title. A second review by the same
// author is rejected; the unique index settles concurrent attempts.
func (s *ReviewService) Create(ctx context.Context, actor *access.Actor, titleID int, in entity.ReviewWrite) (entity.Review, error) {
	if err := access.AuthorOrStaff.Check(actor, access.Write); err != nil {
		return entity.Review{}, err
	}
	db := conn(ctx)
	if err := titleExists(db, titleID); err != nil {
		return entity.Review{}, err
	}
	if err := validate.Struct(in, false); err != nil {
		return entity.Review{}, err
	}

	var n int64
	if err := db.Model(&model.Review{}).Where("title_id = ? AND author_id = ?", titleID, actor.ID).Count(&n).Error; err != nil {
		return entity.Review{}, fmt.Errorf("check review: %w", err)
	}
	if n > 0 {
		return entity.Review{}, duplicateReview()
	}

	review := &model.Review{TitleId: titleID, AuthorId: actor.ID, Text: *in.Text, Score: *in.Score}
	if err := db.Create(review).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return entity.Review{}, duplicateReview()
		}
		return entity.Review{}, fmt.Errorf("create review: %w", err)
	}
	return readReview(db, review.Id)
}

func (s *ReviewService) Update(ctx context.Context, actor *access.Actor, titleID, reviewID int, in entity.ReviewWrite, partial bool) (entity.Review, error) {
	db := conn(ctx)
	review, err := loadReview(db, titleID, reviewID)
	if err != nil {
		return entity.Review{}, err
	}
	if err := access.AuthorOrStaff.CheckObject(actor, access.Write, review.AuthorId); err != nil {
		return entity.Review{}, err
	}
	if err := validate.Struct(in, partial); err != nil {
		return entity.Review{}, err
	}

	updates := map[string]any{}
	if in.Text != nil {
		updates["text"] = *in.Text
	}
	if in.Score != nil {
		updates["score"] = *in.Score
	}
	if len(updates) > 0 {
		if err := db.Model(&model.Review{}).Where("id = ?", review.Id).Updates(updates).Error; err != nil {
			return entity.Review{}, fmt.Errorf("update review: %w", err)
		}
	}
	return readReview(db, review.Id)
}

// Delete removes the review and its comments.
func (s *ReviewService) Delete(ctx context.Context, actor *access.Actor, titleID, reviewID int) error {
	db := conn(ctx)
	review, err := loadReview(db, titleID, reviewID)
	if err != nil {
		return err
	}
	if err := access.AuthorOrStaff.CheckObject(actor, access.Delete, review.AuthorId); err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", review.Id).Delete(&model.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		if err := tx.Delete(&model.Review{}, review.Id).Error; err != nil {
			return fmt.Errorf("delete review: %w", err)
		}
		return nil
	})
}
