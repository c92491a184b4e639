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

type CommentService struct{}

func commentQuery(db *gorm.DB) *gorm.DB {
	return db.Table("comments").
		Select("comments.id, reviews.text AS review, users.username AS author, comments.text, comments.pub_date").
		Joins("JOIN reviews ON reviews.id = comments.review_id").
		Joins("JOIN users ON users.id = comments.author_id")
}

func loadComment(db *gorm.DB, titleID, reviewID, commentID int) (*model.Comment, error) {
	if _, err := loadReview(db, titleID, reviewID); err != nil {
		return nil, err
	}
	comment := &model.Comment{}
	if err := db.Where("id = ? AND review_id = ?", commentID, reviewID).First(comment).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, common.NotFound("comment")
		}
		return nil, fmt.Errorf("load comment: %w", err)
	}
	return comment, nil
}

func readComment(db *gorm.DB, id int) (entity.Comment, error) {
	var out []entity.Comment
	if err := commentQuery(db).Where("comments.id = ?", id).Limit(1).Scan(&out).Error; err != nil {
		return entity.Comment{}, fmt.Errorf("read comment: %w", err)
	}
	if len(out) == 0 {
		return entity.Comment{}, common.NotFound("comment")
	}
	return out[0], nil
}

// List returns the comments of a review that belongs to the title.
func (s *CommentService) List(ctx context.Context, titleID, reviewID int, p entity.PageRequest) ([]entity.Comment, int64, error) {
	db := conn(ctx)
	if _, err := loadReview(db, titleID, reviewID); err != nil {
		return nil, 0, err
	}
	var count int64
	if err := db.Model(&model.Comment{}).Where("review_id = ?", reviewID).Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}
	out := make([]entity.Comment, 0)
	q := commentQuery(db).Where("comments.review_id = ?", reviewID).Order("comments.pub_date, comments.id")
	if err := paginate(q, p).Scan(&out).Error; err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	return out, count, nil
}

func (s *CommentService) Get(ctx context.Context, titleID, reviewID, commentID int) (entity.Comment, error) {
	db := conn(ctx)
	if _, err := loadComment(db, titleID, reviewID, commentID); err != nil {
		return entity.Comment{}, err
	}
	return readComment(db, commentID)
}

func (s *CommentService) Create(ctx context.Context, actor *access.Actor, titleID, reviewID int, in entity.CommentWrite) (entity.Comment, error) {
	if err := access.AuthorOrStaff.Check(actor, access.Write); err != nil {
		return entity.Comment{}, err
	}
	db := conn(ctx)
	if _, err := loadReview(db, titleID, reviewID); err != nil {
		return entity.Comment{}, err
	}
	if err := validate.Struct(in, false); err != nil {
		return entity.Comment{}, err
	}
	comment := &model.Comment{ReviewId: reviewID, AuthorId: actor.ID, Text: *in.Text}
	if err := db.Create(comment).Error; err != nil {
		return entity.Comment{}, fmt.Errorf("create comment: %w", err)
	}
	return readComment(db, comment.Id)
}

func (s *CommentService) Update(ctx context.Context, actor *access.Actor, titleID, reviewID, commentID int, in entity.CommentWrite, partial bool) (entity.Comment, error) {
	db := conn(ctx)
	comment, err := loadComment(db, titleID, reviewID, commentID)
	if err != nil {
		return entity.Comment{}, err
	}
	if err := access.AuthorOrStaff.CheckObject(actor, access.Write, comment.AuthorId); err != nil {
		return entity.Comment{}, err
	}
	if err := validate.Struct(in, partial); err != nil {
		return entity.Comment{}, err
	}
	if in.Text != nil {
		if err := db.Model(&model.Comment{}).Where("id = ?", comment.Id).Update("text", *in.Text).Error; err != nil {
			return entity.Comment{}, fmt.Errorf("update comment: %w", err)
		}
	}
	return readComment(db, comment.Id)
}

func (s *CommentService) Delete(ctx context.Context, actor *access.Actor, titleID, reviewID, commentID int) error {
	db := conn(ctx)
	comment, err := loadComment(db, titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	if err := access.AuthorOrStaff.CheckObject(actor, access.Delete, comment.AuthorId); err != nil {
		return err
	}
	if err := db.Delete(&model.Comment{}, comment.Id).Error; err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}
