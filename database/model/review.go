package model

import "time"

// Review is unique per (title, author); the index name is relied upon when
// translating constraint violations.
type Review struct {
	Id       int       `json:"id" gorm:"primaryKey;autoIncrement"`
	TitleId  int       `json:"title_id" gorm:"not null;uniqueIndex:unique_review,priority:1"`
	Title    *Title    `json:"-" gorm:"foreignKey:TitleId;constraint:OnDelete:CASCADE;"`
	AuthorId int       `json:"author_id" gorm:"not null;uniqueIndex:unique_review,priority:2;index"`
	Author   *User     `json:"-" gorm:"foreignKey:AuthorId;constraint:OnDelete:CASCADE;"`
	Text     string    `json:"text" gorm:"not null"`
	Score    int       `json:"score" gorm:"not null;check:score >= 1 AND score <= 10"`
	PubDate  time.Time `json:"pub_date" gorm:"autoCreateTime;index"`
}

type Comment struct {
	Id       int       `json:"id" gorm:"primaryKey;autoIncrement"`
	ReviewId int       `json:"review_id" gorm:"not null;index"`
	Review   *Review   `json:"-" gorm:"foreignKey:ReviewId;constraint:OnDelete:CASCADE;"`
	AuthorId int       `json:"author_id" gorm:"not null;index"`
	Author   *User     `json:"-" gorm:"foreignKey:AuthorId;constraint:OnDelete:CASCADE;"`
	Text     string    `json:"text" gorm:"not null"`
	PubDate  time.Time `json:"pub_date" gorm:"autoCreateTime;index"`
}
