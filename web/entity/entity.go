// Package entity defines the request and response shapes of the HTTP API and
// the conversions between them and the persisted models.
package entity

import (
	"time"

	"github.com/yamdb/yamdb/database/model"
)

type Category struct {
	Name string `json:"name" binding:"required,notblank,max=256"`
	Slug string `json:"slug" binding:"required,max=50,slug"`
}

type Genre struct {
	Name string `json:"name" binding:"required,notblank,max=256"`
	Slug string `json:"slug" binding:"required,max=50,slug"`
}

func NewCategory(c *model.Category) Category {
	return Category{Name: c.Name, Slug: c.Slug}
}

func NewGenre(g *model.Genre) Genre {
	return Genre{Name: g.Name, Slug: g.Slug}
}

// TitleRead is the listing and retrieval shape of a title, with nested
// category and genres and the computed rating.
type TitleRead struct {
	Id          int       `json:"id"`
	Name        string    `json:"name"`
	Year        int       `json:"year"`
	Rating      *float64  `json:"rating"`
	Description *string   `json:"description"`
	Genre       []Genre   `json:"genre"`
	Category    *Category `json:"category"`
}

// TitleWrite is both the input and the output of title writes. Genre and
// category are referenced by slug. Nil fields were not supplied.
type TitleWrite struct {
	Id          int      `json:"id"`
	Name        *string  `json:"name" binding:"required,notblank,max=256"`
	Year        *int     `json:"year" binding:"required,notfuture"`
	Description *string  `json:"description" binding:"omitempty,max=255"`
	Genre       []string `json:"genre" binding:"required,min=1"`
	Category    *string  `json:"category" binding:"required,notblank"`
}

// NewTitleRead expects t.Category and t.Genres to be loaded. A nil rating
// means the title has no reviews.
func NewTitleRead(t *model.Title, rating *float64) TitleRead {
	out := TitleRead{
		Id:          t.Id,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      rating,
		Description: t.Description,
		Genre:       make([]Genre, 0, len(t.Genres)),
	}
	for i := range t.Genres {
		out.Genre = append(out.Genre, NewGenre(&t.Genres[i]))
	}
	if t.Category != nil {
		c := NewCategory(t.Category)
		out.Category = &c
	}
	return out
}

func NewTitleWrite(t *model.Title) TitleWrite {
	name, year := t.Name, t.Year
	out := TitleWrite{
		Id:          t.Id,
		Name:        &name,
		Year:        &year,
		Description: t.Description,
		Genre:       make([]string, 0, len(t.Genres)),
	}
	for _, g := range t.Genres {
		out.Genre = append(out.Genre, g.Slug)
	}
	if t.Category != nil {
		slug := t.Category.Slug
		out.Category = &slug
	}
	return out
}

// Review shows the title by name and the author by username.
type Review struct {
	Id      int       `json:"id"`
	Title   string    `json:"title"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

type ReviewWrite struct {
	Text  *string `json:"text" binding:"required,notblank"`
	Score *int    `json:"score" binding:"required,score"`
}

// Comment shows the review by its text and the author by username.
type Comment struct {
	Id      int       `json:"id"`
	Review  string    `json:"review"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	PubDate time.Time `json:"pub_date"`
}

type CommentWrite struct {
	Text *string `json:"text" binding:"required,notblank"`
}

type User struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
	Role      string `json:"role"`
}

func NewUser(u *model.User) User {
	return User{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		Role:      u.Role,
	}
}

// UserWrite carries user edits; nil fields are left unchanged.
type UserWrite struct {
	Username  *string `json:"username" binding:"required,notblank,notreserved,max=150,username"`
	Email     *string `json:"email" binding:"required,notblank,max=254,email"`
	FirstName *string `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name" binding:"omitempty,max=150"`
	Bio       *string `json:"bio"`
	Role      *string `json:"role"`
}

type Signup struct {
	Username string `json:"username" binding:"required,notreserved,max=150,username"`
	Email    string `json:"email" binding:"required,max=254,email"`
}

type TokenRequest struct {
	Username         string `json:"username" binding:"required"`
	ConfirmationCode string `json:"confirmation_code" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}
