package model

type Category struct {
	Id   int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"size:256;not null"`
	Slug string `json:"slug" gorm:"size:50;not null;uniqueIndex"`
}

type Genre struct {
	Id   int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"size:256;not null"`
	Slug string `json:"slug" gorm:"size:50;not null;uniqueIndex"`
}

type Title struct {
	Id          int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string    `json:"name" gorm:"size:256;not null;index"`
	Year        int       `json:"year" gorm:"not null;index"`
	Description *string   `json:"description" gorm:"size:255"`
	CategoryId  *int      `json:"-" gorm:"index"`
	Category    *Category `json:"category" gorm:"foreignKey:CategoryId;constraint:OnDelete:SET NULL;"`

	// Genres is filled by the service layer from GenreTitle rows.
	Genres []Genre `json:"genre" gorm:"-"`
}

// GenreTitle links a title to a genre. Removing the genre leaves the row with
// a NULL genre instead of touching the title.
type GenreTitle struct {
	Id      int    `json:"id" gorm:"primaryKey;autoIncrement"`
	TitleId int    `json:"title_id" gorm:"not null;index"`
	Title   *Title `json:"-" gorm:"foreignKey:TitleId;constraint:OnDelete:CASCADE;"`
	GenreId *int   `json:"genre_id" gorm:"index"`
	Genre   *Genre `json:"-" gorm:"foreignKey:GenreId;constraint:OnDelete:SET NULL;"`
}
