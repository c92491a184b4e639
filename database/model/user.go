// Package model defines the persisted entities of the catalog.
package model

import (
	"fmt"
	"time"
)

const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

type User struct {
	Id          int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Username    string `json:"username" gorm:"size:150;not null;uniqueIndex:idx_users_username;uniqueIndex:idx_users_username_email,priority:1"`
	Email       string `json:"email" gorm:"size:254;not null;uniqueIndex:idx_users_email;uniqueIndex:idx_users_username_email,priority:2"`
	FirstName   string `json:"first_name" gorm:"size:150"`
	LastName    string `json:"last_name" gorm:"size:150"`
	Bio         string `json:"bio"`
	Role        string `json:"role" gorm:"size:20;not null;default:user"`
	IsSuperuser bool   `json:"-" gorm:"not null;default:false"`
	// ConfirmationCode stores the bcrypt hash of the last issued code.
	ConfirmationCode string    `json:"-" gorm:"size:255"`
	DateJoined       time.Time `json:"date_joined" gorm:"autoCreateTime"`
	UpdatedAt        time.Time `json:"-" gorm:"autoUpdateTime"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.IsSuperuser
}

func (u *User) IsModerator() bool {
	return u.Role == RoleModerator
}

// StateFingerprint covers every profile attribute a confirmation code is
// bound to; changing any of them invalidates outstanding codes.
func (u *User) StateFingerprint() string {
	return fmt.Sprintf("%d|%s|%s|%s|%t|%s|%s|%s",
		u.Id, u.Username, u.Email, u.Role, u.IsSuperuser, u.FirstName, u.LastName, u.Bio)
}
