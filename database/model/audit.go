package model

import "time"

// AuditLog records one state-changing request made by an authenticated user.
type AuditLog struct {
	ID        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    int       `json:"user_id" gorm:"index"`
	Username  string    `json:"username" gorm:"size:150"`
	Method    string    `json:"method" gorm:"size:10"`
	Path      string    `json:"path"`
	Status    int       `json:"status"`
	IP        string    `json:"ip" gorm:"size:64"`
	UserAgent string    `json:"user_agent"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp" gorm:"index"`
}
