package models

import "time"

type UserType string

const (
	UserTypeReal UserType = "real"
	UserTypeBot  UserType = "bot"
)

type User struct {
	ID           uint64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string   `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Username     string   `gorm:"type:varchar(32);uniqueIndex;not null" json:"username"`
	DisplayName  string   `gorm:"type:varchar(64)" json:"display_name"`
	PasswordHash string   `gorm:"type:varchar(255);not null" json:"-"`
	Type         UserType `gorm:"type:varchar(8);not null;default:real;index" json:"type"`
	IsActive     bool     `gorm:"not null" json:"is_active"`
	IsBanned     bool     `gorm:"not null;default:false" json:"is_banned"`

	// Aggregate counters. Only the match engine's counter ledger writes these.
	TotalLikes   int64 `gorm:"not null;default:0" json:"total_likes"`
	TotalMatches int64 `gorm:"not null;default:0" json:"total_matches"`
	TotalRejects int64 `gorm:"not null;default:0" json:"total_rejects"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) IsBot() bool { return u.Type == UserTypeBot }

// Available reports whether the user can receive likes.
func (u *User) Available() bool { return u.IsActive && !u.IsBanned }
