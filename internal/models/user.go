package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a buyer identified by their normalized phone number.
// Phone is the natural key: the last 10 digits of whatever was typed into
// the sheet, non-digits stripped. Users are created on first sighting and
// never deleted; later sync passes only fill in fields that are still blank
// (except address and email, which always take the newest non-empty value).
type User struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Phone      string    `json:"phone" gorm:"type:varchar(10);not null;uniqueIndex:idx_users_phone"`
	Name       string    `json:"name" gorm:"type:varchar(255)"`
	ChatHandle string    `json:"chatHandle" gorm:"type:varchar(255)"` // LINE nickname
	Romanized  string    `json:"romanized" gorm:"type:varchar(255)"`
	Address    string    `json:"address" gorm:"type:text"`
	Email      string    `json:"email" gorm:"type:varchar(255)"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// MergeFrom copies non-empty fields from src into u. Address and email
// always take the newest non-empty value; the remaining fields keep
// whatever was seen first.
func (u *User) MergeFrom(src *User) {
	if u.Name == "" {
		u.Name = src.Name
	}
	if u.ChatHandle == "" {
		u.ChatHandle = src.ChatHandle
	}
	if u.Romanized == "" {
		u.Romanized = src.Romanized
	}
	if src.Address != "" {
		u.Address = src.Address
	}
	if src.Email != "" {
		u.Email = src.Email
	}
}
