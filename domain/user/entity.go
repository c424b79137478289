package user

import (
	"time"
)

// User represents a registered account.
type User struct {
	ID           string `gorm:"primaryKey;type:text"`
	Fullname     string `gorm:"not null;type:text"`
	Username     string `gorm:"uniqueIndex;not null;type:text"`
	PasswordHash string `gorm:"not null;type:text"`
	Gender       string `gorm:"type:text"`
	Avatar       string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// Profile is the public view of a user, safe to return to other users.
type Profile struct {
	ID       string `json:"id"`
	Fullname string `json:"fullname"`
	Username string `json:"username"`
	Gender   string `json:"gender"`
	Avatar   string `json:"avatar"`
}

// ProfileOf extracts the public profile from a user.
func ProfileOf(u *User) Profile {
	return Profile{
		ID:       u.ID,
		Fullname: u.Fullname,
		Username: u.Username,
		Gender:   u.Gender,
		Avatar:   u.Avatar,
	}
}

// Claims represents the identity carried by a validated token.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Token is an issued authentication token.
type Token struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}
