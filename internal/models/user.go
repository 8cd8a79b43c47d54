// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered author/reader in the Inkwell application.
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Username    string         `gorm:"unique;not null" json:"username"`
	Email       string         `gorm:"unique;not null" json:"email"`
	Password    string         `gorm:"not null" json:"-"`
	DisplayName string         `json:"display_name"`
	Bio         string         `json:"bio"`
	Avatar      string         `json:"avatar"`
	IsAdmin     bool           `gorm:"default:false" json:"is_admin"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Posts       []Post         `gorm:"foreignKey:UserID" json:"posts,omitempty"`
}

// Profile is the denormalized author identity attached to posts and comments
// at read time. It carries only what rendering needs.
type Profile struct {
	UserID      uint   `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar,omitempty"`
}

// PlaceholderProfile is substituted when an author lookup misses (for example
// a hard-deleted account). Missing profiles degrade, they never error.
func PlaceholderProfile(userID uint) Profile {
	return Profile{
		UserID:      userID,
		Username:    "unknown",
		DisplayName: "Unknown author",
	}
}

// ProfileOf derives the display profile for a user.
func ProfileOf(u *User) Profile {
	name := u.DisplayName
	if name == "" {
		name = u.Username
	}
	return Profile{
		UserID:      u.ID,
		Username:    u.Username,
		DisplayName: name,
		Avatar:      u.Avatar,
	}
}
