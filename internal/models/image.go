package models

import (
	"strconv"
	"time"

	"gorm.io/gorm"
)

// Image represents an uploaded image and its processed WebP variants.
type Image struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UserID      uint   `gorm:"not null;index" json:"user_id"`
	ObjectKey   string `gorm:"unique;not null" json:"object_key"`
	ContentType string `gorm:"not null" json:"content_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	// Variants is a comma-separated list of generated widths (e.g. "256,640,1080")
	Variants  string         `json:"variants"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// URL returns the serving path for the image at a given variant width,
// or the original when size is 0.
func (i *Image) URL(size int) string {
	if size <= 0 {
		return "/uploads/" + i.ObjectKey + ".webp"
	}
	return "/uploads/" + i.ObjectKey + "_" + strconv.Itoa(size) + ".webp"
}
