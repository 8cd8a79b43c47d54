// Package models contains data structures for the application's domain models.
package models

import "time"

// Comment represents a comment on a post. ParentID is nil for top-level
// comments and references another comment for replies. Nesting is capped at
// two tiers: a reply's parent is either a top-level comment or a direct reply.
//
// DeletedAt is a plain column rather than gorm.DeletedAt on purpose: a
// soft-deleted comment must remain structurally present so reply threads stay
// intact. Only its content is suppressed for display; queries must keep
// returning the row.
type Comment struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	PostID   uint   `gorm:"not null;index" json:"post_id"`
	UserID   uint   `gorm:"not null" json:"user_id"`
	ParentID *uint  `gorm:"index" json:"parent_id,omitempty"`
	Content  string `gorm:"type:text;not null" json:"content"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->" json:"likes_count"`
	// Liked indicates whether the current viewer liked this comment (derived, not persisted)
	Liked bool `gorm:"-" json:"liked"`
	// Deleted is the display-facing soft-delete flag (derived from DeletedAt)
	Deleted bool `gorm:"-" json:"deleted"`
	// Author is the denormalized author profile attached at read time
	Author    Profile    `gorm:"-" json:"author"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the comment carries a soft-delete marker.
func (c *Comment) IsDeleted() bool {
	return c.DeletedAt != nil
}

// ReplyRef is the back-reference a nested reply carries to the direct reply it
// answers. It exists only to render "replying to X"; the thread itself is
// never re-derived from it.
type ReplyRef struct {
	CommentID uint    `json:"comment_id"`
	Author    Profile `json:"author"`
}

// ReplyItem is a reply in a comment group's flattened list. InReplyTo is nil
// for direct replies and set for second-tier replies.
type ReplyItem struct {
	Comment
	InReplyTo *ReplyRef `json:"in_reply_to,omitempty"`
}

// CommentGroup is a top-level comment bundled with its full flattened reply
// list, ordered newest first.
type CommentGroup struct {
	Comment
	Replies []ReplyItem `json:"replies"`
}
