package models

import "time"

// Comment is an immutable remark on a post. Deleting the post or the
// author cascades to the comment.
type Comment struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	PostID   uint      `json:"post_id" gorm:"index;not null"`
	Post     *Post     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	AuthorID uint      `json:"author_id" gorm:"index;not null"`
	Author   User      `json:"author" gorm:"constraint:OnDelete:CASCADE"`
	Text     string    `json:"text" gorm:"not null"`
	Created  time.Time `json:"created" gorm:"index;autoCreateTime"`
}

// CommentForm is the submitted add-comment form.
type CommentForm struct {
	Text string `form:"text" json:"text" validate:"required"`
}
