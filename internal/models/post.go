package models

import "time"

// Post is a published text entry, optionally with an image and a group.
// PubDate and AuthorID are set once at creation and never change.
// Deleting the author cascades to the post; deleting the group only
// clears the reference.
type Post struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	Text     string    `json:"text" gorm:"not null"`
	PubDate  time.Time `json:"pub_date" gorm:"index;autoCreateTime"`
	AuthorID uint      `json:"author_id" gorm:"index;not null"`
	Author   User      `json:"author" gorm:"constraint:OnDelete:CASCADE"`
	Image    string    `json:"image,omitempty"`
	GroupID  *uint     `json:"group_id,omitempty" gorm:"index"`
	Group    *Group    `json:"group,omitempty" gorm:"constraint:OnDelete:SET NULL"`
}

// PostForm is the submitted create/edit form. Group carries a Group ID;
// zero means no group. The image file travels separately as multipart data.
type PostForm struct {
	Text  string `form:"text" json:"text" validate:"required"`
	Group uint   `form:"group" json:"group"`
}
