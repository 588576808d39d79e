package models

import "time"

// Follow is a directed edge from a follower to a followed author.
// The (user, author) pair is unique and self-follows are rejected by a
// check constraint, in addition to the application-level guards.
type Follow struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_follows_user_author;check:chk_follows_not_self,user_id <> author_id"`
	User      User      `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	AuthorID  uint      `json:"author_id" gorm:"not null;uniqueIndex:idx_follows_user_author"`
	Author    User      `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"created_at"`
}
