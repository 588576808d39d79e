package models

import "github.com/golang-jwt/jwt/v4"

// User is an identity record owned by the external auth service. This
// service never creates or updates users; it reads them as the foreign-key
// target for posts, comments and follows.
type User struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Username string `json:"username" gorm:"uniqueIndex;not null"`
	FullName string `json:"full_name,omitempty"`
}

// Viewer is the identity attached to an inbound request. The zero value
// is an anonymous viewer.
type Viewer struct {
	ID            uint
	Username      string
	Authenticated bool
}

// SessionClaims are the claims carried by the session token issued by the
// external auth service.
type SessionClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
