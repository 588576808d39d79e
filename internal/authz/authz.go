// Package authz holds the pure authorization predicates. They take the
// request's viewer and the target record and never touch storage; the
// one storage-backed question, "is the viewer already following", lives
// on the follow repository.
package authz

import "github.com/pulseapp/pulse-server/internal/models"

// CanEdit reports whether the viewer may edit the post. Only the
// authenticated author may.
func CanEdit(viewer models.Viewer, post *models.Post) bool {
	return viewer.Authenticated && viewer.ID == post.AuthorID
}

// CanComment reports whether the viewer may comment on posts.
func CanComment(viewer models.Viewer) bool {
	return viewer.Authenticated
}

// CanFollow reports whether the viewer may follow the target author.
// Self-follows are rejected here before storage ever sees them.
func CanFollow(viewer models.Viewer, targetID uint) bool {
	return viewer.Authenticated && viewer.ID != targetID
}
