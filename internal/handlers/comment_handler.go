package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pulseapp/pulse-server/internal/middleware"
	"github.com/pulseapp/pulse-server/internal/models"
	"github.com/pulseapp/pulse-server/internal/repositories"
	"github.com/pulseapp/pulse-server/validators"
	"go.uber.org/zap"
)

// CommentHandler handles comment submissions.
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	postRepository    repositories.PostRepository
	logger            *zap.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(
	commentRepo repositories.CommentRepository,
	postRepo repositories.PostRepository,
	logger *zap.Logger,
) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		postRepository:    postRepo,
		logger:            logger,
	}
}

// AddComment appends a comment to a post and redirects to the post detail
// view. An invalid submission is dropped silently; the redirect happens
// either way. Only the post itself can be missing, which is a 404.
func (h *CommentHandler) AddComment(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	post, err := h.postRepository.GetPostByID(uint(id))
	if err != nil {
		if err == repositories.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var form models.CommentForm
	if err := c.Bind(&form); err == nil && validators.Fields(form) == nil {
		comment := &models.Comment{
			PostID:   post.ID,
			AuthorID: middleware.Viewer(c).ID,
			Text:     form.Text,
		}
		if err := h.commentRepository.CreateComment(comment); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		h.logger.Info("comment added", zap.Uint("post_id", post.ID), zap.Uint("comment_id", comment.ID))
	}

	return c.Redirect(http.StatusFound, postDetailURL(post.ID))
}
