package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pulseapp/pulse-server/internal/authz"
	"github.com/pulseapp/pulse-server/internal/middleware"
	"github.com/pulseapp/pulse-server/internal/models"
	"github.com/pulseapp/pulse-server/internal/repositories"
	"go.uber.org/zap"
)

// FollowHandler handles follow/unfollow requests. Both operations are
// idempotent: repeating them changes nothing and reports no error.
type FollowHandler struct {
	followRepository repositories.FollowRepository
	userRepository   repositories.UserRepository
	logger           *zap.Logger
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(
	followRepo repositories.FollowRepository,
	userRepo repositories.UserRepository,
	logger *zap.Logger,
) *FollowHandler {
	return &FollowHandler{
		followRepository: followRepo,
		userRepository:   userRepo,
		logger:           logger,
	}
}

// Follow subscribes the viewer to the target author and redirects to the
// author's profile. Following yourself or someone you already follow is a
// no-op, not an error.
func (h *FollowHandler) Follow(c echo.Context) error {
	username := c.Param("username")
	target, err := h.userRepository.GetUserByUsername(username)
	if err != nil {
		if err == repositories.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	viewer := middleware.Viewer(c)
	if authz.CanFollow(viewer, target.ID) {
		following, err := h.followRepository.IsFollowing(viewer.ID, target.ID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if !following {
			follow := &models.Follow{UserID: viewer.ID, AuthorID: target.ID}
			if err := h.followRepository.CreateFollow(follow); err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
			h.logger.Info("follow created",
				zap.Uint("user_id", viewer.ID),
				zap.Uint("author_id", target.ID),
			)
		}
	}

	return c.Redirect(http.StatusFound, profileURL(username))
}

// Unfollow removes the viewer's subscription to the named author and
// redirects to the author's profile. A missing relation deletes nothing.
func (h *FollowHandler) Unfollow(c echo.Context) error {
	username := c.Param("username")
	viewer := middleware.Viewer(c)

	if err := h.followRepository.DeleteFollow(viewer.ID, username); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.Redirect(http.StatusFound, profileURL(username))
}
