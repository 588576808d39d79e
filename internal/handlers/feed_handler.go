package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pulseapp/pulse-server/internal/authz"
	"github.com/pulseapp/pulse-server/internal/cache"
	"github.com/pulseapp/pulse-server/internal/feed"
	"github.com/pulseapp/pulse-server/internal/middleware"
	"github.com/pulseapp/pulse-server/internal/repositories"
	"go.uber.org/zap"
)

// FeedHandler serves the four feed scopes: global, group, profile and
// following.
type FeedHandler struct {
	feed             *feed.Service
	followRepository repositories.FollowRepository
	pageCache        cache.PageCache
	cacheTTL         time.Duration
	logger           *zap.Logger
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(
	feedService *feed.Service,
	followRepo repositories.FollowRepository,
	pageCache cache.PageCache,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *FeedHandler {
	return &FeedHandler{
		feed:             feedService,
		followRepository: followRepo,
		pageCache:        pageCache,
		cacheTTL:         cacheTTL,
		logger:           logger,
	}
}

// Index serves the global feed. The rendered body is memoized per URL for
// the configured TTL; posts created inside the window stay invisible to
// cached readers until expiry, a deliberate staleness trade-off.
func (h *FeedHandler) Index(c echo.Context) error {
	ctx := c.Request().Context()
	key := cache.Key(c.Request().URL.Path, c.Request().URL.RawQuery)

	if body, ok := h.pageCache.Get(ctx, key); ok {
		return c.JSONBlob(http.StatusOK, body)
	}

	h.logger.Debug("page cache miss", zap.String("key", key))

	pg, err := h.feed.Global(feed.PageNumber(c.QueryParam("page")))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	envelope := pageEnvelope("posts/index", echo.Map{"posts": pg.Posts}, pg)
	body, err := json.Marshal(envelope)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.pageCache.Put(ctx, key, body, h.cacheTTL)

	return c.JSONBlob(http.StatusOK, body)
}

// GroupPosts serves the feed of one group, addressed by slug.
func (h *FeedHandler) GroupPosts(c echo.Context) error {
	group, pg, err := h.feed.ByGroup(c.Param("slug"), feed.PageNumber(c.QueryParam("page")))
	if err != nil {
		if err == repositories.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Group not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return renderPage(c, pageEnvelope("posts/group_list", echo.Map{
		"group": group,
		"posts": pg.Posts,
	}, pg))
}

// Profile serves an author's feed plus the viewer's follow state and the
// author's follower counts.
func (h *FeedHandler) Profile(c echo.Context) error {
	author, pg, err := h.feed.ByAuthor(c.Param("username"), feed.PageNumber(c.QueryParam("page")))
	if err != nil {
		if err == repositories.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	viewer := middleware.Viewer(c)
	following := false
	if authz.CanFollow(viewer, author.ID) {
		following, err = h.followRepository.IsFollowing(viewer.ID, author.ID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	followers, err := h.followRepository.GetFollowersCount(author.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	followingCount, err := h.followRepository.GetFollowingCount(author.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return renderPage(c, pageEnvelope("posts/profile", echo.Map{
		"author":          author,
		"posts":           pg.Posts,
		"following":       following,
		"followers_count": followers,
		"following_count": followingCount,
	}, pg))
}

// FollowIndex serves the personalized feed of posts by followed authors.
// Login is required by the route; a viewer following nobody gets an empty
// page, not an error.
func (h *FeedHandler) FollowIndex(c echo.Context) error {
	viewer := middleware.Viewer(c)

	pg, err := h.feed.Following(viewer.ID, feed.PageNumber(c.QueryParam("page")))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return renderPage(c, pageEnvelope("posts/follow", echo.Map{"posts": pg.Posts}, pg))
}
