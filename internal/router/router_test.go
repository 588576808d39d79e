package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/pulseapp/pulse-server/internal/models"
	"github.com/pulseapp/pulse-server/pkg/config"
	"github.com/pulseapp/pulse-server/validators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		PageSize:     10,
		FeedCacheTTL: 50 * time.Millisecond,
		LoginURL:     "/auth/login/",
		JWTSecret:    testSecret,
		UploadDir:    t.TempDir(),
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*echo.Echo, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	e := echo.New()
	e.Validator = validators.NewValidator()
	SetupMiddleware(e)
	require.NoError(t, SetupRoutes(e, db, cfg, zap.NewNop()))
	return e, db
}

func seedUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{Username: username}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedPost(t *testing.T, db *gorm.DB, author models.User, text string, pubDate time.Time) models.Post {
	t.Helper()
	post := models.Post{Text: text, AuthorID: author.ID, PubDate: pubDate}
	require.NoError(t, db.Create(&post).Error)
	return post
}

func sessionFor(t *testing.T, user models.User) string {
	t.Helper()
	claims := models.SessionClaims{UserID: user.ID, Username: user.Username}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func doRequest(e *echo.Echo, method, target, token string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type pageResponse struct {
	Success  bool   `json:"success"`
	Template string `json:"template"`
	Data     struct {
		Posts []struct {
			ID   uint   `json:"id"`
			Text string `json:"text"`
		} `json:"posts"`
		Following bool `json:"following"`
	} `json:"data"`
	Meta struct {
		CurrentPage int `json:"currentPage"`
		TotalPages  int `json:"totalPages"`
		TotalItems  int `json:"totalItems"`
	} `json:"meta"`
	Errors map[string]string `json:"errors"`
}

func decodePage(t *testing.T, rec *httptest.ResponseRecorder) pageResponse {
	t.Helper()
	var resp pageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestLoginRedirectPreservesNext(t *testing.T) {
	e, _ := newTestServer(t, testConfig(t))

	targets := []string{
		"/create/",
		"/posts/1/edit/",
		"/follow/",
		"/follow/?page=2",
		"/profile/leo/follow/",
		"/profile/leo/unfollow/",
	}
	for _, target := range targets {
		t.Run(target, func(t *testing.T) {
			rec := doRequest(e, http.MethodGet, target, "", nil)
			require.Equal(t, http.StatusFound, rec.Code)

			loc, err := url.Parse(rec.Header().Get("Location"))
			require.NoError(t, err)
			assert.Equal(t, "/auth/login/", loc.Path)
			assert.Equal(t, target, loc.Query().Get("next"))
		})
	}

	rec := doRequest(e, http.MethodPost, "/posts/1/comment/", "", url.Values{"text": {"hi"}})
	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/posts/1/comment/", loc.Query().Get("next"))
}

func TestCreatePostAppearsAtFeedHead(t *testing.T) {
	e, db := newTestServer(t, testConfig(t))
	author := seedUser(t, db, "leo")
	seedPost(t, db, author, "older", time.Now().Add(-time.Hour))

	rec := doRequest(e, http.MethodPost, "/create/", sessionFor(t, author), url.Values{"text": {"fresh words"}})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/profile/leo/", rec.Header().Get("Location"))

	resp := decodePage(t, doRequest(e, http.MethodGet, "/", "", nil))
	require.NotEmpty(t, resp.Data.Posts)
	assert.Equal(t, "fresh words", resp.Data.Posts[0].Text)
	assert.Equal(t, 2, resp.Meta.TotalItems)
}

func TestCreatePostValidation(t *testing.T) {
	e, db := newTestServer(t, testConfig(t))
	author := seedUser(t, db, "leo")
	token := sessionFor(t, author)

	rec := doRequest(e, http.MethodPost, "/create/", token, url.Values{"text": {""}})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodePage(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "posts/create_post", resp.Template)
	assert.Contains(t, resp.Errors, "text")

	rec = doRequest(e, http.MethodPost, "/create/", token, url.Values{"text": {"hello"}, "group": {"999"}})
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodePage(t, rec)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Errors, "group")

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.EqualValues(t, 0, count, "no partial writes on validation failure")
}

func TestEditPostByNonAuthorIsSilentRedirect(t *testing.T) {
	e, db := newTestServer(t, testConfig(t))
	author := seedUser(t, db, "leo")
	stranger := seedUser(t, db, "mia")
	post := seedPost(t, db, author, "original", time.Now())

	editURL := fmt.Sprintf("/posts/%d/edit/", post.ID)
	detailURL := fmt.Sprintf("/posts/%d/", post.ID)

	rec := doRequest(e, http.MethodPost, editURL, sessionFor(t, stranger), url.Values{"text": {"hijacked"}})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, detailURL, rec.Header().Get("Location"))

	rec = doRequest(e, http.MethodGet, editURL, sessionFor(t, stranger), nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, detailURL, rec.Header().Get("Location"))

	var got models.Post
	require.NoError(t, db.First(&got, post.ID).Error)
	assert.Equal(t, "original", got.Text)
}

func TestEditPostByAuthor(t *testing.T) {
	e, db := newTestServer(t, testConfig(t))
	author := seedUser(t, db, "leo")
	pubDate := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	post := seedPost(t, db, author, "original", pubDate)

	editURL := fmt.Sprintf("/posts/%d/edit/", post.ID)
	rec := doRequest(e, http.MethodPost, editURL, sessionFor(t, author), url.Values{"text": {"revised"}})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", post.ID), rec.Header().Get("Location"))

	var got models.Post
	require.NoError(t, db.First(&got, post.ID).Error)
	assert.Equal(t, "revised", got.Text)
	assert.Equal(t, author.ID, got.AuthorID)
	assert.True(t, got.PubDate.Equal(pubDate), "pub_date is immutable")
}

func TestEditUnknownPost(t *testing.T) {
	e, db := newTestServer(t, testConfig(t))
	author := seedUser(t, db, "leo")

	rec := doRequest(e, http.MethodPost, "/posts/999/edit/", sessionFor(t, author), url.Values{"text": {"x"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddCommentAlwaysRedirects(t *testing.T) {
	e, db := newTestServer(t, testConfig(t))
	author := seedUser(t, db, "leo")
	commenter := seedUser(t, db, "mia")
	post := seedPost(t, db, author, "post", time.Now())

	commentURL := fmt.Sprintf("/posts/%d/comment/", post.ID)
	detailURL := fmt.Sprintf("/posts/%d/", post.ID)

	rec := doRequest(e, http.MethodPost, commentURL, sessionFor(t, commenter), url.Values{"text": {"nice"}})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, detailURL, rec.Header().Get("Location"))

	// An empty comment is dropped silently; the redirect is identical.
	rec = doRequest(e, http.MethodPost, commentURL, sessionFor(t, commenter), url.Values{"text": {""}})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, detailURL, rec.Header().Get("Location"))

	var count int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	rec = doRequest(e, http.MethodPost, "/posts/999/comment/", sessionFor(t, commenter), url.Values{"text": {"x"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFollowIdempotent(t *testing.T) {
	e, db := newTestServer(t, testConfig(t))
	viewer := seedUser(t, db, "viewer")
	seedUser(t, db, "leo")
	token := sessionFor(t, viewer)

	for i := 0; i < 2; i++ {
		rec := doRequest(e, http.MethodPost, "/profile/leo/follow/", token, nil)
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/profile/leo/", rec.Header().Get("Location"))
	}

	var count int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// Self-follow is a silent no-op.
	rec := doRequest(e, http.MethodPost, "/profile/viewer/follow/", token, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	require.NoError(t, db.Model(&models.Follow{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// Unfollowing twice leaves zero rows and no error.
	for i := 0; i < 2; i++ {
		rec = doRequest(e, http.MethodPost, "/profile/leo/unfollow/", token, nil)
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/profile/leo/", rec.Header().Get("Location"))
	}
	require.NoError(t, db.Model(&models.Follow{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestFollowUnknownUser(t *testing.T) {
	e, db := newTestServer(t, testConfig(t))
	viewer := seedUser(t, db, "viewer")

	rec := doRequest(e, http.MethodPost, "/profile/nobody/follow/", sessionFor(t, viewer), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFollowFeedScopedToFollowedAuthors(t *testing.T) {
	e, db := newTestServer(t, testConfig(t))
	viewer := seedUser(t, db, "viewer")
	followed := seedUser(t, db, "followed")
	other := seedUser(t, db, "other")
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	seedPost(t, db, followed, "a1", base)
	seedPost(t, db, followed, "a2", base.Add(time.Minute))
	seedPost(t, db, other, "b1", base)
	seedPost(t, db, other, "b2", base)
	seedPost(t, db, other, "b3", base)
	require.NoError(t, db.Create(&models.Follow{UserID: viewer.ID, AuthorID: followed.ID}).Error)

	resp := decodePage(t, doRequest(e, http.MethodGet, "/follow/", sessionFor(t, viewer), nil))
	require.Len(t, resp.Data.Posts, 2)
	assert.Equal(t, "a2", resp.Data.Posts[0].Text)
	assert.Equal(t, "a1", resp.Data.Posts[1].Text)
}

func TestGroupFeed(t *testing.T) {
	e, db := newTestServer(t, testConfig(t))
	author := seedUser(t, db, "leo")
	tech := models.Group{Title: "Tech", Slug: "tech"}
	life := models.Group{Title: "Life", Slug: "life"}
	require.NoError(t, db.Create(&tech).Error)
	require.NoError(t, db.Create(&life).Error)
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&models.Post{Text: fmt.Sprintf("tech %d", i), AuthorID: author.ID, PubDate: base, GroupID: &tech.ID}).Error)
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, db.Create(&models.Post{Text: fmt.Sprintf("life %d", i), AuthorID: author.ID, PubDate: base, GroupID: &life.ID}).Error)
	}

	resp := decodePage(t, doRequest(e, http.MethodGet, "/group/tech/", "", nil))
	assert.Len(t, resp.Data.Posts, 3)
	for _, p := range resp.Data.Posts {
		assert.Contains(t, p.Text, "tech")
	}

	rec := doRequest(e, http.MethodGet, "/group/unknown-slug/", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfileFollowState(t *testing.T) {
	e, db := newTestServer(t, testConfig(t))
	viewer := seedUser(t, db, "viewer")
	author := seedUser(t, db, "leo")
	require.NoError(t, db.Create(&models.Follow{UserID: viewer.ID, AuthorID: author.ID}).Error)

	resp := decodePage(t, doRequest(e, http.MethodGet, "/profile/leo/", sessionFor(t, viewer), nil))
	assert.True(t, resp.Data.Following)

	resp = decodePage(t, doRequest(e, http.MethodGet, "/profile/leo/", "", nil))
	assert.False(t, resp.Data.Following, "anonymous viewers never see a follow state")

	rec := doRequest(e, http.MethodGet, "/profile/nobody/", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIndexCacheStaleness(t *testing.T) {
	e, db := newTestServer(t, testConfig(t))
	author := seedUser(t, db, "leo")
	seedPost(t, db, author, "first", time.Now().Add(-time.Minute))

	before := doRequest(e, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, before.Code)

	// A post created inside the TTL window is invisible to cached readers.
	seedPost(t, db, author, "second", time.Now())
	during := doRequest(e, http.MethodGet, "/", "", nil)
	assert.Equal(t, before.Body.Bytes(), during.Body.Bytes(), "cached body must be byte-identical")

	time.Sleep(60 * time.Millisecond)
	after := decodePage(t, doRequest(e, http.MethodGet, "/", "", nil))
	assert.Equal(t, 2, after.Meta.TotalItems, "expiry must reveal the new post")
}

func TestIndexPaginationClamp(t *testing.T) {
	cfg := testConfig(t)
	cfg.PageSize = 10
	// Keep every page render out of the cache's way.
	cfg.FeedCacheTTL = time.Nanosecond
	e, db := newTestServer(t, cfg)
	author := seedUser(t, db, "leo")
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		seedPost(t, db, author, fmt.Sprintf("post %02d", i), base.Add(time.Duration(i)*time.Minute))
	}

	cases := []struct {
		query     string
		wantPage  int
		wantCount int
	}{
		{"", 1, 10},
		{"?page=2", 2, 10},
		{"?page=3", 3, 5},
		{"?page=0", 1, 10},
		{"?page=99", 3, 5},
		{"?page=abc", 1, 10},
	}
	for _, tc := range cases {
		t.Run("page"+tc.query, func(t *testing.T) {
			resp := decodePage(t, doRequest(e, http.MethodGet, "/"+tc.query, "", nil))
			assert.Equal(t, tc.wantPage, resp.Meta.CurrentPage)
			assert.Len(t, resp.Data.Posts, tc.wantCount)
			assert.Equal(t, 3, resp.Meta.TotalPages)
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	e, _ := newTestServer(t, testConfig(t))
	rec := doRequest(e, http.MethodGet, "/nope/", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	e, _ := newTestServer(t, testConfig(t))
	rec := doRequest(e, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
