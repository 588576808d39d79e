package feed

import (
	"strconv"

	"github.com/pulseapp/pulse-server/internal/models"
	"github.com/pulseapp/pulse-server/internal/repositories"
)

// Page is one window of an ordered feed plus the pagination metadata the
// view needs to render page controls.
type Page struct {
	Posts       []models.Post
	Number      int
	Size        int
	TotalItems  int64
	TotalPages  int
	HasNext     bool
	HasPrevious bool
}

// PageNumber parses a raw page query parameter. Missing, non-numeric or
// sub-1 values fall back to the first page; clamping to the last page
// happens once the total is known.
func PageNumber(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Service composes ordered, paginated post feeds for the four scopes:
// global, by group, by author, and by the viewer's followed authors.
type Service struct {
	posts   repositories.PostRepository
	groups  repositories.GroupRepository
	users   repositories.UserRepository
	follows repositories.FollowRepository
	size    int
}

// NewService creates a feed Service with the configured page size.
func NewService(
	posts repositories.PostRepository,
	groups repositories.GroupRepository,
	users repositories.UserRepository,
	follows repositories.FollowRepository,
	size int,
) *Service {
	return &Service{
		posts:   posts,
		groups:  groups,
		users:   users,
		follows: follows,
		size:    size,
	}
}

// Global returns the requested page of all posts, newest first.
func (s *Service) Global(page int) (*Page, error) {
	total, err := s.posts.CountPosts()
	if err != nil {
		return nil, err
	}
	return s.page(total, page, s.posts.ListPosts)
}

// ByGroup returns the group with the given slug and the requested page of
// its posts. Returns repositories.ErrNotFound for an unknown slug.
func (s *Service) ByGroup(slug string, page int) (*models.Group, *Page, error) {
	group, err := s.groups.GetGroupBySlug(slug)
	if err != nil {
		return nil, nil, err
	}
	total, err := s.posts.CountPostsByGroup(group.ID)
	if err != nil {
		return nil, nil, err
	}
	pg, err := s.page(total, page, func(limit, offset int) ([]models.Post, error) {
		return s.posts.ListPostsByGroup(group.ID, limit, offset)
	})
	return group, pg, err
}

// ByAuthor returns the author with the given username and the requested
// page of their posts. Returns repositories.ErrNotFound for an unknown
// username.
func (s *Service) ByAuthor(username string, page int) (*models.User, *Page, error) {
	author, err := s.users.GetUserByUsername(username)
	if err != nil {
		return nil, nil, err
	}
	total, err := s.posts.CountPostsByAuthor(author.ID)
	if err != nil {
		return nil, nil, err
	}
	pg, err := s.page(total, page, func(limit, offset int) ([]models.Post, error) {
		return s.posts.ListPostsByAuthor(author.ID, limit, offset)
	})
	return author, pg, err
}

// Following returns the requested page of posts whose author the viewer
// follows. A viewer following nobody gets an empty first page.
func (s *Service) Following(viewerID uint, page int) (*Page, error) {
	authorIDs, err := s.follows.GetFollowingIDs(viewerID)
	if err != nil {
		return nil, err
	}
	if len(authorIDs) == 0 {
		return s.page(0, page, func(int, int) ([]models.Post, error) { return nil, nil })
	}
	total, err := s.posts.CountPostsByAuthors(authorIDs)
	if err != nil {
		return nil, err
	}
	return s.page(total, page, func(limit, offset int) ([]models.Post, error) {
		return s.posts.ListPostsByAuthors(authorIDs, limit, offset)
	})
}

// page clamps the page number into the valid range and fetches the slice.
// An empty feed still yields a single empty page so callers never see an
// out-of-range error.
func (s *Service) page(total int64, page int, fetch func(limit, offset int) ([]models.Post, error)) (*Page, error) {
	totalPages := int((total + int64(s.size) - 1) / int64(s.size))
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	posts, err := fetch(s.size, (page-1)*s.size)
	if err != nil {
		return nil, err
	}
	return &Page{
		Posts:       posts,
		Number:      page,
		Size:        s.size,
		TotalItems:  total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}, nil
}
