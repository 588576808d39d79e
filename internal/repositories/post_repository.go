package repositories

import (
	"errors"

	"github.com/pulseapp/pulse-server/internal/models"
	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations. All list
// methods return posts newest first (pub_date, then id, descending) so
// feeds are stable across requests.
type PostRepository interface {
	CreatePost(post *models.Post) error
	GetPostByID(id uint) (*models.Post, error)
	UpdatePost(post *models.Post) error
	CountPosts() (int64, error)
	ListPosts(limit, offset int) ([]models.Post, error)
	CountPostsByGroup(groupID uint) (int64, error)
	ListPostsByGroup(groupID uint, limit, offset int) ([]models.Post, error)
	CountPostsByAuthor(authorID uint) (int64, error)
	ListPostsByAuthor(authorID uint, limit, offset int) ([]models.Post, error)
	CountPostsByAuthors(authorIDs []uint) (int64, error)
	ListPostsByAuthors(authorIDs []uint, limit, offset int) ([]models.Post, error)
}

// PostgresPostRepository implements PostRepository for PostgreSQL
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

func (r *PostgresPostRepository) CreatePost(post *models.Post) error {
	return r.db.Create(post).Error
}

func (r *PostgresPostRepository) GetPostByID(id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.Preload("Author").Preload("Group").First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

// UpdatePost writes the mutable fields of an existing post. PubDate and
// AuthorID stay untouched. Select forces zero values through so clearing
// the group or image persists.
func (r *PostgresPostRepository) UpdatePost(post *models.Post) error {
	return r.db.Model(&models.Post{ID: post.ID}).
		Select("Text", "GroupID", "Image").
		Updates(post).Error
}

func (r *PostgresPostRepository) CountPosts() (int64, error) {
	var count int64
	err := r.db.Model(&models.Post{}).Count(&count).Error
	return count, err
}

func (r *PostgresPostRepository) ListPosts(limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	err := r.feed().Limit(limit).Offset(offset).Find(&posts).Error
	return posts, err
}

func (r *PostgresPostRepository) CountPostsByGroup(groupID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Post{}).Where("group_id = ?", groupID).Count(&count).Error
	return count, err
}

func (r *PostgresPostRepository) ListPostsByGroup(groupID uint, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	err := r.feed().Where("group_id = ?", groupID).Limit(limit).Offset(offset).Find(&posts).Error
	return posts, err
}

func (r *PostgresPostRepository) CountPostsByAuthor(authorID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Post{}).Where("author_id = ?", authorID).Count(&count).Error
	return count, err
}

func (r *PostgresPostRepository) ListPostsByAuthor(authorID uint, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	err := r.feed().Where("author_id = ?", authorID).Limit(limit).Offset(offset).Find(&posts).Error
	return posts, err
}

func (r *PostgresPostRepository) CountPostsByAuthors(authorIDs []uint) (int64, error) {
	if len(authorIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&models.Post{}).Where("author_id IN ?", authorIDs).Count(&count).Error
	return count, err
}

func (r *PostgresPostRepository) ListPostsByAuthors(authorIDs []uint, limit, offset int) ([]models.Post, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}
	var posts []models.Post
	err := r.feed().Where("author_id IN ?", authorIDs).Limit(limit).Offset(offset).Find(&posts).Error
	return posts, err
}

// feed applies the shared feed ordering and eager loads.
func (r *PostgresPostRepository) feed() *gorm.DB {
	return r.db.Preload("Author").Preload("Group").Order("pub_date DESC, id DESC")
}
