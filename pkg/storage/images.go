// Package storage is the blob store for uploaded post images. Posts keep
// only the relative path it returns; serving the files is someone else's
// job.
package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxImageSize caps uploads at 10 MB.
	MaxImageSize = 10 << 20

	imageSubdir = "posts"
)

// ImageStore writes uploaded images under a base directory.
type ImageStore struct {
	dir string
}

// NewImageStore creates an ImageStore rooted at dir.
func NewImageStore(dir string) *ImageStore {
	return &ImageStore{dir: dir}
}

// Save stores an uploaded image and returns its relative path, e.g.
// "posts/20260831-<uuid>.png".
func (s *ImageStore) Save(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > MaxImageSize {
		return "", fmt.Errorf("file size exceeds maximum limit of %d MB", MaxImageSize/(1<<20))
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !isValidImageType(ext) {
		return "", fmt.Errorf("invalid file type: %s", ext)
	}

	if err := os.MkdirAll(filepath.Join(s.dir, imageSubdir), 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %v", err)
	}

	filename := fmt.Sprintf("%s-%s%s",
		time.Now().Format("20060102"),
		uuid.New().String(),
		ext,
	)
	dst, err := os.Create(filepath.Join(s.dir, imageSubdir, filename))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %v", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("failed to save file: %v", err)
	}

	return filepath.ToSlash(filepath.Join(imageSubdir, filename)), nil
}

// Delete removes a previously stored image. A missing file is not an
// error.
func (s *ImageStore) Delete(relPath string) error {
	path := filepath.Join(s.dir, filepath.FromSlash(relPath))
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return os.Remove(path)
}

func isValidImageType(ext string) bool {
	validTypes := map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".gif":  true,
	}
	return validTypes[ext]
}
