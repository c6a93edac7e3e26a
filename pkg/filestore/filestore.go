package filestore

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"marketplace-service/pkg/config"

	"github.com/google/uuid"
)

// Store saves uploaded product images under a local directory and hands out
// their public URL paths.
type Store struct {
	dir        string
	publicPath string
}

// New creates a file store rooted at the configured upload directory,
// creating it if needed.
func New(cfg *config.UploadConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Store{dir: cfg.Dir, publicPath: strings.TrimSuffix(cfg.PublicPath, "/")}, nil
}

// Dir returns the directory files are stored under, for static serving.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes an uploaded file to disk under a unique name and returns its
// public path. A nil file header returns an empty path and no error.
func (s *Store) Save(file *multipart.FileHeader) (string, error) {
	if file == nil || file.Size == 0 {
		return "", nil
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	// Unique filename, keeping the original extension
	filename := uuid.New().String() + strings.ToLower(filepath.Ext(file.Filename))

	dst, err := os.Create(filepath.Join(s.dir, filename))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return s.publicPath + "/" + filename, nil
}

// Delete removes a previously stored file by its public path. Paths outside
// the store's public prefix are ignored. Deletion is best-effort.
func (s *Store) Delete(publicPath string) {
	prefix := s.publicPath + "/"
	if !strings.HasPrefix(publicPath, prefix) {
		return
	}
	filename := path.Base(strings.TrimPrefix(publicPath, prefix))
	_ = os.Remove(filepath.Join(s.dir, filename))
}
