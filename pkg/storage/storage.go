package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// avatarSize is the square edge avatars are normalized to.
const avatarSize = 200

// Storage is the local file store for task attachments and avatars.
type Storage struct {
	basePath    string
	maxFileSize int64
}

// NewStorage creates the store rooted at basePath.
func NewStorage(basePath string, maxFileSize int64) (*Storage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &Storage{
		basePath:    basePath,
		maxFileSize: maxFileSize,
	}, nil
}

// SaveAttachment stores a task attachment and returns its relative path.
func (s *Storage) SaveAttachment(file *multipart.FileHeader) (string, error) {
	return s.save(file, "tasks")
}

// SaveAvatar stores a profile image, normalized to a 200px square, and
// returns its relative path.
func (s *Storage) SaveAvatar(file *multipart.FileHeader) (string, error) {
	relPath, err := s.save(file, "avatars")
	if err != nil {
		return "", err
	}

	fullPath := filepath.Join(s.basePath, relPath)
	img, err := imaging.Open(fullPath)
	if err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("invalid image file: %w", err)
	}

	thumb := imaging.Fill(img, avatarSize, avatarSize, imaging.Center, imaging.Lanczos)
	if err := imaging.Save(thumb, fullPath); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to save avatar: %w", err)
	}

	return relPath, nil
}

// Delete removes a previously stored file. Missing files are not an error.
func (s *Storage) Delete(relPath string) error {
	if relPath == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.basePath, relPath))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Storage) save(file *multipart.FileHeader, category string) (string, error) {
	if file.Size > s.maxFileSize {
		return "", fmt.Errorf("file size exceeds maximum allowed size")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	fileName := uuid.New().String() + ext
	relPath := filepath.Join(category, fileName)
	fullPath := filepath.Join(s.basePath, relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create file directory: %w", err)
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return relPath, nil
}
