// Package storage keeps menu images.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const MaxImageSize = 5 << 20

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

// ErrInvalidImage marks uploads rejected for their name or size.
var ErrInvalidImage = errors.New("invalid image")

// ImageStore saves images and returns the URL clients load them from.
type ImageStore interface {
	Upload(ctx context.Context, filename string, size int64, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

// LocalImageStore writes images under root and serves them from baseURL.
type LocalImageStore struct {
	root    string
	baseURL string
}

func NewLocalImageStore(root, baseURL string) *LocalImageStore {
	return &LocalImageStore{
		root:    filepath.Clean(root),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *LocalImageStore) Root() string {
	return s.root
}

// CheckImage validates the name and size of an upload before it is read.
func CheckImage(filename string, size int64) error {
	extension := strings.ToLower(filepath.Ext(filename))
	if extension == "" {
		return fmt.Errorf("%w: image file extension is required", ErrInvalidImage)
	}
	if _, ok := allowedExtensions[extension]; !ok {
		return fmt.Errorf("%w: unsupported image type %s", ErrInvalidImage, extension)
	}
	if size > MaxImageSize {
		return fmt.Errorf("%w: image file too large (max 5MB)", ErrInvalidImage)
	}
	return nil
}

// Upload stores r under a random name keeping the original extension.
func (s *LocalImageStore) Upload(ctx context.Context, filename string, size int64, r io.Reader) (string, error) {
	if err := CheckImage(filename, size); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	fullPath := filepath.Join(s.root, name)

	out, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}
	// One byte past the limit tells a lying Content-Length from a real file.
	written, err := io.Copy(out, io.LimitReader(r, MaxImageSize+1))
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && written > MaxImageSize {
		err = fmt.Errorf("%w: image file too large (max 5MB)", ErrInvalidImage)
	}
	if err != nil {
		os.Remove(fullPath)
		return "", err
	}

	return s.baseURL + "/" + name, nil
}

// Delete removes the file behind url. Unknown files are not an error, but
// anything resolving outside root is refused.
func (s *LocalImageStore) Delete(_ context.Context, url string) error {
	trimmed := strings.TrimSpace(url)
	if trimmed == "" {
		return nil
	}
	if !strings.HasPrefix(trimmed, s.baseURL+"/") {
		return fmt.Errorf("refusing to delete non-upload path: %s", url)
	}

	rel := path.Clean("/" + strings.TrimPrefix(trimmed, s.baseURL+"/"))
	target := filepath.Clean(filepath.Join(s.root, filepath.FromSlash(rel)))
	if target == s.root || !strings.HasPrefix(target, s.root+string(os.PathSeparator)) {
		return fmt.Errorf("refusing to delete path outside upload root: %s", url)
	}

	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
