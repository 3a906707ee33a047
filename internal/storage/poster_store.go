// Package storage manages the lifecycle of uploaded poster files on disk.
package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/movie-vault-be/internal/apperr"
)

// MaxPosterSize is the upload size cap in bytes.
const MaxPosterSize = 5 << 20 // 5 MiB

// publicPrefix is the URL path segment under which stored files are
// served; stored paths are expressed relative to it.
const publicPrefix = "uploads"

var allowedTypes = map[string]bool{
	"jpeg": true,
	"jpg":  true,
	"png":  true,
	"gif":  true,
}

// PosterStore writes, replaces and removes poster files under a fixed
// storage root. All returned paths are relative ("uploads/<name>") and
// use forward slashes regardless of platform.
type PosterStore struct {
	root string
}

// NewPosterStore creates a PosterStore rooted at dir, creating it if needed.
func NewPosterStore(dir string) (*PosterStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: creating uploads directory: %v", apperr.ErrStorage, err)
	}
	return &PosterStore{root: dir}, nil
}

// Dir returns the storage root, for static file serving and the sweeper.
func (p *PosterStore) Dir() string {
	return p.root
}

// Store validates and persists an uploaded image, returning its stored
// path. The extension and the declared media type must both be on the
// allow-list, and declaredSize must not exceed MaxPosterSize. The size
// is re-checked while copying so a lying Content-Length cannot sneak an
// oversized body onto disk.
func (p *PosterStore) Store(r io.Reader, originalName, mediaType string, declaredSize int64) (string, error) {
	if !allowedExt(originalName) || !allowedMediaType(mediaType) {
		return "", fmt.Errorf("%w: only jpeg, jpg, png and gif images are allowed", apperr.ErrUnsupportedMedia)
	}
	if declaredSize > MaxPosterSize {
		return "", fmt.Errorf("%w: poster exceeds %d bytes", apperr.ErrPayloadTooLarge, MaxPosterSize)
	}

	name := fmt.Sprintf("%d-%s", time.Now().UnixNano(), sanitizeName(originalName))
	dst := filepath.Join(p.root, name)

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("%w: creating poster file: %v", apperr.ErrStorage, err)
	}

	written, err := io.Copy(f, io.LimitReader(r, MaxPosterSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst) // Clean up partial file
		return "", fmt.Errorf("%w: writing poster file: %v", apperr.ErrStorage, err)
	}
	if written > MaxPosterSize {
		os.Remove(dst)
		return "", fmt.Errorf("%w: poster exceeds %d bytes", apperr.ErrPayloadTooLarge, MaxPosterSize)
	}

	return publicPrefix + "/" + name, nil
}

// Replace stores the new poster first and then removes the old one, so a
// failure never leaves the record without a backing file. A missing old
// file is a no-op: the store's job here is to converge disk and record.
func (p *PosterStore) Replace(oldPath string, r io.Reader, originalName, mediaType string, declaredSize int64) (string, error) {
	newPath, err := p.Store(r, originalName, mediaType, declaredSize)
	if err != nil {
		return "", err
	}
	if err := p.Remove(oldPath); err != nil {
		// The new file is already in place; a leaked old file is
		// recoverable by the sweeper.
		log.Warn().Err(err).Str("path", oldPath).Msg("Failed to remove replaced poster")
	}
	return newPath, nil
}

// Remove deletes the file backing storedPath. Removing an already-absent
// file is not an error.
func (p *PosterStore) Remove(storedPath string) error {
	if storedPath == "" {
		return nil
	}
	full := filepath.Join(p.root, path.Base(strings.ReplaceAll(storedPath, "\\", "/")))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: removing poster file: %v", apperr.ErrStorage, err)
	}
	return nil
}

// PublicURL turns a stored path into an absolute URL under baseURL.
// Stored paths may carry platform-specific separators; they are
// normalized to forward slashes before joining.
func PublicURL(baseURL, storedPath string) string {
	normalized := strings.ReplaceAll(storedPath, "\\", "/")
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(normalized, "/")
}

func allowedExt(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	return allowedTypes[ext]
}

func allowedMediaType(mediaType string) bool {
	mt := strings.ToLower(mediaType)
	for t := range allowedTypes {
		if strings.Contains(mt, t) {
			return true
		}
	}
	return false
}

// sanitizeName strips any directory components from a client-supplied
// filename. Backslashes count as separators too, since clients on any
// platform may send them.
func sanitizeName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "poster"
	}
	return base
}
