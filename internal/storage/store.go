package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

var (
	ErrNotFound   = errors.New("object not found")
	ErrInvalidKey = errors.New("invalid object key")
)

// Object describes one stored blob.
type Object struct {
	Key     string    `json:"key"`
	Size    int64     `json:"size"`
	Updated time.Time `json:"updated"`
}

// Store is the blob store holding users' price CSV files. List is not
// recursive: only objects directly under prefix are returned.
type Store interface {
	List(ctx context.Context, prefix string) ([]Object, error)
	Upload(ctx context.Context, key string, r io.Reader) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Move(ctx context.Context, srcKey, dstKey string) error
}

// CleanKey validates a slash-separated key and returns it in canonical form.
// Absolute keys and keys escaping the root are rejected.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", ErrInvalidKey
		}
	}
	cleaned := path.Clean(key)
	if cleaned == "." {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

// Join builds a key from segments, e.g. Join(userID, ".trash", name).
func Join(parts ...string) string {
	return path.Join(parts...)
}
