package object

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidKey is returned when a storage key escapes the store root.
	ErrInvalidKey = errors.New("invalid storage key")
	// ErrNotFound is returned by Open when nothing is stored under the key.
	ErrNotFound = errors.New("object not found")
)

// Object describes a stored blob.
type Object struct {
	Key         string
	SizeBytes   int64
	ContentType string
}

// Store defines the contract for saving and retrieving exported artifacts.
type Store interface {
	Put(ctx context.Context, owner, fileName, contentType string, r io.Reader) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// NewKey builds "<hashed owner>/<uuid>_<file name>".
func NewKey(owner, fileName string) (string, error) {
	name, err := sanitizeName(fileName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	return path.Join(ownerDir(owner), uuid.NewString()+"_"+name), nil
}

// CleanKey rejects absolute keys and traversal.
func CleanKey(key string) (string, error) {
	clean := path.Clean(strings.TrimSpace(key))
	if clean == "." || strings.HasPrefix(clean, "..") || path.IsAbs(clean) {
		return "", ErrInvalidKey
	}
	return clean, nil
}

// Sniff returns contentType, or the detected type of the first 512 bytes when it is empty.
// The returned reader replays the sniffed bytes.
func Sniff(contentType string, r io.Reader) (string, io.Reader, error) {
	if contentType != "" {
		return contentType, r, nil
	}
	var head [512]byte
	n, err := io.ReadFull(r, head[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, fmt.Errorf("read sniff: %w", err)
	}
	return http.DetectContentType(head[:n]), io.MultiReader(bytes.NewReader(head[:n]), r), nil
}
