package object

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

const maxNameLen = 120

var errInvalidName = errors.New("invalid file name")

// ownerDir maps a user id to a path-safe directory name.
func ownerDir(owner string) string {
	sum := sha256.Sum256([]byte(owner))
	return hex.EncodeToString(sum[:])
}

// sanitizeName flattens separators and rejects traversal. Long names keep their extension.
func sanitizeName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errInvalidName
	}
	s := strings.TrimSpace(name)
	s = strings.NewReplacer("/", "_", "\\", "_").Replace(s)
	if s == "" {
		return "", errInvalidName
	}
	if len(s) > maxNameLen {
		ext := ""
		if i := strings.LastIndexByte(s, '.'); i > 0 && len(s)-i <= 10 {
			ext = s[i:]
		}
		s = s[:maxNameLen-len(ext)] + ext
	}
	return s, nil
}
