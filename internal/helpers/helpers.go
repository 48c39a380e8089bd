package helpers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const AvatarFolder = "avatars"

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

func StringTrim(s string) string {
	return strings.TrimSpace(s)
}

// IsBlank reports whether s is empty or only whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// AvatarFilename builds a collision-free blob key for an uploaded avatar.
// Only image extensions are accepted.
func AvatarFilename(userID, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !imageExtensions[ext] {
		return "", fmt.Errorf("unsupported image type %q", ext)
	}
	safeUser := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '.' {
			return '_'
		}
		return r
	}, userID)
	return fmt.Sprintf("%s_%s%s", safeUser, uuid.New().String(), ext), nil
}

// CanonicalPair orders two identities so an unordered pair has one stored form.
func CanonicalPair(a, b string) (low, high string) {
	if a < b {
		return a, b
	}
	return b, a
}
