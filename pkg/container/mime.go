package container

import (
	"mime"
	"path/filepath"
	"strings"
)

// extensionTypes covers image extensions missing from the platform MIME
// tables.
var extensionTypes = map[string]string{
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".heic": "image/heic",
	".heif": "image/heif",
	".avif": "image/avif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
}

var editableTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/tiff",
	"image/webp",
}

// GuessMIME prefers an explicit content type and falls back to the
// filename extension. Empty means undetermined.
func GuessMIME(filename, contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType != "" && !strings.EqualFold(contentType, "application/octet-stream") {
		return contentType
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return ""
	}

	if t, ok := extensionTypes[ext]; ok {
		return t
	}

	t := mime.TypeByExtension(ext)
	if mediaType, _, err := mime.ParseMediaType(t); err == nil {
		return mediaType
	}

	return t
}

// SupportsEditing reports whether tag tables can be written for a MIME
// type.
func SupportsEditing(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if mimeType == "" {
		return false
	}

	for _, t := range editableTypes {
		if strings.HasPrefix(mimeType, t) {
			return true
		}
	}

	return false
}
