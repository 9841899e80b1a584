package upload

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedExtension = errors.New("only JPG, JPEG, PNG, GIF and BMP photos are supported")
	ErrScriptableContent    = errors.New("HTML, SVG and XML content is not allowed")
	ErrUnsupportedType      = errors.New("the file type is not supported")
	ErrEmptyFile            = errors.New("the uploaded file is empty")
	ErrTooLarge             = errors.New("the uploaded file is too large")
)

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
}

var allowedMime = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
}

// ValidateImageBySniff checks the file extension and the first bytes of the
// content against the photo formats the evidence pipeline can decode. It
// returns the detected MIME type.
func ValidateImageBySniff(filename string, head []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", ErrUnsupportedExtension
	}
	if len(head) == 0 {
		return "", ErrEmptyFile
	}

	detected := http.DetectContentType(head)

	// Scriptable types are blocked regardless of extension.
	if strings.HasPrefix(detected, "text/html") || strings.HasPrefix(detected, "application/xhtml") ||
		strings.HasPrefix(detected, "text/xml") || strings.HasPrefix(detected, "application/xml") ||
		detected == "image/svg+xml" {
		return "", ErrScriptableContent
	}

	if allowedMime[detected] {
		return detected, nil
	}
	return "", ErrUnsupportedType
}

// CheckSize rejects empty files and files above max bytes. max <= 0 disables
// the upper bound.
func CheckSize(size, max int64) error {
	if size <= 0 {
		return ErrEmptyFile
	}
	if max > 0 && size > max {
		return ErrTooLarge
	}
	return nil
}
