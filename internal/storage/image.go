package storage

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/sensemap/internal/apperr"
)

// MaxImageSize caps a single map image.
const MaxImageSize = 10 << 20 // 10 MB

// MimeToExt maps the accepted image content types to file extensions.
var MimeToExt = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// SaveImage validates data as an image and stores it under a fresh UUID name.
// ext may be empty, in which case it is sniffed from the content.
func SaveImage(p Provider, data []byte, ext string) (string, error) {
	if len(data) == 0 {
		return "", apperr.Invalidf("image is empty")
	}
	if len(data) > MaxImageSize {
		return "", apperr.Invalidf("image too large: %d bytes (max %d)", len(data), MaxImageSize)
	}
	ext = strings.ToLower(ext)
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	if ext == "" {
		ext = sniffExt(data)
	}
	if !allowedExt(ext) {
		return "", apperr.Invalidf("unsupported image type %q (allowed: png, jpg, gif, webp, svg)", ext)
	}
	if err := validateMagicBytes(data, ext); err != nil {
		return "", err
	}
	name := uuid.NewString() + ext
	if err := p.Write(name, data); err != nil {
		return "", err
	}
	return name, nil
}

func allowedExt(ext string) bool {
	for _, e := range MimeToExt {
		if e == ext {
			return true
		}
	}
	return false
}

func sniffExt(data []byte) string {
	if isSVG(data) {
		return ".svg"
	}
	return MimeToExt[strings.Split(http.DetectContentType(data), ";")[0]]
}

func isSVG(data []byte) bool {
	prefix := data
	if len(prefix) > 1024 {
		prefix = prefix[:1024]
	}
	return bytes.Contains(prefix, []byte("<svg"))
}

// validateMagicBytes verifies file content matches the declared extension.
func validateMagicBytes(data []byte, ext string) error {
	if ext == ".svg" {
		if !isSVG(data) {
			return apperr.Invalidf("content does not appear to be a valid SVG (missing <svg tag)")
		}
		return nil
	}
	detected := http.DetectContentType(data)
	if MimeToExt[strings.Split(detected, ";")[0]] != ext {
		return apperr.Invalid(fmt.Errorf("content does not match extension %s (detected: %s)", ext, detected))
	}
	return nil
}
