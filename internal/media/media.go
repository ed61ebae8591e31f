package media

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var ErrNotImage = errors.New("payload is not an image")

// Store persists uploaded bytes under key and returns the public reference.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// rasterTypes are the formats served back as profile pictures. Vector and
// markup formats such as SVG can carry script and are refused.
var rasterTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// DetectImage sniffs data and returns its MIME type and canonical extension,
// or ErrNotImage.
func DetectImage(data []byte) (string, string, error) {
	if len(data) == 0 {
		return "", "", ErrNotImage
	}

	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), rasterTypes...) {
		return "", "", ErrNotImage
	}
	return mt.String(), mt.Extension(), nil
}

// ObjectKey builds "<folder>/<uuid>_<name>". The client filename is reduced
// to its base name; the sniffed extension replaces whatever it claimed.
func ObjectKey(folder, filename, ext string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	base = sanitize(base)
	if base == "" {
		base = "upload"
	}
	return fmt.Sprintf("%s/%s_%s%s", folder, uuid.NewString(), base, ext)
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteRune('_')
		}
		if b.Len() >= 64 {
			break
		}
	}
	return strings.Trim(b.String(), "_")
}
