package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
)

// MaxImageBytes caps decoded recipe images
const MaxImageBytes = 10 << 20

var (
	ErrInvalidImage  = errors.New("invalid image")
	ErrImageTooLarge = errors.New("image too large")
)

// ImageStore persists recipe images under opaque keys
type ImageStore interface {
	Save(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	// URL is the public address clients fetch key from
	URL(key string) string
}

// Image is a decoded upload
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

var allowedTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// DecodeDataURI parses "data:image/png;base64,<payload>".
// The content type is sniffed from the bytes, not trusted from the header.
func DecodeDataURI(uri string) (*Image, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: expected a base64 data URI", ErrInvalidImage)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes {
		return nil, ErrImageTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported type %s", ErrInvalidImage, contentType)
	}
	return &Image{Data: data, ContentType: contentType, Ext: ext}, nil
}

// NewKey returns a fresh object key such as recipes/<uuid>.png
func NewKey(prefix, ext string) string {
	return path.Join(prefix, uuid.New().String()+"."+ext)
}
