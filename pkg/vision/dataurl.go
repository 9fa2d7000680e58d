package vision

import (
	"encoding/base64"
	"errors"
	"strings"
)

// DefaultMIMEType is assumed when a data URL does not declare one.
const DefaultMIMEType = "image/jpeg"

var ErrInvalidImage = errors.New("invalid image data")

// Image is a decoded inline image.
type Image struct {
	Data     []byte
	MIMEType string
}

// Extension maps the MIME type to a file extension for storage keys.
func (i Image) Extension() string {
	switch i.MIMEType {
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	case "image/heic":
		return "heic"
	default:
		return "jpg"
	}
}

// IsDataURL reports whether raw looks like a base64 data URL.
func IsDataURL(raw string) bool {
	return strings.HasPrefix(raw, "data:") && strings.Contains(raw, ";base64,")
}

// DecodeDataURL strips the "data:<mime>;base64," prefix and decodes the payload.
// Input without a prefix separator is rejected.
func DecodeDataURL(raw string) (Image, error) {
	header, payload, ok := strings.Cut(strings.TrimSpace(raw), ",")
	if !ok || payload == "" {
		return Image{}, ErrInvalidImage
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return Image{}, ErrInvalidImage
		}
	}
	if len(data) == 0 {
		return Image{}, ErrInvalidImage
	}

	return Image{Data: data, MIMEType: mimeFromHeader(header)}, nil
}

func mimeFromHeader(header string) string {
	header = strings.TrimPrefix(header, "data:")
	mime, _, _ := strings.Cut(header, ";")
	mime = strings.ToLower(strings.TrimSpace(mime))
	if !strings.HasPrefix(mime, "image/") {
		return DefaultMIMEType
	}
	return mime
}
