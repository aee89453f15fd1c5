package infrastructure

import "github.com/shahadul878/planet-2.0/pkg/e"

// GetExtensionFromMIME returns the file extension for an image MIME type.
// Supports jpeg, jpg, png, webp and gif. Returns e.ErrUnsupportedMediaType otherwise.
func GetExtensionFromMIME(mime string) (string, error) {
	switch mime {
	case "image/jpeg", "image/jpg":
		return "jpg", nil
	case "image/png":
		return "png", nil
	case "image/webp":
		return "webp", nil
	case "image/gif":
		return "gif", nil
	default:
		return "bin", e.ErrUnsupportedMediaType
	}
}
