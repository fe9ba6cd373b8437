package storage

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"net/http"
	"strings"

	"socialgraph/internal/models"

	_ "golang.org/x/image/webp" // Register WebP decoder
)

// DecodeBase64Image accepts a data URL ("data:image/png;base64,...") or raw
// standard base64 and returns the bytes.
func DecodeBase64Image(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		comma := strings.IndexByte(encoded, ',')
		if comma < 0 {
			return nil, models.NewInvalidOperationError("Invalid image data URL")
		}
		encoded = encoded[comma+1:]
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, models.NewInvalidOperationError("Invalid base64 image")
	}
	return data, nil
}

// ValidateImage checks that data decodes as a jpeg, png, gif or webp image
// no larger than maxBytes, and returns its MIME type.
func ValidateImage(data []byte, maxBytes int64) (string, error) {
	if len(data) == 0 {
		return "", models.NewInvalidOperationError("Image is empty")
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", models.NewInvalidOperationError(fmt.Sprintf("Image too large (max %dMB)", maxBytes/(1024*1024)))
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", models.NewInvalidOperationError("Invalid image file")
	}
	mimeType := formatToMime(format)
	if mimeType == "" {
		return "", models.NewInvalidOperationError("Unsupported image format")
	}
	return mimeType, nil
}

func formatToMime(format string) string {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	}
	return ""
}

// contentTypeAndExt sniffs data for uploads that skipped ValidateImage.
func contentTypeAndExt(data []byte) (string, string) {
	contentType := http.DetectContentType(data)
	switch contentType {
	case "image/jpeg":
		return contentType, ".jpg"
	case "image/png":
		return contentType, ".png"
	case "image/gif":
		return contentType, ".gif"
	case "image/webp":
		return contentType, ".webp"
	}
	return "application/octet-stream", ".bin"
}
