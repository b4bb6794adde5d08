package provider

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Image is an image file read and encoded for inlining into a request.
type Image struct {
	MIMEType string
	Base64   string
}

// DataURL returns the image as a data: URL.
func (i Image) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + i.Base64
}

// MIMEType derives an image MIME type from the file extension. Unknown
// extensions default to image/png.
func MIMEType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

// EncodeImage reads the file at path and base64-encodes its raw bytes.
func EncodeImage(path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("reading image: %w", err)
	}
	return Image{
		MIMEType: MIMEType(path),
		Base64:   base64.StdEncoding.EncodeToString(data),
	}, nil
}
