package provider

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMIMEType(t *testing.T) {
	tests := map[string]string{
		"scan.png":      "image/png",
		"scan.PNG":      "image/png",
		"photo.jpg":     "image/jpeg",
		"photo.JPEG":    "image/jpeg",
		"frame.webp":    "image/webp",
		"slice.tiff":    "image/png",
		"no-extension":  "image/png",
		"dir.v2/a.jpeg": "image/jpeg",
	}
	for path, want := range tests {
		if got := MIMEType(path); got != want {
			t.Errorf("MIMEType(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestEncodeImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "red.jpg")
	raw := []byte{0xff, 0xd8, 0xff, 0x00, 0x01}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	img, err := EncodeImage(path)
	if err != nil {
		t.Fatalf("EncodeImage: %v", err)
	}
	if img.MIMEType != "image/jpeg" {
		t.Errorf("mime = %q", img.MIMEType)
	}
	decoded, err := base64.StdEncoding.DecodeString(img.Base64)
	if err != nil || string(decoded) != string(raw) {
		t.Errorf("base64 payload does not round-trip the file bytes")
	}
	if !strings.HasPrefix(img.DataURL(), "data:image/jpeg;base64,") {
		t.Errorf("data url = %q", img.DataURL())
	}
}

func TestEncodeImage_Missing(t *testing.T) {
	if _, err := EncodeImage(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}
