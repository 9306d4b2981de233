package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// createInMemoryImage creates a solid-color RGBA image.
func createInMemoryImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// encodeTestImage encodes img in the named format and returns the bytes.
func encodeTestImage(t *testing.T, img image.Image, format string) []byte {
	t.Helper()
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		t.Fatalf("unknown test format %s", format)
	}
	if err != nil {
		t.Fatalf("failed to encode %s: %v", format, err)
	}
	return buf.Bytes()
}

// createTestImage writes a PNG test image and returns its path.
// The file lives in a per-test temp directory.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test-image.png")
	if err := os.WriteFile(path, encodeTestImage(t, createInMemoryImage(width, height, c), "png"), 0o644); err != nil {
		t.Fatalf("failed to write test image: %v", err)
	}
	return path
}

func TestDecoder_Decode(t *testing.T) {
	img := createInMemoryImage(40, 30, color.RGBA{255, 0, 0, 255})

	for _, format := range []string{"png", "jpeg", "gif"} {
		t.Run(format, func(t *testing.T) {
			decoded, got, err := Decoder{}.Decode(encodeTestImage(t, img, format), "upload")
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if got != format {
				t.Errorf("format: got %s, want %s", got, format)
			}
			b := decoded.Bounds()
			if b.Dx() != 40 || b.Dy() != 30 {
				t.Errorf("dimensions: got %dx%d, want 40x30", b.Dx(), b.Dy())
			}
		})
	}
}

func TestDecoder_Decode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("not an image")},
		{"truncated png", encodeTestImage(t, createInMemoryImage(20, 20, color.White), "png")[:40]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decoder{}.Decode(tt.data, "bad.png")
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("error type: got %T (%v), want *DecodeError", err, err)
			}
			if decodeErr.Name != "bad.png" {
				t.Errorf("Name: got %q, want bad.png", decodeErr.Name)
			}
		})
	}
}

func TestDecoder_Decode_FormatNotAccepted(t *testing.T) {
	d := Decoder{Formats: []string{"jpeg", "png"}}
	data := encodeTestImage(t, createInMemoryImage(10, 10, color.Black), "gif")

	_, format, err := d.Decode(data, "anim.gif")

	var unsupported *UnsupportedFormatError
	if !errors.As(err, &unsupported) {
		t.Fatalf("error type: got %T, want *UnsupportedFormatError", err)
	}
	if format != "gif" || unsupported.Format != "gif" {
		t.Errorf("format: got %s / %s, want gif", format, unsupported.Format)
	}
}

func TestDecoder_Inspect(t *testing.T) {
	tests := []struct {
		name      string
		img       image.Image
		format    string
		mode      string
		depth     string
		wantAlpha bool
	}{
		{"opaque png", createInMemoryImage(20, 10, color.RGBA{1, 2, 3, 255}), "png", "rgb", "8-bit", false},
		{"translucent png", createInMemoryImage(20, 10, color.NRGBA{200, 100, 50, 128}), "png", "rgba", "8-bit", true},
		{"transparent 16-bit png", image.NewRGBA64(image.Rect(0, 0, 20, 10)), "png", "rgba", "16-bit", true},
		{"jpeg", createInMemoryImage(20, 10, color.RGBA{1, 2, 3, 255}), "jpeg", "rgb", "8-bit", false},
		{"gray png", image.NewGray(image.Rect(0, 0, 20, 10)), "png", "gray", "8-bit", false},
		{"gray16 png", image.NewGray16(image.Rect(0, 0, 20, 10)), "png", "gray", "16-bit", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := encodeTestImage(t, tt.img, tt.format)
			info, err := Decoder{}.Inspect(data, tt.name)
			if err != nil {
				t.Fatalf("Inspect failed: %v", err)
			}
			if info.Width != 20 || info.Height != 10 {
				t.Errorf("dimensions: got %dx%d, want 20x10", info.Width, info.Height)
			}
			if info.Format != tt.format {
				t.Errorf("Format: got %s, want %s", info.Format, tt.format)
			}
			if info.ColorMode != tt.mode {
				t.Errorf("ColorMode: got %s, want %s", info.ColorMode, tt.mode)
			}
			if info.ColorDepth != tt.depth {
				t.Errorf("ColorDepth: got %s, want %s", info.ColorDepth, tt.depth)
			}
			if info.HasAlpha != tt.wantAlpha {
				t.Errorf("HasAlpha: got %v, want %v", info.HasAlpha, tt.wantAlpha)
			}
			if info.SizeBytes != int64(len(data)) {
				t.Errorf("SizeBytes: got %d, want %d", info.SizeBytes, len(data))
			}
		})
	}
}

func TestReadUpload(t *testing.T) {
	path := createTestImage(t, 30, 20, color.RGBA{0, 255, 0, 255})

	up, err := ReadUpload(path)
	if err != nil {
		t.Fatalf("ReadUpload failed: %v", err)
	}
	if up.Name != "test-image.png" {
		t.Errorf("Name: got %s, want test-image.png", up.Name)
	}
	if up.Path != path {
		t.Errorf("Path: got %s, want %s", up.Path, path)
	}
	if _, _, err := (Decoder{}).Decode(up.Data, up.Name); err != nil {
		t.Errorf("upload bytes do not decode: %v", err)
	}
}

func TestReadUpload_NonExistent(t *testing.T) {
	_, err := ReadUpload("/nonexistent/path/to/image.png")
	if err == nil {
		t.Error("ReadUpload should fail for non-existent file")
	}
}
