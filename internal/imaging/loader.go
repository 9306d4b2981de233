package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// DefaultFormats lists the decoder format names accepted by a zero Decoder.
var DefaultFormats = []string{"jpeg", "png", "gif", "webp", "bmp", "tiff"}

// Decoder turns raw upload bytes into decoded images.
//
// Formats restricts which registered decoders are accepted. An image in a
// format that Go can decode but that is not listed yields an
// UnsupportedFormatError rather than a DecodeError, so callers can tell
// "not an image" apart from "an image we refuse".
//
// A Decoder holds no mutable state and is safe for concurrent use.
type Decoder struct {
	Formats []string
}

// Decode reads an image from data.
//
// Parameters:
//   - data: The encoded image bytes (JPEG, PNG, GIF, WebP, BMP or TIFF).
//   - name: Label used in error messages. May be empty.
//
// Returns:
//   - image.Image: The decoded image in whatever concrete type the decoder
//     produced (*image.YCbCr, *image.NRGBA, *image.Gray16, ...).
//   - string: The format name reported by the decoder.
//   - error: *DecodeError if the bytes are not a readable image,
//     *UnsupportedFormatError if the format is not accepted or the image has
//     no pixels.
func (d Decoder) Decode(data []byte, name string) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", &DecodeError{Name: name, Err: errors.New("empty input")}
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, format, &DecodeError{Name: name, Err: err}
	}

	if !d.accepts(format) {
		return nil, format, &UnsupportedFormatError{Name: name, Format: format, Reason: "format not accepted"}
	}

	if img.Bounds().Empty() {
		return nil, format, &UnsupportedFormatError{Name: name, Format: format, Reason: "image has no pixels"}
	}

	return img, format, nil
}

func (d Decoder) accepts(format string) bool {
	formats := d.Formats
	if len(formats) == 0 {
		formats = DefaultFormats
	}
	for _, f := range formats {
		if f == format {
			return true
		}
	}
	return false
}

// Upload is a raw image file read from disk, ready for decoding.
type Upload struct {
	// Name is the base name of the source file.
	Name string

	// Path is the path the upload was read from.
	Path string

	// Data holds the undecoded file contents.
	Data []byte
}

// ReadUpload reads an image file from disk without decoding it.
//
// Decoding is deferred so a batch can hand raw bytes to its workers and keep
// decode failures isolated per file.
func ReadUpload(path string) (*Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return &Upload{
		Name: filepath.Base(path),
		Path: path,
		Data: data,
	}, nil
}

// ImageInfo contains metadata about an encoded image.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the decoder-reported format: "jpeg", "png", "gif", "webp", "bmp" or "tiff".
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// ColorMode describes the channel layout: "rgb", "rgba", "gray", "cmyk" or "paletted".
	ColorMode string `json:"color_mode"`

	// HasAlpha indicates whether the image has an alpha (transparency) channel.
	HasAlpha bool `json:"has_alpha"`

	// SizeBytes is the size of the encoded image in bytes.
	SizeBytes int64 `json:"size_bytes"`
}

// Inspect decodes data and reports its dimensions, format and color layout.
//
// Color depth and mode are derived from the Go image type:
//   - *image.RGBA64, *image.NRGBA64, *image.Gray16 -> "16-bit"
//   - *image.Gray, *image.Gray16 -> "gray"
//   - *image.RGBA, *image.NRGBA (and 16-bit variants) -> "rgba" with
//     HasAlpha when any pixel is translucent, otherwise "rgb"
//   - *image.CMYK -> "cmyk", *image.Paletted -> "paletted"
//   - All other types (e.g. *image.YCbCr) -> "rgb", "8-bit"
func (d Decoder) Inspect(data []byte, name string) (*ImageInfo, error) {
	img, format, err := d.Decode(data, name)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	info := &ImageInfo{
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		Format:     format,
		ColorDepth: "8-bit",
		ColorMode:  "rgb",
		SizeBytes:  int64(len(data)),
	}

	// Go's PNG decoder returns *image.RGBA for plain truecolor files, so the
	// pixels decide whether an RGBA image really carries transparency.
	switch m := img.(type) {
	case *image.RGBA, *image.NRGBA:
		if !isOpaque(m) {
			info.ColorMode = "rgba"
			info.HasAlpha = true
		}
	case *image.RGBA64, *image.NRGBA64:
		info.ColorDepth = "16-bit"
		if !isOpaque(m) {
			info.ColorMode = "rgba"
			info.HasAlpha = true
		}
	case *image.Gray:
		info.ColorMode = "gray"
	case *image.Gray16:
		info.ColorMode = "gray"
		info.ColorDepth = "16-bit"
	case *image.CMYK:
		info.ColorMode = "cmyk"
	case *image.Paletted:
		info.ColorMode = "paletted"
		info.HasAlpha = !m.Opaque()
	}

	return info, nil
}

func isOpaque(img image.Image) bool {
	o, ok := img.(interface{ Opaque() bool })
	return ok && o.Opaque()
}
