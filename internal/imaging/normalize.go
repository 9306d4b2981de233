package imaging

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Normalize converts any decoded image into an opaque 8-bit RGB buffer.
//
// The result is always a fresh *image.RGBA with bounds starting at (0,0) and
// every alpha byte set to 255, so premultiplied and straight alpha coincide
// and downstream stages may treat the buffer as plain 3-channel color.
//
// # Channel Handling
//
//   - Alpha is dropped, not composited: each pixel keeps its un-premultiplied
//     color values.
//   - Grayscale is expanded to three equal channels.
//   - 16-bit images are reduced to 8 bits per channel.
//   - CMYK, YCbCr and paletted images are converted through their color model.
//
// The source image is never modified.
func Normalize(img image.Image) (*image.RGBA, error) {
	if img == nil {
		return nil, &UnsupportedFormatError{Reason: "nil image"}
	}
	if img.Bounds().Empty() {
		return nil, &UnsupportedFormatError{Reason: "image has no pixels"}
	}

	nrgba := imaging.Clone(img)
	for i := 3; i < len(nrgba.Pix); i += 4 {
		nrgba.Pix[i] = 0xff
	}

	return FromNRGBA(nrgba), nil
}

// FromNRGBA reinterprets an opaque *image.NRGBA as *image.RGBA without copying.
//
// The caller must guarantee every alpha byte is 255; for opaque pixels the
// premultiplied and straight encodings are byte-identical.
func FromNRGBA(img *image.NRGBA) *image.RGBA {
	return &image.RGBA{
		Pix:    img.Pix,
		Stride: img.Stride,
		Rect:   img.Rect,
	}
}

// EncodeJPEG encodes img as a baseline JPEG at the given quality (1-100).
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
