// Package imaging handles the edges of the enhancement pipeline: turning
// uploaded bytes into pixels and pixels back into JPEG bytes.
//
// Decoding accepts JPEG, PNG, GIF, WebP, BMP and TIFF. Every decoded image is
// normalized to an opaque *image.RGBA anchored at (0,0) before any enhancement
// stage sees it, whatever color model the file used.
//
// # Error Handling
//
// Two error types separate the failure modes a caller needs to report:
//   - DecodeError: the bytes are not a readable image (corrupt, truncated, empty)
//   - UnsupportedFormatError: the image was recognized but is refused
//     (format not accepted, zero-sized)
//
// Both carry the upload name so batch callers can attribute failures.
//
// # Thread Safety
//
// All functions are stateless. Decoder values hold only configuration and
// may be shared across goroutines.
package imaging
