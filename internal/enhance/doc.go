// Package enhance implements the listing photo enhancement pipelines.
//
// Two named variants are provided:
//
//   - "safe": ToneAdjuster (auto-contrast, color, contrast, brightness,
//     sharpness) followed by Resizer.
//   - "pro": LocalContrast (CLAHE on Lab lightness), GammaCorrector, then
//     Resizer.
//
// Stage order is fixed per variant and no stage is ever skipped. Resizer is
// always last so resampling sees the fully enhanced pixels.
//
// # Image Representation
//
// Every stage works on an opaque *image.RGBA whose bounds start at (0,0), as
// produced by imaging.Normalize. Alpha is always 255, so the RGBA buffer is
// plain 3-channel color in practice. Channel values are clamped to 0-255
// after every stage; overflow is never an error.
//
// # Determinism
//
// Enhancer.Enhance is a pure function of the input pixels, the variant and
// the Config. Row loops are split across goroutines, but each output pixel
// depends only on its inputs, so the result is byte-identical across runs.
//
// # Thread Safety
//
// An Enhancer is immutable after New and safe for concurrent use. The gamma
// lookup table is computed once in New and shared by every call.
package enhance
