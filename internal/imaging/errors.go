package imaging

import "fmt"

// DecodeError reports input bytes that could not be read as an image.
//
// It is a per-file failure: batch callers record it against the offending
// upload and keep processing the rest.
type DecodeError struct {
	// Name identifies the upload (file name or index label). May be empty.
	Name string

	// Err is the underlying decoder error.
	Err error
}

func (e *DecodeError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("failed to decode image: %v", e.Err)
	}
	return fmt.Sprintf("failed to decode image %q: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// UnsupportedFormatError reports an image that decoded (or was recognized) but
// cannot be turned into 3-channel 8-bit color by this package.
type UnsupportedFormatError struct {
	Name   string
	Format string
	Reason string
}

func (e *UnsupportedFormatError) Error() string {
	msg := "unsupported image"
	if e.Format != "" {
		msg = fmt.Sprintf("unsupported image format %q", e.Format)
	}
	if e.Name != "" {
		msg += fmt.Sprintf(" (%s)", e.Name)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}
