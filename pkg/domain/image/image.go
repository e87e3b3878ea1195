// Package image holds the captured photo handle and its encoders.
package image

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
)

// ContentType is the MIME type uploads are stored with.
const ContentType = "image/jpeg"

// ErrUnreadable means the underlying resource could not be read (revoked handle, I/O error).
var ErrUnreadable = errors.New("image resource unreadable")

type Source string

const (
	SourceCamera  Source = "camera"
	SourceLibrary Source = "library"
)

// Opener yields a fresh reader over the image bytes on every call.
type Opener func() (io.ReadCloser, error)

// Captured is a local handle to a photo produced by the device picker.
// It is never mutated; a retake produces a new value.
type Captured struct {
	URI    string
	Source Source
	open   Opener
}

func NewCaptured(uri string, source Source, open Opener) *Captured {
	return &Captured{URI: uri, Source: source, open: open}
}

// FromFile wraps a file on local disk.
func FromFile(path string, source Source) *Captured {
	return NewCaptured("file://"+path, source, func() (io.ReadCloser, error) {
		return os.Open(path)
	})
}

// ReadBlob materializes the raw bytes behind img.
func ReadBlob(img *Captured) ([]byte, error) {
	if img == nil || img.open == nil {
		return nil, fmt.Errorf("%w: no resource", ErrUnreadable)
	}
	rc, err := img.open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return data, nil
}

// Encode returns the standard base64 encoding of the image bytes.
// Calling it twice on the same image yields identical output.
func Encode(img *Captured) (string, error) {
	data, err := ReadBlob(img)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
