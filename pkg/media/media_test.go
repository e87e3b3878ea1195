package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mccedddy/EczApp/pkg/domain/image"
)

type recordingPicker struct {
	calls  []image.Source
	result *image.Captured
	err    error
}

func (p *recordingPicker) Pick(ctx context.Context, source image.Source) (*image.Captured, error) {
	p.calls = append(p.calls, source)
	return p.result, p.err
}

type failingPermissions struct{}

func (failingPermissions) Request(ctx context.Context, source image.Source) (bool, error) {
	return false, errors.New("prompt crashed")
}

func TestCaptureFromDevice_PermissionDenied(t *testing.T) {
	picker := &recordingPicker{}
	a := NewAcquirer(StaticPermissions{image.SourceLibrary: true}, picker, nil)

	img, err := a.CaptureFromDevice(context.Background())

	assert.Nil(t, img)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	var denied *PermissionDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, image.SourceCamera, denied.Source)
	assert.Empty(t, picker.calls, "picker must not run without permission")
}

func TestPickFromLibrary_PermissionPromptError(t *testing.T) {
	a := NewAcquirer(failingPermissions{}, &recordingPicker{}, nil)

	_, err := a.PickFromLibrary(context.Background())
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestPickFromLibrary_Cancelled(t *testing.T) {
	a := NewAcquirer(StaticPermissions{image.SourceLibrary: true}, &recordingPicker{err: ErrCancelled}, nil)

	img, err := a.PickFromLibrary(context.Background())
	assert.Nil(t, img)
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestPickFromLibrary_EmptyResultIsCancel(t *testing.T) {
	a := NewAcquirer(StaticPermissions{image.SourceLibrary: true}, &recordingPicker{}, nil)

	_, err := a.PickFromLibrary(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestCaptureFromDevice_Success(t *testing.T) {
	want := image.NewCaptured("file:///tmp/a.jpg", image.SourceCamera, nil)
	picker := &recordingPicker{result: want}
	a := NewAcquirer(StaticPermissions{image.SourceCamera: true}, picker, nil)

	img, err := a.CaptureFromDevice(context.Background())
	require.NoError(t, err)
	assert.Same(t, want, img)
	assert.Equal(t, []image.Source{image.SourceCamera}, picker.calls)
}

func TestFilePicker(t *testing.T) {
	ctx := context.Background()

	_, err := (&FilePicker{}).Pick(ctx, image.SourceCamera)
	assert.ErrorIs(t, err, ErrCancelled)

	_, err = (&FilePicker{Path: t.TempDir()}).Pick(ctx, image.SourceCamera)
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "rash.jpg")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	img, err := (&FilePicker{Path: path}).Pick(ctx, image.SourceLibrary)
	require.NoError(t, err)
	assert.Equal(t, image.SourceLibrary, img.Source)
}
