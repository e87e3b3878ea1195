// Package media asks for device permission and runs the camera or gallery picker.
package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mccedddy/EczApp/pkg/domain/image"
)

// ErrCancelled means the user backed out of the picker. It is a no-op outcome, not a failure.
var ErrCancelled = errors.New("capture cancelled")

// ErrPermissionDenied matches any *PermissionDeniedError via errors.Is.
var ErrPermissionDenied = errors.New("permission denied")

type PermissionDeniedError struct {
	Source image.Source
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("%s permission denied", e.Source)
}

func (e *PermissionDeniedError) Is(target error) bool {
	return target == ErrPermissionDenied
}

// Permissions prompts for access to the camera or the photo library.
type Permissions interface {
	Request(ctx context.Context, source image.Source) (bool, error)
}

// Picker launches the device UI for source. It returns ErrCancelled when the user backs out.
type Picker interface {
	Pick(ctx context.Context, source image.Source) (*image.Captured, error)
}

type Acquirer struct {
	permissions Permissions
	picker      Picker
	logger      *slog.Logger
}

func NewAcquirer(permissions Permissions, picker Picker, logger *slog.Logger) *Acquirer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Acquirer{
		permissions: permissions,
		picker:      picker,
		logger:      logger.With("component", "media"),
	}
}

func (a *Acquirer) CaptureFromDevice(ctx context.Context) (*image.Captured, error) {
	return a.acquire(ctx, image.SourceCamera)
}

func (a *Acquirer) PickFromLibrary(ctx context.Context) (*image.Captured, error) {
	return a.acquire(ctx, image.SourceLibrary)
}

func (a *Acquirer) acquire(ctx context.Context, source image.Source) (*image.Captured, error) {
	granted, err := a.permissions.Request(ctx, source)
	if err != nil {
		a.logger.Warn("Permission request failed", "source", source, "error", err)
		return nil, &PermissionDeniedError{Source: source}
	}
	if !granted {
		a.logger.Info("Permission not granted", "source", source)
		return nil, &PermissionDeniedError{Source: source}
	}

	img, err := a.picker.Pick(ctx, source)
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			a.logger.Info("Picker cancelled", "source", source)
			return nil, ErrCancelled
		}
		return nil, fmt.Errorf("pick from %s: %w", source, err)
	}
	// A picker that returns no asset is treated like a cancel.
	if img == nil || img.URI == "" {
		a.logger.Info("Picker returned no image", "source", source)
		return nil, ErrCancelled
	}

	a.logger.Debug("Image acquired", "source", source, "uri", img.URI)
	return img, nil
}
