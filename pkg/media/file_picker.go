package media

import (
	"context"
	"fmt"
	"os"

	"github.com/mccedddy/EczApp/pkg/domain/image"
)

// StaticPermissions answers permission prompts from a fixed table.
type StaticPermissions map[image.Source]bool

func (p StaticPermissions) Request(ctx context.Context, source image.Source) (bool, error) {
	return p[source], nil
}

// FilePicker "picks" a file already on disk. An empty Path behaves like a cancelled picker.
type FilePicker struct {
	Path string
}

func (p *FilePicker) Pick(ctx context.Context, source image.Source) (*image.Captured, error) {
	if p.Path == "" {
		return nil, ErrCancelled
	}
	info, err := os.Stat(p.Path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", p.Path)
	}
	return image.FromFile(p.Path, source), nil
}
