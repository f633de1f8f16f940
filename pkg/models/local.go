package models

import (
	"context"
	"os"
	"path/filepath"

	"imagegrab/pkg/errors"
)

// LocalImage is an image file on disk.
type LocalImage struct {
	Path           string
	FallbackWidth  int
	FallbackHeight int

	cache imageCache
}

func (l *LocalImage) Extension() string { return filepath.Ext(l.Path) }

func (l *LocalImage) Name() string { return filepath.Base(l.Path) }

func (l *LocalImage) SourceURL() string { return l.Path }

func (l *LocalImage) Bytes(ctx context.Context) ([]byte, error) {
	return l.cache.bytes(ctx, l.read)
}

func (l *LocalImage) Dimensions(ctx context.Context) (int, int) {
	return l.cache.dimensions(ctx, l.read, l.FallbackWidth, l.FallbackHeight)
}

func (l *LocalImage) AspectRatio(ctx context.Context) AspectRatio {
	return NewAspectRatio(l.Dimensions(ctx))
}

func (l *LocalImage) Close() error {
	l.cache.reset()
	return nil
}

func (l *LocalImage) read(context.Context) ([]byte, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeIO, err, "failed to read image")
	}
	return data, nil
}

// LocalDirectory is the set of supported images found under Directory.
type LocalDirectory struct {
	Directory string
	Files     []*LocalImage
}

func (d *LocalDirectory) Images() []Image {
	out := make([]Image, 0, len(d.Files))
	for _, f := range d.Files {
		out = append(out, f)
	}
	return out
}
