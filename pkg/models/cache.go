package models

import (
	"context"
	"sync"

	"imagegrab/pkg/imageinfo"
)

// imageCache lazily holds the bytes and decoded size of one image. Failed
// loads are not cached so a later call retries.
type imageCache struct {
	mu      sync.Mutex
	data    []byte
	width   int
	height  int
	decoded bool
}

func (c *imageCache) bytes(ctx context.Context, load func(context.Context) ([]byte, error)) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytesLocked(ctx, load)
}

func (c *imageCache) bytesLocked(ctx context.Context, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if c.data != nil {
		return c.data, nil
	}
	data, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.data = data
	return data, nil
}

// dimensions returns the decoded size, or the fallback when the bytes cannot
// be loaded or decoded.
func (c *imageCache) dimensions(ctx context.Context, load func(context.Context) ([]byte, error), fallbackW, fallbackH int) (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.decoded {
		return c.width, c.height
	}
	data, err := c.bytesLocked(ctx, load)
	if err != nil {
		return fallbackW, fallbackH
	}
	w, h, _, ok := imageinfo.Decode(data)
	if !ok {
		return fallbackW, fallbackH
	}
	c.width, c.height, c.decoded = w, h, true
	return w, h
}

func (c *imageCache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = nil
	c.width, c.height, c.decoded = 0, 0, false
}
