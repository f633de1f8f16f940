package handlers

import (
	"imagegrab/pkg/config"
	"imagegrab/pkg/filenamer"
	"imagegrab/pkg/models"
)

// NewImageFilter builds a filter from the configured minimum size and
// aspect ratio. A zero aspect ratio accepts any shape.
func NewImageFilter(cfg config.FilterConfig) ImageFilter {
	want := models.NewAspectRatio(cfg.AspectWidth, cfg.AspectHeight)
	return func(height, width int, aspect models.AspectRatio) bool {
		if width < cfg.MinWidth || height < cfg.MinHeight {
			return false
		}
		return want.IsZero() || aspect == want
	}
}

// NewRedditFilter extends NewImageFilter with the adult content and album
// switches.
func NewRedditFilter(cfg config.FilterConfig) RedditFilter {
	base := NewImageFilter(cfg)
	return func(height, width int, nsfw, isAlbum bool, aspect models.AspectRatio) bool {
		if nsfw && !cfg.AllowNSFW {
			return false
		}
		if isAlbum && !cfg.AllowAlbums {
			return false
		}
		return base(height, width, aspect)
	}
}

func cleanName(img models.Image) string {
	return filenamer.Clean(img.Name())
}
