package handlers

import (
	"context"
	"strings"

	"imagegrab/internal/downloader"
	"imagegrab/pkg/logger"
	"imagegrab/pkg/models"
)

// GallerySource lists a DeviantArt user's gallery.
type GallerySource interface {
	Get(ctx context.Context, user string) *models.Album
}

// DeviantArtHandler downloads a user's gallery feed.
type DeviantArtHandler struct {
	source GallerySource
	runner runner
}

func NewDeviantArtHandler(source GallerySource, opts RunOptions, log logger.Logger) *DeviantArtHandler {
	if log == nil {
		log = logger.GetLogger()
	}
	return &DeviantArtHandler{
		source: source,
		runner: runner{opts: opts, logger: log.WithField("handler", "deviantart")},
	}
}

// ParseSource accepts "{user}.deviantart.com", a deviantart.com/{user} URL
// or a bare user name.
func (h *DeviantArtHandler) ParseSource(ctx context.Context, source string) *models.Album {
	return h.source.Get(ctx, galleryUser(source))
}

func (h *DeviantArtHandler) FetchContent(ctx context.Context, album *models.Album, targetFolder string, filter ImageFilter, out *downloader.OutputLog) []downloader.Result {
	var coll models.Collection
	if album != nil {
		coll = album
	}
	return fetchCollection(ctx, h.runner, coll, targetFolder, filter, out)
}

func galleryUser(source string) string {
	s := strings.TrimPrefix(strings.TrimPrefix(source, "https://"), "http://")
	s = strings.TrimPrefix(s, "www.")
	s = strings.Trim(s, "/")

	if i := strings.Index(s, ".deviantart.com"); i > 0 {
		return s[:i]
	}
	if rest, ok := strings.CutPrefix(s, "deviantart.com/"); ok {
		if i := strings.Index(rest, "/"); i >= 0 {
			return rest[:i]
		}
		return rest
	}
	return s
}
