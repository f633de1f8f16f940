package handlers

import (
	"context"

	"imagegrab/internal/downloader"
	"imagegrab/pkg/imgur"
	"imagegrab/pkg/logger"
	"imagegrab/pkg/models"
)

// ImgurSource is the part of the Imgur API the handler needs.
type ImgurSource interface {
	GetAlbum(ctx context.Context, id string) *models.ImgurAlbum
	GetAccountImages(ctx context.Context, user string) *models.Album
}

// ImgurHandler downloads an Imgur album or every image of an account.
type ImgurHandler struct {
	source ImgurSource
	runner runner
}

func NewImgurHandler(source ImgurSource, opts RunOptions, log logger.Logger) *ImgurHandler {
	if log == nil {
		log = logger.GetLogger()
	}
	return &ImgurHandler{
		source: source,
		runner: runner{opts: opts, logger: log.WithField("handler", "imgur")},
	}
}

// ParseSource accepts an album URL ("imgur.com/a/{id}" or
// "imgur.com/gallery/{id}"), an account host "{user}.imgur.com" or a bare
// user name.
func (h *ImgurHandler) ParseSource(ctx context.Context, source string) models.Collection {
	if imgur.IsAlbumURL(source) {
		return h.source.GetAlbum(ctx, imgur.AlbumID(source))
	}
	return h.source.GetAccountImages(ctx, imgur.AccountName(source))
}

// FetchContent saves every image of coll that passes filter into
// targetFolder.
func (h *ImgurHandler) FetchContent(ctx context.Context, coll models.Collection, targetFolder string, filter ImageFilter, out *downloader.OutputLog) []downloader.Result {
	return fetchCollection(ctx, h.runner, coll, targetFolder, filter, out)
}
