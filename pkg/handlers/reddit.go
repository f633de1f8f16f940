package handlers

import (
	"context"
	"fmt"

	"imagegrab/internal/downloader"
	"imagegrab/pkg/filenamer"
	"imagegrab/pkg/logger"
	"imagegrab/pkg/models"
)

// ListingSource produces aggregated subreddit listings.
type ListingSource interface {
	Get(ctx context.Context, query string) *models.RedditListing
	GetAmount(ctx context.Context, query string, amount int) *models.RedditListing
}

// RedditHandler downloads the images linked from a subreddit listing.
type RedditHandler struct {
	source ListingSource
	runner runner
}

func NewRedditHandler(source ListingSource, opts RunOptions, log logger.Logger) *RedditHandler {
	if log == nil {
		log = logger.GetLogger()
	}
	return &RedditHandler{
		source: source,
		runner: runner{opts: opts, logger: log.WithField("handler", "reddit")},
	}
}

// ParseSource fetches the listing for query. amount <= 0 requests the
// source's default amount. With allowNested false, album posts are dropped.
func (h *RedditHandler) ParseSource(ctx context.Context, query string, allowNested bool, amount int) *models.RedditListing {
	var listing *models.RedditListing
	if amount <= 0 {
		listing = h.source.Get(ctx, query)
	} else {
		listing = h.source.GetAmount(ctx, query, amount)
	}

	if listing != nil && !allowNested {
		kept := make([]*models.RedditPost, 0, len(listing.Posts))
		for _, p := range listing.Collections() {
			if !p.IsAlbum() {
				kept = append(kept, p)
			}
		}
		listing.Posts = kept
	}
	return listing
}

// FetchContent saves every image of listing that passes filter. Images are
// named "<short title> - <image name>"; with albumFolders, album images go
// to a subfolder named after the post instead and keep their own name.
func (h *RedditHandler) FetchContent(ctx context.Context, listing *models.RedditListing, targetFolder string, filter RedditFilter, out *downloader.OutputLog, albumFolders bool) []downloader.Result {
	if listing == nil {
		out.Add(lineDownloadFinish)
		return nil
	}

	out.Add(fmt.Sprintf(lineDownloadStart, len(listing.Images())))

	var jobs []downloader.Job
	for _, post := range listing.Collections() {
		if post == nil {
			continue
		}

		title := filenamer.Clean(post.ShortTitle())
		folder := ""
		prefix := title + " - "
		if post.IsAlbum() && albumFolders {
			folder = title
			prefix = ""
		}

		for _, img := range post.Images() {
			if img == nil {
				continue
			}
			jobs = append(jobs, downloader.Job{
				Image:  img,
				Folder: folder,
				Name:   prefix + cleanName(img),
				Filter: filter.forJob(post),
			})
		}
	}

	logger.LogComponentStart(h.runner.logger, "reddit-download", map[string]interface{}{
		"posts":  len(listing.Posts),
		"images": len(jobs),
	})
	results := h.runner.run(ctx, targetFolder, jobs, out, downloader.LineSaved)
	logger.LogComponentStop(h.runner.logger, "reddit-download", "finished")

	out.Add(lineDownloadFinish)
	return results
}
