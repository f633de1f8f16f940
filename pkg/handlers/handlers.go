// Package handlers pairs each content source with a download step: ParseSource
// turns user input into a collection, FetchContent filters it and saves the
// passing images, writing one line per image to an output log.
package handlers

import (
	"context"
	"fmt"

	"imagegrab/internal/downloader"
	"imagegrab/pkg/logger"
	"imagegrab/pkg/metadata"
	"imagegrab/pkg/models"
	"imagegrab/pkg/storage"
)

const (
	lineDownloadStart  = "Starting download of %d images."
	lineDownloadFinish = "Download finished."
	lineFilterStart    = "Starting filtering of %d images."
	lineFilterFinish   = "Filtering finished."
)

// ImageFilter decides on an image from its size and reduced aspect ratio.
type ImageFilter func(height, width int, aspect models.AspectRatio) bool

// RedditFilter additionally sees the post's adult flag and whether the image
// came from an album.
type RedditFilter func(height, width int, nsfw, isAlbum bool, aspect models.AspectRatio) bool

// RunOptions is shared by every handler's FetchContent.
type RunOptions struct {
	Workers  int
	History  downloader.History
	Manifest *metadata.Manifest
}

// runner builds a worker pool per FetchContent call.
type runner struct {
	opts   RunOptions
	logger logger.Logger
}

func (r runner) run(ctx context.Context, targetFolder string, jobs []downloader.Job, out *downloader.OutputLog, successLine string) []downloader.Result {
	pool := downloader.NewWorkerPool(ctx, downloader.Options{
		Workers:     r.opts.Workers,
		Storage:     storage.NewManager(targetFolder),
		History:     r.opts.History,
		Log:         out,
		Manifest:    r.opts.Manifest,
		SuccessLine: successLine,
	}, r.logger)
	return pool.Run(jobs)
}

func (f ImageFilter) forJob() downloader.Filter {
	if f == nil {
		return nil
	}
	return func(ctx context.Context, img models.Image) bool {
		w, h := img.Dimensions(ctx)
		return f(h, w, img.AspectRatio(ctx))
	}
}

func (f RedditFilter) forJob(post *models.RedditPost) downloader.Filter {
	if f == nil {
		return nil
	}
	return func(ctx context.Context, img models.Image) bool {
		w, h := img.Dimensions(ctx)
		return f(h, w, post.Over18, post.IsAlbum(), img.AspectRatio(ctx))
	}
}

// fetchCollection is the FetchContent body shared by flat collections.
func fetchCollection(ctx context.Context, r runner, coll models.Collection, targetFolder string, filter ImageFilter, out *downloader.OutputLog) []downloader.Result {
	if coll == nil {
		out.Add(lineDownloadFinish)
		return nil
	}

	images := coll.Images()
	out.Add(fmt.Sprintf(lineDownloadStart, len(images)))

	jobs := make([]downloader.Job, 0, len(images))
	for _, img := range images {
		if img == nil {
			continue
		}
		jobs = append(jobs, downloader.Job{
			Image:  img,
			Name:   cleanName(img),
			Filter: filter.forJob(),
		})
	}
	results := r.run(ctx, targetFolder, jobs, out, downloader.LineSaved)

	out.Add(lineDownloadFinish)
	return results
}
