package handlers

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"imagegrab/internal/downloader"
	"imagegrab/pkg/logger"
	"imagegrab/pkg/models"
)

// DirectorySource enumerates image files under a directory.
type DirectorySource interface {
	Get(directory string) *models.LocalDirectory
}

// LocalHandler copies the images of a directory tree that pass a filter.
type LocalHandler struct {
	source DirectorySource
	runner runner
}

func NewLocalHandler(source DirectorySource, opts RunOptions, log logger.Logger) *LocalHandler {
	if log == nil {
		log = logger.GetLogger()
	}
	return &LocalHandler{
		source: source,
		runner: runner{opts: opts, logger: log.WithField("handler", "local")},
	}
}

func (h *LocalHandler) ParseSource(ctx context.Context, directory string) *models.LocalDirectory {
	return h.source.Get(directory)
}

// FetchContent copies passing images into targetFolder. With mirror set, an
// image keeps its path relative to the source directory. A folder is only
// created once an image is copied into it.
func (h *LocalHandler) FetchContent(ctx context.Context, dir *models.LocalDirectory, targetFolder string, filter ImageFilter, out *downloader.OutputLog, mirror bool) []downloader.Result {
	if dir == nil {
		out.Add(lineFilterFinish)
		return nil
	}

	out.Add(fmt.Sprintf(lineFilterStart, len(dir.Files)))

	jobs := make([]downloader.Job, 0, len(dir.Files))
	for _, img := range dir.Files {
		if img == nil {
			continue
		}
		folder := ""
		if mirror {
			folder = relativeFolder(dir.Directory, img.Path)
		}
		jobs = append(jobs, downloader.Job{
			Image:  img,
			Folder: folder,
			Name:   cleanName(img),
			Filter: filter.forJob(),
		})
	}
	results := h.runner.run(ctx, targetFolder, jobs, out, downloader.LineCopied)

	out.Add(lineFilterFinish)
	return results
}

// relativeFolder is the directory of path relative to root, or "" when path
// sits directly in root or outside it.
func relativeFolder(root, path string) string {
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	return rel
}
