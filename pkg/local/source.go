// Package local enumerates image files in a directory tree.
package local

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"imagegrab/pkg/config"
	"imagegrab/pkg/logger"
	"imagegrab/pkg/models"
)

// Source lists supported images below a directory, recursively.
type Source struct {
	download config.DownloadConfig
	logger   logger.Logger
}

// NewSource creates a directory source
func NewSource(cfg *config.Config, log logger.Logger) *Source {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Source{
		download: cfg.Download,
		logger:   log.WithField("component", "local"),
	}
}

// Get returns every file under directory whose extension is in the
// allow-list, compared without regard to case. A missing directory gives an
// empty result, never nil. Unreadable subdirectories are skipped.
func (s *Source) Get(directory string) *models.LocalDirectory {
	dir := &models.LocalDirectory{Directory: directory, Files: []*models.LocalImage{}}

	info, err := os.Stat(directory)
	if err != nil || !info.IsDir() {
		return dir
	}

	walkErr := filepath.WalkDir(directory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.DebugWithFields("skipping unreadable path", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !s.download.IsSupportedExtension(filepath.Ext(path)) {
			return nil
		}
		dir.Files = append(dir.Files, &models.LocalImage{
			Path:           path,
			FallbackWidth:  s.download.FallbackWidth,
			FallbackHeight: s.download.FallbackHeight,
		})
		return nil
	})
	if walkErr != nil {
		s.logger.WithError(walkErr).Warn("Directory walk stopped early")
	}

	sort.Slice(dir.Files, func(i, j int) bool { return dir.Files[i].Path < dir.Files[j].Path })
	return dir
}
