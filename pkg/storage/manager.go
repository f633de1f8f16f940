package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"imagegrab/pkg/errors"
	"imagegrab/pkg/filenamer"
)

// Manager writes downloaded images below an output directory
type Manager struct {
	outputDir string
	pending   map[string]bool
	saved     int
	mu        sync.Mutex
}

// NewManager creates a storage manager. Nothing is created on disk until
// the first Save.
func NewManager(outputDir string) *Manager {
	return &Manager{
		outputDir: outputDir,
		pending:   make(map[string]bool),
	}
}

// Save writes data as name inside folder, relative to the output directory.
// The folder is created on demand, an over-long name is truncated and a
// taken name gets a " (i)" suffix.
// The returned path is where the file ended up.
func (m *Manager) Save(folder, name string, data []byte) (string, error) {
	dir := filepath.Join(m.outputDir, folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(errors.ErrorTypeIO, err, "failed to create folder")
	}

	path := m.reserve(filepath.Join(dir, filenamer.Truncate(name)))
	defer m.release(path)

	// Create temporary file first
	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		os.Remove(tempFile)
		return "", errors.Wrap(errors.ErrorTypeIO, err, "failed to write temporary file")
	}

	// Atomic rename
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return "", errors.Wrap(errors.ErrorTypeIO, err, fmt.Sprintf("failed to move %s into place", filepath.Base(path)))
	}

	m.mu.Lock()
	m.saved++
	m.mu.Unlock()

	return path, nil
}

// reserve picks a free path, counting names other goroutines are still
// writing as taken.
func (m *Manager) reserve(path string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filenamer.UniquePathFunc(path, func(p string) bool {
		return m.pending[p] || filenamer.Exists(p)
	})
	m.pending[path] = true
	return path
}

func (m *Manager) release(path string) {
	m.mu.Lock()
	delete(m.pending, path)
	m.mu.Unlock()
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// GetSavedCount returns the number of files written by this manager
func (m *Manager) GetSavedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved
}
