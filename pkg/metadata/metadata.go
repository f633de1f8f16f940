// Package metadata records what a download run did, as a JSON manifest
// written next to the images.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of a single item
type Status string

const (
	StatusSaved   Status = "saved"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Item represents one image handled during a run
type Item struct {
	Name        string `json:"name"`
	SourceURL   string `json:"source_url"`
	Path        string `json:"path,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	Status      Status `json:"status"`
	Error       string `json:"error,omitempty"`
}

// Manifest summarises one run
type Manifest struct {
	RunID      string    `json:"run_id"`
	Source     string    `json:"source"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Saved      int       `json:"saved"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Items      []Item    `json:"items"`

	mu sync.Mutex
}

// NewManifest starts a manifest for source with a fresh run id
func NewManifest(source string) *Manifest {
	return &Manifest{
		RunID:     uuid.NewString(),
		Source:    source,
		StartedAt: time.Now().UTC(),
		Items:     []Item{},
	}
}

// Add records an item and updates the counters. Safe for concurrent use.
func (m *Manifest) Add(item Item) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch item.Status {
	case StatusSaved:
		m.Saved++
	case StatusSkipped:
		m.Skipped++
	case StatusFailed:
		m.Failed++
	}
	m.Items = append(m.Items, item)
}

// Finish stamps the end time
func (m *Manifest) Finish() {
	m.mu.Lock()
	m.FinishedAt = time.Now().UTC()
	m.mu.Unlock()
}

// Duration returns how long the run took, or zero while it is running
func (m *Manifest) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FinishedAt.IsZero() {
		return 0
	}
	return m.FinishedAt.Sub(m.StartedAt)
}

// FileName is the manifest's file name inside the output directory
func (m *Manifest) FileName() string {
	return fmt.Sprintf("manifest-%s.json", m.RunID)
}

// Save writes the manifest into dir and returns the written path
func (m *Manifest) Save(dir string) (string, error) {
	m.mu.Lock()
	data, err := json.MarshalIndent(m, "", "  ")
	m.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create manifest directory: %w", err)
	}

	path := filepath.Join(dir, m.FileName())
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest file: %w", err)
	}
	return path, nil
}

// Load reads a manifest from a JSON file
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	return &m, nil
}
