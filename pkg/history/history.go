// Package history remembers which source URLs have already been saved, so
// repeated runs over the same listing skip images on disk.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketSaved = []byte("saved")

// Entry is what is stored per source URL.
type Entry struct {
	Path    string    `json:"path"`
	SavedAt time.Time `json:"saved_at"`
}

// Store is a download history backed by BoltDB. A Store opened with an
// empty path only lives in memory.
type Store struct {
	db *bolt.DB

	mu     sync.RWMutex
	memory map[string]Entry
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return &Store{memory: make(map[string]Entry)}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSaved)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Seen reports whether url has been recorded.
func (s *Store) Seen(url string) bool {
	_, ok := s.Get(url)
	return ok
}

// Get returns the entry recorded for url.
func (s *Store) Get(url string) (Entry, bool) {
	if s.db == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		e, ok := s.memory[url]
		return e, ok
	}

	var entry Entry
	found := false
	s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketSaved).Get([]byte(url))
		if v == nil {
			return nil
		}
		found = json.Unmarshal(v, &entry) == nil
		return nil
	})
	return entry, found
}

// Record stores that url was saved to path.
func (s *Store) Record(url, path string) error {
	entry := Entry{Path: path, SavedAt: time.Now().UTC()}

	if s.db == nil {
		s.mu.Lock()
		s.memory[url] = entry
		s.mu.Unlock()
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSaved).Put([]byte(url), data)
	})
}

// Count returns the number of recorded URLs.
func (s *Store) Count() int {
	if s.db == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return len(s.memory)
	}

	n := 0
	s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketSaved).Stats().KeyN
		return nil
	})
	return n
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
