package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imagegrab/pkg/errors"
)

func TestManagerSave(t *testing.T) {
	tempDir := t.TempDir()
	out := filepath.Join(tempDir, "out")
	manager := NewManager(out)

	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err), "output directory must not exist before the first save")
	assert.Equal(t, 0, manager.GetSavedCount())

	path, err := manager.Save("album", "a.jpg", []byte("first"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "album", "a.jpg"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(content))

	second, err := manager.Save("album", "a.jpg", []byte("second"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "album", "a (1).jpg"), second)

	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(content), "existing file must not be overwritten")

	assert.Equal(t, 2, manager.GetSavedCount())
	assert.NoFileExists(t, path+".tmp")
}

func TestManagerSaveRootFolder(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManager(tempDir)

	path, err := manager.Save("", "b.png", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tempDir, "b.png"), path)
	assert.Equal(t, tempDir, manager.GetOutputDir())
}

func TestManagerSaveConcurrentSameName(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManager(tempDir)

	const writers = 16
	paths := make([]string, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := manager.Save("", "same.jpg", []byte(fmt.Sprint(i)))
			assert.NoError(t, err)
			paths[i] = p
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, p := range paths {
		assert.False(t, seen[p], "duplicate path %s", p)
		seen[p] = true
	}

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Len(t, entries, writers)
}

func TestManagerSaveIOFailure(t *testing.T) {
	tempDir := t.TempDir()
	blocker := filepath.Join(tempDir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	manager := NewManager(tempDir)
	_, err := manager.Save("file", "a.jpg", []byte("x"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeIO))
}

func TestManagerSaveLongName(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManager(tempDir)

	type result struct {
		path string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		p, err := manager.Save("", strings.Repeat("a", 300)+".jpg", []byte("x"))
		done <- result{p, err}
	}()

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, tempDir, filepath.Dir(r.path))
		assert.True(t, strings.HasSuffix(r.path, ".jpg"))
		assert.LessOrEqual(t, len(filepath.Base(r.path)), 255)
		assert.FileExists(t, r.path)
	case <-time.After(3 * time.Second):
		t.Fatal("Save did not return for an over-long name")
	}

	again, err := manager.Save("", strings.Repeat("a", 300)+".jpg", []byte("y"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(again, " (1).jpg"))
}
