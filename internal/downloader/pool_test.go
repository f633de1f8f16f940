package downloader

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imagegrab/pkg/errors"
	"imagegrab/pkg/metadata"
	"imagegrab/pkg/models"
)

// mockImage is a models.Image with scripted size and fetch behaviour
type mockImage struct {
	name          string
	width, height int
	fetchErr      error
	fetchDelay    time.Duration
	fetchCounter  *int32
	closed        int32
}

func (m *mockImage) Name() string      { return m.name }
func (m *mockImage) Extension() string { return ".jpg" }
func (m *mockImage) SourceURL() string { return "https://example.com/" + m.name }
func (m *mockImage) Dimensions(context.Context) (int, int) {
	return m.width, m.height
}
func (m *mockImage) AspectRatio(ctx context.Context) models.AspectRatio {
	return models.NewAspectRatio(m.Dimensions(ctx))
}
func (m *mockImage) Bytes(ctx context.Context) ([]byte, error) {
	if m.fetchCounter != nil {
		atomic.AddInt32(m.fetchCounter, 1)
	}
	if m.fetchDelay > 0 {
		time.Sleep(m.fetchDelay)
	}
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return []byte("data:" + m.name), nil
}
func (m *mockImage) Close() error {
	atomic.AddInt32(&m.closed, 1)
	return nil
}

// mockStorage records saved files in memory
type mockStorage struct {
	mu        sync.Mutex
	saved     map[string][]byte
	saveError error
}

func newMockStorage() *mockStorage {
	return &mockStorage{saved: make(map[string][]byte)}
}

func (m *mockStorage) Save(folder, name string, data []byte) (string, error) {
	if m.saveError != nil {
		return "", m.saveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	path := folder + "/" + name
	m.saved[path] = data
	return path, nil
}

func (m *mockStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

type mockHistory struct {
	mu   sync.Mutex
	seen map[string]string
}

func (h *mockHistory) Seen(url string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.seen[url]
	return ok
}

func (h *mockHistory) Record(url, path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen[url] = path
	return nil
}

func jobsFor(images []*mockImage, filter Filter) []Job {
	jobs := make([]Job, 0, len(images))
	for _, img := range images {
		jobs = append(jobs, Job{Image: img, Name: img.name, Filter: filter})
	}
	return jobs
}

func countPrefix(lines []string, prefix string) int {
	n := 0
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}

func TestWorkerPoolBasicFunctionality(t *testing.T) {
	var fetches int32
	images := make([]*mockImage, 0, 10)
	for i := 0; i < 10; i++ {
		images = append(images, &mockImage{name: fmt.Sprintf("photo%d.jpg", i), width: 100, height: 100, fetchCounter: &fetches})
	}
	storage := newMockStorage()
	out := NewOutputLog()

	pool := NewWorkerPool(context.Background(), Options{Workers: 3, Storage: storage, Log: out}, nil)
	results := pool.Run(jobsFor(images, nil))

	assert.Len(t, results, 10)
	for _, r := range results {
		assert.Equal(t, metadata.StatusSaved, r.Status)
		assert.NoError(t, r.Error)
	}
	assert.Equal(t, int32(10), atomic.LoadInt32(&fetches))
	assert.Equal(t, 10, storage.count())
	assert.Equal(t, 10, countPrefix(out.Lines(), LineSaved))
	assert.Equal(t, 3, pool.GetActiveWorkers())
}

func TestWorkerPoolIsolatesFailure(t *testing.T) {
	images := []*mockImage{
		{name: "a.jpg"},
		{name: "b.jpg", fetchErr: errors.New(errors.ErrorTypeNotFound, 404, "gone")},
		{name: "c.jpg"},
		{name: "d.jpg"},
	}
	storage := newMockStorage()
	out := NewOutputLog()

	NewWorkerPool(context.Background(), Options{Storage: storage, Log: out}, nil).Run(jobsFor(images, nil))

	lines := out.Lines()
	assert.Len(t, lines, 4)
	assert.Equal(t, 3, storage.count())
	assert.Equal(t, 3, countPrefix(lines, LineSaved))
	assert.Equal(t, 1, countPrefix(lines, LineDownloadFailed))
	assert.Contains(t, lines, LineDownloadFailed+"b.jpg")
}

func TestWorkerPoolIOFailures(t *testing.T) {
	readFail := &mockImage{name: "local.jpg", fetchErr: errors.Wrap(errors.ErrorTypeIO, fmt.Errorf("permission denied"), "read")}
	out := NewOutputLog()
	NewWorkerPool(context.Background(), Options{Storage: newMockStorage(), Log: out}, nil).
		Run(jobsFor([]*mockImage{readFail}, nil))
	assert.Equal(t, []string{LineIOFailure + "local.jpg"}, out.Lines())

	storage := newMockStorage()
	storage.saveError = errors.Wrap(errors.ErrorTypeIO, fmt.Errorf("disk full"), "write")
	out = NewOutputLog()
	results := NewWorkerPool(context.Background(), Options{Storage: storage, Log: out}, nil).
		Run(jobsFor([]*mockImage{{name: "x.jpg"}, {name: "y.jpg"}}, nil))

	assert.Equal(t, 2, countPrefix(out.Lines(), LineIOFailure))
	for _, r := range results {
		assert.Equal(t, metadata.StatusFailed, r.Status)
		assert.Error(t, r.Error)
	}
}

func TestWorkerPoolFilterAndClose(t *testing.T) {
	var fetches int32
	images := []*mockImage{
		{name: "big.jpg", width: 1920, height: 1080, fetchCounter: &fetches},
		{name: "small.jpg", width: 320, height: 240, fetchCounter: &fetches},
		{name: "broken.jpg", width: 1920, height: 1080, fetchCounter: &fetches, fetchErr: errors.New(errors.ErrorTypeNetwork, 0, "reset")},
	}
	minWidth := func(ctx context.Context, img models.Image) bool {
		w, _ := img.Dimensions(ctx)
		return w >= 1000
	}
	out := NewOutputLog()

	NewWorkerPool(context.Background(), Options{Workers: 2, Storage: newMockStorage(), Log: out}, nil).
		Run(jobsFor(images, minWidth))

	assert.ElementsMatch(t, []string{
		LineSaved + "big.jpg",
		LineSkipped + "small.jpg",
		LineDownloadFailed + "broken.jpg",
	}, out.Lines())
	assert.Equal(t, int32(2), atomic.LoadInt32(&fetches))

	for _, img := range images {
		assert.Equal(t, int32(1), atomic.LoadInt32(&img.closed), "%s must be closed exactly once", img.name)
	}
}

func TestWorkerPoolHistoryAndManifest(t *testing.T) {
	history := &mockHistory{seen: map[string]string{"https://example.com/old.jpg": "/out/old.jpg"}}
	manifest := metadata.NewManifest("test")
	out := NewOutputLog()

	images := []*mockImage{{name: "old.jpg"}, {name: "new.jpg", width: 1920, height: 1080}}
	NewWorkerPool(context.Background(), Options{Storage: newMockStorage(), History: history, Log: out, Manifest: manifest}, nil).
		Run(jobsFor(images, nil))

	assert.ElementsMatch(t, []string{LineSkipped + "old.jpg", LineSaved + "new.jpg"}, out.Lines())
	assert.True(t, history.Seen("https://example.com/new.jpg"))

	assert.Equal(t, 1, manifest.Saved)
	assert.Equal(t, 1, manifest.Skipped)
	require.Len(t, manifest.Items, 2)
	for _, item := range manifest.Items {
		if item.Name == "new.jpg" {
			assert.Equal(t, "16:9", item.AspectRatio)
			assert.Equal(t, "/new.jpg", item.Path)
		}
	}
}

func TestWorkerPoolSuccessLine(t *testing.T) {
	out := NewOutputLog()
	NewWorkerPool(context.Background(), Options{Storage: newMockStorage(), Log: out, SuccessLine: LineCopied}, nil).
		Run(jobsFor([]*mockImage{{name: "a.png"}}, nil))
	assert.Equal(t, []string{LineCopied + "a.png"}, out.Lines())
}

func TestWorkerPoolConcurrency(t *testing.T) {
	images := make([]*mockImage, 0, 10)
	for i := 0; i < 10; i++ {
		images = append(images, &mockImage{name: fmt.Sprintf("p%d.jpg", i), fetchDelay: 100 * time.Millisecond})
	}

	start := time.Now()
	NewWorkerPool(context.Background(), Options{Workers: 5, Storage: newMockStorage()}, nil).Run(jobsFor(images, nil))
	elapsed := time.Since(start)

	// 10 jobs at 100ms on 5 workers take about 200ms
	assert.Less(t, elapsed, 600*time.Millisecond)
}

func TestWorkerPoolCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	images := make([]*mockImage, 0, 20)
	for i := 0; i < 20; i++ {
		images = append(images, &mockImage{name: fmt.Sprintf("c%d.jpg", i)})
	}
	storage := newMockStorage()
	out := NewOutputLog()

	NewWorkerPool(ctx, Options{Workers: 2, Storage: storage, Log: out}, nil).Run(jobsFor(images, nil))

	assert.Equal(t, 0, storage.count())
	for _, img := range images {
		assert.Equal(t, int32(1), atomic.LoadInt32(&img.closed))
	}
	for _, l := range out.Lines() {
		assert.True(t, strings.HasPrefix(l, LineDownloadFailed))
	}
}

func TestOutputLogOrderAndSink(t *testing.T) {
	var forwarded []string
	log := NewOutputLogFunc(func(line string) { forwarded = append(forwarded, line) })

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			log.Add(fmt.Sprintf("line %d", i))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, log.Len())
	assert.Equal(t, log.Lines(), forwarded)
}
