package downloader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"imagegrab/pkg/errors"
	"imagegrab/pkg/logger"
	"imagegrab/pkg/metadata"
	"imagegrab/pkg/models"
)

// DefaultWorkers bounds the number of images fetched at the same time.
const DefaultWorkers = 8

// Filter decides whether an image is saved.
type Filter func(ctx context.Context, img models.Image) bool

// Job is a single image to filter and save
type Job struct {
	Image models.Image
	// Folder is relative to the storage root; empty means the root itself.
	Folder string
	// Name is the cleaned display name, also used as the file name.
	Name   string
	Filter Filter
}

// Result represents the outcome of a job
type Result struct {
	Job      Job
	Status   metadata.Status
	Path     string
	Error    error
	Duration time.Duration
	Width    int
	Height   int
}

// ImageStorage persists image bytes
type ImageStorage interface {
	Save(folder, name string, data []byte) (string, error)
}

// History remembers source URLs that were saved by earlier runs
type History interface {
	Seen(url string) bool
	Record(url, path string) error
}

// Options configures a WorkerPool
type Options struct {
	Workers  int
	Storage  ImageStorage
	History  History
	Log      *OutputLog
	Manifest *metadata.Manifest
	// SuccessLine prefixes success lines, LineSaved by default.
	SuccessLine string
}

// WorkerPool runs jobs on a fixed number of workers
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	storage     ImageStorage
	history     History
	output      *OutputLog
	manifest    *metadata.Manifest
	successLine string
	logger      logger.Logger
}

// NewWorkerPool creates a new worker pool bound to ctx
func NewWorkerPool(ctx context.Context, opts Options, log logger.Logger) *WorkerPool {
	if log == nil {
		log = logger.GetLogger()
	}
	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = DefaultWorkers
	}
	output := opts.Log
	if output == nil {
		output = NewOutputLog()
	}
	successLine := opts.SuccessLine
	if successLine == "" {
		successLine = LineSaved
	}

	ctx, cancel := context.WithCancel(ctx)
	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		storage:     opts.Storage,
		history:     opts.History,
		output:      output,
		manifest:    opts.Manifest,
		successLine: successLine,
		logger:      log.WithField("component", "downloader"),
	}
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	wp.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the queue and waits for the workers to drain it
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug("Worker pool stopped")
}

// Submit queues a job. It fails once the pool's context is done; the job's
// image is closed in that case.
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		job.Image.Close()
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Results returns the result channel. It must be drained while jobs are
// submitted.
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

// Run processes jobs and returns their results in completion order.
func (wp *WorkerPool) Run(jobs []Job) []Result {
	wp.Start()

	results := make([]Result, 0, len(jobs))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range wp.Results() {
			results = append(results, r)
		}
	}()

	for i, job := range jobs {
		if err := wp.Submit(job); err != nil {
			for _, rest := range jobs[i+1:] {
				rest.Image.Close()
			}
			break
		}
	}

	wp.Stop()
	<-done
	return results
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		wp.resultQueue <- wp.processJob(job, id)
	}
}

// processJob filters, fetches and saves one image, writing exactly one
// output line. The image is closed on every path.
func (wp *WorkerPool) processJob(job Job, workerID int) (result Result) {
	start := time.Now()
	result = Result{Job: job}

	defer func() {
		job.Image.Close()
		result.Duration = time.Since(start)
		wp.record(result)
	}()

	if err := wp.ctx.Err(); err != nil {
		result.Status = metadata.StatusFailed
		result.Error = err
		wp.output.Add(LineDownloadFailed + job.Name)
		return result
	}

	url := job.Image.SourceURL()
	if wp.history != nil && wp.history.Seen(url) {
		result.Status = metadata.StatusSkipped
		wp.output.Add(LineSkipped + job.Name)
		return result
	}

	if job.Filter != nil && !job.Filter(wp.ctx, job.Image) {
		result.Status = metadata.StatusSkipped
		wp.output.Add(LineSkipped + job.Name)
		return result
	}
	result.Width, result.Height = job.Image.Dimensions(wp.ctx)

	data, err := job.Image.Bytes(wp.ctx)
	if err != nil {
		result.Status = metadata.StatusFailed
		result.Error = err
		if isIOFailure(err) {
			wp.output.Add(LineIOFailure + job.Name)
		} else {
			wp.output.Add(LineDownloadFailed + job.Name)
		}
		wp.logger.DebugWithFields("Worker failed to fetch image", map[string]interface{}{
			"worker_id": workerID,
			"url":       url,
			"error":     err.Error(),
		})
		return result
	}

	path, err := wp.storage.Save(job.Folder, job.Name, data)
	if err != nil {
		result.Status = metadata.StatusFailed
		result.Error = err
		wp.output.Add(LineIOFailure + job.Name)
		wp.logger.ErrorWithFields("Worker failed to save image", map[string]interface{}{
			"worker_id": workerID,
			"name":      job.Name,
			"error":     err.Error(),
		})
		return result
	}

	result.Status = metadata.StatusSaved
	result.Path = path
	wp.output.Add(wp.successLine + job.Name)

	if wp.history != nil {
		if err := wp.history.Record(url, path); err != nil {
			wp.logger.WarnWithFields("Failed to record history", map[string]interface{}{
				"url":   url,
				"error": err.Error(),
			})
		}
	}

	wp.logger.DebugWithFields("Worker completed job successfully", map[string]interface{}{
		"worker_id": workerID,
		"name":      job.Name,
		"size":      len(data),
	})
	return result
}

func (wp *WorkerPool) record(r Result) {
	if wp.manifest == nil {
		return
	}
	item := metadata.Item{
		Name:      r.Job.Name,
		SourceURL: r.Job.Image.SourceURL(),
		Path:      r.Path,
		Width:     r.Width,
		Height:    r.Height,
		Status:    r.Status,
	}
	if r.Width > 0 && r.Height > 0 {
		item.AspectRatio = models.NewAspectRatio(r.Width, r.Height).String()
	}
	if r.Error != nil {
		item.Error = r.Error.Error()
	}
	wp.manifest.Add(item)
}

// isIOFailure reports whether err came from the local filesystem rather
// than the network.
func isIOFailure(err error) bool {
	var e *errors.Error
	if errors.As(err, &e) {
		return e.Type == errors.ErrorTypeIO
	}
	return false
}

// GetActiveWorkers returns the number of workers
func (wp *WorkerPool) GetActiveWorkers() int {
	return wp.numWorkers
}
