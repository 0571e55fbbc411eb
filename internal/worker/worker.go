// Package worker runs clip searches in parallel for batch runs.
//
// The loop engine and its cache belong to one goroutine, so every worker owns
// its own search function built by the caller. Results are handed back on the
// calling goroutine, which keeps reporting and storage single threaded.
package worker

import (
	"context"
	"sync"
	"time"

	coreerrors "github.com/five82/looper/internal/errors"
	"github.com/five82/looper/internal/loop"
)

// Job is one clip file waiting to be searched.
type Job struct {
	Idx  int
	Path string
}

// SearchFunc searches one clip file and returns the clip name with the result.
type SearchFunc func(ctx context.Context, path string) (clip string, res loop.Result, err error)

// Result contains the outcome of searching a single file.
type Result struct {
	Idx     int
	Path    string
	Clip    string
	Value   loop.Result
	Err     error
	Elapsed time.Duration
}

// Progress represents batch progress information.
type Progress struct {
	FilesComplete int
	FilesTotal    int
	Succeeded     int
}

// Percent returns the completion percentage.
func (p Progress) Percent() float64 {
	if p.FilesTotal == 0 {
		return 0
	}
	return float64(p.FilesComplete) / float64(p.FilesTotal) * 100
}

// Run searches paths with up to workers goroutines. newSearch is called once per
// worker on the calling goroutine. onResult is called on the calling goroutine in
// completion order. Files not yet started when ctx is cancelled are skipped and
// Run returns a cancellation error.
func Run(ctx context.Context, paths []string, workers int, newSearch func() SearchFunc, onResult func(Result, Progress)) error {
	workers = min(max(workers, 1), len(paths))

	jobs := make(chan Job)
	results := make(chan Result)

	var wg sync.WaitGroup
	for range workers {
		search := newSearch()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				started := time.Now()
				clip, res, err := search(ctx, job.Path)
				results <- Result{
					Idx:     job.Idx,
					Path:    job.Path,
					Clip:    clip,
					Value:   res,
					Err:     err,
					Elapsed: time.Since(started),
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, path := range paths {
			if ctx.Err() != nil {
				return
			}
			select {
			case jobs <- Job{Idx: i, Path: path}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	progress := Progress{FilesTotal: len(paths)}
	for r := range results {
		progress.FilesComplete++
		if r.Err == nil && r.Value.Success {
			progress.Succeeded++
		}
		if onResult != nil {
			onResult(r, progress)
		}
	}

	if err := ctx.Err(); err != nil {
		return coreerrors.NewCancelledError(err)
	}
	return nil
}
