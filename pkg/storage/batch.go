package storage

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Uploader is the part of Client used by BatchUploader
type Uploader interface {
	Upload(ctx context.Context, localPath string) (UploadOutcome, error)
}

// BatchUploader uploads many files through one client concurrently
type BatchUploader struct {
	client        Uploader
	maxConcurrent int
	logger        zerolog.Logger
}

// NewBatchUploader creates a batch uploader running at most maxConcurrent
// uploads at once (defaults to 3)
func NewBatchUploader(client Uploader, maxConcurrent int, logger zerolog.Logger) *BatchUploader {
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	return &BatchUploader{client: client, maxConcurrent: maxConcurrent, logger: logger}
}

// Upload uploads every path and returns one result per path, in input
// order. A failed upload does not stop the others; once ctx is done, paths
// not yet started fail with the context error.
func (b *BatchUploader) Upload(ctx context.Context, paths []string) []TransferResult {
	results := make([]TransferResult, len(paths))
	if len(paths) == 0 {
		return results
	}

	b.logger.Info().
		Int("total_files", len(paths)).
		Int("max_concurrent", b.maxConcurrent).
		Msg("starting batch upload")

	sem := semaphore.NewWeighted(int64(b.maxConcurrent))
	var g errgroup.Group

	for i, p := range paths {
		results[i] = TransferResult{Path: p, Key: filepath.Base(p)}

		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i].Outcome = UploadFailed
				results[i].Error = err
				return nil
			}
			defer sem.Release(1)

			start := time.Now()
			outcome, err := b.client.Upload(ctx, p)
			results[i].Outcome = outcome
			results[i].Error = err
			results[i].Duration = time.Since(start)
			return nil
		})
	}

	g.Wait()

	var completed, skipped, failed int
	var totalDuration time.Duration
	for _, r := range results {
		switch {
		case r.Error != nil || r.Outcome == UploadFailed:
			failed++
		case r.Outcome == UploadSkipped:
			skipped++
		default:
			completed++
		}
		totalDuration += r.Duration
	}

	b.logger.Info().
		Int("completed", completed).
		Int("skipped", skipped).
		Int("failed", failed).
		Dur("total_duration", totalDuration).
		Msg("batch upload finished")

	return results
}
