package curvefit

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Job is one polyline of a batch.
type Job struct {
	Points         []float64
	Dims           int
	ErrorThreshold float64
	Corners        []int
}

// BatchOptions configures [FitBatch] and [RefitBatch].
type BatchOptions struct {
	// Concurrency is the maximum number of jobs fit at once. Values below 1
	// use GOMAXPROCS.
	Concurrency int
}

func (o BatchOptions) limit() int {
	if o.Concurrency < 1 {
		return runtime.GOMAXPROCS(0)
	}
	return o.Concurrency
}

// FitBatch runs [FitCubics] on every job concurrently. The results are in the
// order of jobs. The first error, including cancellation of ctx, stops jobs
// that haven't started yet and is returned.
func FitBatch(ctx context.Context, jobs []Job, opts FitOptions, bopts BatchOptions) ([]*Result, error) {
	return runBatch(ctx, jobs, bopts, func(j Job) (*Result, error) {
		return FitCubics(j.Points, j.Dims, j.ErrorThreshold, j.Corners, opts)
	})
}

// RefitBatch runs [Refit] on every job concurrently, like [FitBatch].
func RefitBatch(ctx context.Context, jobs []Job, opts RefitOptions, bopts BatchOptions) ([]*Result, error) {
	return runBatch(ctx, jobs, bopts, func(j Job) (*Result, error) {
		return Refit(j.Points, j.Dims, j.ErrorThreshold, j.Corners, opts)
	})
}

func runBatch(ctx context.Context, jobs []Job, bopts BatchOptions, fit func(Job) (*Result, error)) ([]*Result, error) {
	results := make([]*Result, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bopts.limit())
	for i, j := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := fit(j)
			if err != nil {
				return fmt.Errorf("curvefit: job %d: %w", i, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	Logger().Debug("batch", "jobs", len(jobs), "concurrency", bopts.limit())
	return results, nil
}
