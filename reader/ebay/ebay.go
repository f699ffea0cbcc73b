package ebay

import (
	"context"

	"ebay-normalizer/config"
	"ebay-normalizer/models"
	"ebay-normalizer/utils"
)

// Result is the outcome of decoding one document.
type Result struct {
	Path     string
	Listings []*models.Listing
	Err      error
}

// Reader decodes eBay listing documents, optionally several at a time,
// and hands them over strictly in the order they were requested.
type Reader struct {
	logger  *utils.Logger
	workers int
	decode  func(path string) Result
}

// New creates a Reader sized by cfg.MaxConcurrency.
func New(cfg *config.Config, logger *utils.Logger) *Reader {
	r := &Reader{logger: logger, workers: cfg.MaxConcurrency}
	r.decode = r.read
	return r
}

// Each decodes every path and calls fn with the results in input order.
// It stops at the first error fn returns, or when ctx is done.
func (r *Reader) Each(ctx context.Context, paths []string, fn func(Result) error) error {
	if r.workers <= 1 {
		return r.eachSequential(ctx, paths, fn)
	}
	return r.eachParallel(ctx, paths, fn)
}

func (r *Reader) eachSequential(ctx context.Context, paths []string, fn func(Result) error) error {
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(r.decode(p)); err != nil {
			return err
		}
	}
	return nil
}

// eachParallel keeps at most 2×workers documents decoded ahead of fn.
// Decodes already started are finished before it returns.
func (r *Reader) eachParallel(ctx context.Context, paths []string, fn func(Result) error) error {
	pool := utils.NewWorkerPool(r.workers)
	r.logger.Debug("[reader] Decoding %d documents with %d workers", len(paths), pool.Size())

	slots := make([]chan Result, len(paths))
	for i := range slots {
		slots[i] = make(chan Result, 1)
	}
	window := make(chan struct{}, 2*r.workers)
	done := make(chan struct{})
	submitted := make(chan struct{})
	defer func() {
		close(done)
		<-submitted
		pool.Wait()
	}()

	go func() {
		defer close(submitted)
		for i, p := range paths {
			select {
			case window <- struct{}{}:
			case <-done:
				return
			case <-ctx.Done():
				return
			}
			i, p := i, p
			pool.Submit(func() { slots[i] <- r.decode(p) })
		}
	}()

	for i := range paths {
		select {
		case res := <-slots[i]:
			<-window
			if err := fn(res); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (r *Reader) read(path string) Result {
	listings, err := ReadFile(path)
	if err == nil {
		r.logger.Debug("[reader] Decoded %s: %d listings", path, len(listings))
	}
	return Result{Path: path, Listings: listings, Err: err}
}
