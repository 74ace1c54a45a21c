/*
Copyright (C) 2025 [GrainArc]

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published
by the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package Gomerge

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
)

// footprintTask asks a pool worker for the footprint of a raster file.
type footprintTask struct {
	ctx      context.Context
	path     string
	resultCh chan FootprintResult
}

// ErrPoolShutdown is returned by submissions to a stopped FootprintPool.
var ErrPoolShutdown = errors.New("footprint pool is shut down")

// FootprintResult is the outcome of one footprint extraction.
type FootprintResult struct {
	Path string
	WKT  string
	Err  error
}

// FootprintPool extracts footprints of raster files on a fixed set of
// workers, each pinned to its own OS thread.
type FootprintPool struct {
	extractor *FootprintExtractor
	workers   int
	tasks     chan *footprintTask
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewFootprintPool starts workers (runtime.NumCPU() clamped to [2, 8] when
// workers <= 0) sharing one extractor configured by options.
func NewFootprintPool(workers int, options *FootprintOptions) *FootprintPool {
	if workers <= 0 {
		workers = min(max(runtime.NumCPU(), 2), 8)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &FootprintPool{
		extractor: NewFootprintExtractor(options),
		workers:   workers,
		tasks:     make(chan *footprintTask, workers),
		ctx:       ctx,
		cancel:    cancel,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	logger.Debug().Int("workers", workers).Msg("footprint pool started")
	return p
}

func (p *FootprintPool) worker() {
	defer p.wg.Done()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		select {
		case <-p.ctx.Done():
			return
		case task := <-p.tasks:
			task.resultCh <- p.process(task)
		}
	}
}

func (p *FootprintPool) process(task *footprintTask) FootprintResult {
	result := FootprintResult{Path: task.path}
	if err := task.ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	ds, err := OpenRasterDataset(task.path, false)
	if err != nil {
		result.Err = err
		return result
	}
	defer ds.Close()

	result.WKT, result.Err = p.extractor.GenerateFootprint(ds)
	return result
}

// Submit extracts the footprint of the raster at path and waits for it.
func (p *FootprintPool) Submit(ctx context.Context, path string) (string, error) {
	if p.ctx.Err() != nil {
		return "", ErrPoolShutdown
	}
	task := &footprintTask{ctx: ctx, path: path, resultCh: make(chan FootprintResult, 1)}

	select {
	case p.tasks <- task:
	case <-ctx.Done():
		return "", ctx.Err()
	case <-p.ctx.Done():
		return "", ErrPoolShutdown
	}

	// a task queued while Shutdown runs is never picked up
	select {
	case result := <-task.resultCh:
		return result.WKT, result.Err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-p.ctx.Done():
		return "", ErrPoolShutdown
	}
}

// Footprints extracts the footprints of all paths concurrently. The results
// keep the order of paths; the first failure is returned as error.
func (p *FootprintPool) Footprints(ctx context.Context, paths []string) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]FootprintResult, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wkt, err := p.Submit(ctx, path)
			if err != nil {
				cancel()
			}
			results[i] = FootprintResult{Path: path, WKT: wkt, Err: err}
		}()
	}
	wg.Wait()

	footprints := make([]string, len(paths))
	var firstErr error
	for i, result := range results {
		// cancellations only follow the failure that caused them
		if result.Err != nil && (firstErr == nil || errors.Is(firstErr, context.Canceled)) {
			firstErr = fmt.Errorf("footprint of %s: %w", result.Path, result.Err)
		}
		footprints[i] = result.WKT
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return footprints, nil
}

// Shutdown stops the workers after their current task.
func (p *FootprintPool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}
