// Package batch fans a tool call with N logical file targets out into N
// independent operations, runs them concurrently, and merges successes and
// failures into one aggregate result. One target failing never cancels or
// affects its siblings; there is no cross-target transactionality.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"toolflow/pkg/tool"
)

// DefaultWidth bounds how many target operations run in flight at once.
const DefaultWidth = 8

// ItemResult is the outcome for one target: a success payload or an error,
// never both, never neither.
type ItemResult struct {
	Path         string
	ModelContent string
	Err          error
}

// Op executes one target and returns its model-facing payload.
type Op func(ctx context.Context, target tool.Target) (string, error)

// Executor runs batches with bounded fan-out.
type Executor struct {
	width int
}

// NewExecutor creates an executor. A non-positive width uses DefaultWidth.
func NewExecutor(width int) *Executor {
	if width <= 0 {
		width = DefaultWidth
	}
	return &Executor{width: width}
}

// Run launches op for every target, joins on full completion, and returns one
// result per input target in input order. Cancellation is cooperative: a
// target whose turn comes after the context is done reports a cancellation
// error instead of running.
func (e *Executor) Run(ctx context.Context, targets []tool.Target, op Op) []ItemResult {
	results := make([]ItemResult, len(targets))

	batchID := uuid.New().String()
	start := time.Now()
	sem := make(chan struct{}, e.width)
	var wg sync.WaitGroup

	for i, target := range targets {
		wg.Add(1)
		go func(index int, target tool.Target) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				results[index] = ItemResult{
					Path: target.Path,
					Err:  fmt.Errorf("%w: %v", tool.ErrCancelled, ctx.Err()),
				}
				return
			}

			content, err := op(ctx, target)
			if err != nil {
				results[index] = ItemResult{Path: target.Path, Err: err}
				return
			}
			results[index] = ItemResult{Path: target.Path, ModelContent: content}
		}(i, target)
	}

	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}

	log.Debug().
		Str("batch_id", batchID).
		Int("targets", len(targets)).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Batch execution completed")

	return results
}
