// internal/processor/batch.go
package processor

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"leadflow-go/internal/aggregator"
	"leadflow-go/internal/logger"
	"leadflow-go/internal/types"
)

// LeadProcessor handles one lead; *pipeline.Orchestrator implements it.
type LeadProcessor interface {
	Process(ctx context.Context, lead types.LeadRecord) types.ProcessingResult
}

// BatchResult is returned by the batch endpoints.
type BatchResult struct {
	Results    []types.ProcessingResult `json:"results"`
	Summary    aggregator.Summary       `json:"summary"`
	DurationMs int64                    `json:"duration_ms"`
}

// ProcessBatch runs independent lead runs with at most concurrency in
// flight. Results keep the order of leads.
func ProcessBatch(ctx context.Context, p LeadProcessor, leads []types.LeadRecord, concurrency int) BatchResult {
	log := logger.New().WithField("component", "batch-processor").WithField("leads", len(leads))
	start := time.Now()
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]types.ProcessingResult, len(leads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, lead := range leads {
		g.Go(func() error {
			results[i] = p.Process(gctx, lead)
			return nil
		})
	}
	_ = g.Wait()

	summary := aggregator.Summarize(results)
	log.WithField("completed", summary.Completed).
		WithField("failed", summary.Failed).
		WithField("enrolled", summary.Enrolled).
		Info("batch finished")

	return BatchResult{
		Results:    results,
		Summary:    summary,
		DurationMs: time.Since(start).Milliseconds(),
	}
}
