package replace

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/stringle-dev/stringle/pkg/rules"
)

// 🔧 Options configures a run coordinator.
type Options struct {
	// Transformer processes individual files; a zero-value transformer
	// is used when nil
	Transformer *Transformer
	// Observer receives progress events; defaults to NopObserver
	Observer Observer
	// Workers is the number of files processed concurrently; values
	// below 2 mean serial processing
	Workers int
}

// 🏃 Coordinator drives the per-file transformer over a candidate list
// and aggregates outcomes into a run summary.
type Coordinator struct {
	transformer *Transformer
	observer    Observer
	workers     int
}

// 🏭 New creates a coordinator, applying defaults for omitted options.
func New(opts Options) *Coordinator {
	if opts.Transformer == nil {
		opts.Transformer = &Transformer{}
	}
	if opts.Observer == nil {
		opts.Observer = NopObserver{}
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Coordinator{
		transformer: opts.Transformer,
		observer:    opts.Observer,
		workers:     opts.Workers,
	}
}

// 🏃 Run processes every candidate file in the order given, without
// reordering or de-duplication, and returns the aggregate summary. One
// file's failure never aborts the run.
func (c *Coordinator) Run(ctx context.Context, files []string, rs *rules.RuleSet) *RunSummary {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Int("files", len(files)).
		Int("rules", rs.Len()).
		Int("workers", c.workers).
		Msg("starting run")

	c.observer.RunStarted(ctx, len(files))

	var outcomes []FileOutcome
	if c.workers > 1 {
		outcomes = c.runParallel(ctx, files, rs)
	} else {
		outcomes = make([]FileOutcome, 0, len(files))
		for _, path := range files {
			outcome := c.transformer.Process(ctx, path, rs)
			c.observer.FileProcessed(ctx, outcome)
			outcomes = append(outcomes, outcome)
		}
	}

	summary := NewRunSummary()
	for _, outcome := range outcomes {
		summary.Add(outcome)
	}

	c.observer.RunCompleted(ctx, summary)
	logger.Info().
		Int("processed", summary.FilesProcessed).
		Int("modified", summary.FilesModified).
		Int("replacements", summary.TotalReplacements).
		Int("errors", len(summary.Errors)).
		Msg("run complete")
	return summary
}

// runParallel fans files out to a worker pool. Outcomes land in a
// per-index slice and are merged afterward, so the summary lists match
// a serial run exactly; only observer notification order varies.
func (c *Coordinator) runParallel(ctx context.Context, files []string, rs *rules.RuleSet) []FileOutcome {
	outcomes := make([]FileOutcome, len(files))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			outcome := c.transformer.Process(gctx, path, rs)
			outcomes[i] = outcome

			mu.Lock()
			c.observer.FileProcessed(gctx, outcome)
			mu.Unlock()
			return nil
		})
	}
	// Workers only report outcomes, they never return errors.
	_ = g.Wait()
	return outcomes
}
