package replace

import "context"

// 👀 Observer receives progress and summary events during a run. In
// parallel runs FileProcessed calls are serialized but may arrive out of
// input order.
type Observer interface {
	// RunStarted fires once before the first file is processed
	RunStarted(ctx context.Context, totalFiles int)
	// FileProcessed fires once per file outcome
	FileProcessed(ctx context.Context, outcome FileOutcome)
	// RunCompleted fires once with the finished summary
	RunCompleted(ctx context.Context, summary *RunSummary)
}

// 🔇 NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) RunStarted(context.Context, int)            {}
func (NopObserver) FileProcessed(context.Context, FileOutcome) {}
func (NopObserver) RunCompleted(context.Context, *RunSummary)  {}
