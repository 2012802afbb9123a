package window

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/recomb-window/internal/interval"
)

// Aggregator turns a chromosome set into ordered windows.
type Aggregator struct {
	size    int64
	workers int
	logger  *zap.Logger
}

// NewAggregator creates an aggregator for the given window size.
func NewAggregator(size int64) (*Aggregator, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWindowSize, size)
	}
	return &Aggregator{
		size:   size,
		logger: zap.NewNop(),
	}, nil
}

// Size returns the configured window size.
func (a *Aggregator) Size() int64 {
	return a.size
}

// SetWorkers sets how many chromosomes are aggregated concurrently.
// Zero or less means runtime.NumCPU().
func (a *Aggregator) SetWorkers(n int) {
	a.workers = n
}

// SetLogger sets the logger for progress messages.
func (a *Aggregator) SetLogger(l *zap.Logger) {
	a.logger = l
}

// AggregateChromosome aggregates a single chromosome with the configured size.
func (a *Aggregator) AggregateChromosome(chrom string, recs []interval.Record) ([]Window, error) {
	return AggregateChromosome(chrom, recs, a.size)
}

// Aggregate aggregates every chromosome in set. Chromosomes are returned in
// lexicographic order; chromosomes without records are omitted. The first
// error stops the run.
func (a *Aggregator) Aggregate(ctx context.Context, set interval.Set) ([]ChromosomeWindows, error) {
	names := set.Names()
	items := make(chan WorkItem, len(names))

	go func() {
		defer close(items)
		for seq, name := range names {
			select {
			case <-ctx.Done():
				return
			case items <- WorkItem{Seq: seq, Chrom: name, Records: set[name]}:
			}
		}
	}()

	results := ParallelAggregate(items, a.size, a.workers)

	var out []ChromosomeWindows
	err := OrderedCollect(results, func(r WorkResult) error {
		if r.Err != nil {
			return fmt.Errorf("aggregate %s: %w", r.Chrom, r.Err)
		}
		if len(r.Windows) == 0 {
			return nil
		}
		a.logger.Debug("aggregated chromosome",
			zap.String("chrom", r.Chrom),
			zap.Int("intervals", len(set[r.Chrom])),
			zap.Int("windows", len(r.Windows)))
		out = append(out, ChromosomeWindows{Chrom: r.Chrom, Windows: r.Windows})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
