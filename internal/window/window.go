// Package window folds ordered genomic intervals into fixed-size windows
// carrying a length-weighted mean recombination rate.
package window

import (
	"errors"
	"fmt"

	"github.com/inodb/recomb-window/internal/interval"
)

// DefaultSize is the default window size in bases.
const DefaultSize int64 = 2_000_000

// ErrInvalidWindowSize is returned for a window size that is not positive.
var ErrInvalidWindowSize = errors.New("window size must be positive")

// Window is one closed window: the span [Start, End) covered by its
// intervals and their length-weighted mean rate.
type Window struct {
	Chrom    string
	Start    int64
	End      int64
	MeanRate float64
}

// Span returns End - Start.
func (w Window) Span() int64 {
	return w.End - w.Start
}

// ChromosomeWindows holds the windows of one chromosome in input order.
type ChromosomeWindows struct {
	Chrom   string
	Windows []Window
}

// InvalidWindowError reports a window whose mean cannot be computed.
type InvalidWindowError struct {
	Chrom  string
	Start  int64
	End    int64
	Reason string
}

func (e *InvalidWindowError) Error() string {
	return fmt.Sprintf("invalid window %s:%d-%d: %s", e.Chrom, e.Start, e.End, e.Reason)
}

// accumulator is the running state of the window being built.
type accumulator struct {
	chrom    string
	lowest   int64
	highest  int64
	weighted float64
	empty    bool
}

func newAccumulator(chrom string) accumulator {
	return accumulator{chrom: chrom, empty: true}
}

// add folds r into the window and returns the resulting span.
func (a *accumulator) add(r interval.Record) int64 {
	if a.empty {
		a.lowest, a.highest = r.Start, r.End
		a.empty = false
	} else {
		a.lowest = min(a.lowest, r.Start)
		a.highest = max(a.highest, r.End)
	}
	a.weighted += r.Rate * float64(r.Len())
	return a.highest - a.lowest
}

// flush closes the window and resets the accumulator.
func (a *accumulator) flush() (Window, error) {
	span := a.highest - a.lowest
	if span <= 0 {
		return Window{}, &InvalidWindowError{
			Chrom:  a.chrom,
			Start:  a.lowest,
			End:    a.highest,
			Reason: "zero-length span",
		}
	}
	w := Window{
		Chrom:    a.chrom,
		Start:    a.lowest,
		End:      a.highest,
		MeanRate: a.weighted / float64(span),
	}
	*a = newAccumulator(a.chrom)
	return w, nil
}

// AggregateChromosome folds one chromosome's records, which must be in
// non-decreasing Start order, into windows of at least size bases. Only the
// last window may be shorter. An empty input yields no windows.
func AggregateChromosome(chrom string, recs []interval.Record, size int64) ([]Window, error) {
	if size <= 0 {
		return nil, ErrInvalidWindowSize
	}

	var windows []Window
	acc := newAccumulator(chrom)

	for _, r := range recs {
		if r.End < r.Start {
			return nil, &InvalidWindowError{
				Chrom:  chrom,
				Start:  r.Start,
				End:    r.End,
				Reason: "interval end precedes start",
			}
		}
		if acc.add(r) < size {
			continue
		}
		w, err := acc.flush()
		if err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}

	if !acc.empty {
		w, err := acc.flush()
		if err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}

	return windows, nil
}

// Intervals converts windows back into interval records spanning each
// window with its mean rate.
func Intervals(ws []Window) []interval.Record {
	recs := make([]interval.Record, len(ws))
	for i, w := range ws {
		recs[i] = interval.Record{Chrom: w.Chrom, Start: w.Start, End: w.End, Rate: w.MeanRate}
	}
	return recs
}
