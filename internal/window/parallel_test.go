package window

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeItems(n int) <-chan WorkItem {
	ch := make(chan WorkItem, n)
	for i := range n {
		chrom := fmt.Sprintf("chr%d", i)
		ch <- WorkItem{
			Seq:     i,
			Chrom:   chrom,
			Records: genRecords(chrom, 20),
		}
	}
	close(ch)
	return ch
}

func TestParallelAggregate_OrderPreservation(t *testing.T) {
	results := ParallelAggregate(makeItems(200), 500, 8)

	var collected []int
	err := OrderedCollect(results, func(r WorkResult) error {
		require.NoError(t, r.Err)
		assert.Equal(t, fmt.Sprintf("chr%d", r.Seq), r.Chrom)
		collected = append(collected, r.Seq)
		return nil
	})
	require.NoError(t, err)

	assert.Len(t, collected, 200)
	for i, seq := range collected {
		assert.Equal(t, i, seq, "result %d out of order", i)
	}
}

func TestParallelAggregate_SingleWorker(t *testing.T) {
	results := ParallelAggregate(makeItems(50), 500, 1)

	count := 0
	err := OrderedCollect(results, func(r WorkResult) error {
		assert.Equal(t, count, r.Seq)
		assert.NotEmpty(t, r.Windows)
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 50, count)
}

func TestOrderedCollect_StopsOnError(t *testing.T) {
	results := ParallelAggregate(makeItems(100), 500, 4)

	stop := errors.New("stop")
	count := 0
	err := OrderedCollect(results, func(r WorkResult) error {
		count++
		if r.Seq == 10 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 11, count)
}

func TestParallelAggregate_Empty(t *testing.T) {
	ch := make(chan WorkItem)
	close(ch)

	results := ParallelAggregate(ch, 500, 0)
	err := OrderedCollect(results, func(WorkResult) error {
		t.Fatal("unexpected result")
		return nil
	})
	require.NoError(t, err)
}
