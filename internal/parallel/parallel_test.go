package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExecuteCoversRange(t *testing.T) {
	for _, n := range []int{0, 1, 7, 64, 4096} {
		hits := make([]int32, n)
		Execute(n, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i := 0; i < n; i++ {
			require.EqualValues(t, 1, hits[i], "index %d visited %d times", i, hits[i])
		}
	}
}

func TestExecuteSingleCPU(t *testing.T) {
	var count int
	Execute(100, func(start, end int) {
		count += end - start
	}, 1)
	require.Equal(t, 100, count)
}
