package infra

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompareInteger(t *testing.T) {
	testcases := []struct {
		name string
		i, j int64
		want int64
	}{
		{"equal", 7, 7, 0},
		{"less", -3, 2, -1},
		{"greater", 10, 2, 1},
		{"min vs max", math.MinInt64, math.MaxInt64, -1},
		{"max vs min", math.MaxInt64, math.MinInt64, 1},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			require.Equal(tt, tc.want, CompareInteger[int64](tc.i, tc.j))
		})
	}
	var cmp IntegerComparator[uint8] = CompareInteger[uint8]
	require.Equal(t, int64(1), cmp(255, 0))
}
